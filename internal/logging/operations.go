package logging

import "log/slog"

// OperationLog is the operation-log collaborator of the shop engine. It is
// best-effort: a failing sink never reaches the caller.
type OperationLog struct {
	logger *slog.Logger
}

// NewOperationLog wraps a structured logger as an operation log.
func NewOperationLog(logger *slog.Logger) *OperationLog {
	return &OperationLog{logger: logger}
}

// WriteLog records one entry of the raw request/response trail.
func (l *OperationLog) WriteLog(operation, info string) {
	l.logger.Info(info, "operation", operation)
}
