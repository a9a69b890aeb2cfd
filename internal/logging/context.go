package logging

import (
	"context"
	"log/slog"
)

type ctxKey string

const slogFields ctxKey = "slog_fields"

// ContextHandler lifts attributes stored in the context onto every record.
type ContextHandler struct {
	slog.Handler
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(slogFields).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithGroup(name)}
}

// AppendCtx attaches attributes to the context so they appear on every log
// record emitted within that scope.
func AppendCtx(parent context.Context, attrs ...slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	if existing, ok := parent.Value(slogFields).([]slog.Attr); ok {
		merged := make([]slog.Attr, 0, len(existing)+len(attrs))
		merged = append(merged, existing...)
		merged = append(merged, attrs...)
		return context.WithValue(parent, slogFields, merged)
	}
	return context.WithValue(parent, slogFields, attrs)
}
