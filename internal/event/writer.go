package event

import (
	"time"

	"github.com/segmentio/kafka-go"

	"payment-gateway/internal/config"
)

const (
	defaultBatchSize      = 100
	defaultBatchTimeoutMs = 100
)

// NewWriter creates the Kafka writer for the status-change topic.
func NewWriter(cfg config.Kafka) *kafka.Writer {
	batchSize := cfg.Writer.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	batchTimeout := cfg.Writer.BatchTimeoutMs
	if batchTimeout <= 0 {
		batchTimeout = defaultBatchTimeoutMs
	}

	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Broker.URL),
		Topic:                  cfg.Topic.StatusChanges,
		Balancer:               &kafka.ReferenceHash{},
		BatchSize:              batchSize,
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           time.Duration(batchTimeout) * time.Millisecond,
		Async:                  false,
		AllowAutoTopicCreation: false,
	}
}
