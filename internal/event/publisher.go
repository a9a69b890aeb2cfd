// Package event publishes normalized payment status changes to the
// merchant's event stream.
package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

var (
	publishSuccessCounter = metrics.GetOrCreateCounter(`status_change_publish_total{result="success"}`)
	publishErrorCounter   = metrics.GetOrCreateCounter(`status_change_publish_total{result="error"}`)
)

// StatusChange is one normalized confirmation outcome.
type StatusChange struct {
	ID                uuid.UUID `json:"id"`
	TID               string    `json:"tid"`
	MPayTID           string    `json:"mpaytid,omitempty"`
	Status            string    `json:"status"`
	Price             string    `json:"price,omitempty"`
	Currency          string    `json:"currency,omitempty"`
	ShippingConfirmed bool      `json:"shippingConfirmed"`
	OccurredAt        time.Time `json:"occurredAt"`
}

// Publisher writes status-change events to Kafka, keyed by tid so events
// for one transaction stay ordered.
type Publisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewPublisher creates a publisher over an existing writer.
func NewPublisher(writer *kafka.Writer, logger *slog.Logger) *Publisher {
	return &Publisher{writer: writer, logger: logger}
}

// PublishStatusChange emits one event. An empty ID is assigned here.
func (p *Publisher) PublishStatusChange(ctx context.Context, change StatusChange) error {
	if change.ID == uuid.Nil {
		change.ID = uuid.New()
	}

	msg, err := toMessage(change)
	if err != nil {
		publishErrorCounter.Inc()
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		publishErrorCounter.Inc()
		p.logger.ErrorContext(ctx, "Error writing status change", "tid", change.TID, "error", err)
		return err
	}

	publishSuccessCounter.Inc()
	p.logger.InfoContext(ctx, "Published status change", "tid", change.TID, "status", change.Status)
	return nil
}

// toMessage keys the event by tid to keep per-transaction ordering.
func toMessage(change StatusChange) (kafka.Message, error) {
	value, err := json.Marshal(change)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(change.TID),
		Value: value,
	}, nil
}
