// Package kafka publishes alert-eligible composite reports to the alert topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/domain"
)

// Publisher produces alert messages to a Kafka topic.
// It implements monitor.AlertPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the alert topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishAlert serializes and publishes one composite report. The caller
// decides eligibility; this adapter only moves bytes.
func (p *Publisher) PublishAlert(ctx context.Context, aoiID string, report domain.CompositeReport) error {
	msg, err := serializeToMessage(aoiID, report)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a composite report into a Kafka message keyed
// by report ID, with routing metadata in headers so consumers can filter
// without decoding the payload.
func serializeToMessage(aoiID string, report domain.CompositeReport) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize composite report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "aoi_id", Value: []byte(aoiID)},
			{Key: "highest_severity", Value: []byte(report.HighestSeverity)},
			{Key: "generated_at", Value: []byte(report.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
