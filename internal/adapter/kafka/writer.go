package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/soundscape-data/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes dataset-loaded notifications to a Kafka topic.
// It implements domain.LoadNotifier.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the notification topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// NotifyLoaded publishes one LoadEvent. Events for the same partition share a
// message key so they land on the same Kafka partition in order.
func (w *Writer) NotifyLoaded(ctx context.Context, event domain.LoadEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish load event: %w", err)
	}
	w.logger.Debug("load notification published",
		"event_id", event.ID,
		"resolution", event.Resolution,
		"partition", event.Partition,
	)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a LoadEvent into a Kafka message.
func serializeToMessage(event domain.LoadEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize load event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Partition),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "resolution", Value: []byte(event.Resolution)},
			{Key: "outcome", Value: []byte(event.Outcome())},
			{Key: "loaded_at", Value: []byte(event.LoadedAt.Format(time.RFC3339))},
		},
	}, nil
}
