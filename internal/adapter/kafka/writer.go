package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/fire-index-etl/internal/config"
	"github.com/couchcryptid/fire-index-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer announces written composites on a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes one ProductNotice per product in a single
// WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(products))
	for i := range products {
		msg, err := serializeToMessage(products[i].Notice())
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish notices: %w", err)
	}
	w.logger.Debug("notices published", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ProductNotice into a Kafka message keyed
// by scene ID.
func serializeToMessage(n domain.ProductNotice) (kafkago.Message, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize product notice: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(n.SceneID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "mode", Value: []byte(n.Mode)},
			{Key: "produced_at", Value: []byte(n.ProducedAt.Format(time.RFC3339))},
		},
	}, nil
}
