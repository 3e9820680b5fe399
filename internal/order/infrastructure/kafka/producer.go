package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Writer publishes order events. The topic comes from each message, so one
// writer serves every topic the outbox relay dispatches to.
type Writer struct {
	log *slog.Logger
	w   *kafka.Writer
}

func NewWriter(log *slog.Logger, brokers []string) *Writer {
	return &Writer{
		log: log,
		w: &kafka.Writer{
			Addr: kafka.TCP(brokers...),
			// Events of one order share a key and so a partition.
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			BatchTimeout:           50 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

func (w *Writer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if err := w.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	stats := w.w.Stats()
	w.log.Info("kafka writer closing", "messages", stats.Messages, "errors", stats.Errors)
	return w.w.Close()
}
