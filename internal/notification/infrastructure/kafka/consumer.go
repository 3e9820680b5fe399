package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront/pkg/outbox"
	"github.com/dmehra2102/storefront/pkg/tracing"
)

type Handler interface {
	Handle(ctx context.Context, key, eventType string, payload []byte) error
}

// Deduper is satisfied by *idempotency.Store.
type Deduper interface {
	EventKey(eventID string) string
	MessageKey(topic string, partition int, offset int64) string
	Seen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

type Consumer struct {
	log     *slog.Logger
	reader  *kafka.Reader
	handler Handler
	idem    Deduper
	tracer  trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group string, handler Handler, idem Deduper) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     group,
		StartOffset: kafka.FirstOffset,
	})
	return &Consumer{
		log:     log,
		reader:  r,
		handler: handler,
		idem:    idem,
		tracer:  otel.Tracer("notification-consumer"),
	}
}

// Run consumes until ctx is cancelled. A handler failure stops the consumer
// without committing, so the message is delivered again after a restart.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := c.Process(ctx, msg); err != nil {
			return err
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error("commit failed", "offset", msg.Offset, "err", err)
		}
	}
}

// key prefers the outbox event id, so one event published twice is still
// handled once.
func (c *Consumer) key(msg kafka.Message) string {
	if id := tracing.HeaderValue(msg.Headers, outbox.HeaderEventID); id != "" {
		return c.idem.EventKey(id)
	}
	return c.idem.MessageKey(msg.Topic, msg.Partition, msg.Offset)
}

// Process handles one message. Duplicates and payloads that can never be
// handled are logged and skipped.
func (c *Consumer) Process(ctx context.Context, msg kafka.Message) error {
	key := c.key(msg)
	seen, err := c.idem.Seen(ctx, key)
	if err != nil {
		return err
	}
	if seen {
		c.log.Info("duplicate message skipped", "key", key)
		return nil
	}

	eventType := tracing.HeaderValue(msg.Headers, outbox.HeaderEventType)
	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "Consume"+eventType, trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.kafka.message.key", string(msg.Key)),
		attribute.Int64("messaging.kafka.offset", msg.Offset),
	)

	err = c.handler.Handle(msgCtx, key, eventType, msg.Value)
	if err == nil {
		return nil
	}
	span.RecordError(err)

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		c.log.ErrorContext(msgCtx, "undecodable event skipped", "key", key, "type", eventType, "err", err)
		return nil
	}
	if fErr := c.idem.Forget(ctx, key); fErr != nil {
		c.log.ErrorContext(msgCtx, "idempotency forget failed", "key", key, "err", fErr)
	}
	c.log.ErrorContext(msgCtx, "event handling failed", "key", key, "type", eventType, "err", err)
	return err
}
