package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Handler processes one message. Its error is logged and the message is still committed.
type Handler func(ctx context.Context, msg kafka.Message) error

type Consumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	handle Handler
	tracer trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group string, handle Handler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{
		log:    log,
		reader: r,
		handle: handle,
		tracer: otel.Tracer("event-consumer"),
	}
}

// Run consumes until ctx is done.
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

		msgCtx := otel.GetTextMapPropagator().Extract(ctx, HeaderCarrier(msg.Headers))
		msgCtx, span := c.tracer.Start(msgCtx, "Consume "+HeaderValue(msg.Headers, "event_type"))
		if err := c.handle(msgCtx, msg); err != nil {
			span.RecordError(err)
			c.log.Error("handle message failed", "topic", msg.Topic, "offset", msg.Offset, "err", err)
		}
		span.End()

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.log.Error("commit failed", "offset", msg.Offset, "err", err)
		}
	}
}

func HeaderValue(h []kafka.Header, key string) string {
	for _, hh := range h {
		if hh.Key == key {
			return string(hh.Value)
		}
	}
	return ""
}

// HeaderCarrier adapts message headers to the otel propagation carrier.
type HeaderCarrier []kafka.Header

func (c HeaderCarrier) Get(key string) string { return HeaderValue(c, key) }

func (c HeaderCarrier) Set(string, string) {}

func (c HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for _, h := range c {
		keys = append(keys, h.Key)
	}
	return keys
}
