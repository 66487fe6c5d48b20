package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"

	platformkafka "github.com/dmehra2102/restaurant-chatbot/internal/platform/kafka"
)

type eventsOptions struct {
	Brokers string
	Topic   string
	Group   string
}

func NewEventsCommand(_ *RootOptions) *cobra.Command {
	opts := &eventsOptions{}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Tail order and payment events relayed to Kafka",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			brokers := platformkafka.ParseBrokers(opts.Brokers)
			if len(brokers) == 0 {
				return fmt.Errorf("--brokers is required")
			}
			log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
			out := cmd.OutOrStdout()
			c := platformkafka.NewConsumer(log, brokers, opts.Topic, opts.Group, func(_ context.Context, msg kafka.Message) error {
				printEvent(out, msg)
				return nil
			})
			return c.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&opts.Brokers, "brokers", envOr("KAFKA_ADDR", "localhost:9092"), "comma separated Kafka brokers")
	cmd.Flags().StringVar(&opts.Topic, "topic", envOr("OUTBOX_TOPIC", "chat.events"), "event topic")
	cmd.Flags().StringVar(&opts.Group, "group", "chatctl", "consumer group")

	return cmd
}

func printEvent(w io.Writer, msg kafka.Message) {
	fmt.Fprintf(w, "%s %s %s/%s %s\n",
		msg.Time.UTC().Format("2006-01-02T15:04:05Z"),
		platformkafka.HeaderValue(msg.Headers, "event_type"),
		platformkafka.HeaderValue(msg.Headers, "aggregate_type"),
		msg.Key,
		msg.Value,
	)
}
