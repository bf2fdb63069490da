package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/botswana-harvard/edc-configuration/internal/events"
	"github.com/botswana-harvard/edc-configuration/internal/ui"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print configuration events as they are published",
	Long: `Print configuration events as they are published.

Requires EDC_NATS_URL. --topic narrows the subscription, for example to
edc.configuration.prepared.`,
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL := os.Getenv("EDC_NATS_URL")
		if natsURL == "" {
			return fmt.Errorf("EDC_NATS_URL is required to watch events")
		}
		topic, _ := cmd.Flags().GetString("topic")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return watchNATS(ctx, natsURL, topic, cmd.OutOrStdout())
	},
}

func watchNATS(ctx context.Context, natsURL, topic string, w io.Writer) error {
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats: disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats: reconnected")
		}),
	)
	if err != nil {
		return err
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(topic)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := printEvent(w, msg, time.Now()); err != nil {
				return err
			}
		}
	}
}

// printEvent writes one event, stamped with its publish time when the
// publisher recorded one and with received otherwise. With --json the payload
// is printed as a single line so the output can be piped.
func printEvent(w io.Writer, msg events.Message, received time.Time) error {
	at := received
	if !msg.PublishedAt.IsZero() {
		at = msg.PublishedAt.In(received.Location())
	}
	if jsonOutput {
		_, err := fmt.Fprintf(w, "{\"topic\":%q,\"data\":%s}\n", msg.Topic, compactJSON(msg.Data))
		return err
	}
	_, err := fmt.Fprintf(w, "%s %s %s\n", ui.RenderMuted(at.Format("15:04:05")), ui.RenderAccent(msg.Topic), compactJSON(msg.Data))
	return err
}

func compactJSON(data []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return fmt.Sprintf("%q", data)
	}
	return buf.String()
}

func init() {
	watchCmd.Flags().String("topic", events.TopicAll, "subject to subscribe to (NATS wildcards allowed)")
}
