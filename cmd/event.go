package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/gearguard/internal/core/events"
	"github.com/frahmantamala/gearguard/internal/revalidation"
	"github.com/frahmantamala/gearguard/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish request events to force board and calendar revalidation`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a request event",
	Long: `Publish a request event through the revalidation notifier. With redis
enabled every running server relays the invalidation to its websocket clients.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishEvent(cmd.Context(), args[0])
	},
}

var eventData string

// logSink stands in for the websocket hub when there is no redis to reach
// running servers.
type logSink struct {
	logger *slog.Logger
}

func (s logSink) Broadcast(messageType string, payload interface{}) error {
	s.logger.Info("local invalidation", "type", messageType, "payload", payload)
	return nil
}

func publishEvent(ctx context.Context, eventType string) error {
	if !slices.Contains(events.RequestEventTypes, eventType) {
		return fmt.Errorf("unknown event type %q, expected one of %s", eventType, strings.Join(events.RequestEventTypes, ", "))
	}

	cfg, err := loadConfig(".")
	if err != nil {
		return err
	}
	lg := logger.LoggerWrapper()

	var notifier *revalidation.Notifier
	if cfg.Redis.Enabled {
		rdb, err := initRedis(cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		notifier = revalidation.NewNotifier(
			revalidation.NewRedisStore(rdb, ""),
			revalidation.NewRedisFanout(rdb, cfg.Redis.Channel, lg),
			lg,
		)
	} else {
		lg.Warn("redis disabled; the invalidation stays in this process")
		notifier = revalidation.NewNotifier(revalidation.NewMemoryStore(), revalidation.NewLocalFanout(logSink{lg}), lg)
	}

	eventBus := events.NewEventBus(lg)
	notifier.Register(eventBus)

	ev := events.BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"message": eventData,
			"source":  "cli-command",
		},
	}

	lg.Info("publishing event", "event_type", eventType, "event_id", ev.ID)
	if err := eventBus.Publish(ctx, ev); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	eventBus.Wait()

	versions, err := notifier.Versions(ctx)
	if err != nil {
		return err
	}
	lg.Info("event published", "event_id", ev.ID, "versions", versions)
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "manual revalidation", "Event data message")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
