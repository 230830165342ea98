package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/storefront/internal/core/events"
	"github.com/frahmantamala/storefront/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish test events and list the event types emitted by the session services`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a test event to the in-process bus for testing and debugging`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(cmd.Context(), args[0])
	},
}

var listEventsCmd = &cobra.Command{
	Use:   "list",
	Short: "List auth event types",
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range events.AllAuthEventTypes() {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
	},
}

var (
	eventData   string
	eventUserID string
)

func publishTestEvent(ctx context.Context, eventType string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lg := logger.LoggerWrapper()
	eventBus := events.NewEventBus(lg)

	eventBus.SubscribeUserEvent(eventType, func(ctx context.Context, event *events.UserEvent) error {
		lg.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"user_id", event.UserID,
			"payload", event.Payload())
		return nil
	})

	event := events.NewUserEvent(eventType, eventUserID, map[string]interface{}{
		"message": eventData,
		"source":  "cli-command",
	})

	lg.Info("publishing test event", "event_type", eventType, "event_id", event.EventID())
	if err := eventBus.PublishSync(ctx, event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	lg.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")
	publishEventCmd.Flags().StringVar(&eventUserID, "user", "cli", "User id carried by the event")

	eventCmd.AddCommand(publishEventCmd)
	eventCmd.AddCommand(listEventsCmd)
}
