package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avagut/dynamic-user-menus/internal/core/events"
	"github.com/avagut/dynamic-user-menus/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus commands",
	Long:  `Inspect the in-process event bus by publishing sample lifecycle events`,
}

// knownEventTypes are the lifecycle events the notification dispatcher
// subscribes to. The publish command accepts any type, but these are the
// ones with real handlers in the server.
var knownEventTypes = []string{
	events.EventTypeUserCreated,
	events.EventTypeConfirmationResent,
	events.EventTypePasswordResetRequested,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a sample user lifecycle event",
	Long: `Publish a sample event to the event bus with a throwaway subscriber,
useful for checking payload shapes without a running server.

Known event types:
  ` + strings.Join(knownEventTypes, "\n  "),
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		eventType := events.EventTypeUserCreated
		if len(args) > 0 {
			eventType = args[0]
		}
		publishSampleEvent(eventType)
	},
}

var (
	sampleUserName string
	sampleEmail    string
)

func publishSampleEvent(eventType string) {
	lg := logger.LoggerWrapper()

	known := false
	for _, t := range knownEventTypes {
		if t == eventType {
			known = true
			break
		}
	}
	if !known {
		lg.Warn("event type has no server-side handler", "event_type", eventType)
	}

	bus := events.NewEventBus(lg)
	bus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		lg.Info("sample handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	sample := events.BaseEvent{
		ID:        fmt.Sprintf("sample-%d", time.Now().Unix()),
		Type:      eventType,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"user_id":   int64(0),
			"user_name": sampleUserName,
			"email":     sampleEmail,
		},
	}

	lg.Info("publishing sample event", "event_type", eventType, "event_id", sample.ID)

	if err := bus.Publish(context.Background(), sample); err != nil {
		lg.Error("failed to publish event", "error", err)
		return
	}

	// Publish dispatches asynchronously; give the handler a moment.
	time.Sleep(100 * time.Millisecond)
	lg.Info("sample event published")
}

func init() {
	publishEventCmd.Flags().StringVar(&sampleUserName, "user-name", "sample.user", "User name for the sample payload")
	publishEventCmd.Flags().StringVar(&sampleEmail, "email", "sample.user@example.com", "Email address for the sample payload")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
