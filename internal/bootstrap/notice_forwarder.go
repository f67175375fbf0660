package bootstrap

import (
	"context"
	"strings"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/websocket"
	"ai-tutor-be/pkg/events"
	pkgNats "ai-tutor-be/pkg/nats"

	"github.com/google/uuid"
)

// startNoticeForwarder bridges the NATS event bus to the websocket hub:
// any lifecycle event carrying a user_id becomes a push notice for that
// user's connected devices.
func startNoticeForwarder(sub *pkgNats.Subscriber, hub *websocket.Hub, log logger.ILogger) {
	err := sub.Subscribe("events.>", "notice-forwarder", func(ctx context.Context, event events.Event) error {
		payload := event.Payload()

		rawUserId, ok := payload["user_id"].(string)
		if !ok {
			// Events without a user target are not pushed to clients.
			return nil
		}
		userId, err := uuid.Parse(rawUserId)
		if err != nil {
			return nil
		}

		// The subscriber reports the full subject; clients only care about
		// the event code after the "events." prefix.
		hub.Send(userId, websocket.Notice{
			EventType: strings.TrimPrefix(event.EventType(), "events."),
			Data:      payload,
		})
		return nil
	})
	if err != nil {
		log.Warn("bootstrap", "failed to start notice forwarder", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
