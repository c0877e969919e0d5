package eventbus

import (
	"context"
	"fmt"

	"github.com/colonyops/cadence/internal/core/identity"
	"github.com/colonyops/cadence/internal/core/notify"
	"github.com/rs/zerolog"
)

// NotificationRouter maps domain events to user-facing notifications.
type NotificationRouter struct {
	bus *EventBus
}

// NewNotificationRouter constructs a router for event-to-notification mappings.
func NewNotificationRouter(bus *EventBus) *NotificationRouter {
	return &NotificationRouter{bus: bus}
}

// Register subscribes all supported event mappings.
func (r *NotificationRouter) Register() {
	if r == nil || r.bus == nil {
		return
	}

	r.bus.SubscribeIdentityChanged(func(p IdentityChangedPayload) {
		if p.Identity.Mode == identity.ModeLocal {
			r.notifyf(notify.LevelInfo, "using local progress")
			return
		}
		r.notifyf(notify.LevelSuccess, "signed in as %s", p.Identity.UserID)
	})

	r.bus.SubscribeRegionDeleted(func(p RegionDeletedPayload) {
		region := p.Topic
		if p.Pattern != "" {
			region = p.Topic + " / " + p.Pattern
		}
		r.notifyf(notify.LevelInfo, "deleted %d problems from %s", len(p.IDs), region)
	})

	r.bus.SubscribeProgressReset(func(p ProgressResetPayload) {
		r.notifyf(notify.LevelInfo, "progress reset for %d problems", p.Items)
	})

	r.bus.SubscribeReminderFired(func(p ReminderFiredPayload) {
		if p.Due == 0 {
			return
		}
		r.notifyf(notify.LevelInfo, "%d problems due for review", p.Due)
	})
}

func (r *NotificationRouter) notifyf(level notify.Level, format string, args ...any) {
	r.bus.PublishNotificationPublished(NotificationPublishedPayload{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}

// ForwardNotifications delivers every published notification to n. Delivery
// failures are logged and otherwise ignored.
func ForwardNotifications(bus *EventBus, n notify.Notifier, logger zerolog.Logger) {
	bus.SubscribeNotificationPublished(func(p NotificationPublishedPayload) {
		err := n.Notify(context.Background(), notify.Notification{
			Level:   p.Level,
			Message: p.Message,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("failed to deliver notification")
		}
	})
}
