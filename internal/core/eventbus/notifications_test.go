package eventbus_test

import (
	"testing"
	"time"

	"github.com/colonyops/cadence/internal/core/eventbus"
	"github.com/colonyops/cadence/internal/core/eventbus/testbus"
	"github.com/colonyops/cadence/internal/core/identity"
	"github.com/colonyops/cadence/internal/core/notify"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func latestNotificationPayload(tb *testbus.Bus, t *testing.T) eventbus.NotificationPublishedPayload {
	t.Helper()
	tb.AssertPublished(t, eventbus.EventNotificationPublished)

	var payload eventbus.NotificationPublishedPayload
	for _, e := range tb.Events() {
		if e.Event != eventbus.EventNotificationPublished {
			continue
		}
		p, ok := e.Payload.(eventbus.NotificationPublishedPayload)
		require.True(t, ok)
		payload = p
	}

	return payload
}

func TestNotificationRouter_IdentityChanged(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewNotificationRouter(tb.EventBus).Register()

	tb.PublishIdentityChanged(eventbus.IdentityChangedPayload{
		Identity: identity.Identity{Mode: identity.ModeSignedIn, UserID: "u-42"},
	})
	p := latestNotificationPayload(tb, t)

	assert.Equal(t, notify.LevelSuccess, p.Level)
	assert.Contains(t, p.Message, "u-42")
}

func TestNotificationRouter_RegionDeleted(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewNotificationRouter(tb.EventBus).Register()

	tb.PublishRegionDeleted(eventbus.RegionDeletedPayload{
		Topic:   "Arrays",
		Pattern: "Hashing",
		IDs:     []string{"a", "b"},
	})
	p := latestNotificationPayload(tb, t)

	assert.Equal(t, notify.LevelInfo, p.Level)
	assert.Equal(t, "deleted 2 problems from Arrays / Hashing", p.Message)
}

func TestNotificationRouter_ReminderWithNothingDue(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewNotificationRouter(tb.EventBus).Register()

	tb.PublishReminderFired(eventbus.ReminderFiredPayload{Due: 0})
	tb.AssertPublished(t, eventbus.EventReminderFired)
	tb.AssertNotPublished(t, eventbus.EventNotificationPublished, 50*time.Millisecond)
}

func TestForwardNotifications(t *testing.T) {
	tb := testbus.New(t)
	rec := &notify.Recorder{}
	eventbus.ForwardNotifications(tb.EventBus, rec, zerolog.Nop())

	tb.PublishNotificationPublished(eventbus.NotificationPublishedPayload{
		Level:   notify.LevelError,
		Message: "save failed",
	})

	require.Eventually(t, func() bool { return len(rec.All()) == 1 }, time.Second, 5*time.Millisecond)
	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "save failed", last.Message)
}
