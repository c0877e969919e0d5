// Package eventbus provides a typed publish/subscribe event bus that carries
// progress changes from the sync engine to views and background workers.
package eventbus

import (
	"github.com/colonyops/cadence/internal/core/identity"
	"github.com/colonyops/cadence/internal/core/notify"
	"github.com/colonyops/cadence/internal/core/progress"
)

// Keep list sorted A-Z.
const (
	EventIdentityChanged       Event = "identity.changed"
	EventItemChanged           Event = "item.changed"
	EventItemDeleted           Event = "item.deleted"
	EventMutationFailed        Event = "mutation.failed"
	EventNotificationPublished Event = "notification.published"
	EventProgressLoaded        Event = "progress.loaded"
	EventProgressReset         Event = "progress.reset"
	EventRegionDeleted         Event = "region.deleted"
	EventReminderFired         Event = "reminder.fired"
)

// IdentityChangedPayload is emitted after the engine switches identity.
type IdentityChangedPayload struct {
	Identity identity.Identity
}

// ItemChangedPayload is emitted after a single-item mutation is persisted.
type ItemChangedPayload struct {
	Action string
	Item   progress.Item
}

// ItemDeletedPayload is emitted after a deletion is persisted.
type ItemDeletedPayload struct {
	ID string
}

// MutationFailedPayload is emitted after a failed save was rolled back.
type MutationFailedPayload struct {
	Action string
	IDs    []string
	Err    error
}

// NotificationPublishedPayload carries a user-facing notification.
type NotificationPublishedPayload struct {
	Level   notify.Level
	Message string
}

// ProgressLoadedPayload is emitted after a session load.
type ProgressLoadedPayload struct {
	Adapter string
	Items   int
	Created int
}

// ProgressResetPayload is emitted after a full reset is persisted.
type ProgressResetPayload struct {
	Items int
}

// RegionDeletedPayload is emitted after a topic or pattern bulk delete.
type RegionDeletedPayload struct {
	Topic   string
	Pattern string
	IDs     []string
}

// ReminderFiredPayload is emitted by the due-review reminder.
type ReminderFiredPayload struct {
	Due int
}

func (bus *EventBus) PublishIdentityChanged(p IdentityChangedPayload) {
	bus.send(EventIdentityChanged, p)
}

func (bus *EventBus) SubscribeIdentityChanged(fn func(IdentityChangedPayload)) {
	bus.subscribe(EventIdentityChanged, func(p any) { fn(p.(IdentityChangedPayload)) })
}

func (bus *EventBus) PublishItemChanged(p ItemChangedPayload) {
	bus.send(EventItemChanged, p)
}

func (bus *EventBus) SubscribeItemChanged(fn func(ItemChangedPayload)) {
	bus.subscribe(EventItemChanged, func(p any) { fn(p.(ItemChangedPayload)) })
}

func (bus *EventBus) PublishItemDeleted(p ItemDeletedPayload) {
	bus.send(EventItemDeleted, p)
}

func (bus *EventBus) SubscribeItemDeleted(fn func(ItemDeletedPayload)) {
	bus.subscribe(EventItemDeleted, func(p any) { fn(p.(ItemDeletedPayload)) })
}

func (bus *EventBus) PublishMutationFailed(p MutationFailedPayload) {
	bus.send(EventMutationFailed, p)
}

func (bus *EventBus) SubscribeMutationFailed(fn func(MutationFailedPayload)) {
	bus.subscribe(EventMutationFailed, func(p any) { fn(p.(MutationFailedPayload)) })
}

func (bus *EventBus) PublishNotificationPublished(p NotificationPublishedPayload) {
	bus.send(EventNotificationPublished, p)
}

func (bus *EventBus) SubscribeNotificationPublished(fn func(NotificationPublishedPayload)) {
	bus.subscribe(EventNotificationPublished, func(p any) { fn(p.(NotificationPublishedPayload)) })
}

func (bus *EventBus) PublishProgressLoaded(p ProgressLoadedPayload) {
	bus.send(EventProgressLoaded, p)
}

func (bus *EventBus) SubscribeProgressLoaded(fn func(ProgressLoadedPayload)) {
	bus.subscribe(EventProgressLoaded, func(p any) { fn(p.(ProgressLoadedPayload)) })
}

func (bus *EventBus) PublishProgressReset(p ProgressResetPayload) {
	bus.send(EventProgressReset, p)
}

func (bus *EventBus) SubscribeProgressReset(fn func(ProgressResetPayload)) {
	bus.subscribe(EventProgressReset, func(p any) { fn(p.(ProgressResetPayload)) })
}

func (bus *EventBus) PublishRegionDeleted(p RegionDeletedPayload) {
	bus.send(EventRegionDeleted, p)
}

func (bus *EventBus) SubscribeRegionDeleted(fn func(RegionDeletedPayload)) {
	bus.subscribe(EventRegionDeleted, func(p any) { fn(p.(RegionDeletedPayload)) })
}

func (bus *EventBus) PublishReminderFired(p ReminderFiredPayload) {
	bus.send(EventReminderFired, p)
}

func (bus *EventBus) SubscribeReminderFired(fn func(ReminderFiredPayload)) {
	bus.subscribe(EventReminderFired, func(p any) { fn(p.(ReminderFiredPayload)) })
}
