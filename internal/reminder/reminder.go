// Package reminder publishes a digest of problems due for review on a cron
// schedule.
package reminder

import (
	"fmt"
	"time"

	"github.com/colonyops/cadence/internal/core/eventbus"
	"github.com/colonyops/cadence/internal/core/logging"
	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/colonyops/cadence/internal/core/schedule"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// Source supplies the review queue. *cadence.Engine satisfies it.
type Source interface {
	Today() schedule.Date
	DueItems(today schedule.Date) []progress.Item
}

// Digest is one reminder run.
type Digest struct {
	Date  schedule.Date
	Items []progress.Item
}

// Reminder checks the review queue on a schedule.
type Reminder struct {
	src   Source
	bus   *eventbus.EventBus
	log   zerolog.Logger
	sched *gocron.Scheduler
	last  chan Digest
}

// New returns a stopped reminder. bus may be nil.
func New(src Source, bus *eventbus.EventBus, log zerolog.Logger) *Reminder {
	s := gocron.NewScheduler(time.Local)
	s.SingletonModeAll()
	return &Reminder{
		src:   src,
		bus:   bus,
		log:   logging.ComponentOf(log, "reminder"),
		sched: s,
		last:  make(chan Digest, 1),
	}
}

// Check computes the digest for today and publishes it.
func (r *Reminder) Check() Digest {
	today := r.src.Today()
	d := Digest{Date: today, Items: r.src.DueItems(today)}

	r.log.Info().Str("date", today.String()).Int("due", len(d.Items)).Msg("review reminder")
	if r.bus != nil {
		r.bus.PublishReminderFired(eventbus.ReminderFiredPayload{Due: len(d.Items)})
	}

	// Keep only the newest digest for Digests readers.
	select {
	case <-r.last:
	default:
	}
	select {
	case r.last <- d:
	default:
	}
	return d
}

// Start schedules Check with a standard five-field cron expression.
func (r *Reminder) Start(cronExpr string) error {
	if _, err := r.sched.Cron(cronExpr).Do(func() { r.Check() }); err != nil {
		return fmt.Errorf("schedule reminder %q: %w", cronExpr, err)
	}
	r.sched.StartAsync()
	r.log.Debug().Str("cron", cronExpr).Msg("reminder scheduled")
	return nil
}

// RunNow runs every scheduled check immediately.
func (r *Reminder) RunNow() {
	r.sched.RunAll()
}

// Digests delivers the most recent digest after each run.
func (r *Reminder) Digests() <-chan Digest {
	return r.last
}

// Stop halts the scheduler.
func (r *Reminder) Stop() {
	r.sched.Stop()
}
