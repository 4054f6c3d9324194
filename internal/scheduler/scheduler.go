// Package scheduler scans the reminder store on a fixed interval and
// fires an alert for each reminder entering its due window.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/okvist/nudge/internal/storage"
)

const (
	// DefaultPollInterval is how often the store is scanned.
	DefaultPollInterval = 30 * time.Second
	// DueWindow is the tolerance around a reminder's due instant within
	// which it is considered currently firing.
	DueWindow = time.Minute
)

// ReminderSource lists persisted reminders for scanning.
type ReminderSource interface {
	ListReminders() ([]storage.Reminder, error)
}

// Alerter shows the user-visible alert for a due reminder.
type Alerter interface {
	Alert(title, body string, urgent bool)
}

// Dispatcher plays the audible side of an alert.
type Dispatcher interface {
	Dispatch(channel, ringtone string)
}

// Scheduler drives the due-reminder poll loop. The fired set makes the
// symmetric due-window check an edge trigger: a reminder that stays
// inside the window across consecutive scans still alerts exactly once.
// Entries are dropped once the reminder completes or is deleted.
type Scheduler struct {
	store    ReminderSource
	alerter  Alerter
	dispatch Dispatcher
	poll     time.Duration
	window   time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	fired map[string]time.Time
}

// New creates a Scheduler with the given dependencies.
// If poll is <= 0, it defaults to 30s.
func New(store ReminderSource, alerter Alerter, dispatch Dispatcher, poll time.Duration) *Scheduler {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Scheduler{
		store:    store,
		alerter:  alerter,
		dispatch: dispatch,
		poll:     poll,
		window:   DueWindow,
		logger:   slog.Default(),
		now:      time.Now,
		fired:    make(map[string]time.Time),
	}
}

// Run performs one immediate scan, then repeats every poll interval
// until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.Scan()

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Scan()
		}
	}
}

// Scan reads all reminders and alerts the newly due ones. A failed
// store read skips this cycle; a fault in one reminder's alert never
// suppresses alerting for the others.
func (s *Scheduler) Scan() {
	reminders, err := s.store.ListReminders()
	if err != nil {
		s.logger.Warn("reminder scan skipped", "error", err)
		return
	}

	now := s.now()
	pending := make(map[string]bool, len(reminders))

	for _, r := range reminders {
		if r.IsCompleted {
			continue
		}
		pending[r.ID] = true

		diff := r.DueAt.Sub(now)
		if diff < 0 {
			diff = -diff
		}
		if diff >= s.window {
			continue
		}

		if !s.markFired(r.ID, now) {
			continue
		}
		s.fire(r)
	}

	s.prune(pending)
}

// markFired records the alert event, returning false if this reminder
// already fired.
func (s *Scheduler) markFired(id string, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, done := s.fired[id]; done {
		return false
	}
	s.fired[id] = at
	return true
}

// prune drops fired markers for reminders that have been completed or
// deleted since they alerted.
func (s *Scheduler) prune(pending map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.fired {
		if !pending[id] {
			delete(s.fired, id)
		}
	}
}

// fire produces the visible alert and the audible dispatch for one
// reminder, containing any panic to that reminder alone.
func (s *Scheduler) fire(r storage.Reminder) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("alert failed", "reminder_id", r.ID, "panic", rec)
		}
	}()

	title := fmt.Sprintf("Reminder: %s", r.Title)
	body := r.Description
	if body == "" {
		body = fmt.Sprintf("This is scheduled for %s", r.DueAt.Format(time.Kitchen))
	}

	s.logger.Info("reminder due", "reminder_id", r.ID, "title", r.Title, "priority", r.Priority)
	s.alerter.Alert(title, body, r.Priority == storage.PriorityUrgent)
	s.dispatch.Dispatch(r.Channel, r.Ringtone)
}
