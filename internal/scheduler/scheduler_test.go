package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okvist/nudge/internal/storage"
)

type fakeStore struct {
	mu        sync.Mutex
	reminders []storage.Reminder
	err       error
}

func (f *fakeStore) ListReminders() ([]storage.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]storage.Reminder, len(f.reminders))
	copy(out, f.reminders)
	return out, nil
}

func (f *fakeStore) set(reminders ...storage.Reminder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders = reminders
}

type alertCall struct {
	title  string
	body   string
	urgent bool
}

type fakeAlerter struct {
	mu    sync.Mutex
	calls []alertCall
	panic bool
}

func (f *fakeAlerter) Alert(title, body string, urgent bool) {
	f.mu.Lock()
	f.calls = append(f.calls, alertCall{title, body, urgent})
	shouldPanic := f.panic
	f.mu.Unlock()
	if shouldPanic {
		panic("notification backend gone")
	}
}

func (f *fakeAlerter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type dispatchCall struct {
	channel  string
	ringtone string
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
}

func (f *fakeDispatcher) Dispatch(channel, ringtone string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dispatchCall{channel, ringtone})
}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var scanTime = time.Date(2025, 3, 18, 12, 0, 0, 0, time.Local)

func newTestScheduler(store *fakeStore, alerter *fakeAlerter, dispatch *fakeDispatcher) *Scheduler {
	s := New(store, alerter, dispatch, time.Hour)
	s.now = func() time.Time { return scanTime }
	return s
}

func reminder(id, title string, due time.Time) storage.Reminder {
	return storage.Reminder{
		ID:       id,
		Title:    title,
		DueAt:    due,
		Priority: storage.PriorityNormal,
		Channel:  storage.ChannelAlarm,
	}
}

func TestScanFiresDueReminderOnce(t *testing.T) {
	store := &fakeStore{}
	alerter := &fakeAlerter{}
	dispatch := &fakeDispatcher{}
	s := newTestScheduler(store, alerter, dispatch)

	r := reminder("r1", "Call mom", scanTime.Add(30*time.Second))
	r.Channel = storage.ChannelCall
	r.Ringtone = "urgent"
	store.set(r)

	s.Scan()
	s.Scan()
	s.Scan()

	if got := alerter.count(); got != 1 {
		t.Fatalf("alerts = %d, want exactly 1", got)
	}
	if got := dispatch.count(); got != 1 {
		t.Fatalf("dispatches = %d, want exactly 1", got)
	}
	if call := dispatch.calls[0]; call.channel != storage.ChannelCall || call.ringtone != "urgent" {
		t.Errorf("Dispatch(%q, %q)", call.channel, call.ringtone)
	}
	if call := alerter.calls[0]; call.title != "Reminder: Call mom" {
		t.Errorf("alert title = %q", call.title)
	}
}

func TestScanWindowIsSymmetric(t *testing.T) {
	cases := []struct {
		name string
		due  time.Time
		want int
	}{
		{"just past due", scanTime.Add(-45 * time.Second), 1},
		{"about to be due", scanTime.Add(45 * time.Second), 1},
		{"exactly on the edge", scanTime.Add(time.Minute), 0},
		{"too far out", scanTime.Add(5 * time.Minute), 0},
		{"long overdue", scanTime.Add(-10 * time.Minute), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{}
			alerter := &fakeAlerter{}
			s := newTestScheduler(store, alerter, &fakeDispatcher{})
			store.set(reminder("r1", "Stretch", tc.due))

			s.Scan()

			if got := alerter.count(); got != tc.want {
				t.Errorf("alerts = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestScanSkipsCompleted(t *testing.T) {
	store := &fakeStore{}
	alerter := &fakeAlerter{}
	s := newTestScheduler(store, alerter, &fakeDispatcher{})

	r := reminder("r1", "Stretch", scanTime)
	r.IsCompleted = true
	store.set(r)

	s.Scan()

	if got := alerter.count(); got != 0 {
		t.Errorf("alerts = %d, want 0 for a completed reminder", got)
	}
}

func TestScanSkipsCycleOnStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("database is locked")}
	alerter := &fakeAlerter{}
	s := newTestScheduler(store, alerter, &fakeDispatcher{})

	s.Scan()

	if got := alerter.count(); got != 0 {
		t.Errorf("alerts = %d, want 0 when the list fails", got)
	}

	// The next healthy cycle alerts as usual.
	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()
	store.set(reminder("r1", "Stretch", scanTime))

	s.Scan()
	if got := alerter.count(); got != 1 {
		t.Errorf("alerts = %d after recovery, want 1", got)
	}
}

func TestScanIsolatesAlertPanics(t *testing.T) {
	store := &fakeStore{}
	alerter := &fakeAlerter{panic: true}
	dispatch := &fakeDispatcher{}
	s := newTestScheduler(store, alerter, dispatch)

	store.set(
		reminder("r1", "First", scanTime),
		reminder("r2", "Second", scanTime),
	)

	s.Scan()

	// Both reminders reached the alerter even though each call panicked.
	if got := alerter.count(); got != 2 {
		t.Errorf("alerts = %d, want 2", got)
	}
	// The panic happened before dispatch, so neither sound played.
	if got := dispatch.count(); got != 0 {
		t.Errorf("dispatches = %d, want 0", got)
	}
}

func TestFiredMarkerClearedAfterCompletion(t *testing.T) {
	store := &fakeStore{}
	alerter := &fakeAlerter{}
	s := newTestScheduler(store, alerter, &fakeDispatcher{})

	r := reminder("r1", "Stretch", scanTime)
	store.set(r)
	s.Scan()

	done := r
	done.IsCompleted = true
	store.set(done)
	s.Scan()

	s.mu.Lock()
	markers := len(s.fired)
	s.mu.Unlock()
	if markers != 0 {
		t.Errorf("fired markers = %d after completion, want 0", markers)
	}
}

func TestUrgentPriorityFlagsAlert(t *testing.T) {
	store := &fakeStore{}
	alerter := &fakeAlerter{}
	s := newTestScheduler(store, alerter, &fakeDispatcher{})

	r := reminder("r1", "Pay rent", scanTime)
	r.Priority = storage.PriorityUrgent
	r.Description = "Transfer before the bank closes"
	store.set(r)

	s.Scan()

	if got := alerter.count(); got != 1 {
		t.Fatalf("alerts = %d, want 1", got)
	}
	call := alerter.calls[0]
	if !call.urgent {
		t.Error("alert not marked urgent")
	}
	if call.body != "Transfer before the bank closes" {
		t.Errorf("alert body = %q", call.body)
	}
}

func TestRunScansImmediatelyAndStopsOnCancel(t *testing.T) {
	store := &fakeStore{}
	alerter := &fakeAlerter{}
	s := newTestScheduler(store, alerter, &fakeDispatcher{})
	store.set(reminder("r1", "Stretch", scanTime))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && alerter.count() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if got := alerter.count(); got != 1 {
		t.Errorf("alerts = %d before the first tick, want 1", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
