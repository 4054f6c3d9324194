// Package session coordinates one speech capture lifecycle: engine
// callbacks in, a finalized utterance out.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Status of a recognition session.
type Status string

const (
	StatusInactive   Status = "inactive"
	StatusListening  Status = "listening"
	StatusProcessing Status = "processing"
	StatusError      Status = "error"
)

// ErrUnsupported is reported when no speech engine is available on
// this system. Callers surface it as an immediate error state rather
// than a crash.
var ErrUnsupported = errors.New("speech recognition is not supported on this system")

// Event is one callback from the speech engine: an interim or final
// transcript, or a recognition fault.
type Event struct {
	Transcript string
	Final      bool
	Err        error
}

// Engine abstracts the platform speech-to-text capability. One capture
// attempt delivers zero or more interim events and at most one final
// event on the returned channel, which is closed when the attempt ends.
type Engine interface {
	Start(ctx context.Context) (<-chan Event, error)
	// Stop requests early termination; the engine either still emits a
	// final event or closes the channel silently.
	Stop()
}

// Session is the speech recognition state machine. Exactly one capture
// attempt may be outstanding at a time.
type Session struct {
	engine Engine
	handle func(utterance string)
	settle time.Duration
	logger *slog.Logger

	mu         sync.Mutex
	status     Status
	transcript string
	attempt    uint64
}

// New creates a Session handing finalized utterances to handle.
// If settle is <= 0, it defaults to 2s; the transcript stays visible
// for that long after interpretation before the session goes inactive.
func New(engine Engine, handle func(string), settle time.Duration) *Session {
	if settle <= 0 {
		settle = 2 * time.Second
	}
	if handle == nil {
		handle = func(string) {}
	}
	return &Session{
		engine: engine,
		handle: handle,
		settle: settle,
		logger: slog.Default(),
		status: StatusInactive,
	}
}

// Status returns the current session state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Transcript returns the latest interim or final transcript.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// Start begins a capture attempt. Calling Start while already listening
// is a no-op; a failure to even start the engine moves the session to
// the error state.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.status == StatusListening || s.status == StatusProcessing {
		s.mu.Unlock()
		return nil
	}
	s.attempt++
	attempt := s.attempt
	s.status = StatusListening
	s.transcript = ""
	s.mu.Unlock()

	events, err := s.engine.Start(ctx)
	if err != nil {
		s.fail(attempt, err)
		return err
	}

	go s.consume(attempt, events)
	return nil
}

// Stop requests early termination of the current capture. Legal only
// while listening; otherwise it does nothing.
func (s *Session) Stop() {
	s.mu.Lock()
	listening := s.status == StatusListening
	s.mu.Unlock()
	if listening {
		s.engine.Stop()
	}
}

// consume processes engine events for one capture attempt.
func (s *Session) consume(attempt uint64, events <-chan Event) {
	for ev := range events {
		if ev.Err != nil {
			s.fail(attempt, ev.Err)
			return
		}

		s.mu.Lock()
		if s.attempt != attempt {
			s.mu.Unlock()
			return
		}
		s.transcript = ev.Transcript
		if !ev.Final {
			s.mu.Unlock()
			continue
		}
		s.status = StatusProcessing
		s.mu.Unlock()

		s.handle(ev.Transcript)
		s.settleToInactive(attempt)
		return
	}

	// Engine ended without a final result: fall back to inactive.
	s.mu.Lock()
	if s.attempt == attempt && s.status == StatusListening {
		s.status = StatusInactive
	}
	s.mu.Unlock()
}

// fail moves the session to the error state and schedules the reset.
func (s *Session) fail(attempt uint64, err error) {
	s.mu.Lock()
	if s.attempt != attempt {
		s.mu.Unlock()
		return
	}
	s.status = StatusError
	s.mu.Unlock()

	s.logger.Warn("speech recognition failed", "error", err)
	go s.settleToInactive(attempt)
}

// settleToInactive returns the session to inactive after the settle
// delay, unless a newer attempt has started meanwhile.
func (s *Session) settleToInactive(attempt uint64) {
	time.Sleep(s.settle)

	s.mu.Lock()
	if s.attempt == attempt {
		s.status = StatusInactive
	}
	s.mu.Unlock()
}
