package session

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// ExecEngine adapts an external speech-to-text command to the Engine
// contract. The command is expected to capture microphone audio and
// print transcript lines to stdout; every line is an interim result and
// the last one becomes the final result when the command exits.
type ExecEngine struct {
	command string
	args    []string

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Detect checks whether a speech engine command is available. An empty
// command or one not present on PATH yields ErrUnsupported.
func Detect(command string, args ...string) (*ExecEngine, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, ErrUnsupported
	}
	if _, err := exec.LookPath(command); err != nil {
		return nil, fmt.Errorf("%w: %q not found on PATH", ErrUnsupported, command)
	}
	return &ExecEngine{command: command, args: args}, nil
}

// Start launches one capture run of the engine command.
func (e *ExecEngine) Start(ctx context.Context) (<-chan Event, error) {
	ctx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(ctx, e.command, e.args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("attaching to speech engine output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("starting speech engine: %w", err)
	}

	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	events := make(chan Event)
	go func() {
		defer close(events)
		defer cancel()

		var last string
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			last = line
			events <- Event{Transcript: line}
		}

		err := cmd.Wait()
		switch {
		case err != nil && ctx.Err() == nil:
			events <- Event{Err: fmt.Errorf("speech engine exited: %w", err)}
		case last != "":
			events <- Event{Transcript: last, Final: true}
		}
	}()

	return events, nil
}

// Stop terminates the current capture run. A stopped run still emits
// its final result from whatever was transcribed so far.
func (e *ExecEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}
