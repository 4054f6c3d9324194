package notify

import (
	"context"
	"log/slog"
	"os/exec"
	"time"
)

// DesktopAlerter shows due-reminder alerts as desktop notifications via
// notify-send, falling back to the log when the command is missing or
// fails. Alerting is strictly best effort.
type DesktopAlerter struct {
	command string
	logger  *slog.Logger
}

// NewDesktopAlerter probes for the notification command. A nil-safe
// alerter is always returned; without the command it only logs.
func NewDesktopAlerter() *DesktopAlerter {
	a := &DesktopAlerter{logger: slog.Default()}
	if path, err := exec.LookPath("notify-send"); err == nil {
		a.command = path
	}
	return a
}

// Alert shows one notification. Urgent reminders request the critical
// urgency level so the desktop keeps them on screen.
func (a *DesktopAlerter) Alert(title, body string, urgent bool) {
	a.logger.Info("alert", "title", title, "body", body, "urgent", urgent)
	if a.command == "" {
		return
	}

	args := []string{"--app-name=nudge"}
	if urgent {
		args = append(args, "--urgency=critical")
	}
	args = append(args, title, body)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, a.command, args...).Run(); err != nil {
		a.logger.Warn("desktop notification failed", "error", err)
	}
}
