package command

import (
	"errors"
	"testing"
	"time"
)

// fixedKeys implements KeySource with a pinned registry snapshot.
type fixedKeys []string

func (f fixedKeys) Keys() []string { return f }

var defaultKeys = fixedKeys{"classic", "gentle", "urgent", "bell", "chime"}

var noon = time.Date(2025, 3, 18, 12, 0, 0, 0, time.Local)

func TestInterpretCallMomUrgent(t *testing.T) {
	i := New(defaultKeys)

	cmd, err := i.Interpret("remind me to call mom urgent", noon)
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if cmd.Title != "Call mom" {
		t.Errorf("Title = %q, want %q", cmd.Title, "Call mom")
	}
	if cmd.Priority != "urgent" {
		t.Errorf("Priority = %q, want urgent", cmd.Priority)
	}
	if cmd.Channel != "call" {
		t.Errorf("Channel = %q, want call", cmd.Channel)
	}
	// No temporal phrase: immediately due.
	if !cmd.DueAt.Equal(noon) {
		t.Errorf("DueAt = %v, want %v", cmd.DueAt, noon)
	}
}

func TestInterpretWithTimeAndRingtone(t *testing.T) {
	i := New(defaultKeys)

	cmd, err := i.Interpret("remind me to water plants tomorrow at 6am with bell ringtone", noon)
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if cmd.Title != "Water plants" {
		t.Errorf("Title = %q, want %q", cmd.Title, "Water plants")
	}
	want := time.Date(2025, 3, 19, 6, 0, 0, 0, time.Local)
	if !cmd.DueAt.Equal(want) {
		t.Errorf("DueAt = %v, want %v", cmd.DueAt, want)
	}
	if cmd.Ringtone != "bell" {
		t.Errorf("Ringtone = %q, want bell", cmd.Ringtone)
	}
	// "ringtone" contains "ring", so the channel keyword scan picks it up.
	if cmd.Channel != "ring" {
		t.Errorf("Channel = %q, want ring", cmd.Channel)
	}
}

func TestInterpretAddReminderTrigger(t *testing.T) {
	i := New(defaultKeys)

	cmd, err := i.Interpret("add reminder buy groceries in 2 hours", noon)
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if cmd.Title != "Buy groceries" {
		t.Errorf("Title = %q, want %q", cmd.Title, "Buy groceries")
	}
	if want := noon.Add(2 * time.Hour); !cmd.DueAt.Equal(want) {
		t.Errorf("DueAt = %v, want %v", cmd.DueAt, want)
	}
}

func TestInterpretNotRecognized(t *testing.T) {
	i := New(defaultKeys)

	_, err := i.Interpret("just some sentence", noon)
	if !errors.Is(err, ErrNotRecognized) {
		t.Errorf("err = %v, want ErrNotRecognized", err)
	}
}

func TestInterpretEmptyTitle(t *testing.T) {
	i := New(defaultKeys)

	_, err := i.Interpret("remind me to", noon)
	if !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("err = %v, want ErrEmptyTitle", err)
	}
}

func TestInterpretTitleStopsAtBoundary(t *testing.T) {
	i := New(defaultKeys)

	cmd, err := i.Interpret("remind me to take out the trash tomorrow", noon)
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if cmd.Title != "Take out the trash" {
		t.Errorf("Title = %q, want %q", cmd.Title, "Take out the trash")
	}
}

func TestInterpretDefaultsNormalAlarm(t *testing.T) {
	i := New(defaultKeys)

	cmd, err := i.Interpret("remind me to stretch", noon)
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if cmd.Priority != "normal" || cmd.Channel != "alarm" || cmd.Ringtone != "" {
		t.Errorf("got priority=%q channel=%q ringtone=%q", cmd.Priority, cmd.Channel, cmd.Ringtone)
	}
}

func TestInterpretRingtoneExactMatchWins(t *testing.T) {
	// "bells" is a substring-relative of both "bell" and a hypothetical
	// exact key; exact match must win outright.
	keys := fixedKeys{"bell", "bells"}
	i := New(keys)

	cmd, err := i.Interpret("remind me to nap using bells tone in 5 minutes", noon)
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if cmd.Ringtone != "bells" {
		t.Errorf("Ringtone = %q, want exact match %q", cmd.Ringtone, "bells")
	}
}

func TestInterpretRingtoneFuzzyUsesRegistryOrder(t *testing.T) {
	// No exact key "chimes": both "chime" and "chimes-long" relate by
	// substring; the first key in registry order is chosen.
	keys := fixedKeys{"chime", "chimes-long"}
	i := New(keys)

	cmd, err := i.Interpret("remind me to nap with chimes sound in 5 minutes", noon)
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if cmd.Ringtone != "chime" {
		t.Errorf("Ringtone = %q, want %q", cmd.Ringtone, "chime")
	}
}

func TestInterpretRingtoneUnknownLeftUnset(t *testing.T) {
	i := New(defaultKeys)

	cmd, err := i.Interpret("remind me to nap with foghorn ringtone in 5 minutes", noon)
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if cmd.Ringtone != "" {
		t.Errorf("Ringtone = %q, want unset", cmd.Ringtone)
	}
}
