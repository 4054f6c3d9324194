package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Reminder priorities.
const (
	PriorityNormal = "normal"
	PriorityUrgent = "urgent"
)

// Notification channels. The channel selects the default sound family;
// a per-reminder ringtone override is stored separately.
const (
	ChannelAlarm = "alarm"
	ChannelRing  = "ring"
	ChannelCall  = "call"
)

type Reminder struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DueAt       time.Time `json:"due_at"`
	Priority    string    `json:"priority"`
	Channel     string    `json:"channel"`
	Ringtone    string    `json:"ringtone,omitempty"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// Draft is the caller-supplied part of a reminder. The store assigns
// the ID and creation timestamp.
type Draft struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueAt       time.Time `json:"due_at"`
	Priority    string    `json:"priority"`
	Channel     string    `json:"channel"`
	Ringtone    string    `json:"ringtone"`
}

// Patch holds optional reminder updates. Nil fields are left unchanged.
type Patch struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueAt       *time.Time `json:"due_at"`
	Priority    *string    `json:"priority"`
	Channel     *string    `json:"channel"`
	Ringtone    *string    `json:"ringtone"`
}

// CustomRingtone is a user-added registry entry: a name mapped to a
// playable audio source (file path or URL).
type CustomRingtone struct {
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidPriority reports whether p is a known priority value.
func ValidPriority(p string) bool {
	return p == PriorityNormal || p == PriorityUrgent
}

// ValidChannel reports whether c is a known notification channel.
func ValidChannel(c string) bool {
	return c == ChannelAlarm || c == ChannelRing || c == ChannelCall
}
