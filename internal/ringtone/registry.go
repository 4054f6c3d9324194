// Package ringtone maintains the ordered mapping from ringtone names to
// playable audio sources: five built-in tones plus user-added entries.
package ringtone

import (
	"fmt"
	"strings"
	"sync"
)

// Built-in ringtone names. Channels resolve to these when a reminder
// carries no explicit ringtone.
const (
	Classic = "classic"
	Gentle  = "gentle"
	Urgent  = "urgent"
	Bell    = "bell"
	Chime   = "chime"
)

type entry struct {
	name   string
	source string
}

// defaults returns the built-in entries in their canonical order.
func defaults() []entry {
	return []entry{
		{Classic, "https://assets.mixkit.co/sfx/preview/mixkit-alarm-digital-clock-beep-989.mp3"},
		{Gentle, "https://assets.mixkit.co/sfx/preview/mixkit-classic-short-alarm-993.mp3"},
		{Urgent, "https://assets.mixkit.co/sfx/preview/mixkit-classic-alarm-995.mp3"},
		{Bell, "https://assets.mixkit.co/sfx/preview/mixkit-elevator-tone-2864.mp3"},
		{Chime, "https://assets.mixkit.co/sfx/preview/mixkit-interface-hint-notification-911.mp3"},
	}
}

// Registry is an insertion-ordered name -> audio source mapping.
// Iteration order matters: the command interpreter's fuzzy match breaks
// ties by taking the first key in registry order.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
	index   map[string]int
}

// NewRegistry returns a registry seeded with the built-in ringtones.
func NewRegistry() *Registry {
	r := &Registry{index: make(map[string]int)}
	for _, e := range defaults() {
		r.index[e.name] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r
}

// Add registers a custom ringtone. Re-adding an existing name replaces
// its source but keeps its position.
func (r *Registry) Add(name, source string) error {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return fmt.Errorf("ringtone name must not be empty")
	}
	if source == "" {
		return fmt.Errorf("ringtone source must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.index[name]; ok {
		r.entries[i].source = source
		return nil
	}
	r.index[name] = len(r.entries)
	r.entries = append(r.entries, entry{name, source})
	return nil
}

// Remove deletes a custom ringtone. Built-ins cannot be removed.
func (r *Registry) Remove(name string) error {
	name = strings.TrimSpace(strings.ToLower(name))
	for _, d := range defaults() {
		if name == d.name {
			return fmt.Errorf("ringtone %q is built in and cannot be removed", name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[name]
	if !ok {
		return fmt.Errorf("ringtone %q not found", name)
	}
	r.entries = append(r.entries[:i], r.entries[i+1:]...)
	delete(r.index, name)
	for j := i; j < len(r.entries); j++ {
		r.index[r.entries[j].name] = j
	}
	return nil
}

// Entry is one listed ringtone.
type Entry struct {
	Name    string `json:"name"`
	Source  string `json:"source"`
	BuiltIn bool   `json:"built_in"`
}

// List returns all ringtones in insertion order.
func (r *Registry) List() []Entry {
	builtin := make(map[string]bool, 5)
	for _, d := range defaults() {
		builtin[d.name] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		out[i] = Entry{Name: e.name, Source: e.source, BuiltIn: builtin[e.name]}
	}
	return out
}

// Keys returns all ringtone names in insertion order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, len(r.entries))
	for i, e := range r.entries {
		keys[i] = e.name
	}
	return keys
}

// Resolve returns the audio source for name, if registered.
func (r *Registry) Resolve(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[name]
	if !ok {
		return "", false
	}
	return r.entries[i].source, true
}

// Has reports whether name is a registered ringtone.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[name]
	return ok
}

// DefaultFor maps a notification channel to its default ringtone name.
func (r *Registry) DefaultFor(channel string) string {
	return DefaultFor(channel)
}

// DefaultFor maps a notification channel to its default ringtone name.
func DefaultFor(channel string) string {
	switch channel {
	case "alarm":
		return Classic
	case "ring":
		return Gentle
	default:
		return Urgent
	}
}
