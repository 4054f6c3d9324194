// Package command turns a finalized utterance into a reminder draft.
//
// Like the temporal parser this is ordered keyword matching, not NLP:
// a trigger phrase marks the utterance as a reminder command, a fixed
// boundary keyword set ends the title, and priority/channel/ringtone
// are keyword scans over the whole utterance.
package command

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/okvist/nudge/internal/when"
)

// Rejection reasons surfaced to the user. Neither creates a reminder.
var (
	ErrNotRecognized = errors.New("utterance is not a reminder command")
	ErrEmptyTitle    = errors.New("could not tell what to remind about")
)

// Command is the structured result of interpreting one utterance.
// It is transient: the caller immediately converts it into a stored
// reminder.
type Command struct {
	Title    string
	Priority string
	Channel  string
	Ringtone string
	DueAt    time.Time
}

var triggers = []string{"remind me to", "add reminder"}

// boundaryWords end the title when they appear as a standalone word
// after at least one title word. The first title word is never treated
// as a boundary, so "remind me to call mom" keeps its title even though
// "call" also selects the notification channel.
var boundaryWords = map[string]bool{
	"at": true, "in": true, "tomorrow": true, "when": true, "today": true,
	"on": true, "by": true, "every": true, "after": true, "before": true,
	"urgent": true, "important": true, "call": true, "ring": true,
	"alarm": true, "with": true, "using": true,
}

var ringtonePhraseRe = regexp.MustCompile(`(?:with|using)\s+(.+?)\s+(?:ringtone|sound|tone)`)

// KeySource supplies the ringtone registry's key set in iteration
// order. Injected so tests can pin a fixed registry snapshot.
type KeySource interface {
	Keys() []string
}

// Interpreter extracts reminder drafts from natural-language utterances.
type Interpreter struct {
	ringtones KeySource
}

// New creates an Interpreter matching ringtone names against keys.
func New(ringtones KeySource) *Interpreter {
	return &Interpreter{ringtones: ringtones}
}

// Interpret parses one utterance relative to now. It has no side
// effects; persistence and user feedback belong to the caller.
func (i *Interpreter) Interpret(utterance string, now time.Time) (Command, error) {
	text := strings.ToLower(strings.TrimSpace(utterance))

	rest, ok := afterTrigger(text)
	if !ok {
		return Command{}, ErrNotRecognized
	}

	title := extractTitle(rest)
	if title == "" {
		return Command{}, ErrEmptyTitle
	}

	cmd := Command{
		Title:    capitalize(title),
		Priority: "normal",
		Channel:  "alarm",
	}

	if strings.Contains(text, "urgent") || strings.Contains(text, "important") {
		cmd.Priority = "urgent"
	}

	switch {
	case strings.Contains(text, "call"):
		cmd.Channel = "call"
	case strings.Contains(text, "ring"):
		cmd.Channel = "ring"
	}

	cmd.Ringtone = i.matchRingtone(text)

	if due, ok := when.Parse(text, now); ok {
		cmd.DueAt = due
	} else {
		// No temporal phrase: the reminder is immediately due.
		cmd.DueAt = now
	}

	return cmd, nil
}

// afterTrigger returns the text following the first trigger phrase.
func afterTrigger(text string) (string, bool) {
	for _, trigger := range triggers {
		if idx := strings.Index(text, trigger); idx >= 0 {
			return strings.TrimSpace(text[idx+len(trigger):]), true
		}
	}
	return "", false
}

// extractTitle takes words up to the first boundary keyword. With no
// boundary present the whole remainder is the title.
func extractTitle(rest string) string {
	if rest == "" {
		return ""
	}
	words := strings.Fields(rest)
	for idx := 1; idx < len(words); idx++ {
		if boundaryWords[words[idx]] {
			words = words[:idx]
			break
		}
	}
	return strings.Join(words, " ")
}

// matchRingtone resolves "with <name> ringtone|sound|tone" against the
// registry key set. An exact key wins; otherwise the first key (in
// registry order) related to the name by substring in either direction.
func (i *Interpreter) matchRingtone(text string) string {
	m := ringtonePhraseRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return ""
	}

	keys := i.ringtones.Keys()
	for _, key := range keys {
		if key == name {
			return key
		}
	}
	for _, key := range keys {
		if strings.Contains(name, key) || strings.Contains(key, name) {
			return key
		}
	}
	return ""
}

func capitalize(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
