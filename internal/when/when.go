// Package when extracts a concrete point in time from free text.
//
// It is not a grammar: a fixed list of pattern rules is tried in order
// and the first match wins, regardless of where each phrase appears in
// the sentence. "tomorrow" phrasing beats "in N units" beats a bare
// "at H". Rule order is observable behavior; do not reorder.
package when

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	clockRe    = regexp.MustCompile(`(?i)(\d{1,2})(:\d{2})?\s*(am|pm)?`)
	inUnitsRe  = regexp.MustCompile(`(?i)in\s+(\d+)\s+(minute|hour|day)s?`)
	atMeridiem = regexp.MustCompile(`(?i)at\s+(\d{1,2})(:\d{2})?\s*(am|pm)`)
)

// Parse extracts a time from text relative to now. Text is expected to
// be lower-cased. The second return value is false when no temporal
// phrase is found; the caller supplies its own default.
func Parse(text string, now time.Time) (time.Time, bool) {
	if t, ok := parseTomorrow(text, now); ok {
		return t, true
	}
	if t, ok := parseInUnits(text, now); ok {
		return t, true
	}
	if t, ok := parseAtClock(text, now); ok {
		return t, true
	}
	return time.Time{}, false
}

// parseTomorrow handles "tomorrow", optionally combined with a clock
// time found anywhere in the text. Without one, the reminder lands at
// 09:00 local time.
func parseTomorrow(text string, now time.Time) (time.Time, bool) {
	if !strings.Contains(text, "tomorrow") {
		return time.Time{}, false
	}

	base := now.AddDate(0, 0, 1)
	if m := clockRe.FindStringSubmatch(text); m != nil {
		hours, minutes := clockParts(m)
		return time.Date(base.Year(), base.Month(), base.Day(), hours, minutes, 0, 0, now.Location()), true
	}
	return time.Date(base.Year(), base.Month(), base.Day(), 9, 0, 0, 0, now.Location()), true
}

// parseInUnits handles "in N minutes|hours|days" as an offset from now.
func parseInUnits(text string, now time.Time) (time.Time, bool) {
	m := inUnitsRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return time.Time{}, false
	}

	switch strings.ToLower(m[2]) {
	case "minute":
		return now.Add(time.Duration(n) * time.Minute), true
	case "hour":
		return now.Add(time.Duration(n) * time.Hour), true
	default: // day
		return now.AddDate(0, 0, n), true
	}
}

// parseAtClock handles "at H[:MM] am|pm" as today at that time, rolling
// forward one day when the instant has already passed.
func parseAtClock(text string, now time.Time) (time.Time, bool) {
	m := atMeridiem.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}

	hours, minutes := clockParts(m)
	t := time.Date(now.Year(), now.Month(), now.Day(), hours, minutes, 0, 0, now.Location())
	if !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t, true
}

// clockParts converts a clockRe/atMeridiem submatch into a 24-hour
// hour/minute pair. "pm" below 12 adds 12; a bare hour without a
// meridiem is taken as a 24-hour literal.
func clockParts(m []string) (hours, minutes int) {
	hours, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minutes, _ = strconv.Atoi(m[2][1:])
	}
	if strings.EqualFold(m[3], "pm") && hours < 12 {
		hours += 12
	}
	return hours, minutes
}
