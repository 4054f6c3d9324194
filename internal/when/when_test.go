package when

import (
	"testing"
	"time"
)

// Fixed reference instant: Tuesday 2025-03-18 14:00:00 local time.
var tuesday = time.Date(2025, 3, 18, 14, 0, 0, 0, time.Local)

func TestParseTomorrowWithTime(t *testing.T) {
	got, ok := Parse("remind me to water plants tomorrow at 3pm", tuesday)
	if !ok {
		t.Fatal("Parse returned no match")
	}
	want := time.Date(2025, 3, 19, 15, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseTomorrowWithMinutes(t *testing.T) {
	got, ok := Parse("tomorrow at 6:30am", tuesday)
	if !ok {
		t.Fatal("Parse returned no match")
	}
	want := time.Date(2025, 3, 19, 6, 30, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseTomorrowDefaultsToNineAM(t *testing.T) {
	got, ok := Parse("call the dentist tomorrow", tuesday)
	if !ok {
		t.Fatal("Parse returned no match")
	}
	want := time.Date(2025, 3, 19, 9, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseTomorrowBareHourIsLiteral(t *testing.T) {
	// No meridiem suffix: the hour is taken as a 24-hour literal.
	got, ok := Parse("tomorrow at 18", tuesday)
	if !ok {
		t.Fatal("Parse returned no match")
	}
	want := time.Date(2025, 3, 19, 18, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseInMinutes(t *testing.T) {
	got, ok := Parse("in 10 minutes", tuesday)
	if !ok {
		t.Fatal("Parse returned no match")
	}
	if want := tuesday.Add(10 * time.Minute); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseInHours(t *testing.T) {
	got, ok := Parse("in 2 hours", tuesday)
	if !ok {
		t.Fatal("Parse returned no match")
	}
	if want := tuesday.Add(2 * time.Hour); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseInOneDay(t *testing.T) {
	// Singular unit, no trailing "s".
	got, ok := Parse("in 1 day", tuesday)
	if !ok {
		t.Fatal("Parse returned no match")
	}
	if want := tuesday.AddDate(0, 0, 1); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseAtClockRollsForward(t *testing.T) {
	// 9am has already passed at 14:00, so the match lands tomorrow.
	got, ok := Parse("at 9am", tuesday)
	if !ok {
		t.Fatal("Parse returned no match")
	}
	want := time.Date(2025, 3, 19, 9, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseAtClockToday(t *testing.T) {
	morning := time.Date(2025, 3, 18, 6, 0, 0, 0, time.Local)
	got, ok := Parse("at 9am", morning)
	if !ok {
		t.Fatal("Parse returned no match")
	}
	want := time.Date(2025, 3, 18, 9, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseAtClockPM(t *testing.T) {
	got, ok := Parse("at 4:15pm", tuesday)
	if !ok {
		t.Fatal("Parse returned no match")
	}
	want := time.Date(2025, 3, 18, 16, 15, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseAtClockRequiresMeridiem(t *testing.T) {
	if _, ok := Parse("at 9", tuesday); ok {
		t.Error("bare \"at 9\" without am/pm should not match")
	}
}

func TestParseNoMatch(t *testing.T) {
	if _, ok := Parse("no temporal info here", tuesday); ok {
		t.Error("expected no match")
	}
}

func TestParseRuleOrder(t *testing.T) {
	// "tomorrow" wins over "in N units" even when both are present.
	got, ok := Parse("tomorrow in 5 minutes", tuesday)
	if !ok {
		t.Fatal("Parse returned no match")
	}
	// clockRe picks up the bare "5" from "5 minutes"; the point here is
	// that the result lands tomorrow, not five minutes from now.
	if got.Day() != 19 {
		t.Errorf("got %v, want a result on the following day", got)
	}
}
