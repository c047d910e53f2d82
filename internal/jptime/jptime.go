// Package jptime parses the small fixed set of timestamp spellings found in
// incident mails and derives display components in JST.
package jptime

import (
	"strings"
	"time"
)

// JST is the fixed offset all timestamps are interpreted in. No tzdata
// lookup: the mails carry no zone information.
var JST = time.FixedZone("JST", 9*60*60)

// weekdaysJA is Monday-first.
var weekdaysJA = [7]string{"月", "火", "水", "木", "金", "土", "日"}

var unitReplacer = strings.NewReplacer(
	"年", "/",
	"月", "/",
	"日", "",
	"－", "/",
	"-", "/",
)

// Layouts tried in order: date+time+seconds, date+time, date-only.
var layouts = []string{
	"2006/1/2 15:4:5",
	"2006/1/2 15:4",
	"2006/1/2",
}

// Parse attempts the three literal timestamp shapes after unifying unit
// glyphs and dashes to slashes. Returns ok=false for anything else; no
// fuzzy parsing, no partial recovery.
func Parse(s string) (time.Time, bool) {
	cand := strings.TrimSpace(s)
	if cand == "" {
		return time.Time{}, false
	}
	cand = unitReplacer.Replace(cand)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, cand, JST); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Components is the 6-slot decomposition written into a date/time block.
type Components struct {
	Year    int
	Month   int
	Day     int
	Weekday string
	Hour    int
	Minute  int
}

// Decompose splits an instant into template display components. The weekday
// name comes from the Monday-first Japanese table.
func Decompose(t time.Time) Components {
	return Components{
		Year:    t.Year(),
		Month:   int(t.Month()),
		Day:     t.Day(),
		Weekday: weekdaysJA[(int(t.Weekday())+6)%7],
		Hour:    t.Hour(),
		Minute:  t.Minute(),
	}
}

// MinutesBetween returns the floor of b-a in whole minutes. ok is false when
// either timestamp fails to parse, or when the span is negative: a negative
// span usually means swapped timestamps and is suppressed rather than
// reported (see Swapped).
func MinutesBetween(a, b string) (int, bool) {
	s, okA := Parse(a)
	e, okB := Parse(b)
	if !okA || !okB {
		return 0, false
	}
	secs := e.Unix() - s.Unix()
	mins := secs / 60
	if secs < 0 && secs%60 != 0 {
		mins--
	}
	if mins < 0 {
		return 0, false
	}
	return int(mins), true
}

// Swapped reports whether both timestamps parse and b precedes a, so callers
// can surface the likely data-entry mistake that MinutesBetween suppresses.
func Swapped(a, b string) bool {
	s, okA := Parse(a)
	e, okB := Parse(b)
	return okA && okB && e.Before(s)
}
