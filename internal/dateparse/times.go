package dateparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// clock is a time of day without a date
type clock struct {
	hour, minute int
	ok           bool
}

func (c clock) on(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), c.hour, c.minute, 0, 0, d.Location())
}

type clockRange struct {
	start, end clock
}

var (
	meridiemRangeRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*([ap]m)?\s*(?:-|to|until|till)\s*(?:(\d{1,2})(?::(\d{2}))?\s*([ap]m)|(noon|midday|midnight))\b`)
	clockRangeRe    = regexp.MustCompile(`\b(\d{1,2})[:h](\d{2})\s*(?:-|to|until|till)\s*(\d{1,2})[:h](\d{2})\b`)
	meridiemRe      = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*([ap]m)\b`)
	clockRe         = regexp.MustCompile(`\b(\d{1,2})[:h](\d{2})(?::\d{2})?\b`)
	namedTimeRe     = regexp.MustCompile(`(?i)\b(noon|midday|midnight)\b`)
)

// cutTimes removes times of day from s and returns what is left with the parsed clock.
// A single time fills only the start.
func cutTimes(s string) (string, clockRange) {
	var cr clockRange
	s = normalizeMeridiem(s)

	if m := meridiemRangeRe.FindStringSubmatchIndex(s); m != nil {
		if start, end, ok := meridiemRange(s, m); ok {
			cr.start, cr.end = start, end
			return cut(s, m), cr
		}
	}

	if m := clockRangeRe.FindStringSubmatchIndex(s); m != nil {
		start, ok1 := twentyFour(group(s, m, 1), group(s, m, 2))
		end, ok2 := twentyFour(group(s, m, 3), group(s, m, 4))
		if ok1 && ok2 {
			cr.start, cr.end = start, end
			return cut(s, m), cr
		}
	}

	if m := meridiemRe.FindStringSubmatchIndex(s); m != nil {
		if c, ok := meridiem(group(s, m, 1), group(s, m, 2), group(s, m, 3)); ok {
			cr.start = c
			return cut(s, m), cr
		}
	}

	if m := clockRe.FindStringSubmatchIndex(s); m != nil {
		if c, ok := twentyFour(group(s, m, 1), group(s, m, 2)); ok {
			cr.start = c
			return cut(s, m), cr
		}
	}

	if m := namedTimeRe.FindStringSubmatchIndex(s); m != nil {
		cr.start = named(group(s, m, 1))
		return cut(s, m), cr
	}

	return s, cr
}

// meridiemRange reads a match of meridiemRangeRe. A start without its own marker
// borrows the end's, so "7-9pm" is an evening.
func meridiemRange(s string, m []int) (clock, clock, bool) {
	startMer := group(s, m, 3)
	if word := group(s, m, 7); word != "" {
		// in "May 3 to noon" the 3 is a day
		if startMer == "" && group(s, m, 2) == "" {
			return clock{}, clock{}, false
		}
		start, ok := meridiem(group(s, m, 1), group(s, m, 2), startMer)
		return start, named(word), ok
	}

	end, ok := meridiem(group(s, m, 4), group(s, m, 5), group(s, m, 6))
	if !ok {
		return clock{}, clock{}, false
	}
	if startMer == "" {
		startMer = group(s, m, 6)
	}
	start, ok := meridiem(group(s, m, 1), group(s, m, 2), startMer)
	if ok && group(s, m, 3) == "" && start.hour > end.hour {
		// "11-1pm" starts in the morning
		start.hour -= 12
	}
	return start, end, ok
}

func named(word string) clock {
	if strings.EqualFold(word, "midnight") {
		return clock{hour: 0, ok: true}
	}
	return clock{hour: 12, ok: true}
}

// ContainsTime reports whether text carries a time of day
func ContainsTime(text string) bool {
	_, cr := cutTimes(fold(text))
	return cr.start.ok
}

func group(s string, m []int, i int) string {
	if m[2*i] < 0 {
		return ""
	}
	return s[m[2*i]:m[2*i+1]]
}

func cut(s string, m []int) string {
	return s[:m[0]] + " " + s[m[1]:]
}

func meridiem(h, min, mer string) (clock, bool) {
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 1 || hour > 12 {
		return clock{}, false
	}
	minute := 0
	if min != "" {
		if minute, err = strconv.Atoi(min); err != nil || minute > 59 {
			return clock{}, false
		}
	}
	pm := strings.EqualFold(mer, "pm")
	switch {
	case pm && hour < 12:
		hour += 12
	case !pm && hour == 12:
		hour = 0
	}
	return clock{hour: hour, minute: minute, ok: true}, true
}

func twentyFour(h, min string) (clock, bool) {
	hour, err1 := strconv.Atoi(h)
	minute, err2 := strconv.Atoi(min)
	if err1 != nil || err2 != nil || hour > 23 || minute > 59 {
		return clock{}, false
	}
	return clock{hour: hour, minute: minute, ok: true}, true
}

// WithTime attaches the time of day found in text to a date-only result. Results that
// are unknown or already timed are returned unchanged.
func WithTime(day Result, text string) Result {
	if !day.Known || day.HasTime {
		return day
	}
	_, cr := cutTimes(fold(text))
	if !cr.start.ok {
		return day
	}
	day.Start = cr.start.on(day.Start)
	day.HasTime = true
	if cr.end.ok && !day.HasEnd() {
		end := cr.end.on(day.Start)
		if end.Before(day.Start) {
			end = end.AddDate(0, 0, 1)
		}
		day.End = end
		day.EndHasTime = true
	}
	if day.Raw != "" && text != "" && !strings.Contains(day.Raw, text) {
		day.Raw = strings.TrimSpace(day.Raw + " " + text)
	}
	return day
}
