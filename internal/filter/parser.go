package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/pfrederiksen/eventscrape/internal/dateparse"
)

// ErrInvalidRange is returned when a date range cannot be read
var ErrInvalidRange = errors.New("invalid date range")

// ParseDateRange parses a date range string into start and end times using n.
//
// Anything the normalizer reads as a date or date range is accepted:
//   - "Mar 1-15" or "March 1 - April 15"
//   - "2026-03-01" (a single day)
//   - "March" (the entire month)
//
// Years are inferred the way the normalizer does: the next upcoming occurrence.
// The start is at 00:00:00 and the end at 23:59:59 in the normalizer's location.
func ParseDateRange(n *dateparse.Normalizer, input string) (*time.Time, *time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil, fmt.Errorf("%w: date range cannot be empty", ErrInvalidRange)
	}

	if !strings.ContainsFunc(input, unicode.IsDigit) {
		return monthRange(n, input)
	}

	res := n.Parse(input)
	if !res.Known {
		return nil, nil, fmt.Errorf("%w: %q. Use 'Mar 1-15', 'March 1 - April 15', or 'March'", ErrInvalidRange, input)
	}

	from := startOfDay(res.Start)
	to := endOfDay(res.Start)
	if res.HasEnd() {
		to = endOfDay(res.End)
	}
	if from.After(to) {
		return nil, nil, fmt.Errorf("%w: start date must be before end date", ErrInvalidRange)
	}
	return &from, &to, nil
}

// monthRange covers a whole month named without a day. The current month counts as
// upcoming.
func monthRange(n *dateparse.Normalizer, input string) (*time.Time, *time.Time, error) {
	res := n.Parse(input + " 1")
	if !res.Known {
		return nil, nil, fmt.Errorf("%w: %q. Use 'Mar 1-15', 'March 1 - April 15', or 'March'", ErrInvalidRange, input)
	}
	d := res.Start
	if now := n.Now(); d.Month() == now.Month() && d.Year() > now.Year() {
		d = d.AddDate(-1, 0, 0)
	}
	from := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
	// Last day of month
	to := time.Date(d.Year(), d.Month()+1, 0, 23, 59, 59, 0, d.Location())
	return &from, &to, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
