// Package filter narrows extracted records down to the ones a caller cares about.
//
// Criteria combine with AND; list criteria match when any entry matches:
//   - Date range (from/to, inclusive)
//   - Title keywords (case- and accent-insensitive substring match)
//   - Locations (substring match on venue name or address)
//   - Weekends only (Saturday/Sunday)
//   - Minimum confidence
//
// Records whose start is unknown are kept by the date criteria; they are the ones a
// human should look at.
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.WeekendsOnly = true
//	f.Keywords = []string{"market"}
//	kept := f.Apply(records)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/eventscrape/internal/event"
)

// Filter represents record filtering criteria
type Filter struct {
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	Keywords  []string `json:"keywords,omitempty"`
	Locations []string `json:"locations,omitempty"`

	WeekendsOnly  bool             `json:"weekends_only,omitempty"`
	MinConfidence event.Confidence `json:"min_confidence,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all records until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Keywords:  []string{},
		Locations: []string{},
	}
}

// IsEmpty checks if the filter has any active criteria
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Keywords) == 0 &&
		len(f.Locations) == 0 &&
		!f.WeekendsOnly &&
		f.MinConfidence <= event.Low
}

// Matches checks if a record matches all active filter criteria
func (f *Filter) Matches(r *event.Record) bool {
	if f.IsEmpty() {
		return true
	}

	if r.Confidence < f.MinConfidence {
		return false
	}

	if !r.Start.IsUnknown() {
		start := r.Start.Time()
		// a multi-day record overlaps the range when it ends inside it
		end := start
		if r.End != nil && !r.End.IsUnknown() && r.End.Time().After(start) {
			end = r.End.Time()
		}
		if f.DateFrom != nil && end.Before(*f.DateFrom) {
			return false
		}
		if f.DateTo != nil && start.After(*f.DateTo) {
			return false
		}
		if f.WeekendsOnly {
			weekday := start.Weekday()
			if weekday != time.Saturday && weekday != time.Sunday {
				return false
			}
		}
	}

	if len(f.Keywords) > 0 && !containsAny(r.Title, f.Keywords) {
		return false
	}

	if len(f.Locations) > 0 && !containsAny(r.LocationName+" "+r.Address, f.Locations) {
		return false
	}

	return true
}

func containsAny(text string, needles []string) bool {
	text = event.NormalizeTitle(text)
	for _, n := range needles {
		if n = event.NormalizeTitle(n); n != "" && strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// Apply returns the records that match. An empty filter returns the input unchanged.
func (f *Filter) Apply(records []*event.Record) []*event.Record {
	if f.IsEmpty() {
		return records
	}

	filtered := make([]*event.Record, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "From: Jan 2, 2026 | To: Jan 15, 2026 | Keywords: market | Weekends only"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}

	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}

	if len(f.Keywords) > 0 {
		parts = append(parts, fmt.Sprintf("Keywords: %s", strings.Join(f.Keywords, ", ")))
	}

	if len(f.Locations) > 0 {
		parts = append(parts, fmt.Sprintf("Locations: %s", strings.Join(f.Locations, ", ")))
	}

	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}

	if f.MinConfidence > event.Low {
		parts = append(parts, fmt.Sprintf("Confidence: %s+", f.MinConfidence))
	}

	return strings.Join(parts, " | ")
}

// Clone returns a deep copy
func (f *Filter) Clone() *Filter {
	c := *f
	if f.DateFrom != nil {
		from := *f.DateFrom
		c.DateFrom = &from
	}
	if f.DateTo != nil {
		to := *f.DateTo
		c.DateTo = &to
	}
	c.Keywords = append([]string{}, f.Keywords...)
	c.Locations = append([]string{}, f.Locations...)
	return &c
}
