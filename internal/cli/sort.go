package cli

import (
	"sort"

	"github.com/pfrederiksen/eventscrape/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate  SortOrder = "date"
	SortByTitle SortOrder = "title"
)

// Valid reports whether o is a known sort order
func (o SortOrder) Valid() bool {
	return o == SortByDate || o == SortByTitle
}

// sortRecords sorts records based on the specified sort order
func sortRecords(records []*event.Record, order SortOrder) {
	switch order {
	case SortByDate:
		event.Sort(records)
	case SortByTitle:
		sort.SliceStable(records, func(i, j int) bool {
			ti, tj := event.NormalizeTitle(records[i].Title), event.NormalizeTitle(records[j].Title)
			if ti != tj {
				return ti < tj
			}
			// If titles are equal, sort by date
			return compareByDate(records[i], records[j])
		})
	}
}

// compareByDate compares two records by their start
// Returns true if record i should come before record j
func compareByDate(i, j *event.Record) bool {
	// If only one date is known, put the known one first
	if i.Start.IsUnknown() != j.Start.IsUnknown() {
		return !i.Start.IsUnknown()
	}
	if i.Start.IsUnknown() {
		return i.URL < j.URL
	}
	return i.Start.Time().Before(j.Start.Time())
}
