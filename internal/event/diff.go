package event

import (
	"time"
)

// Snapshot is the stored set of records for one source at a point in time
type Snapshot struct {
	Records     map[string]*Record `json:"records"`      // keyed by Record.ID
	StableIndex map[string]string  `json:"stable_index"` // normalized title → ID
	ChangeLog   []*Change          `json:"change_log"`
	UpdatedAt   string             `json:"updated_at"` // RFC3339 timestamp
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Records:     make(map[string]*Record),
		StableIndex: make(map[string]string),
		ChangeLog:   make([]*Change, 0),
	}
}

// CreateSnapshot creates a snapshot from a list of records
func CreateSnapshot(records []*Record, updatedAt string) *Snapshot {
	snap := NewSnapshot()
	snap.UpdatedAt = updatedAt
	for _, r := range records {
		snap.Records[r.ID] = r
		snap.StableIndex[NormalizeTitle(r.Title)] = r.ID
	}
	return snap
}

// DiffResult holds the records of a run that the previous snapshot did not contain
type DiffResult struct {
	New          []*Record
	ByConfidence map[Confidence][]*Record
}

// Diff compares the current run against a previous snapshot
func Diff(previous *Snapshot, current []*Record) *DiffResult {
	result := &DiffResult{
		New:          make([]*Record, 0),
		ByConfidence: make(map[Confidence][]*Record),
	}
	if previous == nil {
		previous = NewSnapshot()
	}

	for _, r := range current {
		if _, exists := previous.Records[r.ID]; exists {
			continue
		}
		result.New = append(result.New, r)
		result.ByConfidence[r.Confidence] = append(result.ByConfidence[r.Confidence], r)
	}

	Sort(result.New)
	for c := range result.ByConfidence {
		Sort(result.ByConfidence[c])
	}
	return result
}

// Change describes one field that moved between runs for the same titled event
type Change struct {
	RecordID   string    `json:"record_id"`
	StableKey  string    `json:"stable_key"`
	ChangeType string    `json:"change_type"` // "new", "start", "location", "url"
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	DetectedAt time.Time `json:"detected_at"`
}

// DetectChanges compares two records with the same normalized title
func DetectChanges(previous, current *Record) []*Change {
	now := time.Now().UTC()
	key := NormalizeTitle(current.Title)

	if previous == nil {
		return []*Change{{
			RecordID:   current.ID,
			StableKey:  key,
			ChangeType: "new",
			NewValue:   current.Title,
			DetectedAt: now,
		}}
	}

	var changes []*Change
	add := func(kind, oldValue, newValue string) {
		if oldValue == newValue {
			return
		}
		changes = append(changes, &Change{
			RecordID:   current.ID,
			StableKey:  key,
			ChangeType: kind,
			OldValue:   oldValue,
			NewValue:   newValue,
			DetectedAt: now,
		})
	}
	add("start", previous.Start.String(), current.Start.String())
	add("location", previous.LocationName, current.LocationName)
	add("url", previous.URL, current.URL)
	return changes
}

// CompareSnapshots reports changes for every titled event in current
func CompareSnapshots(previous, current *Snapshot) []*Change {
	var all []*Change
	for stableKey, currentID := range current.StableIndex {
		cur := current.Records[currentID]
		if cur == nil {
			continue
		}
		var prev *Record
		if previousID, ok := previous.StableIndex[stableKey]; ok {
			prev = previous.Records[previousID]
		}
		all = append(all, DetectChanges(prev, cur)...)
	}
	return all
}
