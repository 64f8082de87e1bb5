package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/eventscrape/internal/document"
	"github.com/pfrederiksen/eventscrape/internal/event"
)

// ErrRecordNotFound is returned by GetRecordByID
var ErrRecordNotFound = errors.New("record not found")

// Bucket selects one of a host's snapshot files
type Bucket string

const (
	Published Bucket = "published"
	Review    Bucket = "review"
)

// BucketFor returns where a record of the given confidence is stored
func BucketFor(c event.Confidence) Bucket {
	if c >= event.Medium {
		return Published
	}
	return Review
}

// Storage handles persistence of record snapshots
type Storage struct {
	dataDir string
	now     func() time.Time
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
		now:     time.Now,
	}, nil
}

// Dir returns the data directory
func (s *Storage) Dir() string {
	return s.dataDir
}

// hostDir maps a host onto a directory name that is safe on every filesystem
func hostDir(host string) string {
	host = document.NormalizeHost(host)
	if host == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		}
		return '_'
	}, host)
}

func (s *Storage) snapshotPath(host string, bucket Bucket) string {
	return filepath.Join(s.dataDir, hostDir(host), string(bucket)+".json")
}

// LoadSnapshot loads a snapshot from disk. A missing file yields an empty snapshot.
func (s *Storage) LoadSnapshot(host string, bucket Bucket) (*event.Snapshot, error) {
	path := s.snapshotPath(host, bucket)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return event.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot event.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	if snapshot.Records == nil {
		snapshot.Records = make(map[string]*event.Record)
	}
	if snapshot.StableIndex == nil {
		snapshot.StableIndex = make(map[string]string)
	}
	return &snapshot, nil
}

// SaveSnapshot saves a snapshot to disk
func (s *Storage) SaveSnapshot(snapshot *event.Snapshot, host string, bucket Bucket) error {
	path := s.snapshotPath(host, bucket)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating host directory: %w", err)
	}

	snapshot.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	// write then rename
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// SaveResult lists what a Save added
type SaveResult struct {
	New       []*event.Record
	Published []*event.Record
	Review    []*event.Record
	Changes   []*event.Change
}

// Save merges records into the host's snapshots and returns the ones not stored before.
// Records already known are refreshed in place; moved dates, venues and links are
// appended to the snapshot's change log.
func (s *Storage) Save(host string, records []*event.Record) (*SaveResult, error) {
	split := map[Bucket][]*event.Record{}
	for _, r := range records {
		if r == nil {
			continue
		}
		b := BucketFor(r.Confidence)
		split[b] = append(split[b], r)
	}

	result := &SaveResult{
		New:       make([]*event.Record, 0),
		Published: make([]*event.Record, 0),
		Review:    make([]*event.Record, 0),
	}
	for _, bucket := range []Bucket{Published, Review} {
		current := split[bucket]
		if len(current) == 0 {
			continue
		}

		previous, err := s.LoadSnapshot(host, bucket)
		if err != nil {
			return nil, err
		}

		diff := event.Diff(previous, current)
		changes := changed(previous, diff.New, current)

		for _, r := range current {
			previous.Records[r.ID] = r
			previous.StableIndex[event.NormalizeTitle(r.Title)] = r.ID
		}
		previous.ChangeLog = append(previous.ChangeLog, changes...)

		if err := s.SaveSnapshot(previous, host, bucket); err != nil {
			return nil, err
		}

		result.New = append(result.New, diff.New...)
		result.Changes = append(result.Changes, changes...)
		if bucket == Published {
			result.Published = diff.New
		} else {
			result.Review = diff.New
		}
	}
	event.Sort(result.New)
	return result, nil
}

// changed reports moved events: a new record whose title the previous snapshot
// tracked under a record that this run no longer produced. Recurring titles that
// still appear are not changes.
func changed(previous *event.Snapshot, added, current []*event.Record) []*event.Change {
	seen := make(map[string]bool, len(current))
	for _, r := range current {
		seen[r.ID] = true
	}

	var out []*event.Change
	for _, r := range added {
		id, ok := previous.StableIndex[event.NormalizeTitle(r.Title)]
		if !ok || seen[id] {
			continue
		}
		if prev := previous.Records[id]; prev != nil {
			out = append(out, event.DetectChanges(prev, r)...)
		}
	}
	return out
}

// GetRecordByID retrieves a record by ID, searching published before review
func (s *Storage) GetRecordByID(host, id string) (*event.Record, error) {
	for _, bucket := range []Bucket{Published, Review} {
		snapshot, err := s.LoadSnapshot(host, bucket)
		if err != nil {
			return nil, fmt.Errorf("loading snapshot: %w", err)
		}
		if r, ok := snapshot.Records[id]; ok {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
}
