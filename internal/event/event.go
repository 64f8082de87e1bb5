package event

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Confidence tags how much a record relied on inference
type Confidence int

const (
	ConfidenceUnset Confidence = iota
	Low
	Medium
	High
)

// String returns the lower-case name used on the wire
func (c Confidence) String() string {
	switch c {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "unset"
	}
}

// MarshalText implements encoding.TextMarshaler
func (c Confidence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Confidence) UnmarshalText(b []byte) error {
	parsed, err := ParseConfidence(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseConfidence converts "high", "medium" or "low" into a Confidence
func ParseConfidence(s string) (Confidence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return High, nil
	case "medium":
		return Medium, nil
	case "low":
		return Low, nil
	case "", "unset":
		return ConfidenceUnset, nil
	}
	return ConfidenceUnset, fmt.Errorf("unknown confidence: %q", s)
}

// Timestamp is a canonical point in time, or the explicit "unknown" marker.
// The zero value is unknown.
type Timestamp struct {
	t        time.Time
	known    bool
	dateOnly bool
}

const (
	unknownText    = "unknown"
	dateOnlyLayout = "2006-01-02"
)

// Unknown returns the "unknown" marker
func Unknown() Timestamp {
	return Timestamp{}
}

// At returns a timestamp with a time of day
func At(t time.Time) Timestamp {
	return Timestamp{t: t, known: true}
}

// OnDate returns a timestamp that only carries a calendar date
func OnDate(t time.Time) Timestamp {
	return Timestamp{
		t:        time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()),
		known:    true,
		dateOnly: true,
	}
}

// IsUnknown reports whether the timestamp is the "unknown" marker
func (ts Timestamp) IsUnknown() bool {
	return !ts.known
}

// Time returns the underlying time; zero when unknown
func (ts Timestamp) Time() time.Time {
	return ts.t
}

// DateOnly reports whether no time of day was recovered
func (ts Timestamp) DateOnly() bool {
	return ts.dateOnly
}

// Equal compares two timestamps; two unknowns are equal
func (ts Timestamp) Equal(other Timestamp) bool {
	if ts.known != other.known {
		return false
	}
	if !ts.known {
		return true
	}
	return ts.t.Equal(other.t)
}

// String renders "unknown", YYYY-MM-DD for date-only values, or RFC 3339
func (ts Timestamp) String() string {
	if !ts.known {
		return unknownText
	}
	if ts.dateOnly {
		return ts.t.Format(dateOnlyLayout)
	}
	return ts.t.Format(time.RFC3339)
}

// MarshalJSON implements json.Marshaler
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch {
	case s == "" || s == unknownText:
		*ts = Unknown()
	case len(s) == len(dateOnlyLayout):
		t, err := time.Parse(dateOnlyLayout, s)
		if err != nil {
			return fmt.Errorf("parsing date: %w", err)
		}
		*ts = OnDate(t)
	default:
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("parsing timestamp: %w", err)
		}
		*ts = At(t)
	}
	return nil
}

// Record is one extracted event
type Record struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Start         Timestamp  `json:"start"`
	End           *Timestamp `json:"end,omitempty"`
	LocationName  string     `json:"location_name,omitempty"`
	Address       string     `json:"address,omitempty"`
	URL           string     `json:"url"`
	RawDateText   string     `json:"raw_date_text,omitempty"`
	DateAmbiguous bool       `json:"date_ambiguous,omitempty"`
	Confidence    Confidence `json:"confidence"`
	Strategy      string     `json:"strategy,omitempty"`
	SourceURL     string     `json:"source_url"`
}

// NewRecord creates a record whose URL defaults to the source page
func NewRecord(title string, start Timestamp, rawDateText, sourceURL string, confidence Confidence) *Record {
	r := &Record{
		Title:       CleanText(title),
		Start:       start,
		URL:         sourceURL,
		RawDateText: strings.TrimSpace(rawDateText),
		Confidence:  confidence,
		SourceURL:   sourceURL,
	}
	r.ID = GenerateID(r.Key())
	return r
}

// Usable reports whether the record is worth emitting: it needs a title and either a
// parsed start or the raw date text for human review.
func (r *Record) Usable() bool {
	if strings.TrimSpace(r.Title) == "" {
		return false
	}
	return !r.Start.IsUnknown() || r.RawDateText != ""
}

// Completeness counts the populated optional fields
func (r *Record) Completeness() int {
	n := 0
	if !r.Start.IsUnknown() {
		n++
		if !r.Start.DateOnly() {
			n++
		}
	}
	if r.End != nil && !r.End.IsUnknown() {
		n++
	}
	if r.LocationName != "" {
		n++
	}
	if r.Address != "" {
		n++
	}
	if r.URL != "" && r.URL != r.SourceURL {
		n++
	}
	if r.RawDateText != "" {
		n++
	}
	return n
}

// Key identifies duplicates: normalized title plus the start's calendar date in its
// own zone, or plus the URL when the start is unknown. A timed and a date-only sighting
// of the same day share a key.
func (r *Record) Key() string {
	title := NormalizeTitle(r.Title)
	if r.Start.IsUnknown() {
		return title + "|unknown|" + strings.ToLower(strings.TrimSpace(r.URL))
	}
	return title + "|" + r.Start.Time().Format(time.DateOnly)
}

// Refresh recomputes the ID after fields were changed
func (r *Record) Refresh() {
	r.ID = GenerateID(r.Key())
}

// GenerateID creates a deterministic ID from a dedupe key
func GenerateID(key string) string {
	h := sha1.New()
	h.Write([]byte(key))
	return fmt.Sprintf("%x", h.Sum(nil))
}

var folder = cases.Fold()

// NormalizeTitle folds case, strips punctuation and collapses whitespace
func NormalizeTitle(title string) string {
	s := folder.String(norm.NFKC.String(title))
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case unicode.IsSpace(r), unicode.IsPunct(r), unicode.IsSymbol(r):
			return ' '
		}
		return -1
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// CleanText collapses whitespace and trims; HTML entities are already decoded by the parser
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
