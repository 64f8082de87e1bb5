package event

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func april10() Timestamp {
	return OnDate(time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC))
}

func sampleRecords() []*Record {
	a := NewRecord("Spring Gala", april10(), "04/10/2025", "https://example.com", Medium)
	b := NewRecord("spring  gala", april10(), "April 10, 2025", "https://example.com", Medium)
	b.LocationName = "Town Hall"

	c := NewRecord("Spring Gala", april10(), "", "https://example.com", High)
	c.RawDateText = "2025-04-10"

	d := NewRecord("Summer Fair", Unknown(), "sometime in July", "https://example.com/fair", Low)
	e := NewRecord("Summer Fair", Unknown(), "July-ish", "https://example.com/other", Low)
	f := NewRecord("Summer Fair!", Unknown(), "July", "https://example.com/fair", Low)

	g := NewRecord("Spring Gala", OnDate(time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)), "April 10, 2026", "https://example.com", Medium)
	return []*Record{a, b, c, d, e, f, g}
}

func TestDedupe_MergesSameTitleAndStart(t *testing.T) {
	a := NewRecord("Spring Gala", april10(), "04/10/2025", "https://example.com", Medium)
	b := NewRecord("Spring Gala", april10(), "April 10, 2025", "https://example.com", Medium)

	out := Dedupe([]*Record{a, b})

	require.Len(t, out, 1)
	assert.Equal(t, "Spring Gala", out[0].Title)
}

func TestDedupe_WinnerSelection(t *testing.T) {
	out := Dedupe(sampleRecords())

	// gala 2025, gala 2026, fair (fair URL), fair (other URL)
	require.Len(t, out, 4)

	var gala *Record
	for _, r := range out {
		if NormalizeTitle(r.Title) == "spring gala" && r.Start.Time().Year() == 2025 {
			gala = r
		}
	}
	require.NotNil(t, gala)
	assert.Equal(t, High, gala.Confidence, "higher confidence wins")
}

func TestDedupe_CompletenessBreaksTies(t *testing.T) {
	a := NewRecord("Spring Gala", april10(), "04/10/2025", "https://example.com", Medium)
	b := NewRecord("Spring Gala", april10(), "April 10, 2025", "https://example.com", Medium)
	b.LocationName = "Town Hall"

	out := Dedupe([]*Record{a, b})
	require.Len(t, out, 1)
	assert.Equal(t, "Town Hall", out[0].LocationName)
}

func TestDedupe_TimedSightingWinsOverDateOnly(t *testing.T) {
	dateOnly := NewRecord("Spring Gala", OnDate(time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)), "04/10/2026", "https://example.com", Medium)
	timed := NewRecord("Spring Gala", At(time.Date(2026, 4, 10, 19, 0, 0, 0, time.UTC)), "April 10, 2026 at 7pm", "https://example.com", Medium)

	for _, in := range [][]*Record{{dateOnly, timed}, {timed, dateOnly}} {
		out := Dedupe(in)
		require.Len(t, out, 1)
		assert.Equal(t, "2026-04-10T19:00:00Z", out[0].Start.String())
		assert.Equal(t, "April 10, 2026 at 7pm", out[0].RawDateText)
	}
}

func TestDedupe_UnknownStartsNeedMatchingURL(t *testing.T) {
	a := NewRecord("Open Mic", Unknown(), "TBA", "https://example.com/a", Low)
	b := NewRecord("Open Mic", Unknown(), "TBA", "https://example.com/b", Low)
	c := NewRecord("Open Mic", Unknown(), "soon", "https://example.com/a", Low)

	out := Dedupe([]*Record{a, b, c})
	assert.Len(t, out, 2)
}

func TestDedupe_Idempotent(t *testing.T) {
	once := Dedupe(sampleRecords())
	twice := Dedupe(once)

	require.Len(t, twice, len(once))
	for i := range once {
		assert.Equal(t, fingerprint(once[i]), fingerprint(twice[i]))
	}
}

func TestDedupe_OrderIndependent(t *testing.T) {
	want := Dedupe(sampleRecords())

	rng := rand.New(rand.NewSource(42))
	for range 20 {
		records := sampleRecords()
		rng.Shuffle(len(records), func(i, j int) { records[i], records[j] = records[j], records[i] })

		got := Dedupe(records)
		require.Len(t, got, len(want))
		for i := range want {
			assert.Equal(t, fingerprint(want[i]), fingerprint(got[i]))
		}
	}
}

func TestDedupe_SkipsNil(t *testing.T) {
	out := Dedupe([]*Record{nil, NewRecord("Gala", april10(), "", "https://example.com", High)})
	assert.Len(t, out, 1)
}
