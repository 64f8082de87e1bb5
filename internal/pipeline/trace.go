package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Trace describes one strategy attempt, or a rejected document when Malformed is set
type Trace struct {
	RunID        uuid.UUID
	SourceURL    string
	Registration string
	Strategy     string
	Fragments    int
	// Records counts what the strategy returned, Kept what survived the sanity check
	Records  int
	Kept     int
	Terminal bool
	Err      error
	Duration time.Duration

	Malformed bool
}

// Hook receives traces synchronously. It must not block.
type Hook func(Trace)
