package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/pfrederiksen/eventscrape/internal/calendar"
	"github.com/pfrederiksen/eventscrape/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatICS  OutputFormat = "ics"
)

// Valid reports whether f is a known format
func (f OutputFormat) Valid() bool {
	switch f {
	case FormatText, FormatJSON, FormatICS:
		return true
	}
	return false
}

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt    time.Time       `json:"checked_at"`
	RunID        string          `json:"run_id"`
	SourceURL    string          `json:"source_url"`
	Registration string          `json:"registration"`
	Platform     string          `json:"platform,omitempty"`
	Strategy     string          `json:"strategy,omitempty"`
	Status       string          `json:"status"`
	Records      []*event.Record `json:"records"`
	EventCount   int             `json:"event_count"`
	// set when the run was saved to the snapshot store
	Saved     bool            `json:"saved,omitempty"`
	NewEvents []*event.Record `json:"new_events,omitempty"`
	Changes   []*event.Change `json:"changes,omitempty"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	case FormatICS:
		return writeICS(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeICS outputs the saved-new records when saving, every record otherwise
func writeICS(w io.Writer, result *OutputResult) error {
	records := result.Records
	if result.Saved {
		records = result.NewEvents
	}
	name := result.SourceURL
	if u, err := url.Parse(result.SourceURL); err == nil && u.Host != "" {
		name = u.Host
	}
	_, err := io.WriteString(w, calendar.GenerateBulkICS(records, name, result.CheckedAt))
	return err
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if verbose {
		fmt.Fprintf(w, "Source: %s\n", result.SourceURL)
		fmt.Fprintf(w, "Registration: %s", result.Registration)
		if result.Platform != "" {
			fmt.Fprintf(w, " (platform %s)", result.Platform)
		}
		fmt.Fprintln(w)
		if result.Strategy != "" {
			fmt.Fprintf(w, "Strategy: %s\n", result.Strategy)
		}
		fmt.Fprintln(w)
	}

	switch result.Status {
	case "malformed":
		fmt.Fprintln(w, "Page has no content to extract from.")
		return nil
	case "no_events":
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	isNew := map[string]bool{}
	for _, r := range result.NewEvents {
		isNew[r.ID] = true
	}

	for _, r := range result.Records {
		prefix := ""
		if result.Saved && isNew[r.ID] {
			prefix = "NEW: "
		}
		fmt.Fprintf(w, "%s%s  %s", prefix, formatStart(r), r.Title)
		if r.LocationName != "" {
			fmt.Fprintf(w, " @ %s", r.LocationName)
		}
		if r.Confidence < event.Medium {
			fmt.Fprint(w, " [needs review]")
		}
		fmt.Fprintln(w)
		if verbose {
			fmt.Fprintf(w, "     ID: %s\n", r.ID)
			fmt.Fprintf(w, "     Confidence: %s\n", r.Confidence)
			if r.RawDateText != "" {
				fmt.Fprintf(w, "     Date: %s\n", r.RawDateText)
			}
			if r.DateAmbiguous {
				fmt.Fprintln(w, "     Day/month order guessed")
			}
			if r.Address != "" {
				fmt.Fprintf(w, "     Address: %s\n", r.Address)
			}
			if r.URL != "" && r.URL != r.SourceURL {
				fmt.Fprintf(w, "     URL: %s\n", r.URL)
			}
		}
	}

	if result.Saved {
		fmt.Fprintf(w, "\nTotal: %d events, %d new\n", result.EventCount, len(result.NewEvents))
		for _, c := range result.Changes {
			fmt.Fprintf(w, "Changed %s of %q: %s → %s\n", c.ChangeType, c.StableKey, c.OldValue, c.NewValue)
		}
		return nil
	}
	fmt.Fprintf(w, "\nTotal: %d events\n", result.EventCount)
	return nil
}

func formatStart(r *event.Record) string {
	if r.Start.IsUnknown() {
		return "date unknown"
	}
	if r.Start.DateOnly() {
		return r.Start.Time().Format("Mon Jan 2, 2006")
	}
	return r.Start.Time().Format("Mon Jan 2, 2006 15:04")
}
