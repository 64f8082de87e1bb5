package strategy

import (
	"github.com/pfrederiksen/eventscrape/internal/dateparse"
	"github.com/pfrederiksen/eventscrape/internal/event"
)

// NewRecord builds a record from a title and a parsed date. An unresolved date keeps
// its raw text, leaves the start unknown and caps confidence at low. A guessed
// day/month order lowers confidence one step.
func NewRecord(title string, date dateparse.Result, sourceURL string, c event.Confidence) *event.Record {
	r := event.NewRecord(title, Timestamp(date), date.Raw, sourceURL, Degrade(c, date))
	r.DateAmbiguous = date.Known && date.Ambiguous
	if date.Known && date.HasEnd() {
		end := event.OnDate(date.End)
		if date.EndHasTime {
			end = event.At(date.End)
		}
		r.End = &end
	}
	return r
}

// Timestamp converts a parse result into a record start
func Timestamp(date dateparse.Result) event.Timestamp {
	switch {
	case !date.Known:
		return event.Unknown()
	case date.HasTime:
		return event.At(date.Start)
	default:
		return event.OnDate(date.Start)
	}
}

// Degrade lowers c to reflect how much of date had to be guessed
func Degrade(c event.Confidence, date dateparse.Result) event.Confidence {
	switch {
	case !date.Known:
		return min(c, event.Low)
	case date.Ambiguous && c > event.Low:
		return c - 1
	}
	return c
}
