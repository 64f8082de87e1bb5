package structured

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pfrederiksen/eventscrape/internal/dateparse"
	"github.com/pfrederiksen/eventscrape/internal/document"
	"github.com/pfrederiksen/eventscrape/internal/event"
	"github.com/pfrederiksen/eventscrape/internal/strategy"
)

// Extractor is the structured-data strategy
type Extractor struct {
	dates  *dateparse.Normalizer
	policy *bluemonday.Policy
}

// New creates an Extractor that resolves dates with n
func New(n *dateparse.Normalizer) *Extractor {
	if n == nil {
		n = dateparse.New(dateparse.Options{})
	}
	return &Extractor{
		dates:  n,
		policy: bluemonday.StrictPolicy(),
	}
}

// Name implements strategy.Strategy
func (e *Extractor) Name() string {
	return strategy.StructuredData
}

// Extract implements strategy.Strategy
func (e *Extractor) Extract(doc *document.RawDocument) (strategy.Outcome, error) {
	var out strategy.Outcome
	if doc.Empty() {
		return out, nil
	}

	for _, source := range []func(*document.RawDocument) ([]candidate, int){
		e.jsonLD,
		e.microdata,
		e.hEvents,
		e.openGraph,
	} {
		cands, inspected := source(doc)
		out.Fragments += inspected
		for _, c := range cands {
			if r := e.build(doc, c); r != nil {
				out.Records = append(out.Records, r)
			}
		}
	}

	strategy.Stamp(out.Records, e.Name(), event.High)
	return out, nil
}

// candidate is an event object with its raw field values
type candidate struct {
	name     string
	start    string
	end      string
	location string
	address  string
	url      string
}

func (e *Extractor) build(doc *document.RawDocument, c candidate) *event.Record {
	title := e.clean(c.name)
	if title == "" || strings.TrimSpace(c.start) == "" {
		return nil
	}
	start := e.dates.Parse(strings.TrimSpace(c.start))
	if !start.Known {
		return nil
	}

	r := strategy.NewRecord(title, start, doc.SourceURL, event.High)
	if c.end != "" {
		if end := e.dates.Parse(strings.TrimSpace(c.end)); end.Known && !end.Start.Before(start.Start) {
			ts := strategy.Timestamp(end)
			r.End = &ts
		}
	}
	r.LocationName = e.clean(c.location)
	r.Address = e.clean(c.address)
	if u := doc.Resolve(c.url); u != "" {
		r.URL = u
	}
	r.Refresh()
	return r
}

// clean strips markup and entities that authors leave inside structured strings
func (e *Extractor) clean(s string) string {
	if s == "" {
		return ""
	}
	s = e.policy.Sanitize(s)
	s = html.UnescapeString(s)
	return event.CleanText(s)
}
