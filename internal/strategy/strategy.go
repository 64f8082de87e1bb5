// Package strategy defines the contract shared by every extraction algorithm.
package strategy

import (
	"github.com/pfrederiksen/eventscrape/internal/document"
	"github.com/pfrederiksen/eventscrape/internal/event"
)

// Names of the built-in strategies as they appear in handler registrations
const (
	StructuredData       = "structured-data"
	SiteGenericSelectors = "site-generic-selectors"
	TextMining           = "text-mining"
	Selectors            = "selectors"
	LinePattern          = "line-pattern"
	Static               = "static"
	SquarespaceEvents    = "squarespace-events"
	TribeEvents          = "tribe-events"
	ShopifyProducts      = "shopify-products"
)

// Strategy is one self-contained extraction algorithm. Implementations must not keep
// per-call state: the same value is reused across documents and goroutines.
type Strategy interface {
	Name() string
	Extract(doc *document.RawDocument) (Outcome, error)
}

// Outcome is what a strategy found in one document
type Outcome struct {
	Records []*event.Record
	// Fragments is the number of candidate fragments inspected
	Fragments int
	// Terminal marks a deliberate "this site has no events right now" answer that
	// ends the chain.
	Terminal bool
}

// Terminal returns an empty outcome that stops the chain
func Terminal(fragments int) Outcome {
	return Outcome{Fragments: fragments, Terminal: true}
}

// Func adapts a function to the Strategy interface
type Func struct {
	ID string
	Fn func(doc *document.RawDocument) (Outcome, error)
}

func (f Func) Name() string { return f.ID }

func (f Func) Extract(doc *document.RawDocument) (Outcome, error) {
	return f.Fn(doc)
}

// Stamp sets the producing strategy and confidence on every record
func Stamp(records []*event.Record, name string, c event.Confidence) {
	for _, r := range records {
		r.Strategy = name
		if r.Confidence == event.ConfidenceUnset {
			r.Confidence = c
		}
	}
}
