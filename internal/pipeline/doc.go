// Package pipeline dispatches a fetched document to the strategy chain that fits it.
//
// For each document the dispatcher detects the site platform, resolves a handler
// registration (exact domain, then platform signature, then the generic chain) and runs
// the chain's strategies one at a time in priority order. The first strategy that
// yields a medium or high confidence record after the sanity check wins alone; low
// confidence output is kept only as a fallback. A handler may end the chain early by
// declaring that the site has no events.
//
// Extraction never returns an error. Faulty strategies, including panics, are
// reported through the Hook and treated as having found nothing. A Pipeline is
// read-only after New and may be shared between goroutines.
package pipeline
