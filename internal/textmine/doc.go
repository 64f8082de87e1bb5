// Package textmine is the heuristic fallback for pages without structured data or a
// dedicated handler.
//
// It anchors on the smallest elements whose text carries a date, grows each anchor into
// the largest surrounding fragment that still describes a single event, drops fragments
// the noise filter rejects, then recovers a title, a location and a link from inside or
// near the fragment. Records with both a title and a resolved date are medium
// confidence; anything partial is low.
package textmine
