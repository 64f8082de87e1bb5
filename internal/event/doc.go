// Package event defines the extracted event record and the operations that act on a set
// of records independent of how they were found.
//
// A Record carries its title, a Timestamp that may be explicitly unknown, the location,
// the canonical link and the raw date text it was parsed from, plus a Confidence tag
// describing how much inference went into it. Dedupe collapses repeated sightings inside
// one extraction run; Diff compares a run against a previously stored Snapshot.
package event
