// Package storage provides JSON-based persistence for extracted event records.
//
// Each source host gets its own directory under the data dir. High and medium
// confidence records go to published.json, low confidence records to review.json.
// Save merges a run into the stored snapshots and reports only the records that were
// not seen before, so uniqueness across runs is decided here rather than during
// extraction. The default storage location is ~/.eventscrape/.
package storage
