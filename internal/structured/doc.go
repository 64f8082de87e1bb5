// Package structured reads author-declared event markup: JSON-LD, schema.org microdata,
// h-event microformats and Open Graph event tags.
//
// Mapping is strict. An object without a name or without a start date that the date
// normalizer can resolve is skipped rather than guessed. Everything found here is
// reported with high confidence.
package structured
