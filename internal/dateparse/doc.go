// Package dateparse turns human-written event dates into canonical timestamps.
//
// It accepts ISO 8601 values, numeric dates with slash, dash or dot separators, written
// month names with optional weekdays and ordinals, times of day, "at"-style separators,
// and date or time ranges. Parsing never fails loudly: input that cannot be resolved
// yields a Result with Known set to false so callers can keep the raw text for review.
//
// Dates without a year resolve to the next occurrence that has not ended, relative to
// the normalizer's clock. Ambiguous numeric dates such as 03/04 follow the locale's day/month
// order; without a locale they are read month-first and flagged as Ambiguous.
package dateparse
