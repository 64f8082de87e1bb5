// Package document holds the fetched page handed to the extraction pipeline and the
// candidate fragments carved out of it.
//
// A RawDocument is immutable once built. Fragments are transient views over a
// RawDocument's tree and only live for a single extraction pass.
package document
