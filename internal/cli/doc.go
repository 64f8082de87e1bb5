// Package cli implements the command-line interface for eventscrape.
//
// The cli package provides the Cobra-based CLI: "extract" fetches a page (or reads a
// saved one), runs the extraction pipeline and prints the records as text, JSON or
// iCalendar, optionally saving them to the snapshot store; "handlers" lists the site
// registrations and their strategy chains. It wires config, logger, scraper, pipeline
// and storage together.
package cli
