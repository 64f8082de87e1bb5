// Package scraper fetches pages over HTTP and hands them to extraction as parsed
// documents.
//
// It owns everything network-related: the user agent, the request timeout, redirects,
// body size limits and character set decoding. Non-200 responses are errors; a 200
// page with no content is returned as an empty document so extraction can report it.
package scraper
