// Package noise tells event content apart from page chrome.
//
// A Classifier applies four policies in order and stops at the first match:
//
//   - label: the fragment's whole text is a known control word ("All Events",
//     "Filter by Location", category chips configured per site)
//   - structure: the fragment sits inside navigation, a filter form, pagination or a
//     page-level header/footer, recognised by landmark role and class tokens rather
//     than exact tags
//   - repetition: the fragment's text, or its title, recurs across the document more
//     often than the configured threshold; vouched fragments are checked by whole
//     text only, so a site's weekly series survives
//   - shape: the fragment carries neither a date-like nor a location-like token and is
//     shorter than the minimum content length, unless a site handler vouched for it
package noise
