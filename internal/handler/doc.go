// Package handler holds the site and platform knowledge that overrides the generic
// extraction chain.
//
// A Registration maps a matching rule (exact domains or a detected platform signature)
// to an ordered list of strategy names plus the site literals those strategies need:
// CSS selectors, a line pattern, a locale for day/month order, a date separator, extra
// control labels and fixed event lists. Registrations are data, loaded from YAML once
// per pipeline; adding a site never touches dispatch code.
//
// The package also implements the handler strategies themselves. Every handler reports
// high confidence, except site-generic-selectors, which infers containers from class
// names and reports medium.
package handler
