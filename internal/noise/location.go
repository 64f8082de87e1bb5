package noise

import (
	"regexp"
	"strings"
)

var (
	streetRe = regexp.MustCompile(`(?i)\b\d{1,6}\s+(?:[\p{L}0-9.'-]+\s+){0,4}(?:st|street|ave|avenue|rd|road|blvd|boulevard|dr|drive|ln|lane|way|pl|place|ct|court|hwy|highway|pkwy|parkway|sq|square|ter|terrace|cir|circle|trl|trail)\b\.?`)
	// "Springfield, IL" or "Austin, TX 78701"
	cityStateRe = regexp.MustCompile(`\b\p{Lu}[\p{L}.'-]+(?:\s\p{Lu}[\p{L}.'-]+)*,\s*[A-Z]{2}\b(?:\s+\d{5}(?:-\d{4})?)?`)
	postcodeRe  = regexp.MustCompile(`\b(?:\d{5}(?:-\d{4})?|[A-Z]{1,2}\d[A-Z\d]?\s?\d[A-Z]{2})\b`)
	venueRe     = regexp.MustCompile(`(?i)\b(?:hall|park|cent(?:er|re)|theat(?:er|re)|stadium|arena|church|library|club|museum|gallery|venue|auditorium|ballroom|pavilion|amphitheat(?:er|re)|brewery|winery|tavern|pub|bar|hotel|campus|plaza|fairgrounds|golf course|country club|online|virtual|livestream|zoom)\b`)
)

// LooksLikeLocation reports whether text carries an address or venue-like token
func LooksLikeLocation(text string) bool {
	return LooksLikeAddress(text) || venueRe.MatchString(text)
}

// LooksLikeAddress reports whether text is shaped like a postal address
func LooksLikeAddress(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	return streetRe.MatchString(text) || cityStateRe.MatchString(text) || postcodeRe.MatchString(text)
}

// HasVenueKeyword reports whether text names a kind of venue
func HasVenueKeyword(text string) bool {
	return venueRe.MatchString(text)
}
