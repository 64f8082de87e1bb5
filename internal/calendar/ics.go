// Package calendar renders extracted records as iCalendar (RFC 5545) data.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/eventscrape/internal/event"
)

const (
	prodID = "-//eventscrape//eventscrape//EN"
	// lineLimit is the RFC 5545 content line length in octets
	lineLimit = 75
)

// GenerateICS generates a one-event calendar for r. Records with an unknown start
// yield "".
func GenerateICS(r *event.Record, now time.Time) string {
	return GenerateBulkICS([]*event.Record{r}, "", now)
}

// GenerateBulkICS generates one calendar holding every record with a known start.
// It returns "" when no record qualifies.
func GenerateBulkICS(records []*event.Record, name string, now time.Time) string {
	var body strings.Builder
	n := 0
	for _, r := range records {
		if r == nil || r.Start.IsUnknown() {
			continue
		}
		writeEvent(&body, r, now)
		n++
	}
	if n == 0 {
		return ""
	}

	var ics strings.Builder
	writeLine(&ics, "BEGIN:VCALENDAR")
	writeLine(&ics, "VERSION:2.0")
	writeLine(&ics, "PRODID:"+prodID)
	writeLine(&ics, "CALSCALE:GREGORIAN")
	writeLine(&ics, "METHOD:PUBLISH")
	if name != "" {
		writeLine(&ics, "X-WR-CALNAME:"+escapeICS(name))
	}
	ics.WriteString(body.String())
	writeLine(&ics, "END:VCALENDAR")
	return ics.String()
}

func writeEvent(b *strings.Builder, r *event.Record, now time.Time) {
	writeLine(b, "BEGIN:VEVENT")
	writeLine(b, fmt.Sprintf("UID:%s@eventscrape", r.ID))
	writeLine(b, "DTSTAMP:"+formatICSTime(now))

	if r.Start.DateOnly() {
		start := r.Start.Time()
		writeLine(b, "DTSTART;VALUE=DATE:"+formatICSDate(start))
		// DTEND is exclusive for all-day events
		end := start.AddDate(0, 0, 1)
		if r.End != nil && !r.End.IsUnknown() && r.End.Time().After(start) {
			end = r.End.Time().AddDate(0, 0, 1)
		}
		writeLine(b, "DTEND;VALUE=DATE:"+formatICSDate(end))
	} else {
		writeLine(b, "DTSTART:"+formatICSTime(r.Start.Time()))
		if r.End != nil && !r.End.IsUnknown() && r.End.Time().After(r.Start.Time()) {
			writeLine(b, "DTEND:"+formatICSTime(r.End.Time()))
		}
	}

	writeLine(b, "SUMMARY:"+escapeICS(r.Title))

	location := r.LocationName
	if r.Address != "" && r.Address != location {
		if location != "" {
			location += ", "
		}
		location += r.Address
	}
	if location != "" {
		writeLine(b, "LOCATION:"+escapeICS(location))
	}

	var desc []string
	if r.RawDateText != "" {
		desc = append(desc, "Date: "+r.RawDateText)
	}
	desc = append(desc, "Source: "+r.SourceURL)
	if r.Confidence < event.Medium {
		desc = append(desc, "Needs review: low confidence extraction")
	}
	writeLine(b, "DESCRIPTION:"+escapeICS(strings.Join(desc, "\n")))

	if r.URL != "" {
		writeLine(b, "URL:"+r.URL)
	}
	status := "CONFIRMED"
	if r.Confidence < event.Medium {
		status = "TENTATIVE"
	}
	writeLine(b, "STATUS:"+status)
	writeLine(b, "TRANSP:OPAQUE")
	writeLine(b, "END:VEVENT")
}

// writeLine writes one content line, folding it at lineLimit octets without
// splitting a UTF-8 sequence
func writeLine(b *strings.Builder, line string) {
	limit := lineLimit
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8Start(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		// continuation lines lose one octet to the leading space
		limit = lineLimit - 1
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

func utf8Start(c byte) bool {
	return c&0xC0 != 0x80
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

func formatICSDate(t time.Time) string {
	return t.Format("20060102")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\r\n", "\\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
