package dateparse

import "time"

// Style is a human date layout the Normalizer reads back
type Style string

const (
	StyleRFC3339      Style = time.RFC3339
	StyleISOMinute    Style = "2006-01-02 15:04"
	StyleLongAt       Style = "January 2, 2006 at 3:04 PM"
	StyleWeekdayAt    Style = "Monday, January 2, 2006 @ 3:04pm"
	StyleShort        Style = "Jan 2, 2006 3:04 PM"
	StyleNumericUS    Style = "01/02/2006 15:04"
	StyleDayMonth     Style = "2 January 2006 15:04"
	StyleShortComma   Style = "Jan 2 2006, 3:04 pm"
	StylePipe         Style = "January 2, 2006 | 3:04 PM"
	StyleLongDateOnly Style = "Monday, January 2, 2006"
)

var styles = []Style{
	StyleRFC3339,
	StyleISOMinute,
	StyleLongAt,
	StyleWeekdayAt,
	StyleShort,
	StyleNumericUS,
	StyleDayMonth,
	StyleShortComma,
	StylePipe,
	StyleLongDateOnly,
}

// Styles lists every layout Format supports
func Styles() []Style {
	out := make([]Style, len(styles))
	copy(out, styles)
	return out
}

// Format renders t in the given style
func Format(t time.Time, style Style) string {
	return t.Format(string(style))
}
