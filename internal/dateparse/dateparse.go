package dateparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/goodsign/monday"
	"golang.org/x/text/unicode/norm"
)

// Order is the field order used for numeric dates
type Order int

const (
	MonthFirst Order = iota
	DayFirst
)

// dayFirstLocales lists locales whose numeric dates are written day/month/year
var dayFirstLocales = map[string]bool{
	"en_gb": true, "en_au": true, "en_nz": true, "en_ie": true, "en_in": true, "en_za": true,
	"fr_fr": true, "fr_be": true, "de_de": true, "de_at": true, "de_ch": true,
	"es_es": true, "es_mx": true, "it_it": true, "nl_nl": true, "nl_be": true, "pt_pt": true,
	"pt_br": true, "da_dk": true, "fi_fi": true, "nb_no": true, "pl_pl": true,
	"ru_ru": true, "cs_cz": true,
}

// Options configures a Normalizer
type Options struct {
	// Locale such as "en_US" or "fr_FR". Empty means unspecified: month-first with
	// ambiguous numeric dates flagged.
	Locale string
	// Location for dates without an explicit zone. Defaults to UTC.
	Location *time.Location
	// Now anchors year inference. Defaults to time.Now.
	Now func() time.Time
}

// Normalizer parses date text. It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	locale     string
	order      Order
	orderKnown bool
	english    bool
	loc        *time.Location
	now        func() time.Time
}

// New creates a Normalizer
func New(opts Options) *Normalizer {
	n := &Normalizer{
		locale:  opts.Locale,
		loc:     opts.Location,
		now:     opts.Now,
		english: true,
	}
	if n.loc == nil {
		n.loc = time.UTC
	}
	if n.now == nil {
		n.now = time.Now
	}

	key := strings.ToLower(strings.ReplaceAll(opts.Locale, "-", "_"))
	if key != "" {
		n.orderKnown = true
		if dayFirstLocales[key] {
			n.order = DayFirst
		}
		n.english = strings.HasPrefix(key, "en")
	}
	return n
}

// Locale returns the configured locale, possibly empty
func (n *Normalizer) Locale() string {
	return n.locale
}

// Location returns the zone applied to dates without an explicit offset
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Now returns the normalizer's clock reading in its location
func (n *Normalizer) Now() time.Time {
	return n.now().In(n.loc)
}

// Result is the outcome of parsing one date string
type Result struct {
	Raw        string
	Start      time.Time
	End        time.Time // zero unless the text described a range
	Known      bool
	HasTime    bool
	EndHasTime bool
	// Ambiguous is set when day/month order was guessed month-first
	Ambiguous bool
}

// HasEnd reports whether the text described a range
func (r Result) HasEnd() bool {
	return !r.End.IsZero()
}

var isoLayouts = []struct {
	layout  string
	hasTime bool
	hasZone bool
}{
	{time.RFC3339, true, true},
	{"2006-01-02T15:04Z07:00", true, true},
	{"2006-01-02T15:04:05", true, false},
	{"2006-01-02T15:04", true, false},
	{"2006-01-02 15:04:05", true, false},
	{"2006-01-02 15:04", true, false},
	{"2006-01-02T15:04:05-0700", true, true},
	{"2006-01-02", false, false},
}

// Parse resolves raw date text. It never panics or errors; unresolvable input returns a
// Result with Known == false.
func (n *Normalizer) Parse(raw string) Result {
	res := Result{Raw: raw}
	s := fold(raw)
	if s == "" {
		return res
	}

	if t, hasTime, ok := n.parseISO(s); ok {
		res.Start, res.HasTime, res.Known = t, hasTime, true
		return res
	}

	rest, clock := cutTimes(s)

	span, ok := n.parseDates(cleanDateText(rest))
	if !ok {
		span, ok = n.parseLocalized(cleanDateText(rest))
	}
	if !ok {
		return res
	}
	n.inferYears(&span)

	day, ok := span.from.date(n.loc)
	if !ok {
		return res
	}
	res.Known = true
	res.Ambiguous = span.ambiguous
	res.Start = day
	if clock.start.ok {
		res.Start = clock.start.on(day)
		res.HasTime = true
	}

	switch {
	case span.isRange:
		endDay, ok := span.to.date(n.loc)
		if !ok || endDay.Before(day) {
			break
		}
		res.End = endDay
		if clock.end.ok {
			res.End = clock.end.on(endDay)
			res.EndHasTime = true
		}
	case clock.end.ok && res.HasTime:
		end := clock.end.on(day)
		if end.Before(res.Start) {
			end = end.AddDate(0, 0, 1)
		}
		res.End = end
		res.EndHasTime = true
	}
	return res
}

func (n *Normalizer) parseISO(s string) (time.Time, bool, bool) {
	for _, l := range isoLayouts {
		var (
			t   time.Time
			err error
		)
		if l.hasZone {
			t, err = time.Parse(l.layout, s)
		} else {
			t, err = time.ParseInLocation(l.layout, s, n.loc)
		}
		if err == nil {
			return t, l.hasTime, true
		}
	}
	// RFC 3339 with a lower-case separator from upstream normalisation
	if len(s) > 10 && s[4] == '-' && (s[10] == 't' || s[10] == 'T') {
		if t, err := time.Parse(time.RFC3339, strings.ToUpper(s)); err == nil {
			return t, true, true
		}
	}
	return time.Time{}, false, false
}

// fold applies NFKC, maps dashes and odd spaces, drops invisible runes and collapses
// whitespace. Case is preserved.
func fold(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\ufeff', '\u200d', '\u200c':
			return -1
		case '\t', '\n', '\r', '\v', '\f', '\u00a0':
			return ' '
		case '\u2212':
			return '-'
		}
		if unicode.Is(unicode.Pd, r) {
			return '-'
		}
		if unicode.Is(unicode.Zs, r) {
			return ' '
		}
		if !unicode.IsGraphic(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

var (
	meridiemDotsRe = regexp.MustCompile(`(?i)\b([ap])\.\s?m\.?`)
	fillerRe       = regexp.MustCompile(`(?i)\b(at|from|on|starting|starts|begins|doors|time|date|when|[ecmp][sd]t|utc|gmt)\b`)
	separatorRe    = regexp.MustCompile(`[@|·•,;()\[\]]`)
	ordinalRe      = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
	dashWordRe     = regexp.MustCompile(`(\d)\s*-\s*(\pL)`)
)

// cleanDateText strips separators and filler words left after removing times
func cleanDateText(s string) string {
	s = separatorRe.ReplaceAllString(s, " ")
	s = fillerRe.ReplaceAllString(s, " ")
	s = ordinalRe.ReplaceAllString(s, "$1")
	s = dashWordRe.ReplaceAllString(s, "$1 - $2")
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, " -.")
}

// ymd is a possibly partial calendar date
type ymd struct {
	year, month, day int
}

func (d ymd) date(loc *time.Location) (time.Time, bool) {
	if d.year == 0 || d.month == 0 || d.day == 0 {
		return time.Time{}, false
	}
	t := time.Date(d.year, time.Month(d.month), d.day, 0, 0, 0, 0, loc)
	if t.Month() != time.Month(d.month) || t.Day() != d.day {
		return time.Time{}, false
	}
	return t, true
}

type span struct {
	from, to  ymd
	isRange   bool
	ambiguous bool
}

var (
	numericRe  = regexp.MustCompile(`^(\d{1,4})([/.-])(\d{1,2})(?:[/.-](\d{2,4}))?$`)
	rangeSepRe = regexp.MustCompile(`(?i)\s+(?:-|to|through|thru|until|till)\s+`)
	dayRangeRe = regexp.MustCompile(`\b(\d{1,2})\s?-\s?(\d{1,2})\b`)
)

func (n *Normalizer) parseDates(s string) (span, bool) {
	var sp span
	if s == "" {
		return sp, false
	}

	left, right := s, ""
	if loc := rangeSepRe.FindStringIndex(s); loc != nil {
		left, right = s[:loc[0]], s[loc[1]:]
		sp.isRange = true
	} else if !numericRe.MatchString(s) {
		if m := dayRangeRe.FindStringSubmatchIndex(s); m != nil {
			left = s[:m[0]] + s[m[2]:m[3]] + s[m[1]:]
			right = s[m[4]:m[5]]
			sp.isRange = true
		}
	}

	from, amb, ok := n.parseSide(left)
	if !ok {
		return sp, false
	}
	sp.from = from
	sp.ambiguous = amb

	if sp.isRange {
		to, amb, ok := n.parseSide(right)
		if !ok {
			// the left side still stands as a single date
			sp.isRange = false
			if sp.from.month == 0 || sp.from.day == 0 {
				return sp, false
			}
			return sp, true
		}
		sp.ambiguous = sp.ambiguous || amb
		if to.month == 0 {
			to.month = from.month
		}
		if from.month == 0 {
			from.month = to.month
		}
		if to.year == 0 && from.year != 0 {
			to.year = from.year
			if to.month < from.month {
				to.year++
			}
		}
		if from.year == 0 && to.year != 0 {
			from.year = to.year
			if from.month > to.month {
				from.year--
			}
		}
		sp.from, sp.to = from, to
	}

	if sp.from.month == 0 || sp.from.day == 0 {
		return sp, false
	}
	return sp, true
}

// parseSide parses one side of a possible range. A bare day number is accepted so the
// caller can inherit month and year from the other side.
func (n *Normalizer) parseSide(s string) (ymd, bool, bool) {
	var d ymd
	s = strings.TrimSpace(s)
	if s == "" {
		return d, false, false
	}

	if m := numericRe.FindStringSubmatch(s); m != nil {
		return n.parseNumeric(m)
	}

	for _, tok := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '/'
	}) {
		if m, ok := months[tok]; ok {
			if d.month != 0 {
				return d, false, false
			}
			d.month = int(m)
			continue
		}
		if weekdays[tok] {
			continue
		}
		num, err := strconv.Atoi(tok)
		if err != nil {
			if tok == "of" || tok == "the" || tok == "-" {
				continue
			}
			if hasDigit(tok) {
				return d, false, false
			}
			continue
		}
		switch {
		case len(tok) == 4 && num >= 1900 && num < 3000:
			if d.year != 0 {
				return d, false, false
			}
			d.year = num
		case len(tok) <= 2 && num >= 1 && num <= 31 && d.day == 0:
			d.day = num
		default:
			return d, false, false
		}
	}
	if d.day == 0 {
		return d, false, false
	}
	return d, false, true
}

func (n *Normalizer) parseNumeric(m []string) (ymd, bool, bool) {
	var d ymd
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[3])

	if len(m[1]) == 4 {
		if m[4] == "" {
			return d, false, false
		}
		c, _ := strconv.Atoi(m[4])
		d = ymd{year: a, month: b, day: c}
		return d, false, validMonthDay(d)
	}
	if len(m[1]) > 2 {
		return d, false, false
	}
	if m[4] == "" && m[2] != "/" {
		return d, false, false
	}

	ambiguous := false
	switch {
	case a > 12 && b <= 12:
		d.day, d.month = a, b
	case b > 12 && a <= 12:
		d.month, d.day = a, b
	case n.order == DayFirst:
		d.day, d.month = a, b
	default:
		d.month, d.day = a, b
		ambiguous = !n.orderKnown && a != b
	}

	if m[4] != "" {
		y, _ := strconv.Atoi(m[4])
		if len(m[4]) == 2 {
			y += 2000
		} else if len(m[4]) != 4 {
			return d, false, false
		}
		d.year = y
	}
	return d, ambiguous, validMonthDay(d)
}

func validMonthDay(d ymd) bool {
	return d.month >= 1 && d.month <= 12 && d.day >= 1 && d.day <= 31
}

// inferYears fills missing years with the next occurrence that has not ended yet, so a
// range already in progress stays in the current year.
func (n *Normalizer) inferYears(sp *span) {
	if sp.from.year != 0 {
		return
	}
	now := n.now().In(n.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, n.loc)

	// Feb 29 may need several years to come round again
	for y := now.Year() - 1; y < now.Year()+8; y++ {
		from, last := sp.from, sp.from
		from.year = y
		last.year = y
		if sp.isRange {
			last = sp.to
			last.year = y
			if last.month < from.month {
				last.year++
			}
		}
		if _, ok := from.date(n.loc); !ok {
			continue
		}
		if end, ok := last.date(n.loc); ok && !end.Before(today) {
			sp.from = from
			if sp.isRange {
				sp.to = last
			}
			return
		}
	}

	sp.from.year = now.Year()
	if sp.isRange && sp.to.year == 0 {
		sp.to.year = sp.from.year
		if sp.to.month < sp.from.month {
			sp.to.year++
		}
	}
}

var localizedLayouts = []string{
	"2 January 2006",
	"2 Jan 2006",
	"2. January 2006",
	"Monday 2 January 2006",
	"Monday 2. January 2006",
	"January 2 2006",
	"2 January",
	"2. January",
	"Monday 2 January",
}

// parseLocalized handles written month names in the normalizer's locale
func (n *Normalizer) parseLocalized(s string) (span, bool) {
	var sp span
	if n.english || s == "" {
		return sp, false
	}
	locale := monday.Locale(strings.ReplaceAll(n.locale, "-", "_"))
	for _, layout := range localizedLayouts {
		t, err := monday.ParseInLocation(layout, s, n.loc, locale)
		if err != nil {
			continue
		}
		sp.from = ymd{month: int(t.Month()), day: t.Day()}
		if strings.Contains(layout, "2006") {
			sp.from.year = t.Year()
		}
		return sp, true
	}
	return sp, false
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

var weekdays = map[string]bool{
	"mon": true, "monday": true,
	"tue": true, "tues": true, "tuesday": true,
	"wed": true, "weds": true, "wednesday": true,
	"thu": true, "thur": true, "thurs": true, "thursday": true,
	"fri": true, "friday": true,
	"sat": true, "saturday": true,
	"sun": true, "sunday": true,
}

// normalizeMeridiem rewrites "p.m." style markers to "pm"
func normalizeMeridiem(s string) string {
	return meridiemDotsRe.ReplaceAllString(s, "${1}m")
}

// Fold applies the same normalisation Parse and Find use, so callers can match the
// text Find returns against their own copy.
func Fold(s string) string {
	return fold(s)
}
