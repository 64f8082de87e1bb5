package dateparse

import (
	"regexp"
	"strings"
)

const (
	monthAlt   = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`
	weekdayAlt = `(?:mon|tue|tues|wed|weds|thu|thur|thurs|fri|sat|sun)(?:day|nesday|sday|urday)?\.?,?\s+`
	dayNum     = `\d{1,2}(?:st|nd|rd|th)?`
	timeExpr   = `\d{1,2}(?::\d{2})?\s*(?:[ap]\.?m\.?)|\d{1,2}[:h]\d{2}|noon|midnight`
)

var (
	isoFindRe = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?(?:Z|[+-]\d{2}:?\d{2})?)?`)

	writtenFindRe = regexp.MustCompile(`(?i)(?:` + weekdayAlt + `)?(?:` +
		// March 3, 2025 / March 3-5 / March 3 - April 5
		`\b` + monthAlt + `\s+` + dayNum + `(?:\s*-\s*(?:` + monthAlt + `\s+)?` + dayNum + `)?(?:,?\s+\d{4})?` +
		`|` +
		// 3 March 2025 / 3rd of March
		`\b` + dayNum + `(?:\s*-\s*` + dayNum + `)?\.?\s+(?:of\s+)?` + monthAlt + `(?:,?\s+\d{4})?` +
		`)`)

	numericFindRe = regexp.MustCompile(`\b\d{1,4}[/.-]\d{1,2}(?:[/.-]\d{2,4})?\b`)

	// day, word, year in any language; validated by Parse
	localFindRe = regexp.MustCompile(`\b\d{1,2}\.?\s+\p{L}+\.?\s+\d{4}\b`)

	timeTailRe  = regexp.MustCompile(`(?i)^\s*(?:[,@|·•-]|at|from|starting)?\s*(?:` + timeExpr + `)(?:\s*(?:-|to|until|till)\s*(?:` + timeExpr + `|\d{1,2}))?`)
	rangeTailRe = regexp.MustCompile(`(?i)^\s*(?:-|to|through|thru|until|till)\s*(?:` + weekdayAlt + `)?(?:` + monthAlt + `\s+` + dayNum + `(?:,?\s+\d{4})?|` + dayNum + `\.?\s+` + monthAlt + `(?:,?\s+\d{4})?|\d{1,4}[/.-]\d{1,2}(?:[/.-]\d{2,4})?)`)
)

// Find locates the first date expression in free text and returns it, including an
// adjoining time of day or range end. It returns "" when the text holds no date that
// Parse can resolve.
func (n *Normalizer) Find(text string) string {
	s := fold(text)
	if s == "" {
		return ""
	}

	type candidate struct{ start, end int }
	var cands []candidate
	for _, re := range []*regexp.Regexp{isoFindRe, writtenFindRe, numericFindRe, localFindRe} {
		for _, loc := range re.FindAllStringIndex(s, -1) {
			cands = append(cands, candidate{loc[0], loc[1]})
		}
	}
	if len(cands) == 0 {
		return ""
	}

	// leftmost first, longer match wins a tie
	for i := 1; i < len(cands); i++ {
		for j := i; j > 0; j-- {
			a, b := cands[j-1], cands[j]
			if b.start < a.start || (b.start == a.start && b.end > a.end) {
				cands[j-1], cands[j] = b, a
			}
		}
	}

	for _, c := range cands {
		end := c.end
		if loc := rangeTailRe.FindStringIndex(s[end:]); loc != nil {
			end += loc[1]
		}
		if loc := timeTailRe.FindStringIndex(s[end:]); loc != nil {
			end += loc[1]
		}
		found := strings.TrimSpace(s[c.start:end])
		if n.Parse(found).Known {
			return found
		}
		// the tail may have confused the parse
		found = strings.TrimSpace(s[c.start:c.end])
		if n.Parse(found).Known {
			return found
		}
	}
	return ""
}
