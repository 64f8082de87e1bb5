package textmine

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/eventscrape/internal/dateparse"
	"github.com/pfrederiksen/eventscrape/internal/document"
	"github.com/pfrederiksen/eventscrape/internal/event"
	"github.com/pfrederiksen/eventscrape/internal/noise"
	"github.com/pfrederiksen/eventscrape/internal/strategy"
	"golang.org/x/net/html"
)

const (
	maxTitleLength    = 200
	minTitleLength    = 3
	headingLookback   = 6
	headingClimbLevel = 3
)

// Mine turns one fragment into a record, or nil when no title can be found
func (e *Extractor) Mine(doc *document.RawDocument, frag *document.Fragment, c *noise.Classifier) *event.Record {
	dateText, date := e.date(frag)
	title, titleSel := e.title(frag, dateText, c)
	if title == "" {
		return nil
	}

	conf := event.Low
	if date.Known {
		conf = event.Medium
	}
	r := strategy.NewRecord(title, date, doc.SourceURL, conf)
	r.LocationName, r.Address = e.location(frag, title, dateText, c)
	if u := link(doc, frag, titleSel); u != "" {
		r.URL = u
	}
	r.Refresh()
	return r
}

// date prefers a machine-readable time element, then the first date in the text, then
// a line holding only a time of day.
func (e *Extractor) date(frag *document.Fragment) (string, dateparse.Result) {
	found := e.dates.Find(frag.Text)

	if tm := frag.Sel.Find("time[datetime]").AddSelection(frag.Sel.Filter("time[datetime]")).First(); tm.Length() > 0 {
		res := e.dates.Parse(strings.TrimSpace(tm.AttrOr("datetime", "")))
		if res.Known {
			if found == "" {
				found = document.Text(tm)
			}
			if found != "" {
				res.Raw = found
			}
			return found, res
		}
	}

	if found != "" {
		return found, e.dates.Parse(found)
	}
	for _, line := range frag.Lines() {
		if dateparse.ContainsTime(line) {
			return line, e.dates.Parse(line)
		}
	}
	return "", dateparse.Result{}
}

var titleTokens = map[string]bool{"title": true, "summary": true, "headline": true, "heading": true, "name": true}

var notTitleTokens = map[string]bool{
	"venue": true, "location": true, "place": true, "organizer": true, "author": true,
	"date": true, "time": true, "price": true, "category": true, "tag": true,
}

// title returns the event title and the element it came from. Markup that marks titles
// wins over the nearest heading above the fragment, which wins over plain lines.
func (e *Extractor) title(frag *document.Fragment, dateText string, c *noise.Classifier) (string, *goquery.Selection) {
	const headings = "h1, h2, h3, h4, h5, h6"

	var cands []*goquery.Selection
	add := func(sel *goquery.Selection) {
		sel.Each(func(_ int, s *goquery.Selection) {
			cands = append(cands, s)
		})
	}
	add(frag.Sel.Filter(headings))
	add(frag.Sel.Find(headings))
	add(frag.Sel.Find(`[itemprop="name"]`))
	add(frag.Sel.Find("[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return classMatches(s.AttrOr("class", ""), titleTokens, notTitleTokens)
	}))
	add(frag.Sel.Filter("a[href]"))
	add(frag.Sel.Find("a[href]"))
	add(frag.Sel.Find("strong, b"))

	for _, sel := range cands {
		if t := e.cleanTitle(document.Text(sel), dateText, c); t != "" {
			return t, sel
		}
	}

	if sel := precedingHeading(frag.Node()); sel != nil {
		if t := e.cleanTitle(document.NodeText(sel), dateText, c); t != "" {
			return t, goquery.NewDocumentFromNode(sel).Selection
		}
	}

	for _, line := range frag.Lines() {
		if noise.LooksLikeLocation(line) && (dateText == "" || !strings.Contains(dateparse.Fold(line), dateText)) {
			continue
		}
		if t := e.cleanTitle(line, dateText, c); t != "" {
			return t, nil
		}
	}
	return "", nil
}

const titleTrim = " \t-–—|:,;@·•/"

func (e *Extractor) cleanTitle(text, dateText string, c *noise.Classifier) string {
	text = dateparse.Fold(text)
	if dateText != "" {
		text = strings.Replace(text, dateText, " ", 1)
	}
	text = strings.Trim(event.CleanText(text), titleTrim)
	n := utf8.RuneCountInString(text)
	if n < minTitleLength || n > maxTitleLength {
		return ""
	}
	if c.IsLabel(text) {
		return ""
	}
	if found := e.dates.Find(text); found != "" && len(found) >= len(text)-2 {
		return ""
	}
	if dateparse.ContainsTime(text) && utf8.RuneCountInString(text) < 12 {
		return ""
	}
	return text
}

// precedingHeading looks back over a few previous siblings, then repeats from the
// parent, for the nearest heading above the fragment.
func precedingHeading(n *html.Node) *html.Node {
	for level := 0; n != nil && level < headingClimbLevel; level++ {
		seen := 0
		for s := n.PrevSibling; s != nil && seen < headingLookback; s = s.PrevSibling {
			if s.Type != html.ElementNode {
				continue
			}
			seen++
			if document.IsHeading(s) {
				return s
			}
			if h := lastHeading(s); h != nil {
				return h
			}
		}
		n = n.Parent
		if n == nil || boundary(n) {
			return nil
		}
	}
	return nil
}

func lastHeading(n *html.Node) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if document.IsHeading(c) {
				found = c
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return found
}

var (
	locationTokens    = map[string]bool{"location": true, "venue": true, "address": true, "where": true, "place": true, "loc": true}
	notLocationTokens = map[string]bool{"date": true, "time": true, "title": true}
	locationPrefixRe  = regexp.MustCompile(`(?i)^(?:(?:at|in)(?:\s+the)?\b\s*|@\s*|(?:location|venue|where|place|address)\s*:\s*)`)
)

// location looks for a venue or address inside the fragment: first in elements marked
// as such, then in address-shaped lines, then in lines naming a venue.
func (e *Extractor) location(frag *document.Fragment, title, dateText string, c *noise.Classifier) (name, address string) {
	marked := frag.Sel.Find(`address, [itemprop="location"], [itemprop="address"], [class]`).FilterFunction(func(_ int, s *goquery.Selection) bool {
		if s.Is(`address, [itemprop="location"], [itemprop="address"]`) {
			return true
		}
		return classMatches(s.AttrOr("class", ""), locationTokens, notLocationTokens)
	}).First()
	if marked.Length() > 0 {
		var lines []string
		for _, l := range document.Lines(marked) {
			if l = stripLocationPrefix(l); l != "" && !c.IsLabel(l) {
				lines = append(lines, l)
			}
		}
		switch {
		case len(lines) > 1:
			return lines[0], strings.Join(lines[1:], ", ")
		case len(lines) == 1 && noise.LooksLikeAddress(lines[0]) && !noise.HasVenueKeyword(lines[0]):
			address = lines[0]
		case len(lines) == 1:
			name = lines[0]
		}
	}

	for _, line := range frag.Lines() {
		line = dateparse.Fold(line)
		if dateText != "" {
			line = strings.Replace(line, dateText, " ", 1)
		}
		line = stripLocationPrefix(line)
		if line == "" || line == title || line == name || line == address || c.IsLabel(line) || strings.Contains(title, line) {
			continue
		}
		if address == "" && noise.LooksLikeAddress(line) {
			address = line
			continue
		}
		if name == "" && noise.HasVenueKeyword(line) && utf8.RuneCountInString(line) <= 120 {
			name = line
		}
	}
	return name, address
}

func stripLocationPrefix(s string) string {
	s = strings.Trim(event.CleanText(s), titleTrim)
	s = locationPrefixRe.ReplaceAllString(s, "")
	return strings.TrimRight(strings.Trim(s, titleTrim), ".")
}

// link picks the event URL: the link around or inside the title, the fragment itself
// when it is a link, or the first link that leaves the listing page.
func link(doc *document.RawDocument, frag *document.Fragment, titleSel *goquery.Selection) string {
	if titleSel != nil && titleSel.Length() > 0 {
		if a := titleSel.Closest("a[href]"); a.Length() > 0 {
			if u := doc.Resolve(a.AttrOr("href", "")); u != "" {
				return u
			}
		}
		if a := titleSel.Find("a[href]").First(); a.Length() > 0 {
			if u := doc.Resolve(a.AttrOr("href", "")); u != "" {
				return u
			}
		}
	}
	var found string
	frag.Sel.Filter("a[href]").AddSelection(frag.Sel.Find("a[href]")).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		u := doc.Resolve(a.AttrOr("href", ""))
		if u != "" && u != doc.SourceURL {
			found = u
			return false
		}
		return true
	})
	return found
}

var classSplitRe = regexp.MustCompile(`[^a-z0-9]+`)

func classMatches(class string, want, reject map[string]bool) bool {
	hit := false
	for _, tok := range classSplitRe.Split(strings.ToLower(class), -1) {
		if reject[tok] {
			return false
		}
		if want[tok] {
			hit = true
		}
	}
	return hit
}
