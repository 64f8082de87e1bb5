package structured

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/eventscrape/internal/document"
	"golang.org/x/net/html"
)

// microdata reads schema.org Event items declared with itemscope/itemtype
func (e *Extractor) microdata(doc *document.RawDocument) ([]candidate, int) {
	var out []candidate
	scopes := doc.Doc.Find(`[itemscope][itemtype*="schema.org"]`).FilterFunction(func(_ int, s *goquery.Selection) bool {
		for _, t := range strings.Fields(s.AttrOr("itemtype", "")) {
			if isEventType(strings.TrimRight(t, "/")) {
				return true
			}
		}
		return false
	})
	scopes.Each(func(_ int, scope *goquery.Selection) {
		props := ownProps(scope)
		c := candidate{
			name:  propText(props["name"]),
			start: propValue(props["startDate"]),
			end:   propValue(props["endDate"]),
			url:   propValue(props["url"]),
		}
		if loc := props["location"]; loc != nil {
			if loc.Is("[itemscope]") {
				inner := ownProps(loc)
				c.location = propText(inner["name"])
				c.address = microAddress(inner["address"])
			} else {
				c.location = propText(loc)
			}
		}
		out = append(out, c)
	})
	return out, scopes.Length()
}

// ownProps maps itemprop names to the first element that belongs to scope itself,
// skipping properties of nested items.
func ownProps(scope *goquery.Selection) map[string]*goquery.Selection {
	props := map[string]*goquery.Selection{}
	root := scope.Nodes[0]
	scope.Find("[itemprop]").Each(func(_ int, p *goquery.Selection) {
		if nearestScope(p.Nodes[0].Parent) != root {
			return
		}
		for _, name := range strings.Fields(p.AttrOr("itemprop", "")) {
			if _, seen := props[name]; !seen {
				props[name] = p
			}
		}
	})
	return props
}

func nearestScope(n *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		for _, a := range n.Attr {
			if a.Key == "itemscope" {
				return n
			}
		}
	}
	return nil
}

func microAddress(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}
	if !sel.Is("[itemscope]") {
		return propText(sel)
	}
	inner := ownProps(sel)
	var parts []string
	for _, key := range []string{"streetAddress", "addressLocality", "addressRegion", "postalCode", "addressCountry"} {
		if s := propText(inner[key]); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// propValue prefers machine-readable attributes over visible text
func propValue(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}
	for _, key := range []string{"content", "datetime", "href", "src", "value"} {
		if v, ok := sel.Attr(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return document.Text(sel)
}

func propText(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}
	if v, ok := sel.Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return document.Text(sel)
}

// hEvents reads h-event microformats and their hCalendar predecessor (.vevent)
func (e *Extractor) hEvents(doc *document.RawDocument) ([]candidate, int) {
	var out []candidate
	roots := doc.Doc.Find(".h-event, .vevent")
	roots.Each(func(_ int, root *goquery.Selection) {
		c := candidate{
			name:  mfText(root, ".p-name, .summary"),
			start: mfDate(root, ".dt-start, .dtstart"),
			end:   mfDate(root, ".dt-end, .dtend"),
		}
		if u := root.Find(".u-url, a.url").First(); u.Length() > 0 {
			c.url = u.AttrOr("href", "")
		}
		if loc := root.Find(".p-location, .location").First(); loc.Length() > 0 {
			if loc.Is(".h-card, .vcard") {
				c.location = mfText(loc, ".p-name, .fn, .org")
				c.address = mfText(loc, ".p-adr, .adr, .p-street-address, .street-address")
			} else {
				c.location = document.Text(loc)
			}
		}
		out = append(out, c)
	})
	return out, roots.Length()
}

func mfText(root *goquery.Selection, selector string) string {
	sel := root.Find(selector).First()
	if sel.Length() == 0 {
		return ""
	}
	if sel.Is("abbr[title]") {
		return sel.AttrOr("title", "")
	}
	return document.Text(sel)
}

// mfDate follows the microformats value rules: datetime on time elements, title on
// abbr, value-class children, then text.
func mfDate(root *goquery.Selection, selector string) string {
	sel := root.Find(selector).First()
	if sel.Length() == 0 {
		return ""
	}
	for _, key := range []string{"datetime", "title", "content", "value"} {
		if v, ok := sel.Attr(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if parts := sel.Find(".value"); parts.Length() > 0 {
		var vals []string
		parts.Each(func(_ int, p *goquery.Selection) {
			vals = append(vals, p.AttrOr("datetime", p.AttrOr("title", document.Text(p))))
		})
		return strings.Join(vals, " ")
	}
	return document.Text(sel)
}

// openGraph reads the single event a page declares through og:type and event:* tags
func (e *Extractor) openGraph(doc *document.RawDocument) ([]candidate, int) {
	meta := func(prop string) string {
		sel := doc.Doc.Find(`meta[property="` + prop + `"], meta[name="` + prop + `"]`).First()
		return strings.TrimSpace(sel.AttrOr("content", ""))
	}

	ogType := strings.ToLower(meta("og:type"))
	start := meta("event:start_time")
	if start == "" {
		start = meta("event:start_date")
	}
	if start == "" || (ogType != "" && ogType != "event" && ogType != "events.event") {
		return nil, 0
	}

	c := candidate{
		name:     meta("og:title"),
		start:    start,
		end:      meta("event:end_time"),
		location: meta("event:location"),
		url:      meta("og:url"),
	}
	if c.location == "" {
		c.location = meta("place:name")
	}
	if street := meta("event:location:street_address"); street != "" {
		parts := []string{street}
		for _, key := range []string{"event:location:locality", "event:location:region", "event:location:postal_code"} {
			if v := meta(key); v != "" {
				parts = append(parts, v)
			}
		}
		c.address = strings.Join(parts, ", ")
	}
	return []candidate{c}, 1
}
