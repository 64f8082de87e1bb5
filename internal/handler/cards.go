package handler

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/eventscrape/internal/dateparse"
	"github.com/pfrederiksen/eventscrape/internal/document"
	"github.com/pfrederiksen/eventscrape/internal/event"
	"github.com/pfrederiksen/eventscrape/internal/noise"
	"github.com/pfrederiksen/eventscrape/internal/strategy"
)

const maxTitleLength = 200

// cards extracts one record per repeated item element. The platform handlers and the
// configurable selectors strategy are all cards with different selector sets.
type cards struct {
	name   string
	set    SelectorSet
	dates  *dateparse.Normalizer
	filter *noise.Filter
	vouch  bool
	conf   event.Confidence
	// separator splits an embedded date off the title, e.g. "Wine Tasting @ Jul 4 7pm"
	separator string
	// datedOnly drops items without a resolvable date
	datedOnly bool
	// emptyIsTerminal ends the chain when the page has no items at all
	emptyIsTerminal bool
}

func (c *cards) Name() string {
	return c.name
}

func (c *cards) Extract(doc *document.RawDocument) (strategy.Outcome, error) {
	var out strategy.Outcome
	if doc.Doc == nil || c.set.Item == "" {
		return out, nil
	}

	items := outermost(doc.Doc.Find(c.set.Item))
	out.Fragments = items.Length()
	if items.Length() == 0 {
		if c.emptyIsTerminal || (c.set.Empty != "" && doc.Doc.Find(c.set.Empty).Length() > 0) {
			return strategy.Terminal(0), nil
		}
		return out, nil
	}

	classifier := c.filter.ForDocument(doc)
	items.Each(func(_ int, item *goquery.Selection) {
		frag := document.NewFragment(item)
		frag.Vouched = c.vouch
		if classifier.IsNoise(frag) {
			return
		}
		if r := c.record(doc, item, classifier); r != nil {
			out.Records = append(out.Records, r)
		}
	})
	strategy.Stamp(out.Records, c.name, c.conf)
	return out, nil
}

func (c *cards) record(doc *document.RawDocument, item *goquery.Selection, cl *noise.Classifier) *event.Record {
	titleSel := pick(item, c.set.Title, "h1, h2, h3, h4, h5, h6, [itemprop=name], a[href]")
	title := dateparse.Fold(document.Text(titleSel))

	var date dateparse.Result
	if c.separator != "" {
		if before, after, ok := strings.Cut(title, c.separator); ok {
			if d := c.dates.Parse(after); d.Known {
				title, date = before, d
			}
		}
	}
	if !date.Known {
		date = c.date(item)
		// product grids carry the date in the title
		if date.Raw != "" {
			title = strings.Replace(title, date.Raw, "", 1)
		}
	}

	title = strings.Trim(event.CleanText(title), " -–|,:·@")
	if title == "" || utf8.RuneCountInString(title) > maxTitleLength || cl.IsLabel(title) {
		return nil
	}
	if c.datedOnly && !date.Known {
		return nil
	}

	r := strategy.NewRecord(title, date, doc.SourceURL, c.conf)
	if c.set.EndDate != "" {
		if end := c.dateFrom(item.Find(c.set.EndDate).First(), ""); end.Known && date.Known && !end.Start.Before(date.Start) {
			ts := strategy.Timestamp(end)
			r.End = &ts
		}
	}
	if c.set.Location != "" {
		r.LocationName = locationText(item.Find(c.set.Location).First(), cl)
	}
	if c.set.Address != "" {
		r.Address = locationText(item.Find(c.set.Address).First(), cl)
	}
	if r.LocationName == r.Address {
		r.Address = ""
	}
	if href := c.href(item, titleSel); href != "" {
		r.URL = doc.Resolve(href)
		if r.URL == "" {
			r.URL = doc.SourceURL
		}
	}
	r.Refresh()
	return r
}

// date reads the item's date field, adding the time field when it is separate. Items
// without a date field are searched for the first date in their text.
func (c *cards) date(item *goquery.Selection) dateparse.Result {
	timeText := ""
	if c.set.Time != "" {
		timeText = document.Text(item.Find(c.set.Time).First())
	}
	if c.set.Date != "" {
		if sel := item.Find(c.set.Date).First(); sel.Length() > 0 {
			return c.dateFrom(sel, timeText)
		}
	}
	if found := c.dates.Find(document.Text(item)); found != "" {
		return dateparse.WithTime(c.dates.Parse(found), timeText)
	}
	return dateparse.Result{}
}

// dateFrom prefers a machine-readable datetime attribute. A date-only attribute takes
// its time of day from the visible text.
func (c *cards) dateFrom(sel *goquery.Selection, timeText string) dateparse.Result {
	if sel.Length() == 0 {
		return dateparse.Result{}
	}
	visible := document.Text(sel)
	if attr := strings.TrimSpace(sel.AttrOr("datetime", sel.AttrOr("content", ""))); attr != "" {
		if d := c.dates.Parse(attr); d.Known {
			if visible != "" {
				d.Raw = visible
			}
			return dateparse.WithTime(dateparse.WithTime(d, visible), timeText)
		}
	}
	return dateparse.WithTime(c.dates.Parse(visible), timeText)
}

func (c *cards) href(item, titleSel *goquery.Selection) string {
	if c.set.Link != "" {
		if href, ok := pick(item, c.set.Link, "").Attr("href"); ok {
			return href
		}
	}
	if titleSel.Is("a[href]") {
		return titleSel.AttrOr("href", "")
	}
	if href, ok := titleSel.Find("a[href]").First().Attr("href"); ok {
		return href
	}
	if item.Is("a[href]") {
		return item.AttrOr("href", "")
	}
	return item.Find("a[href]").First().AttrOr("href", "")
}

// pick returns the first match for selector inside item, trying fallback when the
// selector is unset or matches nothing
func pick(item *goquery.Selection, selector, fallback string) *goquery.Selection {
	if selector != "" {
		if sel := item.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
		if item.Is(selector) {
			return item
		}
	}
	if fallback == "" {
		return item.Find("a[href]").First()
	}
	return item.Find(fallback).First()
}

func locationText(sel *goquery.Selection, cl *noise.Classifier) string {
	if sel.Length() == 0 {
		return ""
	}
	lines := document.Lines(sel)
	kept := lines[:0]
	for _, l := range lines {
		l = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(l), "(map)"))
		if l == "" || cl.IsLabel(l) || strings.EqualFold(l, "map") {
			continue
		}
		kept = append(kept, l)
	}
	return event.CleanText(strings.Join(kept, ", "))
}

// outermost drops matches nested inside another match, so a loose selector like
// ".event" does not yield both a card and its inner ".event-title"
func outermost(sel *goquery.Selection) *goquery.Selection {
	return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Parents().FilterSelection(sel).Length() == 0
	})
}
