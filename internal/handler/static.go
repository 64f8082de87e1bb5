package handler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/eventscrape/internal/dateparse"
	"github.com/pfrederiksen/eventscrape/internal/document"
	"github.com/pfrederiksen/eventscrape/internal/event"
	"github.com/pfrederiksen/eventscrape/internal/strategy"
	"golang.org/x/net/html"
)

// maxClimb bounds how far above the title element a date is looked for
const maxClimb = 3

// static emits a site's fixed event list. Events with a configured date are always
// emitted; the others only when their title appears on the page next to a date.
type static struct {
	events []StaticEvent
	dates  *dateparse.Normalizer
}

func newStatic(reg *Registration, deps Deps) strategy.Strategy {
	return &static{events: reg.StaticEvents, dates: deps.Dates}
}

func (s *static) Name() string {
	return strategy.Static
}

func (s *static) Extract(doc *document.RawDocument) (strategy.Outcome, error) {
	var out strategy.Outcome
	for _, se := range s.events {
		out.Fragments++

		var date dateparse.Result
		if se.Date != "" {
			date = s.dates.Parse(se.Date)
		} else {
			el := s.locate(doc, se.Title)
			if el == nil {
				continue
			}
			date = s.nearbyDate(el, se.Title)
			if !date.Known {
				continue
			}
		}

		r := strategy.NewRecord(se.Title, date, doc.SourceURL, event.High)
		r.LocationName = se.Location
		r.Address = se.Address
		if se.URL != "" {
			if u := doc.Resolve(se.URL); u != "" {
				r.URL = u
			}
		}
		r.Refresh()
		out.Records = append(out.Records, r)
	}
	strategy.Stamp(out.Records, s.Name(), event.High)
	return out, nil
}

// locate finds the innermost element whose text contains title
func (s *static) locate(doc *document.RawDocument, title string) *html.Node {
	if doc.Doc == nil {
		return nil
	}
	want := strings.ToLower(event.CleanText(title))
	if want == "" {
		return nil
	}
	var found *html.Node
	doc.Doc.Find("body *").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(document.Text(sel)), want) {
			return true
		}
		inner := false
		sel.Children().EachWithBreak(func(_ int, c *goquery.Selection) bool {
			inner = strings.Contains(strings.ToLower(document.Text(c)), want)
			return !inner
		})
		if inner {
			return true
		}
		found = sel.Nodes[0]
		return false
	})
	return found
}

func (s *static) nearbyDate(n *html.Node, title string) dateparse.Result {
	for i := 0; n != nil && i <= maxClimb; i++ {
		text := document.NodeText(n)
		text = strings.Replace(text, title, "", 1)
		if found := s.dates.Find(text); found != "" {
			return s.dates.Parse(found)
		}
		n = n.Parent
		if n != nil && n.Type != html.ElementNode {
			break
		}
	}
	return dateparse.Result{}
}
