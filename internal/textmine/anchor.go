package textmine

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/eventscrape/internal/dateparse"
	"github.com/pfrederiksen/eventscrape/internal/document"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// anchors returns the smallest elements under root that carry a date. With timeOnly
// set it looks for times of day instead; that pass only runs when a page has no dates.
func (e *Extractor) anchors(root *goquery.Selection, timeOnly bool) []*html.Node {
	var out []*html.Node

	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head, atom.Svg,
			atom.Select, atom.Option:
			return false
		}

		found := false
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				found = true
			}
		}
		if found {
			return true
		}

		if !timeOnly && n.DataAtom == atom.Time && strings.TrimSpace(attr(n, "datetime")) != "" {
			out = append(out, n)
			return true
		}

		text := document.NodeText(n)
		if text == "" || utf8.RuneCountInString(text) > e.maxLen {
			return false
		}
		if timeOnly {
			if dateparse.ContainsTime(text) {
				out = append(out, n)
				return true
			}
			return false
		}
		if e.dates.Find(text) != "" {
			out = append(out, n)
			return true
		}
		return false
	}

	for _, n := range root.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
