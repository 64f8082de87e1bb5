package textmine

import (
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/eventscrape/internal/dateparse"
	"github.com/pfrederiksen/eventscrape/internal/document"
	"github.com/pfrederiksen/eventscrape/internal/event"
	"github.com/pfrederiksen/eventscrape/internal/noise"
	"github.com/pfrederiksen/eventscrape/internal/strategy"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultMaxFragmentLength bounds how much text a fragment may hold
const DefaultMaxFragmentLength = 600

// Options tunes an Extractor
type Options struct {
	MaxFragmentLength int
	// DisableReadability turns off the page-level fallback
	DisableReadability bool
}

// Extractor is the text-mining strategy
type Extractor struct {
	dates       *dateparse.Normalizer
	filter      *noise.Filter
	maxLen      int
	readability bool
}

// New creates an Extractor
func New(dates *dateparse.Normalizer, filter *noise.Filter, opts Options) *Extractor {
	if dates == nil {
		dates = dateparse.New(dateparse.Options{})
	}
	if filter == nil {
		filter = noise.New(noise.DefaultConfig())
	}
	if opts.MaxFragmentLength <= 0 {
		opts.MaxFragmentLength = DefaultMaxFragmentLength
	}
	return &Extractor{
		dates:       dates,
		filter:      filter.WithDates(dates),
		maxLen:      opts.MaxFragmentLength,
		readability: !opts.DisableReadability,
	}
}

// Name implements strategy.Strategy
func (e *Extractor) Name() string {
	return strategy.TextMining
}

// Extract implements strategy.Strategy
func (e *Extractor) Extract(doc *document.RawDocument) (strategy.Outcome, error) {
	var out strategy.Outcome
	if doc.Empty() {
		return out, nil
	}

	body := doc.Doc.Find("body")
	frags := e.Fragments(body)
	out.Fragments = len(frags)

	if len(frags) == 0 {
		if e.readability {
			if r := e.readable(doc); r != nil {
				out.Records = append(out.Records, r)
			}
		}
		strategy.Stamp(out.Records, e.Name(), event.Low)
		return out, nil
	}

	classifier := e.filter.ForDocument(doc)
	for _, frag := range frags {
		if classifier.IsNoise(frag) {
			continue
		}
		if r := e.Mine(doc, frag, classifier); r != nil {
			out.Records = append(out.Records, r)
		}
	}
	strategy.Stamp(out.Records, e.Name(), event.Low)
	return out, nil
}

// tree caches per-node facts used while growing fragments
type tree struct {
	anchors  map[*html.Node]int
	headings map[*html.Node]int
	textLen  map[*html.Node]int
}

// Fragments finds date anchors under root and grows each into its event fragment.
// Fragments are returned in document order without duplicates.
func (e *Extractor) Fragments(root *goquery.Selection) []*document.Fragment {
	if root == nil || root.Length() == 0 {
		return nil
	}
	anchors := e.anchors(root, false)
	if len(anchors) == 0 {
		anchors = e.anchors(root, true)
	}
	if len(anchors) == 0 {
		return nil
	}

	t := &tree{
		anchors:  map[*html.Node]int{},
		headings: map[*html.Node]int{},
		textLen:  map[*html.Node]int{},
	}
	top := root.Nodes[0]
	for _, a := range anchors {
		for n := a; n != nil; n = n.Parent {
			t.anchors[n]++
			if n == top {
				break
			}
		}
	}
	root.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, h *goquery.Selection) {
		for n := h.Nodes[0].Parent; n != nil; n = n.Parent {
			t.headings[n]++
			if n == top {
				break
			}
		}
	})

	seen := map[*html.Node]bool{}
	var out []*document.Fragment
	for _, a := range anchors {
		n := e.grow(t, a, top)
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, document.NewFragment(root.FindNodes(n)))
	}
	return out
}

// grow climbs from an anchor while the parent still describes one event: within the
// length bound, not a page landmark, and either adding no other anchor or holding a
// single heading with at most one more anchor (a start and end date on one card).
func (e *Extractor) grow(t *tree, n, top *html.Node) *html.Node {
	for {
		p := n.Parent
		if p == nil || p == top || p.Type != html.ElementNode || boundary(p) {
			return n
		}
		if t.length(p) > e.maxLen {
			return n
		}
		sameAnchors := t.anchors[p] == t.anchors[n]
		card := t.headings[p]+headingSelf(p) == 1 && t.anchors[p] <= 2
		if !sameAnchors && !card {
			return n
		}
		n = p
	}
}

func (t *tree) length(n *html.Node) int {
	if l, ok := t.textLen[n]; ok {
		return l
	}
	l := utf8.RuneCountInString(document.NodeText(n))
	t.textLen[n] = l
	return l
}

func headingSelf(n *html.Node) int {
	if document.IsHeading(n) {
		return 1
	}
	return 0
}

func boundary(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Body, atom.Html, atom.Main:
		return true
	}
	for _, a := range n.Attr {
		if a.Key == "role" && a.Val == "main" {
			return true
		}
	}
	return false
}
