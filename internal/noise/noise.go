package noise

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/eventscrape/internal/dateparse"
	"github.com/pfrederiksen/eventscrape/internal/document"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultRepeatThreshold  = 3
	DefaultMinContentLength = 40

	// texts longer than this are never counted as repeated chrome
	maxRepeatTextLength = 120
)

// DefaultLabels are control words found on event listing pages
var DefaultLabels = []string{
	"all", "all events", "upcoming", "upcoming events", "past events", "past",
	"events", "calendar", "view calendar", "list", "list view", "month", "month view",
	"week", "day", "today", "this week", "this weekend", "this month", "next month",
	"filter", "filters", "filter by", "filter by category", "filter by location",
	"filter by date", "filter events", "category", "categories", "all categories",
	"location", "locations", "all locations", "venue", "venues", "search", "search events",
	"reset", "clear", "clear filters", "apply", "sort", "sort by", "view all", "see all",
	"show all", "load more", "show more", "more", "read more", "learn more", "more info",
	"details", "view details", "next", "previous", "prev", "back", "home", "menu", "close",
	"subscribe", "export", "export events", "add to calendar", "google calendar", "ical",
	"tickets", "buy tickets", "get tickets", "register", "register now", "rsvp", "book now",
	"shop", "cart", "sign in", "log in", "share",
}

// Config tunes a Filter
type Config struct {
	Labels           []string `mapstructure:"labels" yaml:"labels"`
	RepeatThreshold  int      `mapstructure:"repeat_threshold" yaml:"repeat_threshold"`
	MinContentLength int      `mapstructure:"min_content_length" yaml:"min_content_length"`
}

// DefaultConfig returns the built-in label set and thresholds
func DefaultConfig() Config {
	return Config{
		Labels:           append([]string(nil), DefaultLabels...),
		RepeatThreshold:  DefaultRepeatThreshold,
		MinContentLength: DefaultMinContentLength,
	}
}

// Reason names the policy that flagged a fragment
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonLabel      Reason = "label"
	ReasonStructure  Reason = "structure"
	ReasonRepetition Reason = "repetition"
	ReasonShape      Reason = "shape"
)

// Verdict is the outcome of classifying one fragment
type Verdict struct {
	Noise  bool
	Reason Reason
}

// Filter holds document-independent settings. It is read-only after construction
// and safe to share.
type Filter struct {
	cfg    Config
	labels map[string]bool
	dates  *dateparse.Normalizer
}

// New creates a Filter. Zero thresholds fall back to the defaults; an empty label
// list uses DefaultLabels.
func New(cfg Config) *Filter {
	if cfg.RepeatThreshold <= 0 {
		cfg.RepeatThreshold = DefaultRepeatThreshold
	}
	if cfg.MinContentLength <= 0 {
		cfg.MinContentLength = DefaultMinContentLength
	}
	if len(cfg.Labels) == 0 {
		cfg.Labels = DefaultLabels
	}
	f := &Filter{
		cfg:    cfg,
		labels: make(map[string]bool, len(cfg.Labels)),
		dates:  dateparse.New(dateparse.Options{}),
	}
	for _, l := range cfg.Labels {
		if k := normalizeLabel(l); k != "" {
			f.labels[k] = true
		}
	}
	return f
}

// Config returns the effective configuration
func (f *Filter) Config() Config {
	return f.cfg
}

// WithLabels returns a copy that also treats extra as control labels
func (f *Filter) WithLabels(extra []string) *Filter {
	if len(extra) == 0 {
		return f
	}
	cp := *f
	cp.labels = make(map[string]bool, len(f.labels)+len(extra))
	for k := range f.labels {
		cp.labels[k] = true
	}
	for _, l := range extra {
		if k := normalizeLabel(l); k != "" {
			cp.labels[k] = true
		}
	}
	cp.cfg.Labels = append(append([]string(nil), f.cfg.Labels...), extra...)
	return &cp
}

// WithDates returns a copy that detects date tokens with n
func (f *Filter) WithDates(n *dateparse.Normalizer) *Filter {
	if n == nil {
		return f
	}
	cp := *f
	cp.dates = n
	return &cp
}

// IsLabel reports whether text, trimmed and case-folded, is a control label
func (f *Filter) IsLabel(text string) bool {
	k := normalizeLabel(text)
	return k != "" && f.labels[k]
}

// ForDocument prepares a Classifier for one document
func (f *Filter) ForDocument(doc *document.RawDocument) *Classifier {
	c := &Classifier{filter: f, counts: map[string]int{}}
	if doc != nil && doc.Doc != nil {
		c.countRepeats(doc.Doc.Find("body"))
	}
	return c
}

// Classifier applies the noise policies within one document. It is not shared
// between documents.
type Classifier struct {
	filter *Filter
	counts map[string]int
}

// IsNoise reports whether a fragment is chrome rather than content
func (c *Classifier) IsNoise(frag *document.Fragment) bool {
	return c.Classify(frag).Noise
}

// IsLabel is the Filter's label check
func (c *Classifier) IsLabel(text string) bool {
	return c.filter.IsLabel(text)
}

// Repeats returns how often text occurs as a standalone element in the document
func (c *Classifier) Repeats(text string) int {
	return c.counts[normalizeLabel(text)]
}

// Classify explains why a fragment is noise
func (c *Classifier) Classify(frag *document.Fragment) Verdict {
	if frag == nil || frag.Node() == nil || strings.TrimSpace(frag.Text) == "" {
		return Verdict{Noise: true, Reason: ReasonShape}
	}

	if c.filter.IsLabel(frag.Text) {
		return Verdict{Noise: true, Reason: ReasonLabel}
	}

	if inNavigation(frag.Node()) {
		return Verdict{Noise: true, Reason: ReasonStructure}
	}

	if c.repeated(frag) {
		return Verdict{Noise: true, Reason: ReasonRepetition}
	}

	if !frag.Vouched && utf8.RuneCountInString(frag.Text) < c.filter.cfg.MinContentLength &&
		!c.hasDateToken(frag) && !hasLocationToken(frag) {
		return Verdict{Noise: true, Reason: ReasonShape}
	}

	return Verdict{}
}

func (c *Classifier) repeated(frag *document.Fragment) bool {
	limit := c.filter.cfg.RepeatThreshold
	if c.counts[normalizeLabel(frag.Text)] > limit {
		return true
	}
	if frag.Vouched {
		return false
	}
	title := c.title(frag)
	if title == "" {
		return false
	}
	return c.counts[normalizeLabel(title)] > limit
}

// titleSelectors are tried in order; a link is only the title when nothing marks one
var titleSelectors = []string{
	"h1, h2, h3, h4, h5, h6",
	`[itemprop="name"], [class*="title"]`,
	"a[href]",
}

// title returns the fragment's first title-like text that is not a control label, so
// a "Details" link shared by every card does not stand in for the card's title.
func (c *Classifier) title(frag *document.Fragment) string {
	for _, sel := range titleSelectors {
		var found string
		frag.Sel.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := document.Text(s)
			if text == "" || c.filter.IsLabel(text) {
				return true
			}
			found = text
			return false
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func (c *Classifier) hasDateToken(frag *document.Fragment) bool {
	if frag.Sel.Is("time[datetime]") || frag.Sel.Find("time[datetime]").Length() > 0 {
		return true
	}
	return c.filter.dates.Find(frag.Text) != "" || dateparse.ContainsTime(frag.Text)
}

func hasLocationToken(frag *document.Fragment) bool {
	if frag.Sel.Find(`address, [itemprop="location"], [itemprop="address"]`).Length() > 0 {
		return true
	}
	return LooksLikeLocation(frag.Text)
}

// countRepeats tallies the text of innermost elements, so a chip written as
// <li><a>Music</a></li> counts once.
func (c *Classifier) countRepeats(body *goquery.Selection) {
	body.Find("*").Each(func(_ int, sel *goquery.Selection) {
		n := sel.Nodes[0]
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
			return
		}
		text := document.Text(sel)
		if text == "" || utf8.RuneCountInString(text) > maxRepeatTextLength {
			return
		}
		dup := false
		sel.Children().EachWithBreak(func(_ int, child *goquery.Selection) bool {
			if document.Text(child) == text {
				dup = true
			}
			return !dup
		})
		if !dup {
			c.counts[normalizeLabel(text)]++
		}
	})
}

var (
	navRoles = map[string]bool{
		"navigation": true, "menu": true, "menubar": true, "tablist": true,
		"toolbar": true, "search": true, "listbox": true, "tree": true,
		"banner": true, "contentinfo": true,
	}
	navTokens = map[string]bool{
		"nav": true, "navbar": true, "navigation": true, "menu": true, "submenu": true,
		"megamenu": true, "breadcrumb": true, "breadcrumbs": true, "pagination": true,
		"pager": true, "paging": true, "filter": true, "filters": true, "facet": true,
		"facets": true, "toolbar": true, "tablist": true, "cookie": true, "cookies": true,
		"chip": true, "chips": true, "dropdown": true, "sitemap": true,
	}
	chromeClasses = map[string]bool{
		"header": true, "footer": true, "site-header": true, "site-footer": true,
		"global-header": true, "global-footer": true, "page-footer": true, "masthead": true,
	}
	tokenSplitRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// inNavigation walks from n up to the nearest content landmark looking for chrome
func inNavigation(n *html.Node) bool {
	for ; n != nil && n.Type == html.ElementNode; n = n.Parent {
		switch n.DataAtom {
		case atom.Nav, atom.Form, atom.Select, atom.Option, atom.Button, atom.Menu:
			return true
		case atom.Header, atom.Footer:
			if n.Parent != nil && n.Parent.DataAtom == atom.Body {
				return true
			}
		}

		role := strings.ToLower(strings.TrimSpace(attr(n, "role")))
		if navRoles[role] {
			return true
		}
		if chromeAttrs(n) {
			return true
		}

		if n.DataAtom == atom.Main || n.DataAtom == atom.Article || role == "main" || role == "article" {
			return false
		}
	}
	return false
}

func chromeAttrs(n *html.Node) bool {
	for _, key := range []string{"class", "id"} {
		val := strings.ToLower(attr(n, key))
		if val == "" {
			continue
		}
		for _, cls := range strings.Fields(val) {
			if chromeClasses[cls] {
				return true
			}
		}
		for _, tok := range tokenSplitRe.Split(val, -1) {
			if navTokens[tok] {
				return true
			}
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

var (
	folder        = cases.Fold()
	countSuffixRe = regexp.MustCompile(`\s*[(\[]\d+[)\]]$`)
)

// normalizeLabel folds case and width, drops arrows, chevrons and a trailing "(12)"
// count.
func normalizeLabel(s string) string {
	s = folder.String(norm.NFKC.String(s))
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '›' || r == '»' || r == '«' || r == '‹' || r == '→' || r == '←' ||
			r == '▾' || r == '▼' || r == '×':
			return ' '
		case unicode.IsSpace(r):
			return ' '
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	s = countSuffixRe.ReplaceAllString(s, "")
	return strings.Trim(s, " :|·•-+")
}
