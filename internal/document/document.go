package document

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrEmptyDocument is returned when markup has no content to extract from
var ErrEmptyDocument = errors.New("empty document")

// RawDocument is a fetched page
type RawDocument struct {
	SourceURL string
	Doc       *goquery.Document
	FetchedAt time.Time
	Status    int

	base *url.URL
}

// New wraps an already parsed tree
func New(sourceURL string, doc *goquery.Document, fetchedAt time.Time, status int) *RawDocument {
	d := &RawDocument{
		SourceURL: sourceURL,
		Doc:       doc,
		FetchedAt: fetchedAt,
		Status:    status,
	}
	if u, err := url.Parse(sourceURL); err == nil {
		d.base = u
	}
	if doc != nil {
		// <base href> overrides the page URL for relative links
		if href, ok := doc.Find("head base[href]").First().Attr("href"); ok && d.base != nil {
			if b, err := d.base.Parse(strings.TrimSpace(href)); err == nil {
				d.base = b
			}
		}
	}
	return d
}

// Parse reads markup into a RawDocument. Markup without any text or elements in its
// body yields ErrEmptyDocument alongside the (still usable) document.
func Parse(r io.Reader, sourceURL string, fetchedAt time.Time, status int) (*RawDocument, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	d := New(sourceURL, doc, fetchedAt, status)
	if d.Empty() {
		return d, ErrEmptyDocument
	}
	return d, nil
}

// ParseString is Parse for in-memory markup
func ParseString(markup, sourceURL string) (*RawDocument, error) {
	return Parse(strings.NewReader(markup), sourceURL, time.Now(), 200)
}

// Empty reports whether the document has nothing to extract from
func (d *RawDocument) Empty() bool {
	if d == nil || d.Doc == nil || d.Doc.Selection == nil || len(d.Doc.Nodes) == 0 {
		return true
	}
	if d.Doc.Find(`script[type="application/ld+json"], meta[property^="og:"], meta[property^="event:"]`).Length() > 0 {
		return false
	}
	body := d.Doc.Find("body")
	if body.Length() == 0 {
		return true
	}
	return Text(body) == "" && body.Find("img, time, [itemtype]").Length() == 0
}

// Host returns the lower-cased host of the source URL without a leading www.
func (d *RawDocument) Host() string {
	if d == nil || d.base == nil {
		return ""
	}
	return NormalizeHost(d.base.Hostname())
}

// Resolve turns an href found in the page into an absolute URL. Fragment-only,
// javascript: and mailto: links resolve to "".
func (d *RawDocument) Resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return ""
	}
	if d == nil || d.base == nil {
		return href
	}
	u, err := d.base.Parse(href)
	if err != nil {
		return ""
	}
	u.Fragment = ""
	return u.String()
}

// NormalizeHost lower-cases a host and strips a leading "www."
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimSuffix(host, ".")
	return strings.TrimPrefix(host, "www.")
}
