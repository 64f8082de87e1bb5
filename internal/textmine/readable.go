package textmine

import (
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/pfrederiksen/eventscrape/internal/document"
	"github.com/pfrederiksen/eventscrape/internal/event"
	"github.com/pfrederiksen/eventscrape/internal/strategy"
)

// readable is the page-level guess used when no fragment carries a date: the readable
// article's title paired with the first date in its text. The result is always low
// confidence.
func (e *Extractor) readable(doc *document.RawDocument) *event.Record {
	markup, err := doc.Doc.Html()
	if err != nil || strings.TrimSpace(markup) == "" {
		return nil
	}
	pageURL, err := url.Parse(doc.SourceURL)
	if err != nil {
		return nil
	}

	article, err := readability.FromReader(strings.NewReader(markup), pageURL)
	if err != nil {
		return nil
	}
	title := event.CleanText(article.Title)
	raw := e.dates.Find(article.TextContent)
	if title == "" || raw == "" || e.filter.IsLabel(title) {
		return nil
	}
	return strategy.NewRecord(title, e.dates.Parse(raw), doc.SourceURL, event.Low)
}
