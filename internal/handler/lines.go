package handler

import (
	"regexp"
	"strings"

	"github.com/pfrederiksen/eventscrape/internal/dateparse"
	"github.com/pfrederiksen/eventscrape/internal/document"
	"github.com/pfrederiksen/eventscrape/internal/event"
	"github.com/pfrederiksen/eventscrape/internal/noise"
	"github.com/pfrederiksen/eventscrape/internal/strategy"
)

// linePattern matches each text line of the page against a site pattern such as
// "NV - Chimera Golf Club 4.4.26 - Las Vegas". Named groups: title (required), date,
// location and region.
type linePattern struct {
	re     *regexp.Regexp
	dates  *dateparse.Normalizer
	filter *noise.Filter
}

func newLinePattern(reg *Registration, deps Deps) (strategy.Strategy, error) {
	re, err := compileLinePattern(reg.LinePattern)
	if err != nil {
		return nil, err
	}
	return &linePattern{re: re, dates: deps.Dates, filter: deps.Noise}, nil
}

func (l *linePattern) Name() string {
	return strategy.LinePattern
}

func (l *linePattern) Extract(doc *document.RawDocument) (strategy.Outcome, error) {
	var out strategy.Outcome
	if doc.Doc == nil {
		return out, nil
	}

	for _, line := range document.Lines(doc.Doc.Find("body")) {
		line = strings.TrimSpace(dateparse.Fold(line))
		m := l.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out.Fragments++
		if r := l.record(doc, m); r != nil {
			out.Records = append(out.Records, r)
		}
	}
	strategy.Stamp(out.Records, l.Name(), event.High)
	return out, nil
}

func (l *linePattern) record(doc *document.RawDocument, m []string) *event.Record {
	title := l.group(m, "title")
	raw := l.group(m, "date")
	if raw == "" {
		// the date is usually embedded in the title: "Chimera Golf Club 4.4.26"
		if raw = l.dates.Find(title); raw != "" {
			title = strings.Replace(title, raw, "", 1)
		}
	}
	title = strings.Trim(event.CleanText(title), " -–|,:")
	if len(title) < 3 || strings.Contains(title, "http") || l.filter.IsLabel(title) {
		return nil
	}

	r := strategy.NewRecord(title, l.dates.Parse(raw), doc.SourceURL, event.High)
	location := l.group(m, "location")
	if region := l.group(m, "region"); region != "" {
		if location == "" {
			location = region
		} else {
			location += ", " + region
		}
	}
	r.LocationName = location
	r.Refresh()
	return r
}

func (l *linePattern) group(m []string, name string) string {
	i := l.re.SubexpIndex(name)
	if i < 0 || i >= len(m) {
		return ""
	}
	return strings.TrimSpace(m[i])
}
