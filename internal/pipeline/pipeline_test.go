package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pfrederiksen/eventscrape/internal/document"
	"github.com/pfrederiksen/eventscrape/internal/event"
	"github.com/pfrederiksen/eventscrape/internal/handler"
	"github.com/pfrederiksen/eventscrape/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func parse(t *testing.T, markup, sourceURL string) *document.RawDocument {
	t.Helper()
	doc, err := document.ParseString(markup, sourceURL)
	if !errors.Is(err, document.ErrEmptyDocument) {
		require.NoError(t, err)
	}
	return doc
}

// newTestPipeline builds a pipeline with a pinned clock that records its traces
func newTestPipeline(t *testing.T, registry *handler.Registry, opts ...Option) (*Pipeline, *[]Trace) {
	t.Helper()
	var traces []Trace
	opts = append([]Option{
		WithClock(func() time.Time { return fixedNow }),
		WithHook(func(tr Trace) { traces = append(traces, tr) }),
	}, opts...)
	p, err := New(registry, opts...)
	require.NoError(t, err)
	return p, &traces
}

func strategies(traces []Trace) []string {
	var names []string
	for _, tr := range traces {
		names = append(names, tr.Strategy)
	}
	return names
}

func TestExtract_JSONLDWinsOverNavigation(t *testing.T) {
	doc := parse(t, `<html><head>
		<script type="application/ld+json">
		{"@context": "https://schema.org", "@type": "Event", "name": "Jingle 5K",
		 "startDate": "2025-12-07", "location": {"@type": "Place", "name": "Riverside Park"}}
		</script>
	</head><body>
		<nav><ul><li><a href="/jingle-5k">Jingle 5K</a></li><li><a href="/about">About</a></li></ul></nav>
		<main><h1>Jingle 5K</h1><p>Run with us this December!</p></main>
	</body></html>`, "https://runclub.example.org/jingle")

	p, traces := newTestPipeline(t, nil)
	res := p.Extract(doc, "https://runclub.example.org/jingle")

	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, handler.GenericName, res.Registration)
	assert.Equal(t, strategy.StructuredData, res.Strategy)
	require.Len(t, res.Records, 1)

	r := res.Records[0]
	assert.Equal(t, "Jingle 5K", r.Title)
	assert.Equal(t, event.OnDate(time.Date(2025, 12, 7, 0, 0, 0, 0, time.UTC)), r.Start)
	assert.Equal(t, event.High, r.Confidence)
	assert.Equal(t, "Riverside Park", r.LocationName)

	// short-circuit: nothing after the winning strategy ran
	assert.Equal(t, []string{strategy.StructuredData}, strategies(*traces))
	assert.NotEqual(t, uuid.Nil, res.RunID)
	assert.Equal(t, res.RunID, (*traces)[0].RunID)
}

func TestExtract_FilterChipsOnly(t *testing.T) {
	doc := parse(t, `<body><div class="filters">
		<a href="#">Music</a> <a href="#">Sports</a> <a href="#">Food</a>
	</div></body>`, "https://example.com/events")

	p, traces := newTestPipeline(t, nil)
	res := p.Extract(doc, "")

	assert.Equal(t, StatusNoEvents, res.Status)
	assert.Empty(t, res.Records)
	assert.NotNil(t, res.Records)
	assert.Empty(t, res.Strategy)
	assert.Equal(t, "https://example.com/events", res.SourceURL)
	assert.Equal(t, handler.GenericChain, strategies(*traces))
}

func TestExtract_DuplicateSightingsCollapse(t *testing.T) {
	doc := parse(t, `<body><main>
		<div class="event"><h3>Spring Gala</h3><p>04/10/2025 at City Hall</p></div>
		<div class="event"><h3>Spring Gala</h3><p>April 10, 2025 at City Hall</p></div>
	</main></body>`, "https://example.com/events")

	p, _ := newTestPipeline(t, nil)
	res := p.Extract(doc, "")

	require.Equal(t, StatusOK, res.Status)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Spring Gala", res.Records[0].Title)
	assert.Equal(t, event.OnDate(time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)), res.Records[0].Start)
}

func TestExtract_TerminalHandlerVersusUnmatched(t *testing.T) {
	p, traces := newTestPipeline(t, nil)

	shop := parse(t, `<html><head><script src="https://cdn.shopify.com/s/files/1/theme.js"></script></head>
		<body><h1>Classes</h1><p>No products found in this collection.</p></body></html>`,
		"https://candles.example.com/collections/classes")
	res := p.Extract(shop, "")
	assert.Equal(t, StatusNoEvents, res.Status)
	assert.Empty(t, res.Records)
	assert.Equal(t, handler.PlatformShopify, res.Platform)
	assert.Equal(t, handler.PlatformShopify, res.Registration)
	assert.Equal(t, strategy.ShopifyProducts, res.Strategy)
	require.Len(t, *traces, 2)
	assert.True(t, (*traces)[1].Terminal)

	*traces = nil
	plain := parse(t, `<body><h1>Welcome</h1><p>We are a small candle shop in town.</p></body>`,
		"https://candles.example.net/")
	res = p.Extract(plain, "")
	assert.Equal(t, StatusNoEvents, res.Status)
	assert.Empty(t, res.Platform)
	assert.Equal(t, handler.GenericName, res.Registration)
	assert.Empty(t, res.Strategy)
	assert.Equal(t, handler.GenericChain, strategies(*traces))
}

func TestExtract_Malformed(t *testing.T) {
	p, traces := newTestPipeline(t, nil)

	res := p.Extract(parse(t, "", "https://example.com/"), "")
	assert.Equal(t, StatusMalformed, res.Status)
	assert.Empty(t, res.Records)
	require.Len(t, *traces, 1)
	assert.True(t, (*traces)[0].Malformed)

	res = p.Extract(nil, "https://example.com/")
	assert.Equal(t, StatusMalformed, res.Status)
	assert.Equal(t, "https://example.com/", res.SourceURL)
}

func TestExtract_RecoversFromFaultyStrategies(t *testing.T) {
	p, traces := newTestPipeline(t, nil)
	structured := p.generic.strategies[0]
	p.generic.strategies = []strategy.Strategy{
		strategy.Func{ID: "boom", Fn: func(*document.RawDocument) (strategy.Outcome, error) {
			panic("selector blew up")
		}},
		strategy.Func{ID: "broken", Fn: func(*document.RawDocument) (strategy.Outcome, error) {
			return strategy.Outcome{}, errors.New("bad markup")
		}},
		structured,
	}

	doc := parse(t, `<head><script type="application/ld+json">{"@type":"Event","name":"Jingle 5K","startDate":"2025-12-07"}</script></head><body></body>`,
		"https://example.com/")
	res := p.Extract(doc, "")

	require.Len(t, res.Records, 1)
	assert.Equal(t, strategy.StructuredData, res.Strategy)
	require.Len(t, *traces, 3)

	var panicErr *ErrPanic
	require.ErrorAs(t, (*traces)[0].Err, &panicErr)
	assert.Equal(t, "boom", panicErr.Strategy)
	assert.Equal(t, "selector blew up", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)
	assert.ErrorContains(t, (*traces)[1].Err, "bad markup")
	assert.NoError(t, (*traces)[2].Err)
}

func lowRecord(title string) *event.Record {
	return event.NewRecord(title, event.OnDate(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)), "July 1", "https://example.com/", event.Low)
}

func fixed(id string, out strategy.Outcome) strategy.Strategy {
	return strategy.Func{ID: id, Fn: func(*document.RawDocument) (strategy.Outcome, error) {
		strategy.Stamp(out.Records, id, event.Low)
		return out, nil
	}}
}

func TestExtract_LowConfidenceFallback(t *testing.T) {
	doc := parse(t, `<body><p>anything</p></body>`, "https://example.com/")

	tests := []struct {
		name         string
		chain        []strategy.Strategy
		wantStrategy string
		wantTitles   []string
	}{
		{
			name: "low held until the end",
			chain: []strategy.Strategy{
				fixed("guess", strategy.Outcome{Records: []*event.Record{lowRecord("Garden Tour")}}),
				fixed("nothing", strategy.Outcome{}),
			},
			wantStrategy: "guess",
			wantTitles:   []string{"Garden Tour"},
		},
		{
			name: "later confident output replaces low",
			chain: []strategy.Strategy{
				fixed("guess", strategy.Outcome{Records: []*event.Record{lowRecord("Garden Tour")}}),
				fixed("sure", strategy.Outcome{Records: []*event.Record{
					event.NewRecord("Plant Sale", event.OnDate(time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)), "", "https://example.com/", event.Medium),
				}}),
			},
			wantStrategy: "sure",
			wantTitles:   []string{"Plant Sale"},
		},
		{
			name: "first low wins over later low",
			chain: []strategy.Strategy{
				fixed("first", strategy.Outcome{Records: []*event.Record{lowRecord("Garden Tour")}}),
				fixed("second", strategy.Outcome{Records: []*event.Record{lowRecord("Seed Swap")}}),
			},
			wantStrategy: "first",
			wantTitles:   []string{"Garden Tour"},
		},
		{
			name: "unusable records are dropped before judging",
			chain: []strategy.Strategy{
				fixed("junk", strategy.Outcome{Records: []*event.Record{
					event.NewRecord("", event.OnDate(time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)), "", "https://example.com/", event.High),
					event.NewRecord("All Events", event.OnDate(time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)), "", "https://example.com/", event.High),
					event.NewRecord("Mystery", event.Unknown(), "", "https://example.com/", event.High),
				}}),
				fixed("guess", strategy.Outcome{Records: []*event.Record{lowRecord("Garden Tour")}}),
			},
			wantStrategy: "guess",
			wantTitles:   []string{"Garden Tour"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPipeline(t, nil)
			p.generic.strategies = tt.chain

			res := p.Extract(doc, "")
			assert.Equal(t, StatusOK, res.Status)
			assert.Equal(t, tt.wantStrategy, res.Strategy)
			var titles []string
			for _, r := range res.Records {
				titles = append(titles, r.Title)
			}
			assert.Equal(t, tt.wantTitles, titles)
		})
	}
}

func TestExtract_UnknownDateKeptForReview(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	p.generic.strategies = []strategy.Strategy{
		fixed("guess", strategy.Outcome{Records: []*event.Record{
			event.NewRecord("Harvest Supper", event.Unknown(), "the Saturday after harvest", "https://example.com/", event.Low),
		}}),
	}
	res := p.Extract(parse(t, `<body><p>x</p></body>`, "https://example.com/"), "")
	require.Len(t, res.Records, 1)
	assert.True(t, res.Records[0].Start.IsUnknown())
	assert.Equal(t, "the Saturday after harvest", res.Records[0].RawDateText)
}

func TestExtract_DomainRegistration(t *testing.T) {
	registry, err := handler.ParseRegistry([]byte(`
registrations:
  - name: vga-state-events
    match:
      domains: [vgagolf.org]
    strategies: [line-pattern, text-mining]
    timezone: America/Los_Angeles
    line_pattern: '^(?P<region>[A-Z]{2})\s*-\s*(?P<title>.+?)(?:\s*-\s*(?P<location>[^-]+))?$'
`))
	require.NoError(t, err)
	p, traces := newTestPipeline(t, registry)

	doc := parse(t, `<body><div class="entry-content">
		<p>NV - Chimera Golf Club 4.4.26 - Las Vegas</p>
		<p>NV - Chimera Golf Club 4.4.26 - Las Vegas</p>
		<p>AZ - Desert Classic Jan 24</p>
	</div></body>`, "https://www.vgagolf.org/state-events/")

	reg, platform := p.Resolve(doc, "")
	assert.Equal(t, "vga-state-events", reg.Name)
	assert.Empty(t, platform)

	res := p.Extract(doc, "")
	assert.Equal(t, "vga-state-events", res.Registration)
	assert.Equal(t, strategy.LinePattern, res.Strategy)
	require.Len(t, res.Records, 2)
	assert.Equal(t, []string{strategy.LinePattern}, strategies(*traces))

	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	assert.Equal(t, "Desert Classic", res.Records[0].Title)
	assert.True(t, time.Date(2026, 1, 24, 0, 0, 0, 0, la).Equal(res.Records[0].Start.Time()))
	assert.Equal(t, "Chimera Golf Club", res.Records[1].Title)
	assert.Equal(t, "Las Vegas, NV", res.Records[1].LocationName)
}

func TestNew_BuildsEveryRegistration(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	assert.NotNil(t, p.Registry())
	for _, reg := range p.Registry().All() {
		assert.Contains(t, p.chains, reg.Name)
	}
}

func TestExtract_UndatedHandlerRecordDoesNotEndChain(t *testing.T) {
	registry, err := handler.ParseRegistry([]byte(`
registrations:
  - name: members-club
    match:
      domains: [club.example.com]
    strategies: [selectors, text-mining]
    vouch: true
    selectors:
      item: .mixer
      title: .t
      date: .d
`))
	require.NoError(t, err)

	t.Run("later strategy wins", func(t *testing.T) {
		p, traces := newTestPipeline(t, registry)
		doc := parse(t, `<body><main>
			<div class="mixer"><h3 class="t">Members Mixer</h3><span class="d">Date TBA soon-ish</span></div>
			<div class="event"><h3>Garden Tour</h3><p>July 12, 2025 at the Rose Garden</p></div>
		</main></body>`, "https://club.example.com/events")

		res := p.Extract(doc, "")
		assert.Equal(t, []string{strategy.Selectors, strategy.TextMining}, strategies(*traces))
		assert.Equal(t, strategy.TextMining, res.Strategy)
		require.Len(t, res.Records, 1)
		assert.Equal(t, "Garden Tour", res.Records[0].Title)
	})

	t.Run("kept as low fallback", func(t *testing.T) {
		p, traces := newTestPipeline(t, registry)
		doc := parse(t, `<body><main>
			<div class="mixer"><h3 class="t">Members Mixer</h3><span class="d">Date TBA soon-ish</span></div>
		</main></body>`, "https://club.example.com/events")

		res := p.Extract(doc, "")
		assert.Equal(t, []string{strategy.Selectors, strategy.TextMining}, strategies(*traces))
		assert.Equal(t, StatusOK, res.Status)
		assert.Equal(t, strategy.Selectors, res.Strategy)
		require.Len(t, res.Records, 1)

		r := res.Records[0]
		assert.Equal(t, "Members Mixer", r.Title)
		assert.True(t, r.Start.IsUnknown())
		assert.Equal(t, "Date TBA soon-ish", r.RawDateText)
		assert.Equal(t, event.Low, r.Confidence)
	})
}

func TestExtract_TimedAndDateOnlySightingsCollapse(t *testing.T) {
	doc := parse(t, `<body><main>
		<div class="event"><h3>Spring Gala</h3><p>April 10, 2026 at 7pm, City Hall</p></div>
		<div class="event"><h3>Spring Gala</h3><p>04/10/2026 at City Hall</p></div>
	</main></body>`, "https://example.com/events")

	p, _ := newTestPipeline(t, nil)
	res := p.Extract(doc, "")

	require.Equal(t, StatusOK, res.Status)
	require.Len(t, res.Records, 1)
	assert.Equal(t, event.At(time.Date(2026, 4, 10, 19, 0, 0, 0, time.UTC)), res.Records[0].Start)
}
