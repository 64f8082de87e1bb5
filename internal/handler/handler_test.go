package handler

import (
	"errors"
	"testing"
	"time"

	"github.com/pfrederiksen/eventscrape/internal/dateparse"
	"github.com/pfrederiksen/eventscrape/internal/document"
	"github.com/pfrederiksen/eventscrape/internal/event"
	"github.com/pfrederiksen/eventscrape/internal/noise"
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

func testDeps(locale string) Deps {
	return Deps{
		Dates: dateparse.New(dateparse.Options{Locale: locale, Now: func() time.Time { return fixedNow }}),
		Noise: noise.New(noise.DefaultConfig()),
	}
}

// run builds a one-strategy chain for reg and extracts doc with it
func run(t *testing.T, reg *Registration, name string, doc *document.RawDocument) strategy.Outcome {
	t.Helper()
	r := *reg
	r.Strategies = []string{name}
	chain, err := Build(&r, testDeps(reg.Locale))
	require.NoError(t, err)
	require.Len(t, chain, 1)
	out, err := chain[0].Extract(doc)
	require.NoError(t, err)
	return out
}

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		url    string
		want   string
	}{
		{
			name:   "shopify host",
			markup: `<body><p>Shop</p></body>`,
			url:    "https://candles.myshopify.com/collections/classes",
			want:   PlatformShopify,
		},
		{
			name:   "shopify cdn asset",
			markup: `<head><link rel="stylesheet" href="//cdn.shopify.com/s/files/theme.css"></head><body><p>x</p></body>`,
			url:    "https://candles.example.com/",
			want:   PlatformShopify,
		},
		{
			name:   "squarespace markup",
			markup: `<body><div class="eventlist eventlist--upcoming"></div></body>`,
			url:    "https://studio.example.com/events",
			want:   PlatformSquarespace,
		},
		{
			name:   "tribe generator",
			markup: `<head><meta name="generator" content="The Events Calendar 6.2.1"></head><body><p>x</p></body>`,
			url:    "https://club.example.org/events/",
			want:   PlatformTribeEvents,
		},
		{
			name:   "wix",
			markup: `<head><meta name="generator" content="Wix.com Website Builder"></head><body><p>x</p></body>`,
			url:    "https://example.com/",
			want:   PlatformWix,
		},
		{
			name:   "plain page",
			markup: `<body><h1>Events</h1><p>Nothing special</p></body>`,
			url:    "https://example.com/",
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPlatform(parse(t, tt.markup, tt.url)))
		})
	}
	assert.Empty(t, DetectPlatform(nil))
}

const squarespacePage = `<html><head>
<script src="https://static1.squarespace.com/static/vta/scripts/site-bundle.js"></script>
</head><body>
<div class="eventlist eventlist--upcoming">
  <article class="eventlist-event eventlist-event--upcoming">
    <h1 class="eventlist-title"><a href="/events/summer-concert" class="eventlist-title-link">Summer Concert</a></h1>
    <ul class="eventlist-meta event-meta">
      <li class="eventlist-meta-item eventlist-meta-date"><time class="event-date" datetime="2025-07-04">Friday, July 4, 2025</time></li>
      <li class="eventlist-meta-item eventlist-meta-time"><span class="event-time-12hr"><time class="event-time-12hr-start" datetime="2025-07-04">7:00 PM</time> – <time class="event-time-12hr-end" datetime="2025-07-04">9:00 PM</time></span></li>
      <li class="eventlist-meta-item eventlist-meta-address">Riverside Park <a class="eventlist-meta-address-maplink" href="https://maps.google.com">(map)</a></li>
    </ul>
  </article>
  <article class="eventlist-event eventlist-event--upcoming">
    <h1 class="eventlist-title"><a href="/events/quiz" class="eventlist-title-link">Quiz</a></h1>
    <ul class="eventlist-meta event-meta">
      <li class="eventlist-meta-item eventlist-meta-date"><time class="event-date" datetime="2025-07-08">Tuesday, July 8, 2025</time></li>
    </ul>
  </article>
</div>
</body></html>`

func TestSquarespaceEvents(t *testing.T) {
	doc := parse(t, squarespacePage, "https://studio.example.com/events")
	require.Equal(t, PlatformSquarespace, DetectPlatform(doc))

	reg, err := NewRegistry()
	require.NoError(t, err)
	sq, ok := reg.Lookup(doc.Host(), PlatformSquarespace)
	require.True(t, ok)

	out := run(t, sq, strategy.SquarespaceEvents, doc)
	assert.False(t, out.Terminal)
	require.Len(t, out.Records, 2)

	concert := out.Records[0]
	assert.Equal(t, "Summer Concert", concert.Title)
	assert.Equal(t, event.At(time.Date(2025, 7, 4, 19, 0, 0, 0, time.UTC)), concert.Start)
	require.NotNil(t, concert.End)
	assert.Equal(t, event.At(time.Date(2025, 7, 4, 21, 0, 0, 0, time.UTC)), *concert.End)
	assert.Equal(t, "Riverside Park", concert.LocationName)
	assert.Equal(t, "https://studio.example.com/events/summer-concert", concert.URL)
	assert.Equal(t, event.High, concert.Confidence)
	assert.Equal(t, strategy.SquarespaceEvents, concert.Strategy)

	// short card, vouched by the handler
	quiz := out.Records[1]
	assert.Equal(t, "Quiz", quiz.Title)
	assert.Equal(t, event.OnDate(time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)), quiz.Start)
}

func TestSquarespaceEvents_EmptyListIsTerminal(t *testing.T) {
	doc := parse(t, `<body><div class="eventlist eventlist--upcoming"><div class="eventlist-msg">No upcoming events</div></div></body>`,
		"https://studio.example.com/events")
	out := run(t, &Registration{Name: PlatformSquarespace}, strategy.SquarespaceEvents, doc)
	assert.True(t, out.Terminal)
	assert.Empty(t, out.Records)

	// no events collection at all: not this handler's page
	doc = parse(t, `<body><p>About us</p></body>`, "https://studio.example.com/about")
	out = run(t, &Registration{Name: PlatformSquarespace}, strategy.SquarespaceEvents, doc)
	assert.False(t, out.Terminal)
}

const tribePage = `<body>
<div class="tribe-events tribe-common">
  <div class="tribe-events-calendar-list">
    <div class="tribe-events-calendar-list__event-row">
      <article class="tribe-events-calendar-list__event type-tribe_events">
        <header>
          <div class="tribe-events-calendar-list__event-datetime-wrapper">
            <time class="tribe-events-calendar-list__event-datetime" datetime="2025-07-04">
              <span class="tribe-event-date-start">July 4 @ 7:00 pm</span> - <span class="tribe-event-time">9:00 pm</span>
            </time>
          </div>
          <h3 class="tribe-events-calendar-list__event-title">
            <a href="https://club.example.org/event/fireworks/" class="tribe-events-calendar-list__event-title-link">Fireworks Night</a>
          </h3>
          <address class="tribe-events-calendar-list__event-venue">
            <span class="tribe-events-calendar-list__event-venue-title">Harbor Park</span>
            <span class="tribe-events-calendar-list__event-venue-address">1 Harbor Way, Springfield, IL</span>
          </address>
        </header>
      </article>
    </div>
  </div>
</div>
</body>`

func TestTribeEvents(t *testing.T) {
	doc := parse(t, tribePage, "https://club.example.org/events/")
	require.Equal(t, PlatformTribeEvents, DetectPlatform(doc))

	out := run(t, &Registration{Name: PlatformTribeEvents}, strategy.TribeEvents, doc)
	require.Len(t, out.Records, 1)
	assert.Equal(t, 1, out.Fragments)

	r := out.Records[0]
	assert.Equal(t, "Fireworks Night", r.Title)
	assert.Equal(t, event.At(time.Date(2025, 7, 4, 19, 0, 0, 0, time.UTC)), r.Start)
	require.NotNil(t, r.End)
	assert.Equal(t, event.At(time.Date(2025, 7, 4, 21, 0, 0, 0, time.UTC)), *r.End)
	assert.Equal(t, "Harbor Park", r.LocationName)
	assert.Equal(t, "1 Harbor Way, Springfield, IL", r.Address)
	assert.Equal(t, "https://club.example.org/event/fireworks/", r.URL)
	assert.Contains(t, r.RawDateText, "July 4 @ 7:00 pm")
}

func TestTribeEvents_NoticeIsTerminal(t *testing.T) {
	doc := parse(t, `<body><div class="tribe-events"><div class="tribe-events-c-messages__message tribe-events-c-messages__message--notice">There are no upcoming events.</div></div></body>`,
		"https://club.example.org/events/")
	out := run(t, &Registration{Name: PlatformTribeEvents}, strategy.TribeEvents, doc)
	assert.True(t, out.Terminal)
}

func TestShopifyProducts(t *testing.T) {
	doc := parse(t, `<body><div class="collection">
		<div class="card-wrapper"><a href="/products/wine-tasting"><h3 class="card__heading">Wine Tasting @ July 12, 2025 7pm</h3></a><span class="price">$25</span></div>
		<div class="card-wrapper"><a href="/products/pottery-class"><h3 class="card__heading">Pottery Class - Aug 2</h3></a></div>
		<div class="card-wrapper"><a href="/products/gift-card"><h3 class="card__heading">Gift Card</h3></a></div>
	</div></body>`, "https://candles.myshopify.com/collections/classes")

	reg, err := NewRegistry()
	require.NoError(t, err)
	shop, ok := reg.Lookup(doc.Host(), DetectPlatform(doc))
	require.True(t, ok)
	require.Equal(t, PlatformShopify, shop.Name)

	out := run(t, shop, strategy.ShopifyProducts, doc)
	require.Len(t, out.Records, 2)

	wine := out.Records[0]
	assert.Equal(t, "Wine Tasting", wine.Title)
	assert.Equal(t, event.At(time.Date(2025, 7, 12, 19, 0, 0, 0, time.UTC)), wine.Start)
	assert.Equal(t, "https://candles.myshopify.com/products/wine-tasting", wine.URL)

	pottery := out.Records[1]
	assert.Equal(t, "Pottery Class", pottery.Title)
	assert.Equal(t, event.OnDate(time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC)), pottery.Start)
}

func TestShopifyProducts_NoProductsIsTerminal(t *testing.T) {
	doc := parse(t, `<body><p>This collection is empty</p></body>`, "https://candles.myshopify.com/collections/classes")
	out := run(t, &Registration{Name: PlatformShopify, DateSeparator: "@"}, strategy.ShopifyProducts, doc)
	assert.True(t, out.Terminal)
	assert.Empty(t, out.Records)
}

func TestSelectors_UsesLocale(t *testing.T) {
	doc := parse(t, `<body><div class="programme">
		<div class="show"><span class="show-name">Hamlet</span> <span class="show-date">04/05/2026</span> <span class="show-venue">Globe Theatre</span></div>
		<div class="show"><span class="show-name">All Events</span> <span class="show-date">05/05/2026</span></div>
	</div></body>`, "https://theatre.example.co.uk/whats-on")

	reg := &Registration{
		Name:      "theatre",
		Locale:    "en_GB",
		Vouch:     true,
		Selectors: SelectorSet{Item: ".show", Title: ".show-name", Date: ".show-date", Location: ".show-venue"},
	}
	out := run(t, reg, strategy.Selectors, doc)
	require.Len(t, out.Records, 1)

	r := out.Records[0]
	assert.Equal(t, "Hamlet", r.Title)
	assert.Equal(t, event.OnDate(time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)), r.Start)
	assert.False(t, r.DateAmbiguous)
	assert.Equal(t, "Globe Theatre", r.LocationName)
	assert.Equal(t, event.High, r.Confidence)
}

func TestSelectors_SiteLabels(t *testing.T) {
	doc := parse(t, `<body>
		<div class="show"><span class="show-name">Members Only</span> <span class="show-date">May 5, 2026</span></div>
		<div class="show"><span class="show-name">Open Mic</span> <span class="show-date">May 6, 2026</span></div>
	</body>`, "https://club.example.com/")
	reg := &Registration{
		Name:      "club",
		Labels:    []string{"Members Only"},
		Selectors: SelectorSet{Item: ".show", Title: ".show-name", Date: ".show-date"},
	}
	out := run(t, reg, strategy.Selectors, doc)
	require.Len(t, out.Records, 1)
	assert.Equal(t, "Open Mic", out.Records[0].Title)
}

func TestLinePattern(t *testing.T) {
	doc := parse(t, `<body><div class="entry-content">
		<p>Upcoming state events</p>
		<p>NV - Chimera Golf Club 4.4.26 - Las Vegas</p>
		<p>AZ - Desert Classic Jan 24</p>
		<p>CA - https://example.com/signup</p>
	</div></body>`, "https://vgagolf.org/state-events/")

	reg := &Registration{
		Name:        "vga-state-events",
		Locale:      "en_US",
		LinePattern: `^(?P<region>[A-Z]{2})\s*-\s*(?P<title>.+?)(?:\s*-\s*(?P<location>[^-]+))?$`,
	}
	out := run(t, reg, strategy.LinePattern, doc)
	require.Len(t, out.Records, 2)

	club := out.Records[0]
	assert.Equal(t, "Chimera Golf Club", club.Title)
	assert.Equal(t, event.OnDate(time.Date(2026, 4, 4, 0, 0, 0, 0, time.UTC)), club.Start)
	assert.Equal(t, "Las Vegas, NV", club.LocationName)
	assert.Equal(t, "4.4.26", club.RawDateText)
	assert.Equal(t, event.High, club.Confidence)

	desert := out.Records[1]
	assert.Equal(t, "Desert Classic", desert.Title)
	assert.Equal(t, event.OnDate(time.Date(2026, 1, 24, 0, 0, 0, 0, time.UTC)), desert.Start)
	assert.Equal(t, "AZ", desert.LocationName)
}

func TestStatic(t *testing.T) {
	doc := parse(t, `<body><main>
		<div class="feature"><h3>Holiday Market</h3><p>Saturdays in December, starting Dec 6</p></div>
		<p>Annual Gala tickets on sale soon</p>
	</main></body>`, "https://museum.example.org/")

	reg := &Registration{
		Name: "museum",
		StaticEvents: []StaticEvent{
			{Title: "Annual Gala", Date: "2025-12-06 6pm", Location: "Great Hall", URL: "/gala"},
			{Title: "Holiday Market"},
			{Title: "Spring Fair"},
		},
	}
	out := run(t, reg, strategy.Static, doc)
	assert.Equal(t, 3, out.Fragments)
	require.Len(t, out.Records, 2)

	gala := out.Records[0]
	assert.Equal(t, "Annual Gala", gala.Title)
	assert.Equal(t, event.At(time.Date(2025, 12, 6, 18, 0, 0, 0, time.UTC)), gala.Start)
	assert.Equal(t, "Great Hall", gala.LocationName)
	assert.Equal(t, "https://museum.example.org/gala", gala.URL)

	market := out.Records[1]
	assert.Equal(t, "Holiday Market", market.Title)
	assert.Equal(t, event.OnDate(time.Date(2025, 12, 6, 0, 0, 0, 0, time.UTC)), market.Start)
}

func TestSiteGenericSelectors(t *testing.T) {
	doc := parse(t, `<body><main><ul>
		<li class="event"><h3 class="event-title">Book Club</h3> <span class="event-date">March 3, 2026</span> <span class="venue">Main Library</span></li>
		<li class="event"><h3 class="event-title">Coming soon</h3></li>
	</ul></main></body>`, "https://library.example.org/events")

	out := run(t, Generic(), strategy.SiteGenericSelectors, doc)
	assert.Equal(t, 2, out.Fragments)
	require.Len(t, out.Records, 1)

	r := out.Records[0]
	assert.Equal(t, "Book Club", r.Title)
	assert.Equal(t, event.OnDate(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)), r.Start)
	assert.Equal(t, "Main Library", r.LocationName)
	assert.Equal(t, event.Medium, r.Confidence)
	assert.Equal(t, strategy.SiteGenericSelectors, r.Strategy)
}
