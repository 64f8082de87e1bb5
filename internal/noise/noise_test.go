package noise

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/eventscrape/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, markup string) *document.RawDocument {
	t.Helper()
	doc, err := document.ParseString(markup, "https://example.com/events")
	require.NoError(t, err)
	return doc
}

func fragment(t *testing.T, doc *document.RawDocument, selector string) *document.Fragment {
	t.Helper()
	sel := doc.Doc.Find(selector)
	require.Greater(t, sel.Length(), 0, "selector %q matched nothing", selector)
	return document.NewFragment(sel)
}

func TestClassify_LabelAlwaysWins(t *testing.T) {
	doc := parse(t, `<body><main><article>
		<div id="a">All Events</div>
		<div id="b">  filter BY location › </div>
		<div id="c">Upcoming (12)</div>
		<div id="d">Music</div>
	</article></main></body>`)

	f := New(Config{}).WithLabels([]string{"Music"})
	c := f.ForDocument(doc)

	for _, id := range []string{"#a", "#b", "#c", "#d"} {
		t.Run(id, func(t *testing.T) {
			v := c.Classify(fragment(t, doc, id))
			assert.True(t, v.Noise)
			assert.Equal(t, ReasonLabel, v.Reason)
		})
	}
}

func TestClassify_LabelBeatsVouch(t *testing.T) {
	doc := parse(t, `<body><main><p id="x">All Events</p></main></body>`)
	frag := fragment(t, doc, "#x")
	frag.Vouched = true
	assert.True(t, New(DefaultConfig()).ForDocument(doc).IsNoise(frag))
}

func TestClassify_Structure(t *testing.T) {
	doc := parse(t, `<body class="menu-open">
		<header><div id="h">Gala night April 10, 2025 at the Town Hall</div></header>
		<nav><ul><li id="n">Spring Gala - April 10, 2025 at Town Hall</li></ul></nav>
		<div role="navigation"><span id="r">Summer Fair - June 1, 2025 at Town Hall</span></div>
		<div class="event-filters"><span id="f">Book Sale - May 3, 2025 at Town Hall</span></div>
		<form><label id="form">From April 10, 2025 to April 12, 2025 at Town Hall</label></form>
		<ul class="pagination"><li id="p">Page 2 of events from April 10, 2025 onward</li></ul>
		<main>
			<article><header><h2 id="ah">Spring Gala April 10, 2025 at the Town Hall</h2></header></article>
			<div class="event-card" id="ok">Spring Gala - April 10, 2025 at Town Hall</div>
		</main>
	</body>`)
	c := New(DefaultConfig()).ForDocument(doc)

	for _, id := range []string{"#h", "#n", "#r", "#f", "#form", "#p"} {
		t.Run(id, func(t *testing.T) {
			v := c.Classify(fragment(t, doc, id))
			assert.Equal(t, Verdict{Noise: true, Reason: ReasonStructure}, v)
		})
	}
	for _, id := range []string{"#ah", "#ok"} {
		t.Run(id, func(t *testing.T) {
			assert.Equal(t, Verdict{}, c.Classify(fragment(t, doc, id)))
		})
	}
}

func TestClassify_Repetition(t *testing.T) {
	doc := parse(t, `<body><main>
		<div class="e"><h3>Trivia Night</h3><p>April 1, 2025</p></div>
		<div class="e"><h3>Trivia Night</h3><p>April 8, 2025</p></div>
		<div class="e"><h3>Trivia Night</h3><p>April 15, 2025</p></div>
		<div class="e"><h3>Trivia Night</h3><p>April 22, 2025</p></div>
		<div class="g"><h3>Spring Gala</h3><p>April 10, 2025</p></div>
	</main></body>`)
	c := New(DefaultConfig()).ForDocument(doc)

	assert.Equal(t, 4, c.Repeats("trivia night"))
	v := c.Classify(fragment(t, doc, ".e"))
	assert.Equal(t, Verdict{Noise: true, Reason: ReasonRepetition}, v)
	assert.False(t, c.IsNoise(fragment(t, doc, ".g")))

	lenient := New(Config{RepeatThreshold: 5}).ForDocument(doc)
	assert.False(t, lenient.IsNoise(fragment(t, doc, ".e")))
}

func TestClassify_SharedDetailsLinkIsNotRepetition(t *testing.T) {
	doc := parse(t, `<body><main>
		<div class="e" id="e1"><strong>Book Club</strong><p>March 3, 2026 7pm, Central Library</p><a href="/e/1">Details</a></div>
		<div class="e" id="e2"><strong>Chess Night</strong><p>March 5, 2026 6pm, Central Library</p><a href="/e/2">Details</a></div>
		<div class="e" id="e3"><strong>Story Time</strong><p>March 7, 2026 10am, Central Library</p><a href="/e/3">Details</a></div>
		<div class="e" id="e4"><strong>Film Club</strong><p>March 9, 2026 7pm, Central Library</p><a href="/e/4">Details</a></div>
		<div class="t" id="t1"><a href="/e/5">Details</a><h3 class="card-title">Quiz</h3><p>March 10, 2026</p></div>
	</main></body>`)
	c := New(DefaultConfig()).ForDocument(doc)
	require.Equal(t, 5, c.Repeats("details"))

	for _, id := range []string{"#e1", "#e2", "#e3", "#e4", "#t1"} {
		t.Run(id, func(t *testing.T) {
			assert.Equal(t, Verdict{}, c.Classify(fragment(t, doc, id)))
		})
	}
}

func TestClassify_NestedChipCountsOnce(t *testing.T) {
	doc := parse(t, `<body><ul><li><a href="#">Jazz</a></li></ul><p>Jazz</p><p>Jazz</p></body>`)
	c := New(DefaultConfig()).ForDocument(doc)
	assert.Equal(t, 3, c.Repeats("Jazz"))
}

func TestClassify_Shape(t *testing.T) {
	doc := parse(t, `<body><main>
		<div id="chip">Sports</div>
		<div id="date">Gala, Apr 10</div>
		<div id="time">Doors 7pm</div>
		<div id="venue">Riverside Park</div>
		<div id="addr">123 Main St</div>
		<div id="tag"><time datetime="2025-04-10">soon</time></div>
		<div id="long">A long description of something happening that is clearly content.</div>
	</main></body>`)
	c := New(DefaultConfig()).ForDocument(doc)

	assert.Equal(t, Verdict{Noise: true, Reason: ReasonShape}, c.Classify(fragment(t, doc, "#chip")))
	for _, id := range []string{"#date", "#time", "#venue", "#addr", "#tag", "#long"} {
		t.Run(id, func(t *testing.T) {
			assert.False(t, c.IsNoise(fragment(t, doc, id)))
		})
	}

	vouched := fragment(t, doc, "#chip")
	vouched.Vouched = true
	assert.False(t, c.IsNoise(vouched))
}

func TestClassify_FilterChipsOnlyPage(t *testing.T) {
	doc := parse(t, `<body><div class="tags"><span>Music</span><span>Sports</span><span>Food</span></div></body>`)
	c := New(DefaultConfig()).ForDocument(doc)
	doc.Doc.Find(".tags span").Each(func(_ int, sel *goquery.Selection) {
		assert.True(t, c.IsNoise(document.NewFragment(sel)))
	})
}

func TestClassify_Empty(t *testing.T) {
	c := New(DefaultConfig()).ForDocument(nil)
	assert.True(t, c.IsNoise(nil))
	assert.True(t, c.IsNoise(&document.Fragment{}))
}

func TestIsLabel(t *testing.T) {
	f := New(DefaultConfig())
	assert.True(t, f.IsLabel("All Events"))
	assert.True(t, f.IsLabel("  LOAD MORE  "))
	assert.True(t, f.IsLabel("Next »"))
	assert.False(t, f.IsLabel("Spring Gala"))
	assert.False(t, f.IsLabel(""))

	custom := New(Config{Labels: []string{"Workshops"}})
	assert.True(t, custom.IsLabel("workshops"))
	assert.False(t, custom.IsLabel("All Events"))
}

func TestNew_Defaults(t *testing.T) {
	cfg := New(Config{}).Config()
	assert.Equal(t, DefaultRepeatThreshold, cfg.RepeatThreshold)
	assert.Equal(t, DefaultMinContentLength, cfg.MinContentLength)
	assert.NotEmpty(t, cfg.Labels)
}

func TestLooksLikeLocation(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"123 Main St, Springfield", true},
		{"Springfield, IL", true},
		{"Austin, TX 78701", true},
		{"London SW1A 1AA", true},
		{"The Grand Ballroom", true},
		{"Online via Zoom", true},
		{"Spring Gala", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeLocation(tt.text))
		})
	}
	assert.True(t, LooksLikeAddress("500 W 2nd Street"))
	assert.False(t, LooksLikeAddress("Riverside Park"))
	assert.True(t, HasVenueKeyword("Riverside Park"))
}

func TestClassify_VouchedSeriesKeepsRepeatedTitle(t *testing.T) {
	doc := parse(t, `<body><main>
		<div class="ev" id="e1"><h3>Trivia Night</h3><p>Jul 1</p></div>
		<div class="ev" id="e2"><h3>Trivia Night</h3><p>Jul 8</p></div>
		<div class="ev" id="e3"><h3>Trivia Night</h3><p>Jul 15</p></div>
		<div class="ev" id="e4"><h3>Trivia Night</h3><p>Jul 22</p></div>
	</main></body>`)
	c := New(DefaultConfig()).ForDocument(doc)

	frag := fragment(t, doc, "#e1")
	assert.Equal(t, Verdict{Noise: true, Reason: ReasonRepetition}, c.Classify(frag))

	frag.Vouched = true
	assert.False(t, c.IsNoise(frag))
}
