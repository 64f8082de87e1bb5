package pipeline

import (
	"fmt"
	"net/url"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/pfrederiksen/eventscrape/internal/dateparse"
	"github.com/pfrederiksen/eventscrape/internal/document"
	"github.com/pfrederiksen/eventscrape/internal/event"
	"github.com/pfrederiksen/eventscrape/internal/handler"
	"github.com/pfrederiksen/eventscrape/internal/noise"
	"github.com/pfrederiksen/eventscrape/internal/strategy"
)

// Status summarises an extraction run
type Status string

const (
	StatusOK        Status = "ok"
	StatusNoEvents  Status = "no_events"
	StatusMalformed Status = "malformed"
)

// Result is the output of one Extract call
type Result struct {
	RunID        uuid.UUID       `json:"run_id"`
	SourceURL    string          `json:"source_url"`
	Registration string          `json:"registration"`
	Platform     string          `json:"platform,omitempty"`
	Strategy     string          `json:"strategy,omitempty"`
	Status       Status          `json:"status"`
	Records      []*event.Record `json:"records"`
}

// chain is a registration's strategies plus the label filter for its records
type chain struct {
	reg        *handler.Registration
	strategies []strategy.Strategy
	labels     *noise.Filter
}

// Pipeline runs extraction chains. Build one with New.
type Pipeline struct {
	registry   *handler.Registry
	hook       Hook
	noiseCfg   noise.Config
	now        func() time.Time
	loc        *time.Location
	locale     string
	maxFragLen int

	chains  map[string]*chain
	generic *chain
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithHook installs an observer for per-strategy traces
func WithHook(h Hook) Option {
	return func(p *Pipeline) { p.hook = h }
}

// WithNoise sets the noise filter configuration
func WithNoise(cfg noise.Config) Option {
	return func(p *Pipeline) { p.noiseCfg = cfg }
}

// WithClock sets the clock used to resolve dates without a year
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithTimezone sets the zone for dates without an offset. A registration's own
// timezone takes precedence.
func WithTimezone(loc *time.Location) Option {
	return func(p *Pipeline) { p.loc = loc }
}

// WithLocale sets the default locale for registrations that do not declare one
func WithLocale(locale string) Option {
	return func(p *Pipeline) { p.locale = locale }
}

// WithMaxFragmentLength bounds text-mining fragments
func WithMaxFragmentLength(n int) Option {
	return func(p *Pipeline) { p.maxFragLen = n }
}

// New builds the strategy chain of every registration once. A nil registry uses the
// built-in registrations.
func New(registry *handler.Registry, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		registry: registry,
		noiseCfg: noise.DefaultConfig(),
		now:      time.Now,
		chains:   map[string]*chain{},
	}
	for _, o := range opts {
		o(p)
	}
	if p.registry == nil {
		reg, err := handler.NewRegistry()
		if err != nil {
			return nil, err
		}
		p.registry = reg
	}

	filter := noise.New(p.noiseCfg)
	for _, reg := range p.registry.All() {
		c, err := p.build(reg, filter)
		if err != nil {
			return nil, err
		}
		p.chains[reg.Name] = c
	}
	generic, err := p.build(handler.Generic(), filter)
	if err != nil {
		return nil, err
	}
	p.generic = generic
	return p, nil
}

func (p *Pipeline) build(reg *handler.Registration, filter *noise.Filter) (*chain, error) {
	locale := reg.Locale
	if locale == "" {
		locale = p.locale
	}
	loc := reg.Location()
	if loc == nil {
		loc = p.loc
	}
	dates := dateparse.New(dateparse.Options{Locale: locale, Location: loc, Now: p.now})

	strategies, err := handler.Build(reg, handler.Deps{
		Dates:             dates,
		Noise:             filter,
		MaxFragmentLength: p.maxFragLen,
	})
	if err != nil {
		return nil, fmt.Errorf("building chain for %s: %w", reg.Name, err)
	}
	return &chain{reg: reg, strategies: strategies, labels: filter.WithLabels(reg.Labels)}, nil
}

// Registry returns the registration table the pipeline was built from
func (p *Pipeline) Registry() *handler.Registry {
	return p.registry
}

// Resolve reports which registration a document would be dispatched to and the
// detected platform
func (p *Pipeline) Resolve(doc *document.RawDocument, sourceURL string) (*handler.Registration, string) {
	platform := handler.DetectPlatform(doc)
	return p.lookup(doc, sourceURL, platform).reg, platform
}

func (p *Pipeline) lookup(doc *document.RawDocument, sourceURL, platform string) *chain {
	host := hostOf(sourceURL)
	if host == "" && doc != nil {
		host = doc.Host()
	}
	if reg, ok := p.registry.Lookup(host, platform); ok {
		if c, ok := p.chains[reg.Name]; ok {
			return c
		}
	}
	return p.generic
}

// Extract runs the matching chain over doc. sourceURL selects the registration; when
// empty the document's own URL is used.
func (p *Pipeline) Extract(doc *document.RawDocument, sourceURL string) *Result {
	res := &Result{RunID: uuid.New(), SourceURL: sourceURL, Records: []*event.Record{}}
	if res.SourceURL == "" && doc != nil {
		res.SourceURL = doc.SourceURL
	}
	if doc.Empty() {
		res.Status = StatusMalformed
		res.Registration = p.generic.reg.Name
		p.emit(Trace{RunID: res.RunID, SourceURL: res.SourceURL, Registration: res.Registration, Malformed: true})
		return res
	}

	res.Platform = handler.DetectPlatform(doc)
	c := p.lookup(doc, res.SourceURL, res.Platform)
	res.Registration = c.reg.Name

	var (
		winners  []*event.Record
		fallback []*event.Record
		fromLow  string
	)
	for _, s := range c.strategies {
		started := time.Now()
		out, err := invoke(s, doc)
		kept := sanitize(out.Records, c.labels)

		p.emit(Trace{
			RunID:        res.RunID,
			SourceURL:    res.SourceURL,
			Registration: c.reg.Name,
			Strategy:     s.Name(),
			Fragments:    out.Fragments,
			Records:      len(out.Records),
			Kept:         len(kept),
			Terminal:     out.Terminal,
			Err:          err,
			Duration:     time.Since(started),
		})
		if err != nil {
			continue
		}
		if out.Terminal {
			res.Strategy = s.Name()
			res.Status = StatusNoEvents
			return res
		}
		if confident(kept) {
			winners = kept
			res.Strategy = s.Name()
			break
		}
		if len(kept) > 0 && fallback == nil {
			fallback, fromLow = kept, s.Name()
		}
	}
	if winners == nil && fallback != nil {
		winners = fallback
		res.Strategy = fromLow
	}

	res.Records = event.Dedupe(winners)
	if len(res.Records) == 0 {
		res.Status = StatusNoEvents
		res.Strategy = ""
	} else {
		res.Status = StatusOK
	}
	return res
}

func (p *Pipeline) emit(t Trace) {
	if p.hook != nil {
		p.hook(t)
	}
}

// ErrPanic wraps a value recovered from a panicking strategy
type ErrPanic struct {
	Strategy string
	Value    any
	Stack    []byte
}

func (e *ErrPanic) Error() string {
	return fmt.Sprintf("strategy %s panicked: %v", e.Strategy, e.Value)
}

// invoke runs one strategy, converting a panic into an error
func invoke(s strategy.Strategy, doc *document.RawDocument) (out strategy.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = strategy.Outcome{}
			err = &ErrPanic{Strategy: s.Name(), Value: r, Stack: debug.Stack()}
		}
	}()
	out, err = s.Extract(doc)
	if err != nil {
		return strategy.Outcome{}, fmt.Errorf("%s: %w", s.Name(), err)
	}
	return out, nil
}

// sanitize drops records without a usable title or date
func sanitize(records []*event.Record, labels *noise.Filter) []*event.Record {
	var kept []*event.Record
	for _, r := range records {
		if r == nil || !r.Usable() || labels.IsLabel(r.Title) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func confident(records []*event.Record) bool {
	for _, r := range records {
		if r.Confidence >= event.Medium {
			return true
		}
	}
	return false
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return document.NormalizeHost(u.Hostname())
}
