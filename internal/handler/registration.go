package handler

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/eventscrape/internal/document"
	"github.com/pfrederiksen/eventscrape/internal/strategy"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownStrategy is returned for a strategy name no factory knows
	ErrUnknownStrategy = errors.New("unknown strategy")
	// ErrInvalidRegistration is returned when a registration cannot be used
	ErrInvalidRegistration = errors.New("invalid registration")
)

// GenericChain is used when no registration matches
var GenericChain = []string{strategy.StructuredData, strategy.SiteGenericSelectors, strategy.TextMining}

// Match selects the documents a registration applies to
type Match struct {
	Domains  []string `yaml:"domains"`
	Platform string   `yaml:"platform"`
}

// SelectorSet names the CSS selectors for one kind of listing. Item is required; the
// field selectors are evaluated inside each item.
type SelectorSet struct {
	Item     string `yaml:"item"`
	Title    string `yaml:"title"`
	Date     string `yaml:"date"`
	EndDate  string `yaml:"end_date"`
	Time     string `yaml:"time"`
	Location string `yaml:"location"`
	Address  string `yaml:"address"`
	Link     string `yaml:"link"`
	// Empty marks a notice that the listing has no events right now
	Empty string `yaml:"empty"`
}

// StaticEvent is a fixed event a site always lists. A missing date is looked up next
// to the title on the page.
type StaticEvent struct {
	Title    string `yaml:"title"`
	Date     string `yaml:"date"`
	Location string `yaml:"location"`
	Address  string `yaml:"address"`
	URL      string `yaml:"url"`
}

// Registration maps a matching rule to an ordered strategy chain
type Registration struct {
	Name       string   `yaml:"name"`
	Match      Match    `yaml:"match"`
	Strategies []string `yaml:"strategies"`
	// Locale decides day/month order and month names, e.g. "en_GB" or "fr_FR"
	Locale   string `yaml:"locale"`
	Timezone string `yaml:"timezone"`
	// Vouch exempts this site's fragments from the content-shape noise check
	Vouch     bool        `yaml:"vouch"`
	Selectors SelectorSet `yaml:"selectors"`
	// LinePattern is a regexp with named groups title, date and location applied to
	// each text line of the page
	LinePattern string `yaml:"line_pattern"`
	// DateSeparator splits a title from an embedded date, e.g. "@"
	DateSeparator string        `yaml:"date_separator"`
	Labels        []string      `yaml:"labels"`
	StaticEvents  []StaticEvent `yaml:"static_events"`
}

// Validate checks the registration against the known strategies
func (r *Registration) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidRegistration)
	}
	if len(r.Match.Domains) == 0 && r.Match.Platform == "" {
		return fmt.Errorf("%w: %s: match needs domains or a platform", ErrInvalidRegistration, r.Name)
	}
	if len(r.Strategies) == 0 {
		return fmt.Errorf("%w: %s: no strategies", ErrInvalidRegistration, r.Name)
	}
	for _, s := range r.Strategies {
		if !Known(s) {
			return fmt.Errorf("%w: %s: %q", ErrUnknownStrategy, r.Name, s)
		}
		switch s {
		case strategy.Selectors:
			if r.Selectors.Item == "" {
				return fmt.Errorf("%w: %s: selectors strategy needs selectors.item", ErrInvalidRegistration, r.Name)
			}
		case strategy.LinePattern:
			if _, err := compileLinePattern(r.LinePattern); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidRegistration, r.Name, err)
			}
		case strategy.Static:
			if len(r.StaticEvents) == 0 {
				return fmt.Errorf("%w: %s: static strategy needs static_events", ErrInvalidRegistration, r.Name)
			}
		}
	}
	if r.Timezone != "" {
		if _, err := time.LoadLocation(r.Timezone); err != nil {
			return fmt.Errorf("%w: %s: timezone: %v", ErrInvalidRegistration, r.Name, err)
		}
	}
	return nil
}

// Location returns the registration's time zone, or nil when unset
func (r *Registration) Location() *time.Location {
	if r.Timezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil
	}
	return loc
}

func compileLinePattern(p string) (*regexp.Regexp, error) {
	if p == "" {
		return nil, errors.New("line_pattern is empty")
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, fmt.Errorf("line_pattern: %w", err)
	}
	if re.SubexpIndex("title") < 0 {
		return nil, errors.New("line_pattern needs a (?P<title>...) group")
	}
	return re, nil
}

// Registry is the read-only registration table
type Registry struct {
	byName     map[string]*Registration
	byDomain   map[string]*Registration
	byPlatform map[string]*Registration
}

// NewRegistry builds a registry from the built-in registrations overlaid with regs.
// A registration whose name matches a built-in replaces it.
func NewRegistry(regs ...Registration) (*Registry, error) {
	merged := map[string]Registration{}
	for _, b := range Builtins() {
		merged[b.Name] = b
	}
	for _, r := range regs {
		merged[r.Name] = r
	}

	reg := &Registry{
		byName:     map[string]*Registration{},
		byDomain:   map[string]*Registration{},
		byPlatform: map[string]*Registration{},
	}
	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r := merged[name]
		if err := r.Validate(); err != nil {
			return nil, err
		}
		rp := &r
		reg.byName[r.Name] = rp
		for _, d := range r.Match.Domains {
			host := document.NormalizeHost(d)
			if other, ok := reg.byDomain[host]; ok {
				return nil, fmt.Errorf("%w: domain %s claimed by %s and %s", ErrInvalidRegistration, host, other.Name, r.Name)
			}
			reg.byDomain[host] = rp
		}
		if p := strings.ToLower(r.Match.Platform); p != "" {
			if other, ok := reg.byPlatform[p]; ok {
				return nil, fmt.Errorf("%w: platform %s claimed by %s and %s", ErrInvalidRegistration, p, other.Name, r.Name)
			}
			reg.byPlatform[p] = rp
		}
	}
	return reg, nil
}

type registryFile struct {
	Registrations []Registration `yaml:"registrations"`
}

// ParseRegistry decodes a YAML registration table
func ParseRegistry(data []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing registrations: %w", err)
	}
	return NewRegistry(f.Registrations...)
}

// LoadRegistry reads a YAML registration table from path. An empty path yields the
// built-in registrations only.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return NewRegistry()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registrations: %w", err)
	}
	return ParseRegistry(data)
}

// Lookup finds the registration for a host, then for a platform signature. Hosts
// match exactly after lower-casing and dropping "www."; a subdomain falls back to its
// parent domain's registration.
func (r *Registry) Lookup(host, platform string) (*Registration, bool) {
	host = document.NormalizeHost(host)
	for h := host; h != ""; {
		if reg, ok := r.byDomain[h]; ok {
			return reg, true
		}
		i := strings.IndexByte(h, '.')
		if i < 0 || !strings.Contains(h[i+1:], ".") {
			break
		}
		h = h[i+1:]
	}
	if platform != "" {
		if reg, ok := r.byPlatform[strings.ToLower(platform)]; ok {
			return reg, true
		}
	}
	return nil, false
}

// Get returns a registration by name
func (r *Registry) Get(name string) (*Registration, bool) {
	reg, ok := r.byName[name]
	return reg, ok
}

// All returns every registration sorted by name
func (r *Registry) All() []*Registration {
	out := make([]*Registration, 0, len(r.byName))
	for _, reg := range r.byName {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
