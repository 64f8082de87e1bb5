package handler

import (
	"fmt"

	"github.com/pfrederiksen/eventscrape/internal/dateparse"
	"github.com/pfrederiksen/eventscrape/internal/noise"
	"github.com/pfrederiksen/eventscrape/internal/strategy"
	"github.com/pfrederiksen/eventscrape/internal/structured"
	"github.com/pfrederiksen/eventscrape/internal/textmine"
)

// Deps are the shared collaborators handed to every strategy of a chain
type Deps struct {
	Dates             *dateparse.Normalizer
	Noise             *noise.Filter
	MaxFragmentLength int
}

type factory func(reg *Registration, deps Deps) (strategy.Strategy, error)

func plain(f func(*Registration, Deps) strategy.Strategy) factory {
	return func(reg *Registration, deps Deps) (strategy.Strategy, error) {
		return f(reg, deps), nil
	}
}

var factories = map[string]factory{
	strategy.StructuredData: plain(func(_ *Registration, deps Deps) strategy.Strategy {
		return structured.New(deps.Dates)
	}),
	strategy.TextMining: plain(func(_ *Registration, deps Deps) strategy.Strategy {
		return textmine.New(deps.Dates, deps.Noise, textmine.Options{MaxFragmentLength: deps.MaxFragmentLength})
	}),
	strategy.SiteGenericSelectors: plain(siteGenericSelectors),
	strategy.Selectors:            plain(selectors),
	strategy.LinePattern:          newLinePattern,
	strategy.Static:               plain(newStatic),
	strategy.SquarespaceEvents:    plain(squarespaceEvents),
	strategy.TribeEvents:          plain(tribeEvents),
	strategy.ShopifyProducts:      plain(shopifyProducts),
}

// Known reports whether name is a buildable strategy
func Known(name string) bool {
	_, ok := factories[name]
	return ok
}

// Build instantiates the registration's strategy chain in priority order. A nil
// registration builds the generic chain.
func Build(reg *Registration, deps Deps) ([]strategy.Strategy, error) {
	if reg == nil {
		reg = Generic()
	}
	if deps.Dates == nil {
		deps.Dates = dateparse.New(dateparse.Options{Locale: reg.Locale, Location: reg.Location()})
	}
	if deps.Noise == nil {
		deps.Noise = noise.New(noise.DefaultConfig())
	}
	deps.Noise = deps.Noise.WithLabels(reg.Labels).WithDates(deps.Dates)

	chain := make([]strategy.Strategy, 0, len(reg.Strategies))
	for _, name := range reg.Strategies {
		f, ok := factories[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q in %s", ErrUnknownStrategy, name, reg.Name)
		}
		s, err := f(reg, deps)
		if err != nil {
			return nil, fmt.Errorf("building %s for %s: %w", name, reg.Name, err)
		}
		chain = append(chain, s)
	}
	return chain, nil
}
