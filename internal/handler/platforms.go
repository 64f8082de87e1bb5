package handler

import (
	"github.com/pfrederiksen/eventscrape/internal/event"
	"github.com/pfrederiksen/eventscrape/internal/strategy"
)

// Squarespace events collection pages
var squarespaceSelectors = SelectorSet{
	Item:     "article.eventlist-event, .eventlist-event",
	Title:    ".eventlist-title, .eventlist-title-link",
	Date:     "time.event-date",
	Time:     ".event-time-localized, .event-time-12hr, .event-time-24hr, .event-time-localized-start",
	EndDate:  "time.event-date ~ time.event-date",
	Location: ".eventlist-meta-address",
	Link:     "a.eventlist-title-link, a.eventlist-column-thumbnail",
	Empty:    ".eventlist, .eventlist-msg",
}

// The Events Calendar (WordPress), list views of both the current and the legacy templates
var tribeSelectors = SelectorSet{
	Item:     ".tribe-events-calendar-list__event-row, .tribe-events-calendar-day__event, .type-tribe_events",
	Title:    ".tribe-events-calendar-list__event-title, .tribe-events-calendar-day__event-title, .tribe-events-list-event-title, .tribe-events-pro-photo__event-title",
	Date:     "time.tribe-events-calendar-list__event-datetime, .tribe-event-date-start, .tribe-event-schedule-details",
	Time:     ".tribe-event-time",
	Location: ".tribe-events-calendar-list__event-venue-title, .tribe-events-venue-details .tribe-venue, .tribe-events-venue-details",
	Address:  ".tribe-events-calendar-list__event-venue-address, .tribe-street-address",
	Link:     ".tribe-events-calendar-list__event-title-link, .tribe-event-url",
	Empty:    ".tribe-events-c-messages__message--notice, .tribe-events-notices",
}

// Shopify collection grids where each product is a ticketed event
var shopifySelectors = SelectorSet{
	Item:  ".product-card, .grid-product, .card-wrapper, .product-item, .grid__item:has(a[href*='/products/'])",
	Title: ".card__heading, .product-card__title, .grid-product__title, .product-item__title, .product__title",
	Date:  ".product-card__date, .event-date",
	Link:  "a[href*='/products/']",
}

// Class-name conventions shared by hand-built calendar pages
var genericSelectors = SelectorSet{
	Item:     ".event-item, .event-card, .event-listing, .events-list-item, .calendar-event, .upcoming-event, li.event, article.event, div.event, .event-row",
	Title:    ".event-title, .event-name, .event__title, .title, h2, h3, h4",
	Date:     "time, .event-date, .date, .event__date, .when",
	Time:     ".event-time, .time",
	Location: ".event-location, .event-venue, .venue, .location, .where",
	Address:  ".event-address, .address, address",
	Link:     "a.event-link, a.more-link",
}

func squarespaceEvents(reg *Registration, deps Deps) strategy.Strategy {
	return &cards{
		name:   strategy.SquarespaceEvents,
		set:    merge(squarespaceSelectors, reg.Selectors),
		dates:  deps.Dates,
		filter: deps.Noise,
		vouch:  true,
		conf:   event.High,
	}
}

func tribeEvents(reg *Registration, deps Deps) strategy.Strategy {
	return &cards{
		name:   strategy.TribeEvents,
		set:    merge(tribeSelectors, reg.Selectors),
		dates:  deps.Dates,
		filter: deps.Noise,
		vouch:  true,
		conf:   event.High,
	}
}

func shopifyProducts(reg *Registration, deps Deps) strategy.Strategy {
	return &cards{
		name:            strategy.ShopifyProducts,
		set:             merge(shopifySelectors, reg.Selectors),
		dates:           deps.Dates,
		filter:          deps.Noise,
		vouch:           true,
		conf:            event.High,
		separator:       reg.DateSeparator,
		datedOnly:       true,
		emptyIsTerminal: true,
	}
}

func selectors(reg *Registration, deps Deps) strategy.Strategy {
	return &cards{
		name:      strategy.Selectors,
		set:       reg.Selectors,
		dates:     deps.Dates,
		filter:    deps.Noise,
		vouch:     reg.Vouch,
		conf:      event.High,
		separator: reg.DateSeparator,
	}
}

func siteGenericSelectors(_ *Registration, deps Deps) strategy.Strategy {
	return &cards{
		name:      strategy.SiteGenericSelectors,
		set:       genericSelectors,
		dates:     deps.Dates,
		filter:    deps.Noise,
		conf:      event.Medium,
		datedOnly: true,
	}
}

// merge overlays the non-empty fields of over on def
func merge(def, over SelectorSet) SelectorSet {
	pairs := []struct {
		dst *string
		src string
	}{
		{&def.Item, over.Item},
		{&def.Title, over.Title},
		{&def.Date, over.Date},
		{&def.EndDate, over.EndDate},
		{&def.Time, over.Time},
		{&def.Location, over.Location},
		{&def.Address, over.Address},
		{&def.Link, over.Link},
		{&def.Empty, over.Empty},
	}
	for _, p := range pairs {
		if p.src != "" {
			*p.dst = p.src
		}
	}
	return def
}
