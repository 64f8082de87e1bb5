package handler

import "github.com/pfrederiksen/eventscrape/internal/strategy"

// GenericName names the fallback registration
const GenericName = "generic"

// Generic returns the registration used when nothing else matches
func Generic() *Registration {
	return &Registration{
		Name:       GenericName,
		Strategies: append([]string(nil), GenericChain...),
	}
}

// Builtins returns the platform registrations that ship with the binary. A loaded
// registration with the same name replaces one of these.
func Builtins() []Registration {
	return []Registration{
		{
			Name:       PlatformSquarespace,
			Match:      Match{Platform: PlatformSquarespace},
			Strategies: []string{strategy.StructuredData, strategy.SquarespaceEvents, strategy.TextMining},
		},
		{
			Name:       PlatformTribeEvents,
			Match:      Match{Platform: PlatformTribeEvents},
			Strategies: []string{strategy.StructuredData, strategy.TribeEvents, strategy.TextMining},
		},
		{
			// undated products are skipped and there is no text-mining fallback
			Name:          PlatformShopify,
			Match:         Match{Platform: PlatformShopify},
			Strategies:    []string{strategy.StructuredData, strategy.ShopifyProducts},
			DateSeparator: "@",
		},
		{
			Name:       PlatformWix,
			Match:      Match{Platform: PlatformWix},
			Strategies: append([]string(nil), GenericChain...),
		},
	}
}
