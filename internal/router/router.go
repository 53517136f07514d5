// Package router implements the Provider Router: for each IndicatorRequest, it produces an ordered fallback chain of
// provider names. It holds no adapters itself; internal/orchestrator owns
// the provider.Registry and walks the chain this package returns.
package router

import (
	"github.com/hanlulong/openecon-data-sub002/internal/index"
	"github.com/hanlulong/openecon-data-sub002/internal/model"
)

// BreakerState reports a provider's circuit state, satisfied by
// *breaker.Registry without importing it directly (keeps router decoupled
// from the breaker package's gobreaker dependency).
type BreakerState interface {
	State(provider string) string
}

// domainFallbackChains is the static provider preference list by domain,
// appended after any explicit, strongly bound and index-ranked providers.
var domainFallbackChains = map[string][]string{
	"global_macro": {"worldbank", "imf", "oecd", "eurostat"},
	"us_macro": {"fred", "worldbank"},
	"trade": {"comtrade"},
	"fx": {"exchangerate"},
	"crypto": {"coingecko"},
	"canada": {"statcan", "worldbank"},
}

// scarceProviders lists providers excluded from automatic fallback chains:
// OECD is rate-limit-scarce and is used only when explicitly requested,
// never as an automatic fallback link.
var scarceProviders = map[string]bool{"oecd": true}

// strongBinding checks structural hints in the parsed intent (crypto,
// exchange-rate, trade) before falling back to the indicator index's
// ranked candidates.
func strongBinding(ir model.IndicatorRequest, geo model.GeoSelector, intent *model.ParsedIntent) string {
	switch {
	case intent.IsCrypto:
 return "coingecko"
	case intent.IsExchangeRate:
 return "exchangerate"
	case intent.IsTradeQuery:
 return "comtrade"
	case geo.Kind == model.GeoCountryISO3 && geo.Value == "USA":
 return "fred"
	case geo.Kind == model.GeoCountryISO3 && geo.Value == "CAN":
 return "statcan"
	default:
 return ""
	}
}

func domainFor(ir model.IndicatorRequest, geo model.GeoSelector, intent *model.ParsedIntent) string {
	switch {
	case intent.IsCrypto:
 return "crypto"
	case intent.IsExchangeRate:
 return "fx"
	case intent.IsTradeQuery:
 return "trade"
	case geo.Kind == model.GeoCountryISO3 && geo.Value == "USA":
 return "us_macro"
	case geo.Kind == model.GeoCountryISO3 && geo.Value == "CAN":
 return "canada"
	default:
 return "global_macro"
	}
}

// Chain produces the ordered provider list for one (IndicatorRequest, Geo)
// branch by applying a fixed sequence of routing rules. candidates is the
// indicator index's ranked result for this branch; breakers reports
// current circuit state so an open provider is skipped outright rather
// than dispatched only to fail.
func Chain(ir model.IndicatorRequest, geo model.GeoSelector, intent model.ParsedIntent, candidates []index.Candidate, breakers BreakerState, allowScarce bool) []string {
	seen := map[string]bool{}
	var chain []string
	add := func(name string) {
 if name == "" || seen[name] {
 return
 }
 if scarceProviders[name] && !allowScarce {
 return
 }
 seen[name] = true
 chain = append(chain, name)
	}

	// Rule 1: explicit provider(s) named in the intent. These bypass the
	// scarce-provider exclusion, which applies to automatic links only.
	for _, p := range intent.Providers {
 if p == "" || seen[p] {
 continue
 }
 seen[p] = true
 chain = append(chain, p)
	}

	// Rule 2: structural strong binding.
	add(strongBinding(ir, geo, &intent))

	// Rule 3: indicator-index top-ranked candidate(s), in rank order.
	for _, c := range candidates {
 add(c.Record.Provider)
	}

	// Rule 4: static domain fallback chain.
	for _, p := range domainFallbackChains[domainFor(ir, geo, &intent)] {
 add(p)
	}

	// Rule 5 (breaker-skip): drop any provider whose breaker is open,
	// preserving relative order of what remains. If every provider is
	// open, the unfiltered chain is returned instead of an empty one.
	out := make([]string, 0, len(chain))
	for _, p := range chain {
 if breakers != nil && breakers.State(p) == "open" {
 continue
 }
 out = append(out, p)
	}
	if len(out) == 0 {
 return chain // all open: let the orchestrator surface the real error from the first attempt
	}
	return out
}
