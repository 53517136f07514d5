package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hanlulong/openecon-data-sub002/internal/index"
	"github.com/hanlulong/openecon-data-sub002/internal/model"
)

type fakeBreakerState map[string]string

func (f fakeBreakerState) State(provider string) string {
	if s, ok := f[provider]; ok {
		return s
	}
	return "closed"
}

func TestChain_BreakerOpenSkipsToNextFallbackLink(t *testing.T) {
	ir := model.IndicatorRequest{Label: "unemployment rate"}
	geo := model.GeoSelector{Kind: model.GeoCountryISO3, Value: "USA"}
	intent := model.ParsedIntent{}

	breakers := fakeBreakerState{"fred": "open"}
	chain := Chain(ir, geo, intent, nil, breakers, false)

	assert.NotContains(t, chain, "fred", "an open breaker must be skipped outright")
	assert.Contains(t, chain, "worldbank", "the static us_macro fallback must still reach worldbank")
}

func TestChain_AllProvidersOpenReturnsUnfilteredChain(t *testing.T) {
	ir := model.IndicatorRequest{Label: "unemployment rate"}
	geo := model.GeoSelector{Kind: model.GeoCountryISO3, Value: "USA"}
	intent := model.ParsedIntent{}

	breakers := fakeBreakerState{"fred": "open", "worldbank": "open"}
	chain := Chain(ir, geo, intent, nil, breakers, false)

	assert.Equal(t, []string{"fred", "worldbank"}, chain, "when every candidate is open, the orchestrator needs the real chain to surface a meaningful error")
}

func TestChain_ScarceProviderExcludedUnlessAllowed(t *testing.T) {
	ir := model.IndicatorRequest{Label: "gdp growth"}
	geo := model.GeoSelector{Kind: model.GeoWorld}
	intent := model.ParsedIntent{}
	candidates := []index.Candidate{{Record: index.Record{Provider: "oecd", Code: "X"}}}

	chain := Chain(ir, geo, intent, candidates, nil, false)
	assert.NotContains(t, chain, "oecd")

	chain = Chain(ir, geo, intent, candidates, nil, true)
	assert.Contains(t, chain, "oecd")
}

func TestChain_ExplicitProviderTakesPriority(t *testing.T) {
	ir := model.IndicatorRequest{Label: "gdp"}
	geo := model.GeoSelector{Kind: model.GeoWorld}
	intent := model.ParsedIntent{Providers: []string{"imf"}}

	chain := Chain(ir, geo, intent, nil, nil, false)
	assert.Equal(t, "imf", chain[0])
}

func TestChain_StrongBindingRoutesTradeQueriesToComtrade(t *testing.T) {
	ir := model.IndicatorRequest{Label: "exports"}
	geo := model.GeoSelector{Kind: model.GeoCountryISO3, Value: "CAN"}
	intent := model.ParsedIntent{IsTradeQuery: true}

	chain := Chain(ir, geo, intent, nil, nil, false)
	assert.Equal(t, "comtrade", chain[0])
}

func TestChain_NoDuplicateProvidersAcrossRules(t *testing.T) {
	ir := model.IndicatorRequest{Label: "gdp"}
	geo := model.GeoSelector{Kind: model.GeoCountryISO3, Value: "USA"}
	intent := model.ParsedIntent{Providers: []string{"fred"}}
	candidates := []index.Candidate{{Record: index.Record{Provider: "fred", Code: "GDP"}}}

	chain := Chain(ir, geo, intent, candidates, nil, false)
	seen := map[string]int{}
	for _, p := range chain {
		seen[p]++
	}
	assert.Equal(t, 1, seen["fred"], "fred appears via explicit provider, strong binding, and candidates, but must appear once")
}
