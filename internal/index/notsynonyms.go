package index

import "strings"

// notSynonyms is the "NOT-synonym" list: terms that must never resolve to
// a given indicator code even though the indicator's description text
// mentions the term. Implemented as data, not code. Grows by editing this
// table, never by adding branches to Search.
var notSynonyms = map[string][]string{
	// "productivity" must never resolve to agricultural production indexes,
	// whose descriptions commonly mention "agricultural productivity" as an
	// input concept rather than the labor-productivity series users mean.
	"productivity": {"agricultural_production_index", "crop_yield_index"},
	// "growth" alone must never resolve to a population-growth series when
	// the user meant economic (GDP) growth, and vice versa, disambiguated
	// by qualifiers upstream, but the bare term should not short-circuit to
	// either.
	"growth": {"population_growth_rate"},
}

// IsExcluded reports whether candidate code is on the NOT-synonym deny list
// for any token in the query text.
func IsExcluded(queryText string, code string) bool {
	lowerCode := strings.ToLower(code)
	for _, tok := range strings.Fields(strings.ToLower(queryText)) {
 for _, denied := range notSynonyms[tok] {
 if lowerCode == denied {
 return true
 }
 }
	}
	return false
}
