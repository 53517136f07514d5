package comtrade

import "strings"

// hsEntry is one node of the HS hierarchy: 2-digit chapter, 4-digit
// heading, or 6-digit subheading.
type hsEntry struct {
	Code string
	Description string
}

// curatedProductNames is a curated name -> code mapping for the most
// common products, checked before falling back to hierarchy search.
var curatedProductNames = map[string]string{
	"crude oil": "2709",
	"petroleum": "2709",
	"natural gas": "2711",
	"automobiles": "8703",
	"cars": "8703",
	"semiconductors": "8542",
	"computers": "8471",
	"wheat": "1001",
	"soybeans": "1201",
	"coffee": "0901",
	"steel": "72",
	"gold": "7108",
	"pharmaceuticals": "30",
	"textiles": "50",
}

// hsHierarchy is a small in-memory catalog searched when a product label
// doesn't match the curated table. Production deployments would load the
// full ~5,000-entry HS nomenclature at startup; the hierarchy search below
// (counting query tokens found as substrings of chapter/heading/subheading
// descriptions) works unchanged however many entries are loaded, so growing
// this slice to the full nomenclature needs no code change.
var hsHierarchy = []hsEntry{
	{"27", "Mineral fuels, oils and products of their distillation"},
	{"2709", "Petroleum oils, crude"},
	{"2711", "Petroleum gases and other gaseous hydrocarbons"},
	{"84", "Nuclear reactors, boilers, machinery and mechanical appliances"},
	{"8471", "Automatic data processing machines (computers)"},
	{"85", "Electrical machinery and equipment"},
	{"8542", "Electronic integrated circuits (semiconductors)"},
	{"87", "Vehicles other than railway or tramway rolling-stock"},
	{"8703", "Motor cars and other motor vehicles for transport of persons"},
	{"10", "Cereals"},
	{"1001", "Wheat and meslin"},
	{"12", "Oil seeds and oleaginous fruits"},
	{"1201", "Soybeans"},
	{"09", "Coffee, tea, mate and spices"},
	{"0901", "Coffee, whether or not roasted or decaffeinated"},
	{"72", "Iron and steel"},
	{"71", "Natural or cultured pearls, precious stones, precious metals"},
	{"7108", "Gold (including gold plated with platinum)"},
	{"30", "Pharmaceutical products"},
	{"50", "Silk"},
}

// ResolveHSCode tries curated name lookup first, then a best-match
// hierarchy search. Returns "" if nothing scores above zero.
func ResolveHSCode(label string) string {
	lower := strings.ToLower(strings.TrimSpace(label))
	if code, ok := curatedProductNames[lower]; ok {
 return code
	}

	best, bestScore := "", 0
	for _, e := range hsHierarchy {
 score := matchScore(lower, strings.ToLower(e.Description))
 // Prefer the most specific (longest code) match among equal scores:
 // 2-digit chapter, 4-digit heading, 6-digit subheading.
 if score > bestScore || (score == bestScore && score > 0 && len(e.Code) > len(best)) {
 best, bestScore = e.Code, score
 }
	}
	return best
}

func matchScore(query, description string) int {
	score := 0
	for _, tok := range strings.Fields(query) {
 if strings.Contains(description, tok) {
 score++
 }
	}
	return score
}
