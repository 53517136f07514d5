package provider

import "strings"

// staticAliases is the small alias table for the handful of terms common
// enough to resolve without touching the indicator index at all. The
// index (internal/index) remains the primary resolution path; this table
// is intentionally short.
var staticAliases = map[string]map[string]string{
	"fred": {
 "us unemployment rate": "UNRATE",
 "unemployment rate": "UNRATE",
 "us cpi": "CPIAUCSL",
 "inflation": "CPIAUCSL",
 "us gdp": "GDP",
 "fed funds rate": "FEDFUNDS",
 "federal funds rate": "FEDFUNDS",
 "10 year treasury yield": "DGS10",
 "us nonfarm payrolls": "PAYEMS",
	},
	"worldbank": {
 "gdp": "NY.GDP.MKTP.CD",
 "gdp per capita": "NY.GDP.PCAP.CD",
 "population": "SP.POP.TOTL",
 "inflation": "FP.CPI.TOTL.ZG",
	},
	"imf": {
 "gdp growth": "NGDP_RPCH",
 "current account balance": "BCA",
	},
}

// ResolveAlias looks up provider-specific static aliases for a free-text
// label, case-insensitively. Returns "" if nothing matches.
func ResolveAlias(providerTag, label string) string {
	table, ok := staticAliases[providerTag]
	if !ok {
 return ""
	}
	return table[strings.ToLower(strings.TrimSpace(label))]
}
