package intent

import (
	"strings"
	"time"

	"github.com/hanlulong/openecon-data-sub002/internal/model"
)

// countryNameISO3 is a small deterministic country-name -> ISO3 table,
// covering the names a free-text query is likely to use literally rather
// than an ISO3 code already.
var countryNameISO3 = map[string]string{
	"united states": "USA", "us": "USA", "usa": "USA", "america": "USA",
	"united kingdom": "GBR", "uk": "GBR", "britain": "GBR",
	"canada": "CAN", "germany": "DEU", "france": "FRA", "italy": "ITA",
	"japan": "JPN", "china": "CHN", "india": "IND", "brazil": "BRA",
	"russia": "RUS", "south korea": "KOR", "korea": "KOR",
	"australia": "AUS", "spain": "ESP", "mexico": "MEX",
	"indonesia": "IDN", "netherlands": "NLD", "saudi arabia": "SAU",
	"turkey": "TUR", "switzerland": "CHE", "south africa": "ZAF",
	"argentina": "ARG", "sweden": "SWE", "poland": "POL", "belgium": "BEL",
}

var countryGroupNameToTag = map[string]model.CountryGroupTag{
	"g7": model.GroupG7, "g-7": model.GroupG7,
	"g20": model.GroupG20, "g-20": model.GroupG20,
	"brics": model.GroupBRICS,
	"asean": model.GroupASEAN,
	"eu27": model.GroupEU27, "eu": model.GroupEU27, "european union": model.GroupEU27,
	"euro area": model.GroupEuroArea, "eurozone": model.GroupEuroArea,
	"nordic": model.GroupNordic, "nordics": model.GroupNordic,
	"oecd": model.GroupOECD,
	"latam": model.GroupLatam, "latin america": model.GroupLatam,
	"mena": model.GroupMENA,
}

// postProcess resolves geography names to the closed GeoSelector shapes,
// and resolves the relative time range against now.
func postProcess(raw rawIntent, now time.Time) model.ParsedIntent {
	out := model.ParsedIntent{
 Providers: raw.Providers,
 IsTradeQuery: raw.IsTradeQuery,
 IsComparison: raw.IsComparison,
 IsExchangeRate: raw.IsExchangeRate,
 IsCrypto: raw.IsCrypto,
	}

	for _, ind := range raw.Indicators {
 quals := make([]model.Qualifier, 0, len(ind.Qualifiers))
 for _, q := range ind.Qualifiers {
 quals = append(quals, model.Qualifier(q))
 }
 out.Indicators = append(out.Indicators, model.IndicatorRequest{
 Label: ind.Label, ExplicitCode: ind.ExplicitCode, Qualifiers: quals,
 })
	}

	for _, g := range raw.Geography {
 out.Geography = append(out.Geography, resolveGeo(g.Kind, g.Value))
	}

	if raw.Frequency != "" {
 f := model.Frequency(raw.Frequency)
 out.Frequency = &f
	}

	out.TimeRange = resolveTimeRange(raw.TimeRange.Relative, raw.TimeRange.N, now)
	return out
}

func resolveGeo(kind, value string) model.GeoSelector {
	lower := strings.ToLower(strings.TrimSpace(value))

	if tag, ok := countryGroupNameToTag[lower]; ok {
 return model.GeoSelector{Kind: model.GeoCountryGroup, Value: string(tag)}
	}
	if iso3, ok := countryNameISO3[lower]; ok {
 return model.GeoSelector{Kind: model.GeoCountryISO3, Value: iso3}
	}
	if lower == "world" || lower == "global" {
 return model.GeoSelector{Kind: model.GeoWorld, Value: ""}
	}

	switch model.GeoSelectorKind(kind) {
	case model.GeoCountryGroup:
 return model.GeoSelector{Kind: model.GeoCountryGroup, Value: strings.ToUpper(value)}
	case model.GeoWorld:
 return model.GeoSelector{Kind: model.GeoWorld}
	case model.GeoRegion:
 return model.GeoSelector{Kind: model.GeoRegion, Value: value}
	default:
 // Already an ISO3-looking code, or the LLM's best guess; the router
 // and adapters surface IndicatorUnknownError downstream if it
 // doesn't resolve to anything real.
 return model.GeoSelector{Kind: model.GeoCountryISO3, Value: strings.ToUpper(value)}
	}
}

func resolveTimeRange(relative string, n int, now time.Time) model.TimeRange {
	tr := model.TimeRange{Relative: model.RelativeRange(relative), N: n}
	switch model.RelativeRange(relative) {
	case model.RelativeLastNYears:
 if n <= 0 {
 n = 5
 }
 start := now.AddDate(-n, 0, 0)
 tr.Start, tr.End = &start, &now
	case model.RelativeLastNMonths:
 if n <= 0 {
 n = 12
 }
 start := now.AddDate(0, -n, 0)
 tr.Start, tr.End = &start, &now
	case model.RelativeSinceYear:
 if n > 0 {
 start := time.Date(n, 1, 1, 0, 0, 0, 0, time.UTC)
 tr.Start, tr.End = &start, &now
 }
	case model.RelativeYTD:
 start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
 tr.Start, tr.End = &start, &now
	case model.RelativeLatest:
 tr.Start, tr.End = nil, &now
	}
	return tr
}
