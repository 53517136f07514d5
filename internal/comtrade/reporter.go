// Package comtrade implements the UN Comtrade adapter: reporter/partner resolution to UN M.49 codes, HS product code
// resolution, and the two-fetch imports/exports balance computation. There
// is no ecosystem library for UN M.49 or HS code tables, so this package
// and internal/sdmx hand-write their own lookup tables rather than
// importing a generic one, the same way venue/symbol conversion tables are
// hand-written elsewhere in this codebase.
package comtrade

import "github.com/hanlulong/openecon-data-sub002/internal/model"

// WorldCode is UN Comtrade's aggregate "World" partner code.
const WorldCode = "0"

// reporterM49 maps ISO3 country codes to UN M.49 numeric codes for the
// reporters/partners most commonly queried. Comtrade's own reference list
// covers ~200 entities; this table covers the ones an indicator query is
// realistically going to name. There is no fallback lookup: a code missing
// from this table does not resolve.
var reporterM49 = map[string]string{
	"USA": "842", "CHN": "156", "DEU": "276", "JPN": "392", "GBR": "826",
	"FRA": "251", "IND": "699", "ITA": "381", "BRA": "076", "CAN": "124",
	"RUS": "643", "KOR": "410", "AUS": "036", "ESP": "724", "MEX": "484",
	"IDN": "360", "NLD": "528", "SAU": "682", "TUR": "792", "CHE": "757",
	"ZAF": "710", "ARG": "032", "SWE": "752", "POL": "616", "BEL": "056",
}

// ResolveM49 resolves an ISO3 code to its UN M.49 numeric code. For a
// country_group_tag or region_tag GeoSelector, callers use ExpandGroup
// first and resolve each member individually.
func ResolveM49(iso3 string) (string, bool) {
	code, ok := reporterM49[iso3]
	return code, ok
}

// ExpandGroup resolves a GeoSelector that names a country group or "world"
// to the list of M.49 codes to sum over, since Comtrade has no single
// aggregate reporter/partner code for most groups.
func ExpandGroup(sel model.GeoSelector) (codes []string, isWorld bool) {
	if sel.Kind == model.GeoWorld {
 return nil, true
	}
	if sel.Kind == model.GeoCountryGroup {
 members := model.CountryGroups[model.CountryGroupTag(sel.Value)]
 out := make([]string, 0, len(members))
 for _, m := range members {
 if code, ok := ResolveM49(m); ok {
 out = append(out, code)
 }
 }
 return out, false
	}
	if code, ok := ResolveM49(sel.Value); ok {
 return []string{code}, false
	}
	return nil, false
}
