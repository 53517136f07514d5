package sdmx

import "strings"

// Dataflow identifies one SDMX dataset.
type Dataflow struct {
	Agency string
	Code string
	Version string
	Name string
}

// agencySubstringTable is a fixed lookup table from substring to agency
// code, inferring an agency from structural patterns in a dataflow id when
// the catalog entry itself doesn't carry one explicitly.
var agencySubstringTable = []struct {
	substr string
	agency string
}{
	{"DSD_NAMTA", "OECD"},
	{"DSD_STES", "OECD"},
	{"DSD_PRICES", "OECD"},
	{"NAMA_10", "ESTAT"},
	{"PRC_HICP", "ESTAT"},
	{"UNE_RT", "ESTAT"},
	{"WS_LONG", "BIS"},
	{"WS_CBPOL", "BIS"},
	{"WS_EER", "BIS"},
}

// InferAgency applies the substring-table fallback. defaultAgency is used
// when no substring matches (each SDMX adapter passes its own
// provider-level default, e.g. "OECD").
func InferAgency(dataflowID, defaultAgency string) string {
	upper := strings.ToUpper(dataflowID)
	for _, e := range agencySubstringTable {
 if strings.Contains(upper, e.substr) {
 return e.agency
 }
	}
	return defaultAgency
}

// Catalog is the in-memory dataflow catalog for one SDMX provider, loaded
// once at process start. The indicator index holds one Record per
// Dataflow with Provider set to the SDMX provider tag; Catalog itself is
// only the Dataflow -> structural-metadata lookup the adapter needs once a
// dataflow id has been chosen.
type Catalog struct {
	byID map[string]Dataflow
}

func NewCatalog(entries []Dataflow) *Catalog {
	c := &Catalog{byID: make(map[string]Dataflow, len(entries))}
	for _, e := range entries {
 c.byID[e.Code] = e
	}
	return c
}

func (c *Catalog) Lookup(code string) (Dataflow, bool) {
	d, ok := c.byID[code]
	return d, ok
}

func (c *Catalog) Len() int { return len(c.byID) }
