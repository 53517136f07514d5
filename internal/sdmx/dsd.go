// Package sdmx is the standalone decoding library shared by the three SDMX
// adapters (OECD, Eurostat, BIS): it decodes dataflow structure messages
// and data messages, nothing more, and has no dependency on any of the
// three adapters.
// There is no ecosystem Go library for SDMX-JSON; this package and
// internal/comtrade's HS/reporter resolution are the only hand-written
// pieces in the domain stack, following the same hand-written-decoder
// precedent the provider package already sets for exchange-specific JSON
// payloads, rather than reaching for a generic market-data parsing library
// that doesn't exist either.
package sdmx

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hanlulong/openecon-data-sub002/internal/httpclient"
)

// Dimension is one ordered dimension of a Data Structure Definition, with
// its valid code list.
type Dimension struct {
	ID string
	Codes []string // ordered; position in this slice is the dimension index used by the flat value array
	Name string
}

// Size returns the dimension's cardinality, used by the mixed-radix decoder.
func (d Dimension) Size() int { return len(d.Codes) }

// IndexOf returns the position of code within the dimension, or -1.
func (d Dimension) IndexOf(code string) int {
	for i, c := range d.Codes {
 if c == code {
 return i
 }
	}
	return -1
}

// DSD is a Data Structure Definition: the ordered dimension list for one
// (agency, dataflow, version) triple.
type DSD struct {
	Agency string
	Dataflow string
	Version string
	Dimensions []Dimension // declared order; index 0 is the most significant per the flat-array convention
	TimeDimName string
}

// DimensionIndex returns the position of a named dimension in Dimensions,
// or -1 if the DSD has no such dimension.
func (d DSD) DimensionIndex(name string) int {
	for i, dim := range d.Dimensions {
 if dim.ID == name {
 return i
 }
	}
	return -1
}

// sdmxStructureResponse models the subset of an SDMX-JSON structure message
// this package needs: an ordered dimension list with their code lists.
type sdmxStructureResponse struct {
	Data struct {
 DataStructures []struct {
 ID string `json:"id"`
 } `json:"dataStructures"`
 Structures []struct {
 ID string `json:"id"`
 DimensionList struct {
 Dimensions []struct {
 ID string `json:"id"`
 Local struct {
 Enumeration []struct {
 ID string `json:"id"`
 } `json:"enumeration"`
 } `json:"localRepresentation"`
 } `json:"dimensions"`
 TimeDimensions []struct {
 ID string `json:"id"`
 } `json:"timeDimensions"`
 } `json:"dimensionList"`
 } `json:"dataStructures"`
	} `json:"data"`
}

// dsdCacheEntry pairs a DSD with its insertion time for the long-TTL DSD
// cache.
type dsdCacheEntry struct {
	dsd DSD
	insertedAt time.Time
}

// DSDCache fetches and memoizes DSDs by (agency, dataflow, version), with a
// configurable long TTL. One instance is shared by all three SDMX adapters.
type DSDCache struct {
	mu sync.Mutex
	items map[string]dsdCacheEntry
	ttl time.Duration
	pool *httpclient.Pool
}

func NewDSDCache(pool *httpclient.Pool, ttl time.Duration) *DSDCache {
	if ttl <= 0 {
 ttl = 7 * 24 * time.Hour
	}
	return &DSDCache{items: make(map[string]dsdCacheEntry), ttl: ttl, pool: pool}
}

func dsdKey(agency, dataflow, version string) string {
	return agency + "|" + dataflow + "|" + version
}

// Get returns the DSD for (agency, dataflow, version), fetching it from
// baseURL/datastructure/{agency}/{dataflow}/{version} on a miss.
func (c *DSDCache) Get(ctx context.Context, baseURL, agency, dataflow, version string) (DSD, error) {
	key := dsdKey(agency, dataflow, version)

	c.mu.Lock()
	if e, ok := c.items[key]; ok && time.Since(e.insertedAt) < c.ttl {
 c.mu.Unlock()
 return e.dsd, nil
	}
	c.mu.Unlock()

	url := fmt.Sprintf("%s/datastructure/%s/%s/%s?references=children&format=sdmx-json", baseURL, agency, dataflow, version)
	resp, err := c.pool.Get(ctx, url, map[string]string{"Accept": "application/vnd.sdmx.structure+json;version=1.0.0"})
	if err != nil {
 return DSD{}, err
	}
	if resp.Status >= 400 {
 return DSD{}, fmt.Errorf("DSD fetch %s/%s/%s: status %d", agency, dataflow, version, resp.Status)
	}

	var parsed sdmxStructureResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
 return DSD{}, fmt.Errorf("parse DSD structure message: %w", err)
	}
	if len(parsed.Data.Structures) == 0 {
 return DSD{}, fmt.Errorf("DSD response for %s/%s/%s has no data structures", agency, dataflow, version)
	}
	st := parsed.Data.Structures[0]

	dsd := DSD{Agency: agency, Dataflow: dataflow, Version: version}
	for _, d := range st.DimensionList.Dimensions {
 codes := make([]string, 0, len(d.Local.Enumeration))
 for _, e := range d.Local.Enumeration {
 codes = append(codes, e.ID)
 }
 dsd.Dimensions = append(dsd.Dimensions, Dimension{ID: d.ID, Codes: codes})
	}
	if len(st.DimensionList.TimeDimensions) > 0 {
 dsd.TimeDimName = st.DimensionList.TimeDimensions[0].ID
	} else {
 dsd.TimeDimName = "TIME_PERIOD"
	}

	c.mu.Lock()
	c.items[key] = dsdCacheEntry{dsd: dsd, insertedAt: time.Now()}
	c.mu.Unlock()

	return dsd, nil
}
