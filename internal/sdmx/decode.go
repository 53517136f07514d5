package sdmx

import "fmt"

// DecodeFlatIndex applies the mixed-radix formula
// idx_k = (i / prod_{j>k} s_j) mod s_k, for dimension sizes s_0..s_{d-1} in
// declared order. Returns one index per dimension, same order as sizes.
func DecodeFlatIndex(i int, sizes []int) []int {
	d := len(sizes)
	out := make([]int, d)
	for k := 0; k < d; k++ {
 prod := 1
 for j := k + 1; j < d; j++ {
 prod *= sizes[j]
 }
 out[k] = (i / prod) % sizes[k]
	}
	return out
}

// EncodeFlatIndex is DecodeFlatIndex's inverse, used only by tests to check
// the round-trip law: recomputing i from the decoded dimension indices via
// the same mixed-radix formula yields i.
func EncodeFlatIndex(idx []int, sizes []int) int {
	i := 0
	for k := 0; k < len(sizes); k++ {
 prod := 1
 for j := k + 1; j < len(sizes); j++ {
 prod *= sizes[j]
 }
 i += idx[k] * prod
	}
	return i
}

// Sizes returns each dimension's cardinality in declared order, the input
// DecodeFlatIndex needs.
func (d DSD) Sizes() []int {
	sizes := make([]int, len(d.Dimensions))
	for i, dim := range d.Dimensions {
 sizes[i] = dim.Size()
	}
	return sizes
}

// DecodeFlatValueArray applies the mixed-radix decode directly against a
// single flat `value` array covering every dimension (including time) in
// declared order, the shape OECD.Stat's SDMX-JSON endpoint returns. This is
// the adapter-facing entry point exercising DecodeFlatIndex; the
// colon-keyed series/observation form in DecodeDataMessage is the separate
// SDMX-JSON 2.0 "compact" shape Eurostat and BIS return.
func DecodeFlatValueArray(values []*float64, dsd DSD) []Observation {
	sizes := dsd.Sizes()
	out := make([]Observation, 0, len(values))
	timeIdx := dsd.DimensionIndex(dsd.TimeDimName)
	for i, v := range values {
 if v == nil {
 continue
 }
 idx := DecodeFlatIndex(i, sizes)
 codes := make(map[string]string, len(dsd.Dimensions))
 timePeriod := ""
 for k, dim := range dsd.Dimensions {
 if k >= len(idx) || idx[k] >= len(dim.Codes) {
 continue
 }
 code := dim.Codes[idx[k]]
 if k == timeIdx {
 timePeriod = code
 continue
 }
 codes[dim.ID] = code
 }
 out = append(out, Observation{DimensionCodes: codes, TimePeriod: timePeriod, Value: v})
	}
	return out
}

// sdmxFlatDataResponse models OECD.Stat's flat-value-array SDMX-JSON data
// message: a single "value" array spanning the cartesian product of every
// dimension including time, instead of the series/observation key split
// sdmxDataResponse handles.
type sdmxFlatDataResponse struct {
	Data struct {
 DataSets []struct {
 Value []*float64 `json:"value"`
 } `json:"dataSets"`
	} `json:"data"`
}

// DecodeFlatDataMessage decodes OECD.Stat's flat-value-array message shape
// into a Cube by running the mixed-radix decode over its single value
// array. DecodeDataMessage handles the colon-keyed compact shape Eurostat
// and BIS return instead.
func DecodeFlatDataMessage(body []byte, dsd DSD, unmarshal func([]byte, interface{}) error) (*Cube, error) {
	var parsed sdmxFlatDataResponse
	if err := unmarshal(body, &parsed); err != nil {
 return nil, fmt.Errorf("parse SDMX flat data message: %w", err)
	}
	if len(parsed.Data.DataSets) == 0 {
 return &Cube{DSD: dsd}, nil
	}
	obs := DecodeFlatValueArray(parsed.Data.DataSets[0].Value, dsd)
	return &Cube{DSD: dsd, Observations: obs}, nil
}

// Observation is one decoded cell of the cube: a code per non-time
// dimension plus the time period and value.
type Observation struct {
	DimensionCodes map[string]string // dimension ID -> code value, excluding the time dimension
	TimePeriod string
	Value *float64
}

// Cube is the decoded form of one SDMX-JSON dataSet: its observations with
// their dimension codes resolved. DecodeFlatValueArray drops null cells;
// DecodeDataMessage keeps them with a nil Value.
type Cube struct {
	DSD DSD
	Observations []Observation
}

// sdmxDataResponse models the SDMX-JSON data message shape this package
// decodes: a dataSet whose series map keys encode the non-time dimension
// indices, and whose observations map keys encode the time dimension index.
type sdmxDataResponse struct {
	Data struct {
 DataSets []struct {
 Series map[string]struct {
 Observations map[string][]*float64 `json:"observations"`
 } `json:"series"`
 } `json:"dataSets"`
 Structures []struct {
 Dimensions struct {
 Series []struct {
 ID string `json:"id"`
 Values []struct {
 ID string `json:"id"`
 } `json:"values"`
 } `json:"series"`
 Observation []struct {
 ID string `json:"id"`
 Values []struct {
 ID string `json:"id"`
 } `json:"values"`
 } `json:"observation"`
 } `json:"dimensions"`
 } `json:"structures"`
	} `json:"data"`
}

// DecodeDataMessage decodes an SDMX-JSON data message's flat observation
// arrays into a Cube, using the series-key / observation-key convention:
// the series map key is a colon-joined list of series-dimension indices in
// declared order, and the observation map key is the single time-dimension
// index.
func DecodeDataMessage(body []byte, dsd DSD, unmarshal func([]byte, interface{}) error) (*Cube, error) {
	var parsed sdmxDataResponse
	if err := unmarshal(body, &parsed); err != nil {
 return nil, fmt.Errorf("parse SDMX data message: %w", err)
	}
	if len(parsed.Data.DataSets) == 0 {
 return &Cube{DSD: dsd}, nil
	}
	if len(parsed.Data.Structures) == 0 {
 return nil, fmt.Errorf("SDMX data message missing structures block")
	}
	st := parsed.Data.Structures[0]

	seriesDims := st.Dimensions.Series
	obsDims := st.Dimensions.Observation
	if len(obsDims) == 0 {
 return nil, fmt.Errorf("SDMX data message has no observation dimension (expected TIME_PERIOD)")
	}
	timeDim := obsDims[0]

	cube := &Cube{DSD: dsd}
	for _, ds := range parsed.Data.DataSets {
 for seriesKey, series := range ds.Series {
 seriesIdx, err := parseColonKey(seriesKey)
 if err != nil {
 return nil, err
 }
 if len(seriesIdx) != len(seriesDims) {
 return nil, fmt.Errorf("series key %q has %d components, structure declares %d series dimensions", seriesKey, len(seriesIdx), len(seriesDims))
 }
 codes := make(map[string]string, len(seriesDims))
 for k, dim := range seriesDims {
 pos := seriesIdx[k]
 if pos < 0 || pos >= len(dim.Values) {
 return nil, fmt.Errorf("series dimension %s index %d out of range", dim.ID, pos)
 }
 codes[dim.ID] = dim.Values[pos].ID
 }

 for obsKey, vals := range series.Observations {
 obsIdx, err := parseColonKey(obsKey)
 if err != nil || len(obsIdx) != 1 {
 return nil, fmt.Errorf("observation key %q malformed", obsKey)
 }
 pos := obsIdx[0]
 if pos < 0 || pos >= len(timeDim.Values) {
 return nil, fmt.Errorf("time dimension index %d out of range", pos)
 }
 var value *float64
 if len(vals) > 0 {
 value = vals[0]
 }
 cube.Observations = append(cube.Observations, Observation{
 DimensionCodes: codes,
 TimePeriod: timeDim.Values[pos].ID,
 Value: value,
 })
 }
 }
	}
	return cube, nil
}

func parseColonKey(key string) ([]int, error) {
	out := []int{}
	cur := 0
	started := false
	for _, r := range key {
 if r == ':' {
 out = append(out, cur)
 cur = 0
 started = false
 continue
 }
 if r < '0' || r > '9' {
 return nil, fmt.Errorf("non-numeric SDMX index component in key %q", key)
 }
 cur = cur*10 + int(r-'0')
 started = true
	}
	if started || len(out) == 0 {
 out = append(out, cur)
	}
	return out, nil
}

// Filter narrows the cube to observations whose DimensionCodes match every
// entry in constraints.
func (c *Cube) Filter(constraints map[string]string) []Observation {
	out := make([]Observation, 0, len(c.Observations))
	for _, o := range c.Observations {
 match := true
 for dim, want := range constraints {
 if o.DimensionCodes[dim] != want {
 match = false
 break
 }
 }
 if match {
 out = append(out, o)
 }
	}
	return out
}
