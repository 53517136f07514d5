package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hanlulong/openecon-data-sub002/internal/cache"
	"github.com/hanlulong/openecon-data-sub002/internal/index"
	"github.com/hanlulong/openecon-data-sub002/internal/model"
	"github.com/hanlulong/openecon-data-sub002/internal/sdmx"
)

// unitHints maps a substring of the indicator label to the SDMX UNIT code
// that selects the right series out of a dataflow's flat value array, since
// a single SDMX dataflow (e.g. Eurostat/OECD labour force series) routinely
// carries percent, thousand-persons, and raw headcount observations side by
// side under one set of non-UNIT dimension keys.
var unitHints = []struct {
	contains string
	unit string
}{
	{"unemployment rate", "PC_ACT"},
	{"unemployment", "PC_ACT"},
	{"inflation rate", "PCH_PRE_YEAR"},
	{"gdp growth", "PC_CHA_PRE"},
}

// deriveUnitConstraint inspects the indicator label for a known unit hint.
// Dataflows with only one unit in their code list ignore the constraint
// harmlessly, since buildConstraints only sets UNIT when non-empty.
func deriveUnitConstraint(req FetchRequest) string {
	label := strings.ToLower(req.Indicator.Label)
	for _, h := range unitHints {
		if strings.Contains(label, h.contains) {
			return h.unit
		}
	}
	return ""
}

// sdmxProviderConfig is shared by every Family C adapter.
type sdmxProviderConfig struct {
	Name string
	BaseURL string
	DefaultAgency string
	RateLimit
	// Decode picks the data-message decoder. Eurostat and BIS leave this
	// nil and get the colon-keyed compact decoder; OECD.Stat overrides it
	// with the flat mixed-radix decoder, the shape its REST API returns.
	Decode func([]byte, sdmx.DSD, func([]byte, interface{}) error) (*sdmx.Cube, error)
}

// sdmxAdapter implements the full SDMX flow once; OECDProvider,
// EurostatProvider, and BISProvider are thin wrappers supplying only their
// provider-specific config and dataflow catalog, since the decode/filter
// logic (internal/sdmx) and the cache/breaker/rate-limit flow are identical
// across the family.
type sdmxAdapter struct {
	cfg sdmxProviderConfig
	deps Deps
	dsds *sdmx.DSDCache
	catalog *sdmx.Catalog
	index *index.Index
}

func newSDMXAdapter(cfg sdmxProviderConfig, deps Deps, dsds *sdmx.DSDCache, catalog *sdmx.Catalog, ix *index.Index) *sdmxAdapter {
	if cfg.Decode == nil {
 cfg.Decode = sdmx.DecodeDataMessage
	}
	return &sdmxAdapter{cfg: cfg, deps: deps, dsds: dsds, catalog: catalog, index: ix}
}

func (a *sdmxAdapter) Name() string { return a.cfg.Name }

// resolveDataflow tries the explicit code first, else the indicator
// index's top candidate for this provider, else the catalog's
// agency-inference fallback on whatever label was given.
func (a *sdmxAdapter) resolveDataflow(ctx context.Context, req FetchRequest) (sdmx.Dataflow, error) {
	code := req.Indicator.ExplicitCode
	if code == "" && a.index != nil {
 candidates, err := a.index.Search(ctx, req.Indicator.Label, a.cfg.Name, 1)
 if err == nil && len(candidates) > 0 {
 code = candidates[0].Record.Code
 }
	}
	if code == "" {
 return sdmx.Dataflow{}, model.NewIndicatorUnknown(a.cfg.Name, "no dataflow resolved for label "+req.Indicator.Label)
	}
	if df, ok := a.catalog.Lookup(code); ok {
 return df, nil
	}
	return sdmx.Dataflow{Agency: sdmx.InferAgency(code, a.cfg.DefaultAgency), Code: code, Version: "latest"}, nil
}

// buildConstraints fills the dimension key's known positional slots from
// the request: country, transformation (growth
// qualifier), and any provider-specific unit constraint the caller passes.
func buildConstraints(req FetchRequest, unitConstraint string) map[string]string {
	c := map[string]string{}
	if req.Geo.Kind == model.GeoCountryISO3 {
 c["REF_AREA"] = req.Geo.Value
 c["LOCATION"] = req.Geo.Value
	}
	for _, q := range req.Indicator.Qualifiers {
 if q == model.QualifierGrowth {
 c["TRANSFORMATION"] = "growth"
 }
	}
	if unitConstraint != "" {
 c["UNIT"] = unitConstraint
	}
	return c
}

func (a *sdmxAdapter) fetch(ctx context.Context, req FetchRequest, unitConstraint string) (*model.NormalizedSeries, error) {
	df, err := a.resolveDataflow(ctx, req)
	if err != nil {
 return nil, err
	}

	dataURL := fmt.Sprintf("%s/data/%s,%s,%s/all?format=sdmx-json", a.cfg.BaseURL, df.Agency, df.Code, df.Version)
	fp, scrubbed := cache.Fingerprint(dataURL)

	freq := frequencyOrDefault(req.Frequency, model.FrequencyQuarterly)
	ttl := cache.DefaultTTLTable().TTLFor(freq, false)

	result, hit, gerr := a.deps.Cache.GetOrCompute(fp, ttl, 8192, func() (interface{}, error) {
 if lerr := a.deps.Limiters.Wait(ctx, a.cfg.Name, a.cfg.RPS, a.cfg.Burst); lerr != nil {
 return nil, model.NewTimeoutError(a.cfg.Name)
 }

 dsd, derr := a.dsds.Get(ctx, a.cfg.BaseURL, df.Agency, df.Code, df.Version)
 if derr != nil {
 return nil, model.NewUpstreamError(a.cfg.Name, 0, derr.Error())
 }

 var series *model.NormalizedSeries
 callErr := a.deps.Breakers.Call(a.cfg.Name, func() error {
 resp, ferr := a.deps.Pool.Get(ctx, dataURL, map[string]string{"Accept": "application/vnd.sdmx.data+json;version=2.0.0"})
 if ferr != nil {
 return translateTransportError(a.cfg.Name, ferr)
 }
 if resp.Status >= 400 {
 return model.NewUpstreamError(a.cfg.Name, resp.Status, string(resp.Body))
 }

 cube, derr2 := a.cfg.Decode(resp.Body, dsd, json.Unmarshal)
 if derr2 != nil {
 return model.NewUpstreamError(a.cfg.Name, resp.Status, derr2.Error())
 }

 constraints := buildConstraints(req, unitConstraint)
 wantGrowth := false
 for _, q := range req.Indicator.Qualifiers {
 if q == model.QualifierGrowth {
 wantGrowth = true
 }
 }
 obs := cube.Filter(constraints)
 if len(obs) == 0 && wantGrowth {
 return model.NewDataNotAvailable(a.cfg.Name, "dataflow "+df.Code+" has no TRANSFORMATION=growth series; try a different provider")
 }
 if len(obs) == 0 {
 return model.NewDataNotAvailable(a.cfg.Name, "no observations for dataflow "+df.Code+" matching request constraints")
 }

 points := make([]model.NormalizedPoint, 0, len(obs))
 for _, o := range obs {
 v := o.Value
 points = append(points, model.NormalizedPoint{Date: o.TimePeriod, Value: v})
 }

 series = &model.NormalizedSeries{
 Metadata: model.SeriesMetadata{
 SourceProvider: a.cfg.Name,
 IndicatorCode: df.Code,
 IndicatorDisplay: df.Name,
 CountryOrRegion: req.Geo.Value,
 Frequency: freq,
 LastUpdated: time.Now().UTC(),
 APIURLEcho: scrubbed,
 SourceURL: dataURL,
 AggregationMethod: model.AggregationLast,
 },
 Points: points,
 }
 return nil
 })
 if callErr != nil {
 return nil, callErr
 }
 series.Sort()
 return series, nil
	})
	if gerr != nil {
 return nil, gerr
	}
	series := result.(*model.NormalizedSeries)
	if hit {
 cp := *series
 cp.Points = append([]model.NormalizedPoint(nil), series.Points...)
 return &cp, nil
	}
	return series, nil
}
