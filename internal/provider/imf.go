package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hanlulong/openecon-data-sub002/internal/cache"
	"github.com/hanlulong/openecon-data-sub002/internal/model"
)

// IMFConfig configures the IMF datamapper API adapter.
type IMFConfig struct {
	BaseURL string
	RateLimit
}

func DefaultIMFConfig() IMFConfig {
	return IMFConfig{
 BaseURL: "https://www.imf.org/external/datamapper/api/v1",
 RateLimit: RateLimit{RPS: 3, Burst: 6},
	}
}

// IMFProvider implements Adapter for the IMF World Economic Outlook
// datamapper, whose flat REST shape (one JSON object of year->value per
// country, nested under the indicator code) is simple enough to not need
// SDMX decoding despite IMF also publishing an SDMX interface elsewhere.
type IMFProvider struct {
	cfg IMFConfig
	deps Deps
}

func NewIMFProvider(cfg IMFConfig, deps Deps) *IMFProvider {
	return &IMFProvider{cfg: cfg, deps: deps}
}

func (p *IMFProvider) Name() string { return "imf" }

type imfDatamapperResponse struct {
	Values map[string]map[string]map[string]json.Number `json:"values"` // indicator -> country -> year -> value
}

func (p *IMFProvider) Fetch(ctx context.Context, req FetchRequest) (*model.NormalizedSeries, error) {
	code := req.Indicator.ExplicitCode
	if code == "" {
 code = ResolveAlias(p.Name(), req.Indicator.Label)
	}
	if code == "" {
 return nil, model.NewIndicatorUnknown(p.Name(), "no IMF datamapper code resolved for label "+req.Indicator.Label)
	}
	if req.Geo.Kind != model.GeoCountryISO3 {
 return nil, model.NewDataNotAvailable(p.Name(), "IMF adapter expects a single country")
	}
	country := req.Geo.Value

	reqURL := fmt.Sprintf("%s/%s/%s", p.cfg.BaseURL, code, country)
	fp, scrubbed := cache.Fingerprint(reqURL)

	result, hit, err := p.deps.Cache.GetOrCompute(fp, cache.DefaultTTLTable().Annual, 2048, func() (interface{}, error) {
 if err := p.deps.Limiters.Wait(ctx, p.Name(), p.cfg.RPS, p.cfg.Burst); err != nil {
 return nil, model.NewTimeoutError(p.Name())
 }

 var series *model.NormalizedSeries
 callErr := p.deps.Breakers.Call(p.Name(), func() error {
 resp, ferr := p.deps.Pool.Get(ctx, reqURL, nil)
 if ferr != nil {
 return translateTransportError(p.Name(), ferr)
 }
 if resp.Status >= 400 {
 return model.NewUpstreamError(p.Name(), resp.Status, string(resp.Body))
 }

 var parsed imfDatamapperResponse
 if jerr := json.Unmarshal(resp.Body, &parsed); jerr != nil {
 return model.NewUpstreamError(p.Name(), resp.Status, "malformed IMF datamapper payload")
 }
 byYear, ok := parsed.Values[code][country]
 if !ok || len(byYear) == 0 {
 return model.NewDataNotAvailable(p.Name(), "no observations for "+code+"/"+country)
 }

 points := make([]model.NormalizedPoint, 0, len(byYear))
 for year, v := range byYear {
 f, _ := v.Float64()
 val := f
 points = append(points, model.NormalizedPoint{Date: year + "-12-31", Value: &val})
 }

 series = &model.NormalizedSeries{
 Metadata: model.SeriesMetadata{
 SourceProvider: p.Name(),
 IndicatorCode: code,
 IndicatorDisplay: code,
 CountryOrRegion: country,
 Frequency: frequencyOrDefault(req.Frequency, model.FrequencyAnnual),
 LastUpdated: time.Now().UTC(),
 APIURLEcho: scrubbed,
 SourceURL: fmt.Sprintf("https://www.imf.org/external/datamapper/%s@WEO/%s", code, country),
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
	if err != nil {
 return nil, err
	}
	series := result.(*model.NormalizedSeries)
	if hit {
 cp := *series
 cp.Points = append([]model.NormalizedPoint(nil), series.Points...)
 return &cp, nil
	}
	return series, nil
}
