package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hanlulong/openecon-data-sub002/internal/cache"
	"github.com/hanlulong/openecon-data-sub002/internal/model"
)

// WorldBankConfig configures the World Bank indicators API adapter.
type WorldBankConfig struct {
	BaseURL string
	RateLimit
}

func DefaultWorldBankConfig() WorldBankConfig {
	return WorldBankConfig{
 BaseURL: "https://api.worldbank.org/v2",
 RateLimit: RateLimit{RPS: 4, Burst: 8},
	}
}

// WorldBankProvider implements Adapter for the World Bank API. Unlike FRED,
// a single World Bank request is always scoped to one country, so a
// multi-country query produces one FetchRequest per country upstream in
// the orchestrator's fan-out.
type WorldBankProvider struct {
	cfg WorldBankConfig
	deps Deps
}

func NewWorldBankProvider(cfg WorldBankConfig, deps Deps) *WorldBankProvider {
	return &WorldBankProvider{cfg: cfg, deps: deps}
}

func (p *WorldBankProvider) Name() string { return "worldbank" }

// World Bank's JSON shape is a 2-element array: [page metadata, data rows].
type worldBankDataRow struct {
	Indicator struct {
 ID string `json:"id"`
 Value string `json:"value"`
	} `json:"indicator"`
	Country struct {
 Value string `json:"value"`
	} `json:"country"`
	CountryISO3 string `json:"countryiso3code"`
	Date string `json:"date"`
	Value *float64 `json:"value"`
	Unit string `json:"unit"`
}

func (p *WorldBankProvider) Fetch(ctx context.Context, req FetchRequest) (*model.NormalizedSeries, error) {
	code := req.Indicator.ExplicitCode
	if code == "" {
 code = ResolveAlias(p.Name(), req.Indicator.Label)
	}
	if code == "" {
 return nil, model.NewIndicatorUnknown(p.Name(), "no World Bank indicator code resolved for label "+req.Indicator.Label)
	}
	if req.Geo.Kind != model.GeoCountryISO3 && req.Geo.Kind != model.GeoWorld {
 return nil, model.NewDataNotAvailable(p.Name(), "World Bank adapter expects a single country, got "+string(req.Geo.Kind))
	}
	country := req.Geo.Value
	if req.Geo.Kind == model.GeoWorld {
 country = "WLD"
	}

	reqURL := p.buildURL(country, code, req.Range)
	fp, scrubbed := cache.Fingerprint(reqURL)

	result, hit, err := p.deps.Cache.GetOrCompute(fp, cache.DefaultTTLTable().Annual, 4096, func() (interface{}, error) {
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

 var parsed []json.RawMessage
 if jerr := json.Unmarshal(resp.Body, &parsed); jerr != nil || len(parsed) < 2 {
 return model.NewUpstreamError(p.Name(), resp.Status, "malformed World Bank payload")
 }
 var rows []worldBankDataRow
 if jerr := json.Unmarshal(parsed[1], &rows); jerr != nil {
 return model.NewUpstreamError(p.Name(), resp.Status, "malformed World Bank data rows")
 }
 if len(rows) == 0 {
 return model.NewDataNotAvailable(p.Name(), "no observations for "+code+"/"+country)
 }

 points := make([]model.NormalizedPoint, 0, len(rows))
 display := code
 for _, r := range rows {
 if r.Indicator.Value != "" {
 display = r.Indicator.Value
 }
 points = append(points, model.NormalizedPoint{Date: r.Date, Value: r.Value})
 }

 series = &model.NormalizedSeries{
 Metadata: model.SeriesMetadata{
 SourceProvider: p.Name(),
 IndicatorCode: code,
 IndicatorDisplay: display,
 CountryOrRegion: country,
 Frequency: frequencyOrDefault(req.Frequency, model.FrequencyAnnual),
 LastUpdated: time.Now().UTC(),
 APIURLEcho: scrubbed,
 SourceURL: fmt.Sprintf("https://data.worldbank.org/indicator/%s?locations=%s", code, country),
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

func (p *WorldBankProvider) buildURL(country, code string, tr model.TimeRange) string {
	dateParam := ""
	if tr.Start != nil && tr.End != nil {
 dateParam = fmt.Sprintf("&date=%d:%d", tr.Start.Year(), tr.End.Year())
	}
	return fmt.Sprintf("%s/country/%s/indicator/%s?format=json&per_page=20000%s", p.cfg.BaseURL, country, code, dateParam)
}
