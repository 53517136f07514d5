package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/hanlulong/openecon-data-sub002/internal/cache"
	"github.com/hanlulong/openecon-data-sub002/internal/model"
)

// FREDConfig configures the St. Louis Fed FRED adapter.
type FREDConfig struct {
	BaseURL string
	APIKey string
	RateLimit
}

func DefaultFREDConfig() FREDConfig {
	return FREDConfig{
 BaseURL: "https://api.stlouisfed.org/fred",
 RateLimit: RateLimit{RPS: 2, Burst: 4},
	}
}

// FREDProvider implements Adapter for FRED: cache-check, rate-limit-wait,
// breaker-wrapped fetch, then cache-store, the same flow every flat-REST
// adapter in this package follows.
type FREDProvider struct {
	cfg FREDConfig
	deps Deps
}

func NewFREDProvider(cfg FREDConfig, deps Deps) *FREDProvider {
	return &FREDProvider{cfg: cfg, deps: deps}
}

func (p *FREDProvider) Name() string { return "fred" }

type fredObservationsResponse struct {
	Observations []struct {
 Date string `json:"date"`
 Value string `json:"value"`
	} `json:"observations"`
}

func (p *FREDProvider) Fetch(ctx context.Context, req FetchRequest) (*model.NormalizedSeries, error) {
	code := req.Indicator.ExplicitCode
	if code == "" {
 code = ResolveAlias(p.Name(), req.Indicator.Label)
	}
	if code == "" {
 return nil, model.NewIndicatorUnknown(p.Name(), "no FRED series_id resolved for label "+req.Indicator.Label)
	}

	reqURL := p.buildURL(code, req.Range)
	fp, scrubbed := cache.Fingerprint(reqURL)

	freq := frequencyOrDefault(req.Frequency, model.FrequencyMonthly)
	ttl := cache.DefaultTTLTable().TTLFor(freq, false)

	result, hit, err := p.deps.Cache.GetOrCompute(fp, ttl, 4096, func() (interface{}, error) {
 if err := p.deps.Limiters.Wait(ctx, p.Name(), p.cfg.RPS, p.cfg.Burst); err != nil {
 return nil, model.NewTimeoutError(p.Name())
 }

 var series *model.NormalizedSeries
 callErr := p.deps.Breakers.Call(p.Name(), func() error {
 resp, ferr := p.deps.Pool.Get(ctx, reqURL, p.authHeaders())
 if ferr != nil {
 return translateTransportError(p.Name(), ferr)
 }
 if resp.Status == 429 {
 return model.NewRateLimitError(p.Name(), 30*time.Second)
 }
 if resp.Status >= 400 {
 return model.NewUpstreamError(p.Name(), resp.Status, string(resp.Body))
 }

 var parsed fredObservationsResponse
 if jerr := json.Unmarshal(resp.Body, &parsed); jerr != nil {
 return model.NewUpstreamError(p.Name(), resp.Status, "malformed FRED payload")
 }
 if len(parsed.Observations) == 0 {
 return model.NewDataNotAvailable(p.Name(), "no observations for series "+code)
 }

 points := make([]model.NormalizedPoint, 0, len(parsed.Observations))
 for _, o := range parsed.Observations {
 var v *float64
 if o.Value != "." {
 if f, perr := strconv.ParseFloat(o.Value, 64); perr == nil {
 v = &f
 }
 }
 points = append(points, model.NormalizedPoint{Date: o.Date, Value: v})
 }

 series = &model.NormalizedSeries{
 Metadata: model.SeriesMetadata{
 SourceProvider: p.Name(),
 IndicatorCode: code,
 IndicatorDisplay: code,
 CountryOrRegion: "USA",
 Frequency: freq,
 LastUpdated: time.Now().UTC(),
 APIURLEcho: scrubbed,
 SourceURL: "https://fred.stlouisfed.org/series/" + code,
 AggregationMethod: model.AggregationMean,
 },
 Points: points,
 }
 return nil
 })
 if callErr != nil {
 return nil, callErr
 }
 // This Sort drops duplicate dates (last wins) and its warning is
 // discarded, so the orchestrator's later Sort sees no duplicates and
 // reports no duplicate-date warning for FRED series.
 series.Sort()
 return series, nil
	})
	if err != nil {
 return nil, err
	}
	series := result.(*model.NormalizedSeries)
	if hit {
 // Return a shallow copy so concurrent callers never observe mutation
 // of the cached Points slice.
 cp := *series
 cp.Points = append([]model.NormalizedPoint(nil), series.Points...)
 return &cp, nil
	}
	return series, nil
}

func (p *FREDProvider) buildURL(seriesID string, tr model.TimeRange) string {
	q := url.Values{}
	q.Set("series_id", seriesID)
	q.Set("file_type", "json")
	if p.cfg.APIKey != "" {
 q.Set("api_key", p.cfg.APIKey)
	}
	if tr.Start != nil {
 q.Set("observation_start", tr.Start.Format("2006-01-02"))
	}
	if tr.End != nil {
 q.Set("observation_end", tr.End.Format("2006-01-02"))
	}
	return fmt.Sprintf("%s/series/observations?%s", p.cfg.BaseURL, q.Encode())
}

func (p *FREDProvider) authHeaders() map[string]string { return nil }
