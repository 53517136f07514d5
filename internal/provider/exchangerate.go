package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hanlulong/openecon-data-sub002/internal/cache"
	"github.com/hanlulong/openecon-data-sub002/internal/model"
)

// ExchangeRateConfig configures the exchangerate.host-style FX adapter.
type ExchangeRateConfig struct {
	BaseURL string
	APIKey string
	RateLimit
}

func DefaultExchangeRateConfig() ExchangeRateConfig {
	return ExchangeRateConfig{
 BaseURL: "https://api.exchangerate.host",
 RateLimit: RateLimit{RPS: 5, Burst: 10},
	}
}

// ExchangeRateProvider implements Adapter for FX pairs. A "geo" for this adapter is the quote currency
// encoded in req.Indicator.ExplicitCode as "BASE/QUOTE" (e.g. "EUR/USD");
// the intent post-processor passes ExplicitCode through as the LLM emitted
// it and does not build or check that shape.
type ExchangeRateProvider struct {
	cfg ExchangeRateConfig
	deps Deps
}

func NewExchangeRateProvider(cfg ExchangeRateConfig, deps Deps) *ExchangeRateProvider {
	return &ExchangeRateProvider{cfg: cfg, deps: deps}
}

func (p *ExchangeRateProvider) Name() string { return "exchangerate" }

type exchangeRateTimeseriesResponse struct {
	Rates map[string]map[string]float64 `json:"rates"` // date -> quote -> rate
}

func (p *ExchangeRateProvider) Fetch(ctx context.Context, req FetchRequest) (*model.NormalizedSeries, error) {
	base, quote, err := splitPair(req.Indicator.ExplicitCode)
	if err != nil {
 return nil, model.NewIndicatorUnknown(p.Name(), err.Error())
	}

	reqURL := p.buildURL(base, quote, req.Range)
	fp, scrubbed := cache.Fingerprint(reqURL)

	result, hit, gerr := p.deps.Cache.GetOrCompute(fp, cache.DefaultTTLTable().TTLFor(model.FrequencyDaily, true), 2048, func() (interface{}, error) {
 if lerr := p.deps.Limiters.Wait(ctx, p.Name(), p.cfg.RPS, p.cfg.Burst); lerr != nil {
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

 var parsed exchangeRateTimeseriesResponse
 if jerr := json.Unmarshal(resp.Body, &parsed); jerr != nil {
 return model.NewUpstreamError(p.Name(), resp.Status, "malformed exchange rate payload")
 }
 if len(parsed.Rates) == 0 {
 return model.NewDataNotAvailable(p.Name(), "no rates for "+base+"/"+quote)
 }

 points := make([]model.NormalizedPoint, 0, len(parsed.Rates))
 for date, byQuote := range parsed.Rates {
 v, ok := byQuote[quote]
 if !ok {
 continue
 }
 val := v
 points = append(points, model.NormalizedPoint{Date: date, Value: &val})
 }

 series = &model.NormalizedSeries{
 Metadata: model.SeriesMetadata{
 SourceProvider: p.Name(),
 IndicatorCode: base + "/" + quote,
 IndicatorDisplay: base + " to " + quote + " exchange rate",
 CountryOrRegion: "",
 Frequency: frequencyOrDefault(req.Frequency, model.FrequencyDaily),
 LastUpdated: time.Now().UTC(),
 APIURLEcho: scrubbed,
 SourceURL: fmt.Sprintf("%s/timeseries?base=%s&symbols=%s", p.cfg.BaseURL, base, quote),
 PriceType: "spot",
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

func (p *ExchangeRateProvider) buildURL(base, quote string, tr model.TimeRange) string {
	start, end := "2015-01-01", time.Now().UTC().Format("2006-01-02")
	if tr.Start != nil {
 start = tr.Start.Format("2006-01-02")
	}
	if tr.End != nil {
 end = tr.End.Format("2006-01-02")
	}
	url := fmt.Sprintf("%s/timeseries?start_date=%s&end_date=%s&base=%s&symbols=%s", p.cfg.BaseURL, start, end, base, quote)
	if p.cfg.APIKey != "" {
 url += "&access_key=" + p.cfg.APIKey
	}
	return url
}

func splitPair(code string) (base, quote string, err error) {
	for i := 0; i < len(code); i++ {
 if code[i] == '/' {
 return code[:i], code[i+1:], nil
 }
	}
	return "", "", fmt.Errorf("exchange rate request requires a BASE/QUOTE code, got %q", code)
}
