package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hanlulong/openecon-data-sub002/internal/cache"
	"github.com/hanlulong/openecon-data-sub002/internal/model"
	"github.com/shopspring/decimal"
)

// CoinGeckoConfig configures the CoinGecko market-chart adapter.
type CoinGeckoConfig struct {
	BaseURL string
	APIKey string
	VsCurrency string
	RateLimit
}

func DefaultCoinGeckoConfig() CoinGeckoConfig {
	return CoinGeckoConfig{
 BaseURL: "https://api.coingecko.com/api/v3",
 VsCurrency: "usd",
 RateLimit: RateLimit{RPS: 1, Burst: 2},
	}
}

// CoinGeckoProvider implements Adapter for crypto price series. Each price
// is rounded to 8 decimal places through shopspring/decimal before being
// stored as the float64 NormalizedPoint carries; it is the only adapter in
// this package that uses decimal.
type CoinGeckoProvider struct {
	cfg CoinGeckoConfig
	deps Deps
}

func NewCoinGeckoProvider(cfg CoinGeckoConfig, deps Deps) *CoinGeckoProvider {
	return &CoinGeckoProvider{cfg: cfg, deps: deps}
}

func (p *CoinGeckoProvider) Name() string { return "coingecko" }

type coinGeckoMarketChartResponse struct {
	Prices [][2]float64 `json:"prices"` // [epoch_ms, price]
}

func (p *CoinGeckoProvider) Fetch(ctx context.Context, req FetchRequest) (*model.NormalizedSeries, error) {
	coinID := req.Indicator.ExplicitCode
	if coinID == "" {
 coinID = ResolveAlias(p.Name(), req.Indicator.Label)
	}
	if coinID == "" {
 return nil, model.NewIndicatorUnknown(p.Name(), "no CoinGecko coin id resolved for label "+req.Indicator.Label)
	}

	days := daysFromRange(req.Range)
	reqURL := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=%s&days=%d", p.cfg.BaseURL, coinID, p.cfg.VsCurrency, days)
	fp, scrubbed := cache.Fingerprint(reqURL)

	result, hit, gerr := p.deps.Cache.GetOrCompute(fp, cache.DefaultTTLTable().TTLFor(model.FrequencyDaily, true), 4096, func() (interface{}, error) {
 if lerr := p.deps.Limiters.Wait(ctx, p.Name(), p.cfg.RPS, p.cfg.Burst); lerr != nil {
 return nil, model.NewTimeoutError(p.Name())
 }

 var series *model.NormalizedSeries
 callErr := p.deps.Breakers.Call(p.Name(), func() error {
 headers := map[string]string{}
 if p.cfg.APIKey != "" {
 headers["x-cg-demo-api-key"] = p.cfg.APIKey
 }
 resp, ferr := p.deps.Pool.Get(ctx, reqURL, headers)
 if ferr != nil {
 return translateTransportError(p.Name(), ferr)
 }
 if resp.Status == 429 {
 return model.NewRateLimitError(p.Name(), time.Minute)
 }
 if resp.Status >= 400 {
 return model.NewUpstreamError(p.Name(), resp.Status, string(resp.Body))
 }

 var parsed coinGeckoMarketChartResponse
 if jerr := json.Unmarshal(resp.Body, &parsed); jerr != nil {
 return model.NewUpstreamError(p.Name(), resp.Status, "malformed CoinGecko payload")
 }
 if len(parsed.Prices) == 0 {
 return model.NewDataNotAvailable(p.Name(), "no prices for "+coinID)
 }

 points := make([]model.NormalizedPoint, 0, len(parsed.Prices))
 for _, pr := range parsed.Prices {
 epochMs, price := pr[0], pr[1]
 date := time.UnixMilli(int64(epochMs)).UTC().Format("2006-01-02")
 v, _ := decimal.NewFromFloat(price).Round(8).Float64()
 points = append(points, model.NormalizedPoint{Date: date, Value: &v})
 }

 series = &model.NormalizedSeries{
 Metadata: model.SeriesMetadata{
 SourceProvider: p.Name(),
 IndicatorCode: coinID,
 IndicatorDisplay: coinID + " / " + p.cfg.VsCurrency,
 Frequency: frequencyOrDefault(req.Frequency, model.FrequencyDaily),
 LastUpdated: time.Now().UTC(),
 APIURLEcho: scrubbed,
 SourceURL: "https://www.coingecko.com/en/coins/" + coinID,
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

func daysFromRange(tr model.TimeRange) int {
	if tr.Start != nil {
 d := int(time.Since(*tr.Start).Hours()/24) + 1
 if d > 0 {
 return d
 }
	}
	switch tr.Relative {
	case model.RelativeLastNYears:
 return tr.N * 365
	case model.RelativeLastNMonths:
 return tr.N * 30
	case model.RelativeYTD:
 return int(time.Since(time.Date(time.Now().Year(), 1, 1, 0, 0, 0, 0, time.UTC)).Hours()/24) + 1
	case model.RelativeLatest:
 return 1
	default:
 return 365
	}
}
