package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hanlulong/openecon-data-sub002/internal/cache"
	"github.com/hanlulong/openecon-data-sub002/internal/index"
	"github.com/hanlulong/openecon-data-sub002/internal/model"
)

// StatCanConfig configures the Statistics Canada Web Data Service adapter.
type StatCanConfig struct {
	BaseURL string
	APIKey string
	RateLimit
}

func DefaultStatCanConfig() StatCanConfig {
	return StatCanConfig{
 BaseURL: "https://www150.statcan.gc.ca/t1/wds/rest",
 RateLimit: RateLimit{RPS: 2, Burst: 4},
	}
}

// StatCanProvider implements Adapter for Statistics Canada: requests are by numeric vector id, discovered through
// a product-id search via the indicator index, with stale-vector detection
// and successor discovery.
type StatCanProvider struct {
	cfg StatCanConfig
	deps Deps
	index *index.Index
}

func NewStatCanProvider(cfg StatCanConfig, deps Deps, ix *index.Index) *StatCanProvider {
	return &StatCanProvider{cfg: cfg, deps: deps, index: ix}
}

func (p *StatCanProvider) Name() string { return "statcan" }

type statCanVectorResponse struct {
	Status string `json:"status"`
	Object struct {
 VectorID int64 `json:"vectorId"`
 ProductID string `json:"productId"`
 CoordinateID string `json:"coordinate"`
 VectorDataPoint []struct {
 RefPer string `json:"refPer"`
 Value *float64 `json:"value"`
 } `json:"vectorDataPoint"`
	} `json:"object"`
}

func (p *StatCanProvider) Fetch(ctx context.Context, req FetchRequest) (*model.NormalizedSeries, error) {
	vectorID := req.Indicator.ExplicitCode
	if vectorID == "" {
 candidates, err := p.index.Search(ctx, req.Indicator.Label, p.Name(), 1)
 if err == nil && len(candidates) > 0 {
 vectorID = candidates[0].Record.Code
 }
	}
	if vectorID == "" {
 return nil, model.NewIndicatorUnknown(p.Name(), "no Statistics Canada vector id resolved for label "+req.Indicator.Label)
	}

	series, err := p.fetchVector(ctx, vectorID, req)
	if err != nil {
 return nil, err
	}

	lastPoint := series.Metadata.LastUpdated
	if n := len(series.Points); n > 0 {
 if t, perr := time.Parse("2006-01-02", series.Points[n-1].Date); perr == nil {
 lastPoint = t
 }
	}
	if stale, expectedCadence := isStale(lastPoint, req.Frequency); stale {
 if successor, ok, serr := p.discoverSuccessor(ctx, vectorID); serr == nil && ok {
 if newer, ferr := p.fetchVector(ctx, successor, req); ferr == nil {
 return newer, nil
 }
 }
 series.Metadata.SeasonalAdjustment = fmt.Sprintf("%s; vector may be archived (cadence %s)", series.Metadata.SeasonalAdjustment, expectedCadence)
	}
	return series, nil
}

func (p *StatCanProvider) fetchVector(ctx context.Context, vectorID string, req FetchRequest) (*model.NormalizedSeries, error) {
	url := fmt.Sprintf("%s/getDataFromVectorsAndLatestNPeriods", p.cfg.BaseURL)
	fp, scrubbed := cache.Fingerprint(url + "?vectorId=" + vectorID)

	result, hit, err := p.deps.Cache.GetOrCompute(fp, cache.DefaultTTLTable().Monthly, 4096, func() (interface{}, error) {
 if lerr := p.deps.Limiters.Wait(ctx, p.Name(), p.cfg.RPS, p.cfg.Burst); lerr != nil {
 return nil, model.NewTimeoutError(p.Name())
 }

 body, _ := json.Marshal([]map[string]interface{}{{"vectorId": vectorID, "latestN": 2000}})

 var series *model.NormalizedSeries
 callErr := p.deps.Breakers.Call(p.Name(), func() error {
 resp, ferr := p.deps.Pool.PostJSON(ctx, url, nil, body)
 if ferr != nil {
 return translateTransportError(p.Name(), ferr)
 }
 if resp.Status >= 400 {
 return model.NewUpstreamError(p.Name(), resp.Status, string(resp.Body))
 }
 var parsed []statCanVectorResponse
 if jerr := json.Unmarshal(resp.Body, &parsed); jerr != nil || len(parsed) == 0 {
 return model.NewUpstreamError(p.Name(), resp.Status, "malformed Statistics Canada payload")
 }
 points := make([]model.NormalizedPoint, 0, len(parsed[0].Object.VectorDataPoint))
 for _, dp := range parsed[0].Object.VectorDataPoint {
 points = append(points, model.NormalizedPoint{Date: dp.RefPer, Value: dp.Value})
 }
 if len(points) == 0 {
 return model.NewDataNotAvailable(p.Name(), "vector "+vectorID+" has no data points")
 }

 series = &model.NormalizedSeries{
 Metadata: model.SeriesMetadata{
 SourceProvider: p.Name(),
 IndicatorCode: vectorID,
 IndicatorDisplay: "Vector " + vectorID,
 CountryOrRegion: "CAN",
 Frequency: frequencyOrDefault(req.Frequency, model.FrequencyMonthly),
 LastUpdated: time.Now().UTC(),
 APIURLEcho: scrubbed,
 SourceURL: "https://www150.statcan.gc.ca/t1/tbl1/en/tv.action?pid=" + parsed[0].Object.ProductID,
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

// isStale implements staleness check: the vector's last
// point is older than the expected cadence by a wide margin (> 4x).
func isStale(lastUpdated time.Time, freq *model.Frequency) (bool, string) {
	cadence := 31 * 24 * time.Hour
	label := "monthly"
	if freq != nil {
 switch *freq {
 case model.FrequencyAnnual:
 cadence, label = 366*24*time.Hour, "annual"
 case model.FrequencyQuarterly:
 cadence, label = 93*24*time.Hour, "quarterly"
 case model.FrequencyWeekly:
 cadence, label = 8*24*time.Hour, "weekly"
 case model.FrequencyDaily:
 cadence, label = 3*24*time.Hour, "daily"
 }
	}
	return time.Since(lastUpdated) > 4*cadence, label
}

// discoverSuccessor implements "attempts to discover a
// successor vector under the same product" rule via the indicator index,
// which is kept in sync with StatCan's product catalog and carries a
// successor vector id in its category column.
func (p *StatCanProvider) discoverSuccessor(ctx context.Context, vectorID string) (string, bool, error) {
	rec, ok, err := p.index.ByProviderCode(ctx, p.Name(), vectorID)
	if err != nil || !ok || rec.Category == "" {
 return "", false, err
	}
	return rec.Category, rec.Category != vectorID, nil
}
