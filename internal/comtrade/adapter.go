package comtrade

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hanlulong/openecon-data-sub002/internal/cache"
	"github.com/hanlulong/openecon-data-sub002/internal/httpclient"
	"github.com/hanlulong/openecon-data-sub002/internal/model"
)

// FlowDirection is the closed set of trade flow directions a query names.
type FlowDirection string

const (
	FlowImports FlowDirection = "imports"
	FlowExports FlowDirection = "exports"
	FlowBalance FlowDirection = "balance"
)

// Config configures the UN Comtrade adapter.
type Config struct {
	BaseURL string
	APIKey string
	RPS float64
	Burst int
}

func DefaultConfig() Config {
	return Config{BaseURL: "https://comtradeapi.un.org/data/v1/get", RPS: 1, Burst: 2}
}

// Deps bundles this adapter's shared infrastructure, named distinctly from
// provider.Deps since comtrade is its own package but wired identically.
type Deps struct {
	Pool *httpclient.Pool
	Breakers interface {
 Call(provider string, fn func() error) error
	}
	Cache *cache.Cache
	Limiters interface {
 Wait(ctx context.Context, provider string, rps float64, burst int) error
	}
}

// Adapter is the UN Comtrade client. Its Fetch takes a TradeQuery rather
// than a provider.FetchRequest, so it does not implement provider.Adapter;
// the orchestrator calls it directly.
type Adapter struct {
	cfg Config
	deps Deps
}

func NewAdapter(cfg Config, deps Deps) *Adapter { return &Adapter{cfg: cfg, deps: deps} }

func (a *Adapter) Name() string { return "comtrade" }

type comtradeResponse struct {
	Data []struct {
 Period string `json:"period"`
 PrimaryValue float64 `json:"primaryValue"`
	} `json:"data"`
}

// TradeQuery is the structured trade-specific request the orchestrator
// builds for a comtrade FetchRequest.
type TradeQuery struct {
	Reporter model.GeoSelector
	Partner model.GeoSelector
	ProductHS string
	ProductName string
	Flow FlowDirection
	Range model.TimeRange
	Frequency *model.Frequency
}

// Fetch resolves reporter/partner/product and issues one or two upstream
// calls depending on Flow.
func (a *Adapter) Fetch(ctx context.Context, q TradeQuery) (*model.NormalizedSeries, error) {
	reporterCode, ok := ResolveM49(stringOrFirst(q.Reporter))
	if !ok {
 return nil, model.NewIndicatorUnknown(a.Name(), "unresolved reporter country "+q.Reporter.Value)
	}
	partnerCodes, isWorld := ExpandGroup(q.Partner)
	if isWorld {
 partnerCodes = []string{WorldCode}
	}
	if len(partnerCodes) == 0 {
 return nil, model.NewIndicatorUnknown(a.Name(), "unresolved partner "+q.Partner.Value)
	}

	hs := q.ProductHS
	if hs == "" {
 hs = ResolveHSCode(q.ProductName)
	}
	if hs == "" {
 return nil, model.NewIndicatorUnknown(a.Name(), "unresolved HS product "+q.ProductName)
	}

	switch q.Flow {
	case FlowBalance:
 exports, err := a.fetchFlow(ctx, reporterCode, partnerCodes, hs, "X", q.Range)
 if err != nil {
 return nil, err
 }
 imports, err := a.fetchFlow(ctx, reporterCode, partnerCodes, hs, "M", q.Range)
 if err != nil {
 return nil, err
 }
 return computeBalance(exports, imports, reporterCode, hs, q.Frequency), nil
	default:
 flowCode := "X"
 if q.Flow == FlowImports {
 flowCode = "M"
 }
 return a.fetchFlow(ctx, reporterCode, partnerCodes, hs, flowCode, q.Range)
	}
}

func stringOrFirst(sel model.GeoSelector) string { return sel.Value }

func (a *Adapter) fetchFlow(ctx context.Context, reporter string, partners []string, hs, flowCode string, tr model.TimeRange) (*model.NormalizedSeries, error) {
	partnerParam := partners[0]
	for _, p := range partners[1:] {
 partnerParam += "," + p
	}
	url := fmt.Sprintf("%s/C/A/HS?reporterCode=%s&partnerCode=%s&cmdCode=%s&flowCode=%s", a.cfg.BaseURL, reporter, partnerParam, hs, flowCode)
	if a.cfg.APIKey != "" {
 url += "&subscription-key=" + a.cfg.APIKey
	}
	fp, scrubbed := cache.Fingerprint(url)

	result, hit, err := a.deps.Cache.GetOrCompute(fp, cache.DefaultTTLTable().Annual, 4096, func() (interface{}, error) {
 if lerr := a.deps.Limiters.Wait(ctx, a.Name(), a.cfg.RPS, a.cfg.Burst); lerr != nil {
 return nil, model.NewTimeoutError(a.Name())
 }

 var series *model.NormalizedSeries
 callErr := a.deps.Breakers.Call(a.Name(), func() error {
 resp, ferr := a.deps.Pool.Get(ctx, url, nil)
 if ferr != nil {
 return model.NewNetworkError(a.Name(), ferr)
 }
 if resp.Status >= 400 {
 return model.NewUpstreamError(a.Name(), resp.Status, string(resp.Body))
 }
 var parsed comtradeResponse
 if jerr := json.Unmarshal(resp.Body, &parsed); jerr != nil {
 return model.NewUpstreamError(a.Name(), resp.Status, "malformed Comtrade payload")
 }
 if len(parsed.Data) == 0 {
 return model.NewDataNotAvailable(a.Name(), "no trade records for "+hs+"/"+flowCode)
 }

 // Rows sharing a period (one per partner when a group was
 // expanded) are summed into one point.
 sums := make(map[string]float64, len(parsed.Data))
 points := make([]model.NormalizedPoint, 0, len(parsed.Data))
 for _, row := range parsed.Data {
 if _, seen := sums[row.Period]; !seen {
 points = append(points, model.NormalizedPoint{Date: row.Period})
 }
 sums[row.Period] += row.PrimaryValue
 }
 for i := range points {
 v := sums[points[i].Date]
 points[i].Value = &v
 }
 label := "exports"
 if flowCode == "M" {
 label = "imports"
 }
 series = &model.NormalizedSeries{
 Metadata: model.SeriesMetadata{
 SourceProvider: a.Name(),
 IndicatorCode: hs + ":" + flowCode,
 IndicatorDisplay: "HS " + hs + " " + label,
 CountryOrRegion: reporter,
 Frequency: model.FrequencyAnnual,
 LastUpdated: time.Now().UTC(),
 APIURLEcho: scrubbed,
 SourceURL: "https://comtradeplus.un.org/",
 AggregationMethod: model.AggregationSum,
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

// computeBalance derives exports - imports per period as a single series
// tagged as a balance. Periods present in only one side are dropped rather
// than treated as zero, since a missing Comtrade row means "not reported",
// not "zero trade".
func computeBalance(exports, imports *model.NormalizedSeries, reporter, hs string, freq *model.Frequency) *model.NormalizedSeries {
	importByDate := make(map[string]float64, len(imports.Points))
	for _, p := range imports.Points {
 if p.Value != nil {
 importByDate[p.Date] = *p.Value
 }
	}

	points := make([]model.NormalizedPoint, 0, len(exports.Points))
	for _, p := range exports.Points {
 if p.Value == nil {
 continue
 }
 imp, ok := importByDate[p.Date]
 if !ok {
 continue
 }
 balance := *p.Value - imp
 points = append(points, model.NormalizedPoint{Date: p.Date, Value: &balance})
	}

	series := &model.NormalizedSeries{
 Metadata: model.SeriesMetadata{
 SourceProvider: "comtrade",
 IndicatorCode: hs + ":balance",
 IndicatorDisplay: "HS " + hs + " trade balance",
 CountryOrRegion: reporter,
 Frequency: model.FrequencyAnnual,
 LastUpdated: time.Now().UTC(),
 SourceURL: "https://comtradeplus.un.org/",
 AggregationMethod: model.AggregationSum,
 },
 Points: points,
	}
	if freq != nil {
 series.Metadata.Frequency = *freq
	}
	series.Sort()
	return series
}
