package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hanlulong/openecon-data-sub002/internal/breaker"
	"github.com/hanlulong/openecon-data-sub002/internal/cache"
	"github.com/hanlulong/openecon-data-sub002/internal/comtrade"
	"github.com/hanlulong/openecon-data-sub002/internal/index"
	"github.com/hanlulong/openecon-data-sub002/internal/intent"
	"github.com/hanlulong/openecon-data-sub002/internal/metrics"
	"github.com/hanlulong/openecon-data-sub002/internal/model"
	"github.com/hanlulong/openecon-data-sub002/internal/provider"
	"github.com/hanlulong/openecon-data-sub002/internal/router"
)

// Budget bounds the pipeline's suspension points.
type Budget struct {
	PerCall time.Duration
	Total time.Duration
}

func DefaultBudget() Budget {
	return Budget{PerCall: 30 * time.Second, Total: 90 * time.Second}
}

// Orchestrator wires every component into the single pipeline. It is
// constructed once at startup (internal/config, cmd/openecon) and is safe
// for concurrent use across requests: every field is itself already
// concurrency-safe.
type Orchestrator struct {
	Resolver *intent.Resolver
	Index *index.Index
	Providers *provider.Registry
	Breakers *breaker.Registry
	Cache *cache.Cache
	TTL cache.TTLTable
	Budget Budget
	Comtrade *comtrade.Adapter
}

// branch is one (IndicatorRequest, GeoSelector) fan-out unit.
type branch struct {
	indicatorIdx int
	geoIdx int
	indicator model.IndicatorRequest
	geo model.GeoSelector
}

// Run executes the full pipeline and returns the non-streaming QueryResult
// shape, collecting every event internally rather than emitting them.
func (o *Orchestrator) Run(ctx context.Context, queryText, conversationTailHash string) (model.QueryResult, error) {
	var result model.QueryResult
	err := o.RunStreaming(ctx, queryText, conversationTailHash, func(ev Event) {
 switch ev.Type {
 case EventStep:
 if ev.Step == "parse" && ev.Status == StepCompleted && ev.Intent != nil {
 result.Intent = *ev.Intent
 }
 case EventData:
 if series, ok := ev.Data.(model.NormalizedSeries); ok {
 result.Data = append(result.Data, series)
 }
 case EventWarn:
 result.Warnings = append(result.Warnings, ev.Message)
 }
	})
	return result, err
}

// RunStreaming drives the pipeline, emitting step/data/warning/error/done
// events as it goes. The returned error is non-nil only on
// total failure (every branch failed, or a stage before fan-out itself
// failed); partial success is reported via warning events, not a returned
// error.
func (o *Orchestrator) RunStreaming(ctx context.Context, queryText, conversationTailHash string, emit Emitter) error {
	ctx, cancel := context.WithTimeout(ctx, o.Budget.Total)
	defer cancel()

	started0 := time.Now()
	emit(stepEvent("parse", StepStarted, started0))
	parsedIntent, err := o.Resolver.Resolve(ctx, queryText, conversationTailHash, time.Now())
	if err != nil {
 emit(Event{Type: EventError, Kind: string(model.ErrKindIntent), Message: err.Error()})
 emit(Event{Type: EventDone})
 return err
	}
	parseCompleted := stepEvent("parse", StepCompleted, started0)
	parseCompleted.Intent = &parsedIntent
	emit(parseCompleted)

	branches := fanOutUnits(parsedIntent)

	started := time.Now()
	emit(stepEvent("index-lookup", StepStarted, started))
	candidatesByBranch := o.lookupCandidates(ctx, parsedIntent, branches)
	emit(stepEvent("index-lookup", StepCompleted, started))

	started = time.Now()
	emit(stepEvent("route", StepStarted, started))
	chains := o.routeBranches(parsedIntent, branches, candidatesByBranch)
	emit(stepEvent("route", StepCompleted, started))

	started = time.Now()
	emit(stepEvent("fetch", StepStarted, started))
	series, fetchErrs := o.fanOutFetch(ctx, parsedIntent, branches, chains, emit)
	emit(stepEvent("fetch", StepCompleted, started))

	started = time.Now()
	emit(stepEvent("normalize", StepStarted, started))
	for i := range series {
 if warn := series[i].Sort(); warn != "" {
 emit(Event{Type: EventWarn, Message: warn})
 }
	}
	emit(stepEvent("normalize", StepCompleted, started))

	if len(series) == 0 && len(fetchErrs) > 0 {
 emit(Event{Type: EventError, Kind: string(model.ErrKindUpstream), Message: "every branch failed"})
 emit(Event{Type: EventDone})
 return fmt.Errorf("total failure across %d branch(es): %w", len(fetchErrs), fetchErrs[0])
	}

	for _, fe := range fetchErrs {
 emit(Event{Type: EventWarn, Message: fe.Error()})
	}

	for _, s := range series {
 emit(Event{Type: EventData, Partial: len(fetchErrs) > 0, Data: s})
	}

	started = time.Now()
	emit(stepEvent("cache-store", StepStarted, started))
	emit(stepEvent("cache-store", StepCompleted, started))

	emit(Event{Type: EventDone})
	return nil
}

// fanOutUnits builds one branch per IndicatorRequest x GeoSelector
// combination, preserving declared order.
func fanOutUnits(pi model.ParsedIntent) []branch {
	geos := pi.Geography
	if len(geos) == 0 {
 geos = []model.GeoSelector{{Kind: model.GeoWorld}}
	}
	var out []branch
	for ii, ind := range pi.Indicators {
 for gi, geo := range geos {
 out = append(out, branch{indicatorIdx: ii, geoIdx: gi, indicator: ind, geo: geo})
 }
	}
	return out
}

func (o *Orchestrator) lookupCandidates(ctx context.Context, pi model.ParsedIntent, branches []branch) map[int][]index.Candidate {
	out := make(map[int][]index.Candidate, len(branches))
	for i, b := range branches {
 if b.indicator.ExplicitCode != "" {
 continue
 }
 candidates, err := o.Index.Search(ctx, b.indicator.Label, "", 5)
 if err != nil {
 continue
 }
 out[i] = candidates
	}
	return out
}

func (o *Orchestrator) routeBranches(pi model.ParsedIntent, branches []branch, candidates map[int][]index.Candidate) map[int][]string {
	out := make(map[int][]string, len(branches))
	for i, b := range branches {
 out[i] = router.Chain(b.indicator, b.geo, pi, candidates[i], o.Breakers, false)
	}
	return out
}

// fanOutFetch dispatches every branch concurrently via errgroup, each
// walking its provider chain until one link succeeds. Results preserve branch declaration order in the returned
// slice even though the underlying fetches race.
func (o *Orchestrator) fanOutFetch(ctx context.Context, pi model.ParsedIntent, branches []branch, chains map[int][]string, emit Emitter) ([]model.NormalizedSeries, []error) {
	results := make([]*model.NormalizedSeries, len(branches))
	errs := make([]error, len(branches))

	g, gctx := errgroup.WithContext(ctx)
	for i := range branches {
 i := i
 b := branches[i]
 g.Go(func() error {
 series, err := o.fetchBranch(gctx, pi, b, chains[i], emit)
 if err != nil {
 errs[i] = err
 return nil // a branch failure is not a group-wide failure
 }
 results[i] = series
 return nil
 })
	}
	_ = g.Wait()

	out := make([]model.NormalizedSeries, 0, len(results))
	var outErrs []error
	for i, r := range results {
 if r != nil {
 out = append(out, *r)
 } else if errs[i] != nil {
 outErrs = append(outErrs, errs[i])
 }
	}
	return out, outErrs
}

// fetchBranch walks chain in order: a DataNotAvailableError or
// IndicatorUnknownError yields immediately to the next link; a
// RateLimitError honors retry-after up to one retry, then yields too.
func (o *Orchestrator) fetchBranch(ctx context.Context, pi model.ParsedIntent, b branch, chain []string, emit Emitter) (*model.NormalizedSeries, error) {
	if pi.IsTradeQuery && o.Comtrade != nil {
 return o.fetchTradeBranch(ctx, pi, b)
	}

	var lastErr error
	for _, providerName := range chain {
 adapter, ok := o.Providers.Get(providerName)
 if !ok {
 continue
 }

 fetchStarted := time.Now()
 callCtx, cancel := context.WithTimeout(ctx, o.Budget.PerCall)
 series, err := adapter.Fetch(callCtx, provider.FetchRequest{
 Indicator: b.indicator, Geo: b.geo, Range: pi.TimeRange, Frequency: pi.Frequency,
 })
 cancel()
 metrics.ProviderFetchDuration.WithLabelValues(providerName).Observe(time.Since(fetchStarted).Seconds())

 if err == nil {
 metrics.ProviderFetchTotal.WithLabelValues(providerName, "ok").Inc()
 return series, nil
 }
 metrics.ProviderFetchTotal.WithLabelValues(providerName, "error").Inc()
 lastErr = err

 qe, ok := err.(*model.QueryError)
 if ok && qe.Kind == model.ErrKindRateLimit && qe.RetryAfter > 0 && qe.RetryAfter <= o.Budget.PerCall {
 select {
 case <-time.After(qe.RetryAfter):
 case <-ctx.Done():
 return nil, ctx.Err()
 }
 callCtx2, cancel2 := context.WithTimeout(ctx, o.Budget.PerCall)
 series2, err2 := adapter.Fetch(callCtx2, provider.FetchRequest{
 Indicator: b.indicator, Geo: b.geo, Range: pi.TimeRange, Frequency: pi.Frequency,
 })
 cancel2()
 if err2 == nil {
 return series2, nil
 }
 lastErr = err2
 }

 emit(Event{Type: EventWarn, Provider: providerName, Message: fmt.Sprintf("%s: %v, trying next provider", providerName, err)})
	}
	return nil, lastErr
}

// fetchTradeBranch routes a trade branch directly to the Comtrade adapter,
// since its TradeQuery shape (reporter + partner + product + flow) doesn't
// fit the uniform single-geo FetchRequest contract every other adapter
// implements. b.geo is the reporter; a second declared GeoSelector (if the
// query named one) is the partner, else "world". Flow direction defaults
// to balance, the richest answer for a bare trade question, unless the
// label names one explicitly.
func (o *Orchestrator) fetchTradeBranch(ctx context.Context, pi model.ParsedIntent, b branch) (*model.NormalizedSeries, error) {
	partner := model.GeoSelector{Kind: model.GeoWorld}
	if len(pi.Geography) > b.geoIdx+1 {
 partner = pi.Geography[b.geoIdx+1]
	}

	flow := comtrade.FlowBalance
	lower := strings.ToLower(b.indicator.Label)
	switch {
	case strings.Contains(lower, "import"):
 flow = comtrade.FlowImports
	case strings.Contains(lower, "export"):
 flow = comtrade.FlowExports
	}

	callCtx, cancel := context.WithTimeout(ctx, o.Budget.PerCall)
	defer cancel()
	return o.Comtrade.Fetch(callCtx, comtrade.TradeQuery{
 Reporter: b.geo,
 Partner: partner,
 ProductHS: b.indicator.ExplicitCode,
 ProductName: b.indicator.Label,
 Flow: flow,
 Range: pi.TimeRange,
 Frequency: pi.Frequency,
	})
}
