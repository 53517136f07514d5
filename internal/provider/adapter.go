// Package provider holds the uniform adapter contract and the flat-REST
// ("Family A") adapters. SDMX ("Family C") decoding lives in internal/sdmx,
// and the SDMX adapters here implement Adapter on top of it. UN Comtrade
// ("Family B") lives in internal/comtrade; its Fetch takes a TradeQuery, so
// it is not an Adapter and the orchestrator calls it directly.
package provider

import (
	"context"

	"github.com/hanlulong/openecon-data-sub002/internal/model"
)

// FetchRequest bundles the per-branch inputs the orchestrator's fan-out
// produces: one IndicatorRequest x one GeoSelector, plus the query's time
// range and optional frequency.
type FetchRequest struct {
	Indicator model.IndicatorRequest
	Geo model.GeoSelector
	Range model.TimeRange
	Frequency *model.Frequency
}

// Adapter is the contract every provider satisfies.
// Implementations are a pure function of FetchRequest given the shared
// HTTP pool. No mutable state beyond adapter-local caches such as SDMX DSD
// caches.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, req FetchRequest) (*model.NormalizedSeries, error)
}
