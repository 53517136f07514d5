package provider

import (
	"context"

	"github.com/hanlulong/openecon-data-sub002/internal/index"
	"github.com/hanlulong/openecon-data-sub002/internal/model"
	"github.com/hanlulong/openecon-data-sub002/internal/sdmx"
)

// EurostatProvider implements Adapter over Eurostat's SDMX API, sharing the
// Family C decode/fetch flow with OECDProvider and BISProvider.
type EurostatProvider struct{ *sdmxAdapter }

func NewEurostatProvider(baseURL string, rl RateLimit, deps Deps, dsds *sdmx.DSDCache, catalog *sdmx.Catalog, ix *index.Index) *EurostatProvider {
	return &EurostatProvider{newSDMXAdapter(sdmxProviderConfig{
 Name: "eurostat", BaseURL: baseURL, DefaultAgency: "ESTAT", RateLimit: rl,
	}, deps, dsds, catalog, ix)}
}

func (p *EurostatProvider) Fetch(ctx context.Context, req FetchRequest) (*model.NormalizedSeries, error) {
	return p.fetch(ctx, req, deriveUnitConstraint(req))
}
