package provider

import (
	"context"

	"github.com/hanlulong/openecon-data-sub002/internal/index"
	"github.com/hanlulong/openecon-data-sub002/internal/model"
	"github.com/hanlulong/openecon-data-sub002/internal/sdmx"
)

// BISProvider implements Adapter over the Bank for International
// Settlements' SDMX API (effective exchange rates, policy rates, long
// series), sharing the Family C decode/fetch flow.
type BISProvider struct{ *sdmxAdapter }

func NewBISProvider(baseURL string, rl RateLimit, deps Deps, dsds *sdmx.DSDCache, catalog *sdmx.Catalog, ix *index.Index) *BISProvider {
	return &BISProvider{newSDMXAdapter(sdmxProviderConfig{
 Name: "bis", BaseURL: baseURL, DefaultAgency: "BIS", RateLimit: rl,
	}, deps, dsds, catalog, ix)}
}

func (p *BISProvider) Fetch(ctx context.Context, req FetchRequest) (*model.NormalizedSeries, error) {
	return p.fetch(ctx, req, deriveUnitConstraint(req))
}
