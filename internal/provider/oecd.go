package provider

import (
	"context"

	"github.com/hanlulong/openecon-data-sub002/internal/index"
	"github.com/hanlulong/openecon-data-sub002/internal/model"
	"github.com/hanlulong/openecon-data-sub002/internal/sdmx"
)

// OECDProvider implements Adapter over OECD.Stat's SDMX-JSON interface.
// Unemployment-style series constrain UNIT to "percent of active
// population".
type OECDProvider struct{ *sdmxAdapter }

func NewOECDProvider(baseURL string, rl RateLimit, deps Deps, dsds *sdmx.DSDCache, catalog *sdmx.Catalog, ix *index.Index) *OECDProvider {
	return &OECDProvider{newSDMXAdapter(sdmxProviderConfig{
 Name: "oecd", BaseURL: baseURL, DefaultAgency: "OECD", RateLimit: rl,
 Decode: sdmx.DecodeFlatDataMessage,
	}, deps, dsds, catalog, ix)}
}

func (p *OECDProvider) Fetch(ctx context.Context, req FetchRequest) (*model.NormalizedSeries, error) {
	return p.fetch(ctx, req, deriveUnitConstraint(req))
}
