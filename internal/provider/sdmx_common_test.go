package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanlulong/openecon-data-sub002/internal/breaker"
	"github.com/hanlulong/openecon-data-sub002/internal/cache"
	"github.com/hanlulong/openecon-data-sub002/internal/httpclient"
	"github.com/hanlulong/openecon-data-sub002/internal/model"
	"github.com/hanlulong/openecon-data-sub002/internal/sdmx"
)

func TestDeriveUnitConstraint(t *testing.T) {
	cases := []struct {
		label string
		want string
	}{
		{"Unemployment Rate", "PC_ACT"},
		{"unemployment", "PC_ACT"},
		{"Inflation Rate", "PCH_PRE_YEAR"},
		{"GDP Growth", "PC_CHA_PRE"},
		{"GDP per capita", ""},
	}
	for _, c := range cases {
		t.Run(c.label, func(t *testing.T) {
			got := deriveUnitConstraint(FetchRequest{Indicator: model.IndicatorRequest{Label: c.label}})
			assert.Equal(t, c.want, got)
		})
	}
}

const dsdFixture = `{
	"data": {
		"structures": [{
			"id": "UNE_RT_M",
			"dimensionList": {
				"dimensions": [
					{"id": "GEO", "localRepresentation": {"enumeration": [{"id": "DEU"}]}},
					{"id": "UNIT", "localRepresentation": {"enumeration": [{"id": "PC_ACT"}, {"id": "THS_PER"}]}}
				],
				"timeDimensions": [{"id": "TIME_PERIOD"}]
			}
		}]
	}
}`

const dataFixture = `{
	"data": {
		"dataSets": [{
			"series": {
				"0:0": {"observations": {"0": [4.0], "1": [4.2]}},
				"0:1": {"observations": {"0": [160], "1": [162]}}
			}
		}],
		"structures": [{
			"dimensions": {
				"series": [
					{"id": "GEO", "values": [{"id": "DEU"}]},
					{"id": "UNIT", "values": [{"id": "PC_ACT"}, {"id": "THS_PER"}]}
				],
				"observation": [
					{"id": "TIME_PERIOD", "values": [{"id": "2020"}, {"id": "2021"}]}
				]
			}
		}]
	}
}`

// fakeSDMXServer serves a dataflow whose series mix percent-of-active-
// population and thousand-persons observations under the same non-UNIT
// dimension keys, the Eurostat/OECD labour force unit-mixing trap scenario
// 3 exercises.
func fakeSDMXServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/datastructure/"):
			w.Write([]byte(dsdFixture))
		case strings.HasPrefix(r.URL.Path, "/data/"):
			w.Write([]byte(dataFixture))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestEurostatProvider(t *testing.T, srv *httptest.Server) *EurostatProvider {
	t.Helper()
	c := cache.New(64, 0)
	t.Cleanup(c.Close)
	deps := Deps{
		Pool: httpclient.New(httpclient.DefaultConfig()),
		Breakers: breaker.NewRegistry(breaker.DefaultConfig()),
		Cache: c,
		Limiters: NewLimiters(),
	}
	dsds := sdmx.NewDSDCache(deps.Pool, 0)
	catalog := sdmx.NewCatalog(nil)
	return NewEurostatProvider(srv.URL, RateLimit{RPS: 100, Burst: 100}, deps, dsds, catalog, nil)
}

func TestEurostatFetch_UnitConstraintSelectsPercentSeriesOnly(t *testing.T) {
	srv := fakeSDMXServer(t)
	defer srv.Close()
	p := newTestEurostatProvider(t, srv)

	series, err := p.Fetch(context.Background(), FetchRequest{
		Indicator: model.IndicatorRequest{Label: "unemployment rate", ExplicitCode: "UNE_RT_M"},
		Geo: model.GeoSelector{Kind: model.GeoCountryGroup, Value: "EU27"},
	})
	require.NoError(t, err)

	require.Len(t, series.Points, 2, "only the PC_ACT observations should survive the UNIT constraint, not the THS_PER headcount series mixed into the same dataflow")
	byDate := map[string]float64{}
	for _, pt := range series.Points {
		byDate[pt.Date] = *pt.Value
	}
	assert.Equal(t, 4.0, byDate["2020"])
	assert.Equal(t, 4.2, byDate["2021"])
	for _, v := range byDate {
		assert.Less(t, v, 100.0, "a percent-of-active-population observation must never be confused with the raw thousand-persons headcount")
	}
}

func TestEurostatFetch_NoUnitHintReturnsWhicheverSeriesMatchesOtherConstraints(t *testing.T) {
	srv := fakeSDMXServer(t)
	defer srv.Close()
	p := newTestEurostatProvider(t, srv)

	_, err := p.Fetch(context.Background(), FetchRequest{
		Indicator: model.IndicatorRequest{Label: "gdp per capita", ExplicitCode: "UNE_RT_M"},
		Geo: model.GeoSelector{Kind: model.GeoCountryGroup, Value: "EU27"},
	})
	// With no unit hint, buildConstraints has nothing to disambiguate GEO
	// vs UNIT, so both series share DimensionCodes for the constraints
	// actually set (none beyond what's empty here); Filter returns every
	// observation across both units and decoding still succeeds.
	require.NoError(t, err)
}
