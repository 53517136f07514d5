package comtrade

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanlulong/openecon-data-sub002/internal/cache"
	"github.com/hanlulong/openecon-data-sub002/internal/httpclient"
	"github.com/hanlulong/openecon-data-sub002/internal/model"
)

type noopBreakers struct{}

func (noopBreakers) Call(provider string, fn func() error) error { return fn() }

type noopLimiter struct{}

func (noopLimiter) Wait(ctx context.Context, provider string, rps float64, burst int) error {
	return nil
}

func newTestAdapter(t *testing.T, srv *httptest.Server) *Adapter {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	c := cache.New(64, 0)
	t.Cleanup(c.Close)
	return NewAdapter(cfg, Deps{
		Pool: httpclient.New(httpclient.DefaultConfig()),
		Breakers: noopBreakers{},
		Cache: c,
		Limiters: noopLimiter{},
	})
}

// fakeComtradeServer returns distinct export/import JSON payloads for
// Canada-US (hs 8703) keyed off the flowCode query parameter, modeling
// scenario 4's bilateral trade-balance request.
func fakeComtradeServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q, err := url.ParseQuery(r.URL.RawQuery)
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		switch q.Get("flowCode") {
		case "X":
			w.Write([]byte(`{"data":[
				{"period":"2021","primaryValue":500},
				{"period":"2022","primaryValue":600},
				{"period":"2023","primaryValue":700}
			]}`))
		case "M":
			w.Write([]byte(`{"data":[
				{"period":"2021","primaryValue":300},
				{"period":"2022","primaryValue":350}
			]}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
}

func TestAdapter_Fetch_FlowBalance_SubtractsMatchingDatesOnly(t *testing.T) {
	srv := fakeComtradeServer(t)
	defer srv.Close()
	a := newTestAdapter(t, srv)

	series, err := a.Fetch(context.Background(), TradeQuery{
		Reporter: model.GeoSelector{Kind: model.GeoCountryISO3, Value: "CAN"},
		Partner: model.GeoSelector{Kind: model.GeoCountryISO3, Value: "USA"},
		ProductHS: "8703",
		Flow: FlowBalance,
	})
	require.NoError(t, err)

	// 2023 only exists on the exports side and must be dropped, not
	// treated as a zero-import balance.
	require.Len(t, series.Points, 2)
	byDate := map[string]float64{}
	for _, p := range series.Points {
		byDate[p.Date] = *p.Value
	}
	assert.Equal(t, 200.0, byDate["2021"], "500 exports - 300 imports")
	assert.Equal(t, 250.0, byDate["2022"], "600 exports - 350 imports")
	_, has2023 := byDate["2023"]
	assert.False(t, has2023, "a period reported only on one side must be dropped, not zero-filled")
}

func TestAdapter_Fetch_UnresolvedReporterIsIndicatorUnknown(t *testing.T) {
	srv := fakeComtradeServer(t)
	defer srv.Close()
	a := newTestAdapter(t, srv)

	_, err := a.Fetch(context.Background(), TradeQuery{
		Reporter: model.GeoSelector{Kind: model.GeoCountryISO3, Value: "ZZZ"},
		Partner: model.GeoSelector{Kind: model.GeoCountryISO3, Value: "USA"},
		ProductHS: "8703",
		Flow: FlowExports,
	})
	require.Error(t, err)
	qe, ok := err.(*model.QueryError)
	require.True(t, ok)
	assert.Equal(t, model.ErrKindUnknown, qe.Kind)
}

func TestAdapter_Fetch_ExportsOnly(t *testing.T) {
	srv := fakeComtradeServer(t)
	defer srv.Close()
	a := newTestAdapter(t, srv)

	series, err := a.Fetch(context.Background(), TradeQuery{
		Reporter: model.GeoSelector{Kind: model.GeoCountryISO3, Value: "CAN"},
		Partner: model.GeoSelector{Kind: model.GeoCountryISO3, Value: "USA"},
		ProductHS: "8703",
		Flow: FlowExports,
	})
	require.NoError(t, err)
	require.Len(t, series.Points, 3)
	assert.Equal(t, "exports", series.Metadata.IndicatorDisplay[len(series.Metadata.IndicatorDisplay)-7:])
}
