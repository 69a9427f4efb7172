package commands

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"shipdash/internal/backend"
	"shipdash/internal/config"
	"shipdash/internal/dashboard"
	"shipdash/internal/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{
			"kpis": {"total_orders": 2, "late_delivery_percent": 50, "avg_shipping_delay": 1.5, "avg_profit": 120},
			"filtered_records": [
				{"delivery_status": "Late delivery", "order_profit_per_order": 10},
				{"delivery_status": "Shipping on time", "order_profit_per_order": 230}
			],
			"aggregates": {"monthly_labels": ["2021-01"], "avg_delays": [1.5]},
			"country_risk": {"countries": ["France"], "risk_percentages": [50]},
			"inter_arrival_times": [1, 2, 3]
		}`)
	}))
	t.Cleanup(srv.Close)

	a := newApp(&config.AppConfig{
		Backend:          backend.Config{BaseURL: srv.URL},
		HistogramBuckets: stats.DefaultBuckets,
		DensitySteps:     stats.DefaultDensitySteps,
		OnInvalidNumeric: stats.PolicyZero,
	})
	t.Cleanup(a.session.Close)
	return a
}

func TestRenderOnce_DrawsOnlyRequestedView(t *testing.T) {
	prev := renderFilters
	t.Cleanup(func() { renderFilters = prev })
	renderFilters = filterFlags{start: "2021-01-01"}

	a := newTestApp(t)
	var out bytes.Buffer
	require.NoError(t, renderOnce(context.Background(), a, dashboard.ViewFrequency, &out))

	assert.Equal(t, []string{dashboard.ChartInterArrival}, a.session.Registry().IDs(),
		"overview charts must not be computed for a frequency render")
	assert.Contains(t, out.String(), "Total orders: 2")
	assert.Contains(t, out.String(), "```mermaid")
	assert.Equal(t, "2021-01-01", a.session.Filters().StartDate)
}
