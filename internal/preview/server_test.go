package preview

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shipdash/internal/backend"
	"shipdash/internal/chart"
	"shipdash/internal/config"
	"shipdash/internal/dashboard"
	"shipdash/internal/visuals"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct{}

func (stubBackend) AllRecords(ctx context.Context) ([]backend.Record, error) { return nil, nil }

func (stubBackend) Filter(ctx context.Context, f backend.Filters) (*backend.FilterResponse, error) {
	return &backend.FilterResponse{
		KPIs: backend.KPIs{TotalOrders: 1234, LateDeliveryPercent: 12.5, AvgShippingDelay: 1.2, AvgProfit: 87},
		FilteredRecords: []backend.Record{
			{"delivery_status": "Late delivery", "order_profit_per_order": 10.0},
		},
		Aggregates:        backend.Aggregates{MonthlyLabels: []string{"2021-01"}, AvgDelays: []float64{1.2}},
		CountryRisk:       backend.CountryRisk{Countries: []string{"Japan"}, RiskPercentages: []float64{12.5}},
		InterArrivalTimes: []float64{1, 2},
	}, nil
}

func (stubBackend) Simulate(ctx context.Context, req backend.SimulationRequest) (*backend.SimulationResponse, error) {
	return &backend.SimulationResponse{Error: "not used"}, nil
}

func (stubBackend) ExportCSV(ctx context.Context, f backend.Filters, w io.Writer) (int64, error) {
	return 0, nil
}

func newTestPreview(t *testing.T) (*Server, *dashboard.Session, *httptest.Server) {
	t.Helper()
	board := visuals.NewEChartsBoard()
	session := dashboard.NewSession(stubBackend{}, chart.NewRegistry(board), dashboard.Options{})
	s := New(config.PreviewConfig{Addr: "127.0.0.1:0"}, session, board)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, session, ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestIndexShowsKPIs(t *testing.T) {
	_, session, ts := newTestPreview(t)
	require.NoError(t, session.ApplyFilters(context.Background(), backend.Filters{}))

	status, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<table>")
	assert.Contains(t, body, "1234")
	assert.Contains(t, body, `data-view="severity"`)
	assert.Contains(t, body, `src="/charts?view=overview"`)
}

func TestChartsPage(t *testing.T) {
	_, session, ts := newTestPreview(t)
	require.NoError(t, session.ApplyFilters(context.Background(), backend.Filters{}))

	status, body := get(t, ts.URL+"/charts?view=overview")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "countryRiskChart")
	assert.Contains(t, body, "Japan")

	status, _ = get(t, ts.URL+"/charts?view=nope")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestScriptIsMinified(t *testing.T) {
	_, _, ts := newTestPreview(t)

	status, body := get(t, ts.URL+"/static/app.js")
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body)
	assert.Less(t, len(body), len(appJS))
	assert.NotContains(t, body, "// Live preview glue")
}

func TestMetricsEndpoint(t *testing.T) {
	_, session, ts := newTestPreview(t)
	require.NoError(t, session.ApplyFilters(context.Background(), backend.Filters{}))

	status, body := get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "shipdash_chart_operations_total")
}

func TestSwitchViewEndpoint(t *testing.T) {
	_, session, ts := newTestPreview(t)

	resp, err := http.Post(ts.URL+"/view/frequency", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, dashboard.ViewFrequency, session.ActiveView())

	resp, err = http.Post(ts.URL+"/view/bogus", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocketReceivesChartEvents(t *testing.T) {
	s, session, ts := newTestPreview(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.hub.Run(ctx)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, session.ApplyFilters(context.Background(), backend.Filters{}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var e visuals.Event
	require.NoError(t, json.Unmarshal(data, &e))
	assert.Equal(t, "mount", e.Type)
	assert.NotEmpty(t, e.Target)
}

func TestSummaryMarkdownEscapesResult(t *testing.T) {
	md := summaryMarkdown(backend.KPIs{TotalOrders: 3}, "Mean disruptions: 2.00 | Std: 0.82")
	assert.Contains(t, md, `Mean disruptions: 2.00 \| Std: 0.82`)
	assert.Contains(t, string(summaryHTML(backend.KPIs{}, "")), "<table>")
}
