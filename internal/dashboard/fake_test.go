package dashboard

import (
	"context"
	"io"
	"strings"
	"sync"

	"shipdash/internal/backend"
	"shipdash/internal/chart"
)

// fakeClient serves canned responses. A non-nil gate blocks Filter until the test releases it.
type fakeClient struct {
	mu       sync.Mutex
	records  []backend.Record
	filter   func(backend.Filters) (*backend.FilterResponse, error)
	simulate func(backend.SimulationRequest) (*backend.SimulationResponse, error)
	gates    map[string]chan struct{}

	lastSim backend.SimulationRequest
	calls   map[string]int
}

func (f *fakeClient) count(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[op]++
}

func (f *fakeClient) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeClient) AllRecords(ctx context.Context) ([]backend.Record, error) {
	f.count("records")
	return f.records, nil
}

func (f *fakeClient) Filter(ctx context.Context, filters backend.Filters) (*backend.FilterResponse, error) {
	f.count("filter")
	f.mu.Lock()
	gate := f.gates[filters.StartDate]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.filter(filters)
}

func (f *fakeClient) Simulate(ctx context.Context, req backend.SimulationRequest) (*backend.SimulationResponse, error) {
	f.count("simulate")
	f.mu.Lock()
	f.lastSim = req
	f.mu.Unlock()
	return f.simulate(req)
}

func (f *fakeClient) ExportCSV(ctx context.Context, filters backend.Filters, w io.Writer) (int64, error) {
	f.count("export")
	n, err := io.Copy(w, strings.NewReader("date_orders,delivery_status\n2021-01-01,"+strings.Join(filters.DeliveryStatus, "|")+"\n"))
	return n, err
}

func sampleResponse() *backend.FilterResponse {
	return &backend.FilterResponse{
		KPIs: backend.KPIs{TotalOrders: 3, LateDeliveryPercent: 66.7, AvgShippingDelay: 2.1, AvgProfit: 15},
		FilteredRecords: []backend.Record{
			{"delivery_status": "Late", "order_profit_per_order": 10.0},
			{"delivery_status": "Late", "order_profit_per_order": 30.0},
			{"delivery_status": "OnTime", "order_profit_per_order": 5.0},
		},
		Aggregates:        backend.Aggregates{MonthlyLabels: []string{"2021-01", "2021-02"}, AvgDelays: []float64{1.5, 2.5}},
		CountryRisk:       backend.CountryRisk{Countries: []string{"France"}, RiskPercentages: []float64{40}},
		InterArrivalTimes: []float64{1, 2, 3, 4, 5, 100},
	}
}

func emptyResponse() *backend.FilterResponse {
	return &backend.FilterResponse{
		FilteredRecords:   []backend.Record{},
		Aggregates:        backend.Aggregates{MonthlyLabels: []string{}, AvgDelays: []float64{}},
		CountryRisk:       backend.CountryRisk{Countries: []string{}, RiskPercentages: []float64{}},
		InterArrivalTimes: []float64{},
	}
}

type recordingSurface struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingSurface) Mount(s chart.Snapshot)   { r.add("mount " + s.ID) }
func (r *recordingSurface) Redraw(s chart.Snapshot)  { r.add("redraw " + s.ID) }
func (r *recordingSurface) Unmount(id, target string) { r.add("unmount " + id) }

func (r *recordingSurface) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingSurface) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recordingSurface) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
