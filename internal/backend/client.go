package backend

import (
	"context"
	"io"
	"time"
)

// Record is one shipment/order row as returned by the backend. Field values keep their JSON
// types (float64, string, bool, nil).
type Record map[string]any

// Filters is the filter set posted to the backend. Empty values mean "no restriction".
type Filters struct {
	StartDate       string   `json:"startDate"`
	EndDate         string   `json:"endDate"`
	DeliveryStatus  []string `json:"deliveryStatus"`
	CustomerCountry []string `json:"customerCountry"`
	Category        []string `json:"category"`
}

// KPIs summarises the filtered record set.
type KPIs struct {
	TotalOrders         int     `json:"total_orders"`
	LateDeliveryPercent float64 `json:"late_delivery_percent"`
	AvgShippingDelay    float64 `json:"avg_shipping_delay"`
	AvgProfit           float64 `json:"avg_profit"`
}

// Aggregates holds the monthly average shipping delay series.
type Aggregates struct {
	MonthlyLabels []string  `json:"monthly_labels"`
	AvgDelays     []float64 `json:"avg_delays"`
}

// CountryRisk holds the late-delivery percentage per customer country.
type CountryRisk struct {
	Countries       []string  `json:"countries"`
	RiskPercentages []float64 `json:"risk_percentages"`
}

// FilterResponse is the backend's answer to a filter application.
type FilterResponse struct {
	KPIs              KPIs        `json:"kpis"`
	FilteredRecords   []Record    `json:"filtered_records"`
	Aggregates        Aggregates  `json:"aggregates"`
	CountryRisk       CountryRisk `json:"country_risk"`
	InterArrivalTimes []float64   `json:"inter_arrival_times"`
}

// SimulationRequest parameterises a Monte-Carlo disruption run.
type SimulationRequest struct {
	NumSimulations    int       `json:"numSimulations"`
	TimeHorizon       int       `json:"timeHorizon"`
	Distribution      string    `json:"distribution"`
	InterArrivalTimes []float64 `json:"inter_arrival_times"`
}

// SimulationStats are the summary statistics reported for a simulation run.
type SimulationStats struct {
	MeanDisruptions float64 `json:"meanDisruptions"`
	StdDisruptions  float64 `json:"stdDisruptions"`
	MeanTotalCost   float64 `json:"meanTotalCost"`
	Var95           float64 `json:"var95"`
	Var99           float64 `json:"var99"`
	MaxCost         float64 `json:"maxCost"`
}

// SimulationResponse is either a successful run or a backend-reported error.
// A non-empty Error means the run failed and the other fields are meaningless.
type SimulationResponse struct {
	DisruptionCounts []float64        `json:"disruptionCounts"`
	TotalCosts       []float64        `json:"totalCosts"`
	Stats            *SimulationStats `json:"stats,omitempty"`
	Error            string           `json:"error,omitempty"`
}

// Client is the interface for talking to the dashboard backend.
type Client interface {
	AllRecords(ctx context.Context) ([]Record, error)
	Filter(ctx context.Context, filters Filters) (*FilterResponse, error)
	Simulate(ctx context.Context, req SimulationRequest) (*SimulationResponse, error)
	ExportCSV(ctx context.Context, filters Filters, w io.Writer) (int64, error)
}

// Config holds the connection settings for the backend.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// RecordsTTL bounds how long the unfiltered dataset is cached. Zero means 10 minutes.
	RecordsTTL time.Duration
}

// NewClient creates a new backend client based on the provided configuration.
func NewClient(cfg Config) Client {
	return NewHTTPClient(cfg)
}
