// Package dashboard turns backend responses into the chart set of the active view.
package dashboard

import (
	"fmt"
	"strings"

	"shipdash/internal/backend"
)

// View is one dashboard tab.
type View string

const (
	ViewOverview   View = "overview"
	ViewFrequency  View = "frequency"
	ViewSeverity   View = "severity"
	ViewSimulation View = "simulation"
)

// Views lists every view in display order.
var Views = []View{ViewOverview, ViewFrequency, ViewSeverity, ViewSimulation}

// ParseView reads a view name case-insensitively.
func ParseView(s string) (View, error) {
	v := View(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Views {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown view %q (expected overview, frequency, severity or simulation)", s)
}

// Chart identities and the targets they are drawn on.
const (
	ChartDelayTrends    = "delayTrends"
	ChartDeliveryStatus = "deliveryStatus"
	ChartCountryRisk    = "countryRisk"
	ChartInterArrival   = "interArrival"
	ChartProfitBox      = "profitBox"
	ChartProfitDensity  = "profitDensity"
	ChartSimCount       = "simCount"
	ChartSimCost        = "simCost"
)

var chartTargets = map[string]string{
	ChartDelayTrends:    "delayTrendsChart",
	ChartDeliveryStatus: "deliveryStatusChart",
	ChartCountryRisk:    "countryRiskChart",
	ChartInterArrival:   "interArrivalChart",
	ChartProfitBox:      "profitBoxChart",
	ChartProfitDensity:  "profitDensityChart",
	ChartSimCount:       "simulationCountChart",
	ChartSimCost:        "simulationCostChart",
}

// Target returns the drawing target of a chart ID.
func Target(chartID string) string {
	return chartTargets[chartID]
}

// ChartsFor lists the chart IDs a view may show.
func ChartsFor(v View) []string {
	switch v {
	case ViewOverview:
		return []string{ChartDelayTrends, ChartDeliveryStatus, ChartCountryRisk}
	case ViewFrequency:
		return []string{ChartInterArrival}
	case ViewSeverity:
		return []string{ChartProfitBox, ChartProfitDensity}
	case ViewSimulation:
		return []string{ChartSimCount, ChartSimCost}
	}
	return nil
}

// TargetsFor lists the drawing targets of a view, in chart order.
func TargetsFor(v View) []string {
	ids := ChartsFor(v)
	targets := make([]string, len(ids))
	for i, id := range ids {
		targets[i] = Target(id)
	}
	return targets
}

// Caches is the snapshot of the last accepted filter response. It is replaced as a whole,
// never mutated.
type Caches struct {
	Aggregates      backend.Aggregates
	CountryRisk     backend.CountryRisk
	InterArrival    []float64
	FilteredRecords []backend.Record
}

// NewCaches builds the cache snapshot of a filter response.
func NewCaches(resp *backend.FilterResponse) Caches {
	if resp == nil {
		return Caches{}
	}
	return Caches{
		Aggregates:      resp.Aggregates,
		CountryRisk:     resp.CountryRisk,
		InterArrival:    resp.InterArrivalTimes,
		FilteredRecords: resp.FilteredRecords,
	}
}
