package dashboard

import (
	"fmt"

	"shipdash/internal/chart"
	"shipdash/internal/stats"

	"github.com/rs/zerolog/log"
)

// Record fields read by the dispatcher.
const (
	fieldDeliveryStatus = "delivery_status"
	fieldProfit         = "order_profit_per_order"
)

// Renderer draws view charts into a registry.
type Renderer struct {
	Registry     *chart.Registry
	Buckets      int
	DensitySteps int
	Policy       stats.NumericPolicy
}

// RenderForView upserts the charts of view from caches, or destroys them when their input is
// empty. Charts of other views are never touched. Rendering the same caches twice is a no-op
// apart from the redraw.
func (r *Renderer) RenderForView(view View, c Caches) error {
	switch view {
	case ViewOverview:
		r.renderOverview(c)
	case ViewFrequency:
		r.renderFrequency(c)
	case ViewSeverity:
		return r.renderSeverity(c)
	case ViewSimulation:
		// drawn by RunSimulation only
	default:
		return fmt.Errorf("unknown view %q", view)
	}
	return nil
}

func (r *Renderer) renderOverview(c Caches) {
	months, delays := aligned(ChartDelayTrends, c.Aggregates.MonthlyLabels, c.Aggregates.AvgDelays)
	r.Registry.Upsert(chart.ChartSpec{
		ID:     ChartDelayTrends,
		Target: Target(ChartDelayTrends),
		Kind:   chart.KindLine,
		Title:  "Delay Trends",
		Labels: months,
		Series: []chart.Series{{Name: "Avg delay (days)", Data: delays, Color: "#2563eb", Fill: true}},
	})

	counts := stats.CountByGroup(c.FilteredRecords, fieldDeliveryStatus)
	r.Registry.Upsert(chart.ChartSpec{
		ID:     ChartDeliveryStatus,
		Target: Target(ChartDeliveryStatus),
		Kind:   chart.KindBar,
		Title:  "Delivery Status",
		Labels: counts.Keys,
		Series: []chart.Series{{Name: "Orders", Data: counts.Values, Color: "#16a34a"}},
	})

	countries, risk := aligned(ChartCountryRisk, c.CountryRisk.Countries, c.CountryRisk.RiskPercentages)
	r.Registry.Upsert(chart.ChartSpec{
		ID:     ChartCountryRisk,
		Target: Target(ChartCountryRisk),
		Kind:   chart.KindHBar,
		Title:  "Country Risk",
		Labels: countries,
		Series: []chart.Series{{Name: "% Late", Data: risk, Color: "#f59e0b"}},
		XMin:   chart.Float(0),
		XMax:   chart.Float(100),
	})
}

func (r *Renderer) renderFrequency(c Caches) {
	if len(c.InterArrival) == 0 {
		r.Registry.Destroy(ChartInterArrival)
		return
	}

	h := stats.ComputeHistogram(c.InterArrival, r.Buckets)
	r.Registry.Upsert(chart.ChartSpec{
		ID:     ChartInterArrival,
		Target: Target(ChartInterArrival),
		Kind:   chart.KindBar,
		Title:  "Inter-arrival Times",
		Labels: h.Labels(),
		Series: []chart.Series{{Name: "Frequency", Data: h.Counts(), Color: "#2563eb"}},
	})
}

func (r *Renderer) renderSeverity(c Caches) error {
	if len(c.FilteredRecords) == 0 {
		r.Registry.Destroy(ChartProfitBox)
		r.Registry.Destroy(ChartProfitDensity)
		return nil
	}

	medians, err := stats.MedianByGroup(c.FilteredRecords, fieldDeliveryStatus, fieldProfit, r.Policy)
	if err != nil {
		// The previous snapshot's charts must not outlive the caches they were drawn from.
		r.Registry.Destroy(ChartProfitBox)
		r.Registry.Destroy(ChartProfitDensity)
		return fmt.Errorf("median profit by status: %w", err)
	}

	profits := make([]float64, 0, len(c.FilteredRecords))
	if r.Policy == stats.PolicySkip {
		for _, rec := range c.FilteredRecords {
			if v, ok := stats.Number(rec, fieldProfit); ok {
				profits = append(profits, v)
			}
		}
	} else {
		profits = stats.Numbers(c.FilteredRecords, fieldProfit)
	}
	curve := stats.ComputeDensity(profits, r.DensitySteps)

	if medians.Empty() {
		r.Registry.Destroy(ChartProfitBox)
	} else {
		r.Registry.Upsert(chart.ChartSpec{
			ID:     ChartProfitBox,
			Target: Target(ChartProfitBox),
			Kind:   chart.KindBar,
			Title:  "Median Profit by Delivery Status",
			Labels: medians.Keys,
			Series: []chart.Series{{Name: "Median Profit", Data: medians.Values, Color: "#9333ea"}},
		})
	}

	if curve.Empty() {
		r.Registry.Destroy(ChartProfitDensity)
		return nil
	}
	r.Registry.Upsert(chart.ChartSpec{
		ID:     ChartProfitDensity,
		Target: Target(ChartProfitDensity),
		Kind:   chart.KindLine,
		Title:  "Profit Density",
		Labels: curve.Labels(),
		Series: []chart.Series{{Name: "Profit Density", Data: curve.Values(), Color: "#ef4444", Fill: true}},
	})
	return nil
}

// aligned trims backend label and value arrays to their common length.
func aligned(chartID string, labels []string, values []float64) ([]string, []float64) {
	if len(labels) == len(values) {
		return labels, values
	}
	n := min(len(labels), len(values))
	log.Warn().
		Str("chart", chartID).
		Int("labels", len(labels)).
		Int("values", len(values)).
		Msg("Backend series length mismatch, trimming to the shorter")
	return labels[:n], values[:n]
}
