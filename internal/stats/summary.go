package stats

import (
	"errors"
	"fmt"

	"shipdash/internal/backend"

	mstats "github.com/montanaflynn/stats"
)

// SummarizeSimulation recomputes the run statistics from raw simulation output.
// It is the fallback for backend responses that omit stats.
func SummarizeSimulation(counts, costs []float64) (backend.SimulationStats, error) {
	if len(counts) == 0 || len(costs) == 0 {
		return backend.SimulationStats{}, errors.New("simulation produced no runs")
	}

	var s backend.SimulationStats
	var err error

	if s.MeanDisruptions, err = mstats.Mean(counts); err != nil {
		return s, fmt.Errorf("mean disruptions: %w", err)
	}
	if s.StdDisruptions, err = mstats.StandardDeviationPopulation(counts); err != nil {
		return s, fmt.Errorf("std disruptions: %w", err)
	}
	if s.MeanTotalCost, err = mstats.Mean(costs); err != nil {
		return s, fmt.Errorf("mean cost: %w", err)
	}
	if s.Var95, err = mstats.Percentile(costs, 95); err != nil {
		return s, fmt.Errorf("var95: %w", err)
	}
	if s.Var99, err = mstats.Percentile(costs, 99); err != nil {
		return s, fmt.Errorf("var99: %w", err)
	}
	if s.MaxCost, err = mstats.Max(costs); err != nil {
		return s, fmt.Errorf("max cost: %w", err)
	}
	return s, nil
}

// FormatSimulationResult renders the one-line summary shown under the simulation charts.
func FormatSimulationResult(s backend.SimulationStats) string {
	return fmt.Sprintf("Mean disruptions: %.2f | Std: %.2f | Mean cost: $%.0f | 95%% VaR: $%.0f | 99%% VaR: $%.0f | Max cost: $%.0f",
		s.MeanDisruptions, s.StdDisruptions, s.MeanTotalCost, s.Var95, s.Var99, s.MaxCost)
}
