package stats

import (
	"math"
	"strings"
	"testing"

	"shipdash/internal/backend"
)

func TestSummarizeSimulation(t *testing.T) {
	s, err := SummarizeSimulation([]float64{1, 2, 3}, []float64{100, 200, 150})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.MeanDisruptions != 2 {
		t.Errorf("MeanDisruptions = %v, want 2", s.MeanDisruptions)
	}
	if math.Abs(s.StdDisruptions-math.Sqrt(2.0/3.0)) > 1e-9 {
		t.Errorf("StdDisruptions = %v, want population std %v", s.StdDisruptions, math.Sqrt(2.0/3.0))
	}
	if s.MeanTotalCost != 150 {
		t.Errorf("MeanTotalCost = %v, want 150", s.MeanTotalCost)
	}
	if s.MaxCost != 200 {
		t.Errorf("MaxCost = %v, want 200", s.MaxCost)
	}
	if s.Var95 < 100 || s.Var95 > 200 || s.Var99 < s.Var95 {
		t.Errorf("VaR out of range: var95=%v var99=%v", s.Var95, s.Var99)
	}
}

func TestSummarizeSimulation_Empty(t *testing.T) {
	if _, err := SummarizeSimulation(nil, nil); err == nil {
		t.Errorf("expected error for empty input")
	}
}

func TestFormatSimulationResult(t *testing.T) {
	got := FormatSimulationResult(backend.SimulationStats{
		MeanDisruptions: 2,
		StdDisruptions:  0.8165,
		MeanTotalCost:   150,
		Var95:           195,
		Var99:           199,
		MaxCost:         200,
	})

	want := "Mean disruptions: 2.00 | Std: 0.82 | Mean cost: $150 | 95% VaR: $195 | 99% VaR: $199 | Max cost: $200"
	if got != want {
		t.Errorf("FormatSimulationResult() = %q, want %q", got, want)
	}
	if !strings.Contains(got, "Mean disruptions: 2.00") {
		t.Errorf("missing mean disruptions in %q", got)
	}
}
