package visuals

import (
	"fmt"
	"strings"
	"testing"

	"shipdash/internal/chart"
)

func TestGenerateChart_Kinds(t *testing.T) {
	tests := []struct {
		name     string
		spec     chart.ChartSpec
		contains []string
	}{
		{
			name: "Bar",
			spec: chart.ChartSpec{ID: "deliveryStatus", Target: "deliveryStatusChart", Kind: chart.KindBar, Title: "Delivery Status",
				Labels: []string{"Late", "On time"}, Series: []chart.Series{{Name: "Orders", Data: []float64{20, 5}}}},
			contains: []string{"xychart-beta\n", `title "Delivery Status"`, `x-axis ["Late", "On time"]`, `y-axis "Orders" 0 --> `, "bar [20, 5]"},
		},
		{
			name: "HorizontalBarPinnedAxis",
			spec: chart.ChartSpec{ID: "countryRisk", Target: "countryRiskChart", Kind: chart.KindHBar,
				Labels: []string{"France"}, Series: []chart.Series{{Name: "Late %", Data: []float64{42.5}}},
				XMin: chart.Float(0), XMax: chart.Float(100)},
			contains: []string{"xychart-beta horizontal", `y-axis "Late %" 0 --> 100`, "bar [42.50]"},
		},
		{
			name: "Line",
			spec: chart.ChartSpec{ID: "delayTrends", Target: "delayTrendsChart", Kind: chart.KindLine,
				Labels: []string{"2021-01", "2021-02"}, Series: []chart.Series{{Name: "Avg delay", Data: []float64{1.25, 0.5}}}},
			contains: []string{"line [1.25, 0.50]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateChart(tt.spec)
			if !strings.HasPrefix(got, "```mermaid\n") || !strings.HasSuffix(got, "```") {
				t.Fatalf("not a fenced mermaid block:\n%s", got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
		})
	}
}

func TestGenerateChart_AxisCoversNegativeValues(t *testing.T) {
	tests := []struct {
		name   string
		data   []float64
		lo, hi float64
	}{
		{"AllNegative", []float64{-40, -10}, -40, 0},
		{"Mixed", []float64{-20, 30}, -20, 30},
		{"AllPositive", []float64{20, 5}, 0, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateChart(chart.ChartSpec{ID: "profitBox", Kind: chart.KindBar,
				Labels: []string{"Late", "On time"}, Series: []chart.Series{{Name: "Median Profit", Data: tt.data}}})

			var lo, hi float64
			found := false
			for _, line := range strings.Split(got, "\n") {
				line = strings.TrimSpace(line)
				if rest, ok := strings.CutPrefix(line, `y-axis "Median Profit" `); ok {
					if _, err := fmt.Sscanf(rest, "%g --> %g", &lo, &hi); err != nil {
						t.Fatalf("unparsable y-axis line %q: %v", line, err)
					}
					found = true
				}
			}
			if !found {
				t.Fatalf("no y-axis line:\n%s", got)
			}
			if lo > tt.lo || hi < tt.hi {
				t.Errorf("y-axis %v --> %v does not cover [%v, %v]", lo, hi, tt.lo, tt.hi)
			}
			if tt.lo == 0 && lo != 0 {
				t.Errorf("non-negative data must keep a zero baseline, got %v", lo)
			}
		})
	}
}

func TestGenerateChart_EmptyAndSubsampled(t *testing.T) {
	if got := GenerateChart(chart.ChartSpec{ID: "x", Kind: chart.KindBar}); got != "" {
		t.Errorf("expected empty output for a chart without labels, got %q", got)
	}

	n := 1000
	labels := make([]string, n)
	data := make([]float64, n)
	for i := range labels {
		labels[i] = "l"
		data[i] = float64(i)
	}
	got := GenerateChart(chart.ChartSpec{ID: "simCost", Kind: chart.KindLine, Labels: labels, Series: []chart.Series{{Data: data}}})

	// ceil(1000/60) = 17 -> indices 0,17,...,986 plus the last point
	if strings.Count(got, `"l"`) != 60 {
		t.Errorf("expected 60 labels after subsampling, got %d", strings.Count(got, `"l"`))
	}
	if !strings.Contains(got, ", 999]") {
		t.Errorf("last point must survive subsampling")
	}
}

func TestMermaidBoard_Surface(t *testing.T) {
	board := NewMermaidBoard()
	reg := chart.NewRegistry(board)

	reg.Upsert(chart.ChartSpec{ID: "simCount", Target: "simCountChart", Kind: chart.KindBar,
		Labels: []string{"1", "2"}, Series: []chart.Series{{Name: "Disruptions", Data: []float64{3, 4}}}})
	first, ok := board.Render("simCountChart")
	if !ok || !strings.Contains(first, "bar [3, 4]") {
		t.Fatalf("mount not rendered: %q", first)
	}

	reg.Upsert(chart.ChartSpec{ID: "simCount", Target: "simCountChart", Kind: chart.KindBar,
		Labels: []string{"1"}, Series: []chart.Series{{Name: "Disruptions", Data: []float64{9}}}})
	if got, _ := board.Render("simCountChart"); !strings.Contains(got, "bar [9]") {
		t.Errorf("redraw not rendered: %q", got)
	}

	if md := board.Markdown("missing", "simCountChart"); !strings.Contains(md, "bar [9]") {
		t.Errorf("Markdown() = %q", md)
	}

	reg.Destroy("simCount")
	if _, ok := board.Render("simCountChart"); ok {
		t.Errorf("unmount should clear the target")
	}
}
