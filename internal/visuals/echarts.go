package visuals

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"shipdash/internal/chart"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Event describes one change on an EChartsBoard.
type Event struct {
	Type     string `json:"type"` // mount, redraw or unmount
	Target   string `json:"target"`
	ChartID  string `json:"chartId"`
	Revision int    `json:"revision,omitempty"`
}

// EChartsBoard is a chart surface that renders live charts as an ECharts HTML page.
type EChartsBoard struct {
	mu        sync.RWMutex
	charts    map[string]chart.Snapshot // by target
	listeners []func(Event)
}

// NewEChartsBoard creates an empty board.
func NewEChartsBoard() *EChartsBoard {
	return &EChartsBoard{charts: make(map[string]chart.Snapshot)}
}

// OnChange registers fn to be called after every mount, redraw and unmount.
// fn runs synchronously and must not block.
func (b *EChartsBoard) OnChange(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

func (b *EChartsBoard) Mount(s chart.Snapshot) {
	b.store(s)
	b.notify(Event{Type: "mount", Target: s.Target, ChartID: s.ID, Revision: s.Revision})
}

func (b *EChartsBoard) Redraw(s chart.Snapshot) {
	b.store(s)
	b.notify(Event{Type: "redraw", Target: s.Target, ChartID: s.ID, Revision: s.Revision})
}

func (b *EChartsBoard) Unmount(id, target string) {
	b.mu.Lock()
	delete(b.charts, target)
	b.mu.Unlock()
	b.notify(Event{Type: "unmount", Target: target, ChartID: id})
}

func (b *EChartsBoard) store(s chart.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.charts[s.Target] = s
}

func (b *EChartsBoard) notify(e Event) {
	b.mu.RLock()
	listeners := append([]func(Event){}, b.listeners...)
	b.mu.RUnlock()
	for _, fn := range listeners {
		fn(e)
	}
}

// Targets lists the targets that currently hold a chart, sorted.
func (b *EChartsBoard) Targets() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	targets := make([]string, 0, len(b.charts))
	for t := range b.charts {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// Page writes an HTML page with the charts on the given targets, or on every target when
// none are given. Targets without a chart are skipped.
func (b *EChartsBoard) Page(w io.Writer, title string, targets ...string) error {
	if len(targets) == 0 {
		targets = b.Targets()
	}

	page := components.NewPage()
	page.PageTitle = title

	added := 0
	b.mu.RLock()
	for _, target := range targets {
		s, ok := b.charts[target]
		if !ok {
			continue
		}
		page.AddCharts(buildChart(s))
		added++
	}
	b.mu.RUnlock()

	if added == 0 {
		_, err := fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>%s</title></head><body><p>No charts to display.</p></body></html>", title)
		return err
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render charts: %w", err)
	}
	return nil
}

func buildChart(s chart.Snapshot) components.Charter {
	global := []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: s.Title}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(len(s.Series) > 1),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: s.Target,
			Width:   "100%",
			Height:  "360px",
		}),
	}

	switch s.Kind {
	case chart.KindLine:
		line := charts.NewLine()
		line.SetGlobalOptions(global...)
		line.SetXAxis(s.Labels)
		for _, series := range s.Series {
			data := make([]opts.LineData, len(series.Data))
			for i, v := range series.Data {
				data[i] = opts.LineData{Value: v}
			}
			seriesOpts := []charts.SeriesOpts{
				charts.WithLineChartOpts(opts.LineChart{
					Smooth:     opts.Bool(true),
					ShowSymbol: opts.Bool(len(series.Data) <= 60),
				}),
			}
			if series.Color != "" {
				seriesOpts = append(seriesOpts, charts.WithItemStyleOpts(opts.ItemStyle{Color: series.Color}))
			}
			if series.Fill {
				seriesOpts = append(seriesOpts, charts.WithAreaStyleOpts(opts.AreaStyle{
					Opacity: 0.2,
				}))
			}
			line.AddSeries(series.Name, data, seriesOpts...)
		}
		return line

	default:
		bar := charts.NewBar()
		if s.Kind == chart.KindHBar {
			axis := opts.XAxis{Type: "value"}
			if s.XMin != nil {
				axis.Min = *s.XMin
			}
			if s.XMax != nil {
				axis.Max = *s.XMax
			}
			global = append(global, charts.WithXAxisOpts(axis))
		}
		bar.SetGlobalOptions(global...)
		bar.SetXAxis(s.Labels)
		for _, series := range s.Series {
			data := make([]opts.BarData, len(series.Data))
			for i, v := range series.Data {
				data[i] = opts.BarData{Value: v}
			}
			var seriesOpts []charts.SeriesOpts
			if series.Color != "" {
				seriesOpts = append(seriesOpts, charts.WithItemStyleOpts(opts.ItemStyle{Color: series.Color}))
			}
			bar.AddSeries(series.Name, data, seriesOpts...)
		}
		if s.Kind == chart.KindHBar {
			bar.XYReversal()
		}
		return bar
	}
}
