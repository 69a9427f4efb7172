package visuals

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"shipdash/internal/chart"
)

// maxMermaidPoints is roughly where Mermaid's xychart layout starts overlapping axis text.
const maxMermaidPoints = 60

// MermaidBoard is a chart surface that keeps one Mermaid xychart-beta block per target.
type MermaidBoard struct {
	mu     sync.RWMutex
	blocks map[string]string
}

// NewMermaidBoard creates an empty board.
func NewMermaidBoard() *MermaidBoard {
	return &MermaidBoard{blocks: make(map[string]string)}
}

func (b *MermaidBoard) Mount(s chart.Snapshot) {
	b.set(s)
}

func (b *MermaidBoard) Redraw(s chart.Snapshot) {
	b.set(s)
}

func (b *MermaidBoard) Unmount(_, target string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blocks, target)
}

func (b *MermaidBoard) set(s chart.Snapshot) {
	block := GenerateChart(s.ChartSpec)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blocks[s.Target] = block
}

// Render returns the block currently drawn on target.
func (b *MermaidBoard) Render(target string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	block, ok := b.blocks[target]
	return block, ok
}

// Markdown joins the blocks of the given targets in order, skipping empty targets.
func (b *MermaidBoard) Markdown(targets ...string) string {
	var parts []string
	for _, target := range targets {
		if block, ok := b.Render(target); ok && block != "" {
			parts = append(parts, block)
		}
	}
	return strings.Join(parts, "\n\n")
}

// GenerateChart renders a chart spec as a fenced Mermaid xychart-beta block.
// Charts wider than Mermaid can lay out are subsampled, always keeping the last point.
func GenerateChart(spec chart.ChartSpec) string {
	if len(spec.Labels) == 0 {
		return ""
	}

	step := 1
	if len(spec.Labels) > maxMermaidPoints {
		step = int(math.Ceil(float64(len(spec.Labels)) / maxMermaidPoints))
	}
	keep := func(i int) bool { return i%step == 0 || i == len(spec.Labels)-1 }

	var labels []string
	for i, l := range spec.Labels {
		if keep(i) {
			labels = append(labels, quote(l))
		}
	}

	minY, maxY := 0.0, 0.0
	var rows []string
	for _, series := range spec.Series {
		var values []string
		for i, v := range series.Data {
			if !keep(i) {
				continue
			}
			values = append(values, formatValue(v))
			maxY = math.Max(maxY, v)
			minY = math.Min(minY, v)
		}
		mark := "bar"
		if spec.Kind == chart.KindLine {
			mark = "line"
		}
		rows = append(rows, fmt.Sprintf("    %s [%s]\n", mark, strings.Join(values, ", ")))
	}

	// The axis always includes zero so bars keep their baseline.
	lo, hi := minY*1.1, maxY*1.1
	if spec.XMin != nil {
		lo = *spec.XMin
	}
	if spec.XMax != nil {
		hi = *spec.XMax
	}
	if hi <= lo {
		hi = lo + 1
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	if spec.Kind == chart.KindHBar {
		sb.WriteString("xychart-beta horizontal\n")
	} else {
		sb.WriteString("xychart-beta\n")
	}
	if spec.Title != "" {
		sb.WriteString(fmt.Sprintf("    title %s\n", quote(spec.Title)))
	}
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	yName := spec.ID
	if len(spec.Series) > 0 && spec.Series[0].Name != "" {
		yName = spec.Series[0].Name
	}
	sb.WriteString(fmt.Sprintf("    y-axis %s %s --> %s\n", quote(yName), formatValue(math.Floor(lo)), formatValue(math.Ceil(hi))))
	for _, row := range rows {
		sb.WriteString(row)
	}
	sb.WriteString("```")
	return sb.String()
}

func quote(s string) string {
	// Mermaid has no escape for double quotes inside labels.
	return "\"" + strings.ReplaceAll(s, "\"", "'") + "\""
}

func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%.0f", v)
	}
	if math.Abs(v) < 0.01 {
		return fmt.Sprintf("%.6f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
