// Package chart keeps the live set of dashboard charts keyed by chart identity.
package chart

import (
	"fmt"
	"slices"
)

// Kind selects how a chart is drawn.
type Kind string

const (
	KindBar  Kind = "bar"
	KindHBar Kind = "hbar" // horizontal bar, categories on the y axis
	KindLine Kind = "line"
)

// Valid reports whether k is a known chart kind.
func (k Kind) Valid() bool {
	switch k {
	case KindBar, KindHBar, KindLine:
		return true
	}
	return false
}

// Series is one named data series. Data has one value per label.
type Series struct {
	Name  string    `json:"name"`
	Data  []float64 `json:"data"`
	Color string    `json:"color,omitempty"`
	Fill  bool      `json:"fill,omitempty"`
}

// ChartSpec is everything needed to (re)draw a chart.
type ChartSpec struct {
	ID     string   `json:"id"`
	Target string   `json:"target"`
	Kind   Kind     `json:"kind"`
	Title  string   `json:"title,omitempty"`
	Labels []string `json:"labels"`
	Series []Series `json:"series"`

	// XMin and XMax pin the value axis; nil lets the surface scale it.
	XMin *float64 `json:"xMin,omitempty"`
	XMax *float64 `json:"xMax,omitempty"`
}

// Validate checks the structural invariants of a spec.
func (s ChartSpec) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("chart spec has no id")
	}
	if s.Target == "" {
		return fmt.Errorf("chart %q has no target", s.ID)
	}
	if !s.Kind.Valid() {
		return fmt.Errorf("chart %q has unknown kind %q", s.ID, s.Kind)
	}
	for _, series := range s.Series {
		if len(series.Data) != len(s.Labels) {
			return fmt.Errorf("chart %q series %q has %d points for %d labels", s.ID, series.Name, len(series.Data), len(s.Labels))
		}
	}
	return nil
}

// Clone returns a deep copy so callers can never alias registry state.
func (s ChartSpec) Clone() ChartSpec {
	out := s
	out.Labels = slices.Clone(s.Labels)
	out.Series = make([]Series, len(s.Series))
	for i, series := range s.Series {
		series.Data = slices.Clone(series.Data)
		out.Series[i] = series
	}
	if s.XMin != nil {
		out.XMin = Float(*s.XMin)
	}
	if s.XMax != nil {
		out.XMax = Float(*s.XMax)
	}
	return out
}

// Float returns a pointer to v, for ChartSpec axis bounds.
func Float(v float64) *float64 {
	return &v
}

// Snapshot is a read-only copy of a live chart.
type Snapshot struct {
	ChartSpec
	Revision int `json:"revision"`
}
