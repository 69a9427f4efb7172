package stats

import (
	"math"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultDensitySteps is the number of intervals the density curve is evaluated over.
const DefaultDensitySteps = 50

// DensityPoint is one evaluation of the density curve.
type DensityPoint struct {
	X       float64 `json:"x"`
	Density float64 `json:"density"`
}

// DensityCurve is a Gaussian kernel density estimate evaluated at evenly spaced points.
type DensityCurve struct {
	Bandwidth float64        `json:"bandwidth"`
	Points    []DensityPoint `json:"points"`
}

// ComputeDensity estimates the density of samples with a fixed-bandwidth Gaussian kernel,
// evaluated at steps+1 evenly spaced points over [min, max]. The bandwidth is a tenth of the
// sample range, floored so constant samples still produce a (sharply peaked) curve.
//
// Cost is O(steps * n).
func ComputeDensity(samples []float64, steps int) DensityCurve {
	if len(samples) == 0 {
		return DensityCurve{}
	}
	if steps < 1 {
		steps = DefaultDensitySteps
	}

	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	bw := math.Max(widthFloor, (hi-lo)/10)
	norm := float64(len(sorted)) * bw

	xs := make([]float64, steps+1)
	floats.Span(xs, lo, hi)

	curve := DensityCurve{
		Bandwidth: bw,
		Points:    make([]DensityPoint, len(xs)),
	}
	for i, x := range xs {
		sum := 0.0
		for _, p := range sorted {
			sum += distuv.UnitNormal.Prob((x - p) / bw)
		}
		curve.Points[i] = DensityPoint{X: x, Density: sum / norm}
	}
	return curve
}

// Empty reports whether there is nothing to draw.
func (c DensityCurve) Empty() bool {
	return len(c.Points) == 0
}

// Labels returns the evaluation points rounded to the nearest integer, for display only.
func (c DensityCurve) Labels() []string {
	labels := make([]string, len(c.Points))
	for i, p := range c.Points {
		r := math.Round(p.X)
		if r == 0 {
			r = 0 // drop the sign of -0
		}
		labels[i] = strconv.FormatFloat(r, 'f', 0, 64)
	}
	return labels
}

// Values returns the density series.
func (c DensityCurve) Values() []float64 {
	values := make([]float64, len(c.Points))
	for i, p := range c.Points {
		values[i] = p.Density
	}
	return values
}
