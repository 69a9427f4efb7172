package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultBuckets is the bucket count used for inter-arrival histograms.
const DefaultBuckets = 20

// Bucket is one equal-width histogram bin.
type Bucket struct {
	Lower float64 `json:"lower"`
	Count int     `json:"count"`
}

// Histogram is a fixed number of contiguous equal-width buckets spanning [Min, Max].
// The zero value is the empty histogram.
type Histogram struct {
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Width   float64  `json:"width"`
	Buckets []Bucket `json:"buckets"`
}

// ComputeHistogram bins samples into bucketCount equal-width buckets.
// The maximum sample is absorbed into the last bucket. Sample order does not affect the result.
func ComputeHistogram(samples []float64, bucketCount int) Histogram {
	if len(samples) == 0 {
		return Histogram{}
	}
	if bucketCount < 1 {
		bucketCount = DefaultBuckets
	}

	lo := floats.Min(samples)
	hi := floats.Max(samples)
	width := math.Max(widthFloor, (hi-lo)/float64(bucketCount))

	h := Histogram{
		Min:     lo,
		Max:     hi,
		Width:   width,
		Buckets: make([]Bucket, bucketCount),
	}
	for i := range h.Buckets {
		h.Buckets[i].Lower = lo + float64(i)*width
	}
	for _, v := range samples {
		h.Buckets[h.BucketOf(v)].Count++
	}
	return h
}

// BucketOf returns the bucket index a value falls into, clamped to the histogram's range.
func (h Histogram) BucketOf(v float64) int {
	idx := int(math.Floor((v - h.Min) / h.Width))
	if idx >= len(h.Buckets) {
		idx = len(h.Buckets) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// Empty reports whether there is nothing to draw.
func (h Histogram) Empty() bool {
	return len(h.Buckets) == 0
}

// Labels returns each bucket's lower bound with one decimal.
func (h Histogram) Labels() []string {
	labels := make([]string, len(h.Buckets))
	for i, b := range h.Buckets {
		labels[i] = fmt.Sprintf("%.1f", b.Lower)
	}
	return labels
}

// Counts returns the bucket counts as a chart series.
func (h Histogram) Counts() []float64 {
	counts := make([]float64, len(h.Buckets))
	for i, b := range h.Buckets {
		counts[i] = float64(b.Count)
	}
	return counts
}

// Total is the number of binned samples.
func (h Histogram) Total() int {
	total := 0
	for _, b := range h.Buckets {
		total += b.Count
	}
	return total
}
