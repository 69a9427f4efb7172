package stats

import "slices"

// widthFloor guards bucket widths and kernel bandwidths against division by zero
// when every sample has the same value.
const widthFloor = 1e-6

// Median finds the median value in a slice of floats without mutating it.
// Odd lengths return the middle element, even lengths the mean of the two middle elements.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	temp := make([]float64, len(values))
	copy(temp, values)
	slices.Sort(temp)

	n := len(temp)
	if n%2 == 1 {
		return temp[n/2]
	}
	return (temp[n/2-1] + temp[n/2]) / 2.0
}
