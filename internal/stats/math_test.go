package stats

import (
	"testing"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"Empty", []float64{}, 0},
		{"SingleItem", []float64{5.5}, 5.5},
		{"OddCount", []float64{1.1, 3.3, 2.2, 4.4, 5.5}, 3.3},
		{"EvenCount", []float64{1.1, 2.2, 3.3, 4.4}, 2.75},
		{"Unsorted", []float64{10.5, 2.5, 8.5, 4.5, 6.5}, 6.5},
		{"Negative", []float64{-100, 50, -20}, -20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Median(tt.values); got != tt.expected {
				t.Errorf("Median() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMedian_DoesNotMutate(t *testing.T) {
	values := []float64{3, 1, 2}
	Median(values)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("Median() mutated its input: %v", values)
	}
}
