package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"shipdash/internal/backend"
)

// NumericPolicy decides what happens to a value that cannot be read as a number.
type NumericPolicy string

const (
	// PolicyZero coerces invalid values to 0. Lossy, and the dashboard's historical behaviour.
	PolicyZero NumericPolicy = "zero"
	// PolicySkip leaves invalid values out of their partition.
	PolicySkip NumericPolicy = "skip"
	// PolicyFail aborts the aggregation with ErrInvalidNumeric.
	PolicyFail NumericPolicy = "fail"
)

// ErrInvalidNumeric is returned under PolicyFail.
var ErrInvalidNumeric = errors.New("invalid numeric value")

// Valid reports whether p is a known policy.
func (p NumericPolicy) Valid() bool {
	switch p {
	case PolicyZero, PolicySkip, PolicyFail:
		return true
	}
	return false
}

// GroupAggregate maps categorical keys to one statistic each. Keys keep first-appearance order.
type GroupAggregate struct {
	Keys   []string  `json:"keys"`
	Values []float64 `json:"values"`
}

// Empty reports whether there is nothing to draw.
func (g GroupAggregate) Empty() bool {
	return len(g.Keys) == 0
}

// Get returns the statistic for key.
func (g GroupAggregate) Get(key string) (float64, bool) {
	for i, k := range g.Keys {
		if k == key {
			return g.Values[i], true
		}
	}
	return 0, false
}

// MedianByGroup partitions records by groupKey and returns the median of valueField per partition.
// Under PolicySkip a partition left without any valid value is omitted.
func MedianByGroup(records []backend.Record, groupKey, valueField string, policy NumericPolicy) (GroupAggregate, error) {
	if !policy.Valid() {
		policy = PolicyZero
	}

	var order []string
	partitions := make(map[string][]float64)

	for i, r := range records {
		key := groupKeyOf(r, groupKey)
		if _, seen := partitions[key]; !seen {
			order = append(order, key)
			partitions[key] = nil
		}

		v, ok := toNumber(r[valueField])
		if !ok {
			switch policy {
			case PolicyFail:
				return GroupAggregate{}, fmt.Errorf("record %d field %q = %v: %w", i, valueField, r[valueField], ErrInvalidNumeric)
			case PolicySkip:
				continue
			default:
				v = 0
			}
		}
		partitions[key] = append(partitions[key], v)
	}

	agg := GroupAggregate{Keys: []string{}, Values: []float64{}}
	for _, key := range order {
		values := partitions[key]
		if len(values) == 0 {
			continue
		}
		agg.Keys = append(agg.Keys, key)
		agg.Values = append(agg.Values, Median(values))
	}
	return agg, nil
}

// CountByGroup counts records per groupKey value in first-appearance order.
func CountByGroup(records []backend.Record, groupKey string) GroupAggregate {
	agg := GroupAggregate{Keys: []string{}, Values: []float64{}}
	index := make(map[string]int)
	for _, r := range records {
		key := groupKeyOf(r, groupKey)
		i, ok := index[key]
		if !ok {
			i = len(agg.Keys)
			index[key] = i
			agg.Keys = append(agg.Keys, key)
			agg.Values = append(agg.Values, 0)
		}
		agg.Values[i]++
	}
	return agg
}

// Numbers extracts field from every record, coercing invalid values to 0.
func Numbers(records []backend.Record, field string) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i], _ = toNumber(r[field])
	}
	return out
}

// Number reads field from one record. ok is false when the value is missing or not numeric.
func Number(r backend.Record, field string) (v float64, ok bool) {
	return toNumber(r[field])
}

func groupKeyOf(r backend.Record, field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// toNumber reads v as a finite number. The bool result is false for anything else,
// in which case the returned value is 0.
func toNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
