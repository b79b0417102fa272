// Package gapfill turns sparse bucket sums into dense, ordered series.
package gapfill

// Point is one entry of a dense series.
type Point struct {
	Key   string
	Value float64
}

type HourPoint struct {
	Hour  int
	Value float64
}

// Fill emits exactly one point per key, in the order of keys. Keys missing
// from sparse get 0, present values are copied unchanged and sparse entries
// not listed in keys are dropped.
func Fill(sparse map[string]float64, keys []string) []Point {
	out := make([]Point, len(keys))
	for i, k := range keys {
		out[i] = Point{Key: k, Value: sparse[k]}
	}
	return out
}

// Dense converts a series back to its map form. Fill(Dense(p), keys) == p
// for any p produced by Fill with the same keys.
func Dense(points []Point) map[string]float64 {
	m := make(map[string]float64, len(points))
	for _, p := range points {
		m[p.Key] = p.Value
	}
	return m
}

// FillHours returns all 24 hours of a day.
func FillHours(sparse map[int]float64) []HourPoint {
	out := make([]HourPoint, 24)
	for h := range out {
		out[h] = HourPoint{Hour: h, Value: sparse[h]}
	}
	return out
}
