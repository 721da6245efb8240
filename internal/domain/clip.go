package domain

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/series"
)

// ClipResult reports the outcome of clipping a dataset.
type ClipResult struct {
	Dataset *Dataset
	// Changed is the number of values moved onto a bound.
	Changed int
	// ByColumn splits Changed per clipped column.
	ByColumn map[string]int
	// Lo and Hi are the bounds applied, in ascending order.
	Lo, Hi float64
}

// Clip returns a copy of the dataset with column values clamped to [lo, hi].
// Bounds given in the wrong order are swapped. Missing values stay missing.
func (d *Dataset) Clip(column string, lo, hi float64) (ClipResult, error) {
	return d.ClipColumns([]string{column}, lo, hi)
}

// ClipColumns clamps several numeric columns to the same range.
func (d *Dataset) ClipColumns(columns []string, lo, hi float64) (ClipResult, error) {
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return ClipResult{}, fmt.Errorf("clip [%s, %s]: %w", FormatFloat(lo), FormatFloat(hi), ErrInvalidRange)
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	if len(columns) == 0 {
		return ClipResult{}, fmt.Errorf("clip: %w", ErrNoData)
	}

	df := d.frame.Copy()
	changed := 0
	byColumn := make(map[string]int, len(columns))
	for _, col := range columns {
		vs, err := d.Floats(col)
		if err != nil {
			return ClipResult{}, fmt.Errorf("clip: %w", err)
		}
		out := make([]float64, len(vs))
		for i, v := range vs {
			c := ClampValue(v, lo, hi)
			if c != v && !math.IsNaN(v) {
				changed++
				byColumn[col]++
			}
			out[i] = c
		}
		df = df.Mutate(series.New(out, series.Float, col))
		if df.Err != nil {
			return ClipResult{}, fmt.Errorf("clip %s: %w", col, df.Err)
		}
	}

	clipped, err := d.derive(df)
	if err != nil {
		return ClipResult{}, err
	}
	return ClipResult{Dataset: clipped, Changed: changed, ByColumn: byColumn, Lo: lo, Hi: hi}, nil
}

// ClampValue bounds v to [lo, hi], passing NaN through.
func ClampValue(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v):
		return v
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
