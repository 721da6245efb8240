package domain

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ColumnSummary holds descriptive statistics of one numeric column.
// Fields are NaN when the column has too few values to define them.
type ColumnSummary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// CategoricalSummary describes a non-numeric column.
type CategoricalSummary struct {
	Column string
	Count  int
	Unique int
	Top    string
	Freq   int
}

// Summary is the result of Describe. Exactly one of Numeric and Categorical
// is populated.
type Summary struct {
	Numeric     []ColumnSummary
	Categorical []CategoricalSummary
}

// Describe summarizes every numeric column, or every column when the dataset
// has none.
func (d *Dataset) Describe() Summary {
	numeric := d.NumericColumns()
	if len(numeric) == 0 {
		return Summary{Categorical: d.describeCategorical()}
	}
	out := make([]ColumnSummary, 0, len(numeric))
	for _, col := range numeric {
		vs, _ := d.Values(col)
		out = append(out, Summarize(col, vs))
	}
	return Summary{Numeric: out}
}

// Summarize computes descriptive statistics over non-missing values.
func Summarize(column string, values []float64) ColumnSummary {
	s := ColumnSummary{Column: column, Count: len(values)}
	if len(values) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Q25, s.Median, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s.Mean = stat.Mean(sorted, nil)
	s.Std = math.NaN()
	if len(sorted) > 1 {
		s.Std = stat.StdDev(sorted, nil)
	}
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Q25 = Quantile(sorted, 0.25)
	s.Median = Quantile(sorted, 0.5)
	s.Q75 = Quantile(sorted, 0.75)
	return s
}

// Quantile returns the p-quantile of sorted data, interpolating linearly
// between the two closest ranks.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	if lo < 0 {
		return sorted[0]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

func (d *Dataset) describeCategorical() []CategoricalSummary {
	names := d.Columns()
	out := make([]CategoricalSummary, 0, len(names))
	for _, name := range names {
		s := d.frame.Col(name)
		counts := make(map[string]int)
		var order []string
		total := 0
		for i := 0; i < s.Len(); i++ {
			e := s.Elem(i)
			if e.IsNA() {
				continue
			}
			v := formatElem(e)
			if counts[v] == 0 {
				order = append(order, v)
			}
			counts[v]++
			total++
		}
		cs := CategoricalSummary{Column: name, Count: total, Unique: len(counts)}
		for _, v := range order {
			if counts[v] > cs.Freq {
				cs.Top, cs.Freq = v, counts[v]
			}
		}
		out = append(out, cs)
	}
	return out
}
