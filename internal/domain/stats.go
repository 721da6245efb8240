package domain

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// maxHistogramBins caps automatic bin selection on long-tailed data.
const maxHistogramBins = 200

// ZScores standardizes a numeric column with its mean and sample standard
// deviation. Missing values stay NaN and are excluded from both.
func (d *Dataset) ZScores(column string) ([]float64, error) {
	vs, err := d.Floats(column)
	if err != nil {
		return nil, err
	}
	present := dropNaN(vs)
	if len(present) == 0 {
		return nil, fmt.Errorf("z-scores %s: %w", column, ErrNoData)
	}
	mean, std := stat.MeanStdDev(present, nil)
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = (v - mean) / std
	}
	return out, nil
}

// ZScoreColumn is the name of the column WithZScores adds for column.
func ZScoreColumn(column string) string { return column + "_zscore" }

// WithZScores returns a copy of the dataset with a <column>_zscore column
// appended for every given column.
func (d *Dataset) WithZScores(columns []string) (*Dataset, error) {
	df := d.frame.Copy()
	for _, col := range columns {
		zs, err := d.ZScores(col)
		if err != nil {
			return nil, err
		}
		df = df.Mutate(series.New(zs, series.Float, ZScoreColumn(col)))
	}
	return d.derive(df)
}

// CorrelationMatrix holds pairwise Pearson coefficients. Values[i][j] is the
// correlation of Columns[i] and Columns[j].
type CorrelationMatrix struct {
	Columns []string
	Values  [][]float64
}

// Correlation computes the Pearson correlation of every pair of columns over
// rows where both are present. Empty columns selects all numeric columns.
func (d *Dataset) Correlation(columns []string) (CorrelationMatrix, error) {
	if len(columns) == 0 {
		columns = d.NumericColumns()
	}
	if len(columns) == 0 {
		return CorrelationMatrix{}, fmt.Errorf("correlation: %w", ErrNotNumeric)
	}
	data := make([][]float64, len(columns))
	for i, col := range columns {
		vs, err := d.Floats(col)
		if err != nil {
			return CorrelationMatrix{}, fmt.Errorf("correlation: %w", err)
		}
		data[i] = vs
	}
	m := CorrelationMatrix{Columns: columns, Values: make([][]float64, len(columns))}
	for i := range columns {
		m.Values[i] = make([]float64, len(columns))
	}
	for i := range columns {
		for j := i; j < len(columns); j++ {
			r := pairwisePearson(data[i], data[j])
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m, nil
}

func pairwisePearson(x, y []float64) float64 {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// KDE evaluates a Gaussian kernel density estimate of values at points
// evenly spaced over the data range. The bandwidth follows Scott's rule.
// It returns nil grids when the data has no spread.
func KDE(values []float64, points int) (xs, density []float64) {
	values = dropNaN(values)
	if len(values) < 2 || points < 2 {
		return nil, nil
	}
	n := float64(len(values))
	std := stat.StdDev(values, nil)
	if std == 0 || math.IsNaN(std) {
		return nil, nil
	}
	bw := std * math.Pow(n, -1.0/5)
	lo, hi := floats.Min(values), floats.Max(values)
	xs = floats.Span(make([]float64, points), lo, hi)
	density = make([]float64, points)
	kernel := distuv.Normal{Mu: 0, Sigma: bw}
	for i, x := range xs {
		var sum float64
		for _, v := range values {
			sum += kernel.Prob(x - v)
		}
		density[i] = sum / n
	}
	return xs, density
}

// HistogramBins picks a bin count using the larger of Sturges' and the
// Freedman-Diaconis estimators.
func HistogramBins(values []float64) int {
	values = dropNaN(values)
	n := len(values)
	if n < 2 {
		return 1
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	span := sorted[n-1] - sorted[0]
	if span == 0 {
		return 1
	}
	sturges := span / (math.Log2(float64(n)) + 1)
	width := sturges
	iqr := Quantile(sorted, 0.75) - Quantile(sorted, 0.25)
	if fd := 2 * iqr * math.Pow(float64(n), -1.0/3); fd > 0 && fd < width {
		width = fd
	}
	bins := int(math.Ceil(span / width))
	switch {
	case bins < 1:
		return 1
	case bins > maxHistogramBins:
		return maxHistogramBins
	default:
		return bins
	}
}

// ColumnPair is an unordered pair of column names.
type ColumnPair struct {
	A, B string
}

// Combinations returns every pair of distinct columns in input order.
func Combinations(columns []string) []ColumnPair {
	var out []ColumnPair
	for i := range columns {
		for j := i + 1; j < len(columns); j++ {
			out = append(out, ColumnPair{A: columns[i], B: columns[j]})
		}
	}
	return out
}
