package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// timestampLayouts are tried in order for every cell of a timestamp column.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"2006/01/02 15:04",
	"2006/01/02",
}

// TimeColumn is a parsed timestamp column. Rows holds the dataset row index
// of every parsed time; rows that failed to parse are absent.
type TimeColumn struct {
	Times []time.Time
	Rows  []int
}

// ParseTime parses a single timestamp cell using the supported layouts.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTimestamps parses a column as times, dropping cells that do not parse.
func (d *Dataset) ParseTimestamps(column string) (TimeColumn, error) {
	cells, err := d.Strings(column)
	if err != nil {
		return TimeColumn{}, err
	}
	tc := TimeColumn{
		Times: make([]time.Time, 0, len(cells)),
		Rows:  make([]int, 0, len(cells)),
	}
	for i, c := range cells {
		if t, ok := ParseTime(c); ok {
			tc.Times = append(tc.Times, t)
			tc.Rows = append(tc.Rows, i)
		}
	}
	if len(tc.Times) == 0 {
		return TimeColumn{}, fmt.Errorf("%q: %w", column, ErrNoTimestamps)
	}
	return tc, nil
}

// TimestampColumns returns the non-numeric columns whose first non-empty
// value parses as a time.
func (d *Dataset) TimestampColumns() []string {
	var out []string
	numeric := make(map[string]bool)
	for _, c := range d.NumericColumns() {
		numeric[c] = true
	}
	for _, name := range d.Columns() {
		if numeric[name] {
			continue
		}
		cells, _ := d.Strings(name)
		for _, c := range cells {
			if c == "" {
				continue
			}
			if _, ok := ParseTime(c); ok {
				out = append(out, name)
			}
			break
		}
	}
	return out
}

// Point is a timestamped value.
type Point struct {
	Time  time.Time
	Value float64
}

// Series pairs a value column with a timestamp column, dropping rows where
// either is missing, sorted by time.
func (d *Dataset) Series(tsColumn, column string) ([]Point, error) {
	tc, err := d.ParseTimestamps(tsColumn)
	if err != nil {
		return nil, err
	}
	vs, err := d.Floats(column)
	if err != nil {
		return nil, err
	}
	pts := make([]Point, 0, len(tc.Rows))
	for i, row := range tc.Rows {
		if math.IsNaN(vs[row]) {
			continue
		}
		pts = append(pts, Point{Time: tc.Times[i], Value: vs[row]})
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("series %s: %w", column, ErrNoData)
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Time.Before(pts[j].Time) })
	return pts, nil
}

// Downsample reduces pts to at most maxPoints by averaging consecutive
// buckets. The time of each bucket is its first point.
func Downsample(pts []Point, maxPoints int) []Point {
	if maxPoints <= 0 || len(pts) <= maxPoints {
		return pts
	}
	size := int(math.Ceil(float64(len(pts)) / float64(maxPoints)))
	out := make([]Point, 0, maxPoints)
	for start := 0; start < len(pts); start += size {
		end := min(start+size, len(pts))
		var sum float64
		for _, p := range pts[start:end] {
			sum += p.Value
		}
		out = append(out, Point{Time: pts[start].Time, Value: sum / float64(end-start)})
	}
	return out
}

// MonthlyTable holds per calendar month means of several columns.
// Means[col][i] is the mean of col over Months[i].
type MonthlyTable struct {
	Months []time.Month
	Means  map[string][]float64
}

// MonthlyMeans groups rows by calendar month of tsColumn and averages each
// column. Months with no timestamp are omitted. A month whose values are all
// missing yields NaN for that column.
func (d *Dataset) MonthlyMeans(tsColumn string, columns []string) (MonthlyTable, error) {
	tc, err := d.ParseTimestamps(tsColumn)
	if err != nil {
		return MonthlyTable{}, err
	}
	present := make(map[time.Month]bool)
	for _, t := range tc.Times {
		present[t.Month()] = true
	}
	table := MonthlyTable{Means: make(map[string][]float64, len(columns))}
	for m := time.January; m <= time.December; m++ {
		if present[m] {
			table.Months = append(table.Months, m)
		}
	}
	index := make(map[time.Month]int, len(table.Months))
	for i, m := range table.Months {
		index[m] = i
	}

	for _, col := range columns {
		vs, err := d.Floats(col)
		if err != nil {
			return MonthlyTable{}, err
		}
		sums := make([]float64, len(table.Months))
		counts := make([]int, len(table.Months))
		for i, row := range tc.Rows {
			v := vs[row]
			if math.IsNaN(v) {
				continue
			}
			k := index[tc.Times[i].Month()]
			sums[k] += v
			counts[k]++
		}
		means := make([]float64, len(sums))
		for k := range sums {
			means[k] = math.NaN()
			if counts[k] > 0 {
				means[k] = sums[k] / float64(counts[k])
			}
		}
		table.Means[col] = means
	}
	return table, nil
}
