package domain

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// MissingTokens are the cell values treated as missing when parsing CSV input.
var MissingTokens = []string{"", "NA", "N/A", "n/a", "NaN", "nan", "-nan", "null", "NULL", "None", "#N/A", "<NA>", "<nil>"}

// Dataset is a named, immutable table of station measurements.
// Operations that change values return a new Dataset.
type Dataset struct {
	Name     string
	LoadedAt time.Time

	frame  dataframe.DataFrame
	origin *Dataset
}

// NewDataset wraps a dataframe, returning its load error if it has one.
func NewDataset(name string, df dataframe.DataFrame) (*Dataset, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, df.Err)
	}
	if df.Ncol() == 0 {
		return nil, fmt.Errorf("dataset %s: %w", name, ErrNoData)
	}
	return &Dataset{Name: name, LoadedAt: clock.Now(), frame: df}, nil
}

// ParseCSV reads a CSV document with a header row and detects column types.
func ParseCSV(name string, r io.Reader) (*Dataset, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(MissingTokens),
		dataframe.WithLazyQuotes(true),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, df.Err)
	}
	return NewDataset(name, df)
}

// derive builds a Dataset that shares this dataset's name and origin.
func (d *Dataset) derive(df dataframe.DataFrame) (*Dataset, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.Name, df.Err)
	}
	return &Dataset{Name: d.Name, LoadedAt: clock.Now(), frame: df, origin: d.Original()}, nil
}

// Original returns the dataset as it was first parsed, before any clipping.
func (d *Dataset) Original() *Dataset {
	if d.origin == nil {
		return d
	}
	return d.origin
}

// Modified reports whether the dataset differs from its original upload.
func (d *Dataset) Modified() bool { return d.origin != nil }

// Frame returns a copy of the underlying dataframe.
func (d *Dataset) Frame() dataframe.DataFrame { return d.frame.Copy() }

// Shape returns the number of rows and columns.
func (d *Dataset) Shape() (rows, cols int) { return d.frame.Dims() }

// Columns returns the column names in file order.
func (d *Dataset) Columns() []string { return d.frame.Names() }

// HasColumn reports whether the dataset has a column with the given name.
func (d *Dataset) HasColumn(name string) bool {
	for _, n := range d.frame.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// NumericColumns returns the integer and float columns in file order.
func (d *Dataset) NumericColumns() []string {
	names := d.frame.Names()
	types := d.frame.Types()
	out := make([]string, 0, len(names))
	for i, t := range types {
		if isNumeric(t) {
			out = append(out, names[i])
		}
	}
	return out
}

func isNumeric(t series.Type) bool {
	return t == series.Int || t == series.Float
}

func (d *Dataset) column(name string) (series.Series, error) {
	if !d.HasColumn(name) {
		return series.Series{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return d.frame.Col(name), nil
}

// Floats returns a numeric column with NaN in place of missing values.
func (d *Dataset) Floats(name string) ([]float64, error) {
	s, err := d.column(name)
	if err != nil {
		return nil, err
	}
	if !isNumeric(s.Type()) {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, name)
	}
	return s.Float(), nil
}

// Values returns the non-missing values of a numeric column.
func (d *Dataset) Values(name string) ([]float64, error) {
	vs, err := d.Floats(name)
	if err != nil {
		return nil, err
	}
	return dropNaN(vs), nil
}

// Strings returns a column as text with missing values as empty strings.
func (d *Dataset) Strings(name string) ([]string, error) {
	s, err := d.column(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, s.Len())
	for i := range out {
		out[i] = formatElem(s.Elem(i))
	}
	return out, nil
}

// Preview is a rendered slice of rows.
type Preview struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Head returns the first n rows formatted for display.
func (d *Dataset) Head(n int) Preview {
	rows, _ := d.frame.Dims()
	if n > rows {
		n = rows
	}
	if n < 0 {
		n = 0
	}
	names := d.frame.Names()
	p := Preview{Columns: names, Rows: make([][]string, n)}
	cols := make([]series.Series, len(names))
	for j, name := range names {
		cols[j] = d.frame.Col(name)
	}
	for i := 0; i < n; i++ {
		row := make([]string, len(cols))
		for j, s := range cols {
			row[j] = formatElem(s.Elem(i))
			if row[j] == "" && s.Elem(i).IsNA() {
				row[j] = "NaN"
			}
		}
		p.Rows[i] = row
	}
	return p
}

// MissingCount is the number of missing cells in one column.
type MissingCount struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// MissingCounts returns the missing value count of every column in file order.
func (d *Dataset) MissingCounts() []MissingCount {
	names := d.frame.Names()
	out := make([]MissingCount, len(names))
	for j, name := range names {
		s := d.frame.Col(name)
		n := 0
		for _, na := range s.IsNaN() {
			if na {
				n++
			}
		}
		out[j] = MissingCount{Column: name, Count: n}
	}
	return out
}

// Records returns the dataset as CSV records, header first.
func (d *Dataset) Records() [][]string {
	names := d.frame.Names()
	rows, _ := d.frame.Dims()
	out := make([][]string, 0, rows+1)
	out = append(out, names)
	cols := make([]series.Series, len(names))
	for j, name := range names {
		cols[j] = d.frame.Col(name)
	}
	for i := 0; i < rows; i++ {
		row := make([]string, len(cols))
		for j, s := range cols {
			row[j] = formatElem(s.Elem(i))
		}
		out = append(out, row)
	}
	return out
}

func formatElem(e series.Element) string {
	if e.IsNA() {
		return ""
	}
	if e.Type() == series.Float {
		return FormatFloat(e.Float())
	}
	return e.String()
}

// FormatFloat renders a float in the shortest form that round-trips.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func dropNaN(vs []float64) []float64 {
	out := make([]float64, 0, len(vs))
	for _, v := range vs {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
