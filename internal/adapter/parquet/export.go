// Package parquet exports datasets as Parquet files.
package parquet

import (
	"fmt"
	"io"
	"math"

	"github.com/couchcryptid/solar-eda/internal/domain"
	"github.com/parquet-go/parquet-go"
)

// Schema builds the Parquet schema of a dataset. Numeric columns become
// optional doubles and every other column an optional UTF-8 string.
func Schema(ds *domain.Dataset) *parquet.Schema {
	numeric := numericSet(ds)
	group := parquet.Group{}
	for _, col := range ds.Columns() {
		if numeric[col] {
			group[col] = parquet.Optional(parquet.Leaf(parquet.DoubleType))
			continue
		}
		group[col] = parquet.Optional(parquet.String())
	}
	return parquet.NewSchema("dataset", group)
}

// Write encodes every row of ds to w. Missing cells are written as nulls.
func Write(w io.Writer, ds *domain.Dataset) error {
	schema := Schema(ds)
	numeric := numericSet(ds)

	// Group fields are stored in name order; map each dataset column to its
	// leaf index.
	index := make(map[string]int, len(schema.Columns()))
	for i, path := range schema.Columns() {
		index[path[0]] = i
	}

	columns := ds.Columns()
	floats := make(map[string][]float64, len(columns))
	texts := make(map[string][]string, len(columns))
	for _, col := range columns {
		if numeric[col] {
			vs, err := ds.Floats(col)
			if err != nil {
				return fmt.Errorf("parquet column %s: %w", col, err)
			}
			floats[col] = vs
			continue
		}
		vs, err := ds.Strings(col)
		if err != nil {
			return fmt.Errorf("parquet column %s: %w", col, err)
		}
		texts[col] = vs
	}

	pw := parquet.NewWriter(w, schema, parquet.Compression(&parquet.Snappy))
	nrows, _ := ds.Shape()
	rows := make([]parquet.Row, 0, nrows)
	for r := 0; r < nrows; r++ {
		row := make(parquet.Row, len(columns))
		for _, col := range columns {
			i := index[col]
			row[i] = cell(floats, texts, col, r).Level(0, definition(floats, texts, col, r), i)
		}
		rows = append(rows, row)
	}
	if _, err := pw.WriteRows(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

func cell(floats map[string][]float64, texts map[string][]string, col string, r int) parquet.Value {
	if vs, ok := floats[col]; ok {
		if math.IsNaN(vs[r]) {
			return parquet.ValueOf(nil)
		}
		return parquet.DoubleValue(vs[r])
	}
	s := texts[col][r]
	if s == "" {
		return parquet.ValueOf(nil)
	}
	return parquet.ByteArrayValue([]byte(s))
}

func definition(floats map[string][]float64, texts map[string][]string, col string, r int) int {
	if vs, ok := floats[col]; ok {
		if math.IsNaN(vs[r]) {
			return 0
		}
		return 1
	}
	if texts[col][r] == "" {
		return 0
	}
	return 1
}

func numericSet(ds *domain.Dataset) map[string]bool {
	out := make(map[string]bool)
	for _, col := range ds.NumericColumns() {
		out[col] = true
	}
	return out
}
