// Package xlsx exports dataset summaries as Excel workbooks.
package xlsx

import (
	"fmt"
	"io"
	"math"

	"github.com/couchcryptid/solar-eda/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Sheet names in the order they appear in the workbook.
const (
	SheetPreview     = "Preview"
	SheetStatistics  = "Statistics"
	SheetMissing     = "Missing"
	SheetCorrelation = "Correlation"
)

// PreviewRows is the number of data rows copied to the Preview sheet.
const PreviewRows = 5

var statisticsHeader = []any{"Dataset", "Column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Write renders a summary workbook for datasets to w. Each sheet lists the
// datasets one after another.
func Write(w io.Writer, datasets ...*domain.Dataset) error {
	if len(datasets) == 0 {
		return fmt.Errorf("summary workbook: %w", domain.ErrNoData)
	}
	f := excelize.NewFile()
	defer f.Close()

	b, err := newBuilder(f)
	if err != nil {
		return err
	}
	for _, step := range []func([]*domain.Dataset) error{
		b.preview, b.statistics, b.missing, b.correlation,
	} {
		if err := step(datasets); err != nil {
			return err
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type builder struct {
	f    *excelize.File
	bold int
}

func newBuilder(f *excelize.File) (*builder, error) {
	if err := f.SetSheetName("Sheet1", SheetPreview); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetStatistics, SheetMissing, SheetCorrelation} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("add sheet %s: %w", name, err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	return &builder{f: f, bold: bold}, nil
}

func (b *builder) row(sheet string, r int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, r)
	if err != nil {
		return err
	}
	if err := b.f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, r, err)
	}
	return nil
}

func (b *builder) header(sheet string, r int, values []any) error {
	if err := b.row(sheet, r, values); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, r)
	last, _ := excelize.CoordinatesToCellName(max(len(values), 1), r)
	return b.f.SetCellStyle(sheet, first, last, b.bold)
}

func (b *builder) freezeHeader(sheet string) error {
	return b.f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (b *builder) preview(datasets []*domain.Dataset) error {
	r := 1
	for _, ds := range datasets {
		rows, cols := ds.Shape()
		if err := b.header(SheetPreview, r, []any{ds.Name, fmt.Sprintf("%d rows", rows), fmt.Sprintf("%d columns", cols)}); err != nil {
			return err
		}
		r++
		p := ds.Head(PreviewRows)
		if err := b.header(SheetPreview, r, anys(p.Columns)); err != nil {
			return err
		}
		r++
		for _, rec := range p.Rows {
			if err := b.row(SheetPreview, r, anys(rec)); err != nil {
				return err
			}
			r++
		}
		r++
	}
	return nil
}

func (b *builder) statistics(datasets []*domain.Dataset) error {
	if err := b.header(SheetStatistics, 1, statisticsHeader); err != nil {
		return err
	}
	r := 2
	for _, ds := range datasets {
		for _, s := range ds.Describe().Numeric {
			values := []any{ds.Name, s.Column, s.Count,
				number(s.Mean), number(s.Std), number(s.Min), number(s.Q25),
				number(s.Median), number(s.Q75), number(s.Max)}
			if err := b.row(SheetStatistics, r, values); err != nil {
				return err
			}
			r++
		}
	}
	if err := b.f.SetColWidth(SheetStatistics, "A", "A", 28); err != nil {
		return err
	}
	return b.freezeHeader(SheetStatistics)
}

func (b *builder) missing(datasets []*domain.Dataset) error {
	if err := b.header(SheetMissing, 1, []any{"Dataset", "Column", "Missing"}); err != nil {
		return err
	}
	r := 2
	for _, ds := range datasets {
		for _, m := range ds.MissingCounts() {
			if err := b.row(SheetMissing, r, []any{ds.Name, m.Column, m.Count}); err != nil {
				return err
			}
			r++
		}
	}
	return b.freezeHeader(SheetMissing)
}

func (b *builder) correlation(datasets []*domain.Dataset) error {
	r := 1
	for _, ds := range datasets {
		m, err := ds.Correlation(nil)
		if err != nil {
			// Datasets without numeric columns have no matrix to show.
			continue
		}
		head := append([]any{ds.Name}, anys(m.Columns)...)
		if err := b.header(SheetCorrelation, r, head); err != nil {
			return err
		}
		r++
		for i, col := range m.Columns {
			values := make([]any, 0, len(m.Columns)+1)
			values = append(values, col)
			for _, v := range m.Values[i] {
				values = append(values, number(v))
			}
			if err := b.row(SheetCorrelation, r, values); err != nil {
				return err
			}
			r++
		}
		r++
	}
	return nil
}

// number leaves NaN and infinite cells empty; Excel has no representation
// for them.
func number(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func anys(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
