package chart

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/couchcryptid/solar-eda/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// errTitles is returned when a multi-dataset helper gets mismatched titles.
var errTitles = errors.New("one title per dataset is required")

func checkTitles(datasets []*domain.Dataset, titles []string) error {
	if len(datasets) == 0 {
		return fmt.Errorf("no datasets: %w", domain.ErrNoData)
	}
	if len(datasets) != len(titles) {
		return fmt.Errorf("%d datasets, %d titles: %w", len(datasets), len(titles), errTitles)
	}
	return nil
}

// gridShape lays n panels out in rows of at most cols.
func gridShape(n, cols int) (rows, c int) {
	if n < cols {
		cols = n
	}
	return (n + cols - 1) / cols, cols
}

// TimeSeriesPanels plots each column against tsColumn in a two column grid.
func TimeSeriesPanels(ds *domain.Dataset, name, tsColumn string, columns []string, maxPoints int) (*Figure, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("time series: %w", domain.ErrNoData)
	}
	rows, cols := gridShape(len(columns), 2)
	f := NewFigure(fmt.Sprintf("%s Time Series Data", name), rows, cols)
	for i, col := range columns {
		p, err := timeSeriesPanel(ds, tsColumn, col, col, maxPoints)
		if err != nil {
			return nil, err
		}
		f.Set(i/cols, i%cols, p)
	}
	return f, nil
}

// MonthlyTrends plots the monthly mean of each column in its own panel, two
// panels per row.
func MonthlyTrends(ds *domain.Dataset, name, tsColumn string, columns []string) (*Figure, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("monthly trends: %w", domain.ErrNoData)
	}
	table, err := ds.MonthlyMeans(tsColumn, columns)
	if err != nil {
		return nil, err
	}
	rows, cols := gridShape(len(columns), 2)
	f := NewFigure(fmt.Sprintf("%s Monthly Trends", name), rows, cols)
	for i, col := range columns {
		p, err := monthlyPanel(table, col, seriesColor(i))
		if err != nil {
			return nil, err
		}
		f.Set(i/cols, i%cols, p)
	}
	return f, nil
}

func monthlyPanel(table domain.MonthlyTable, col string, c color.Color) (*plot.Plot, error) {
	p := newPlot(col, "Month", col)
	addGrid(p)
	xys := make(plotter.XYs, 0, len(table.Months))
	for k, m := range table.Months {
		v := table.Means[col][k]
		if math.IsNaN(v) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(m), Y: v})
	}
	if len(xys) > 0 {
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, fmt.Errorf("monthly trends %s: %w", col, err)
		}
		line.Color = c
		points.Color = c
		points.Shape = draw.CircleGlyph{}
		p.Add(line, points)
	}
	ticks := make([]plot.Tick, 0, 12)
	for m := time.January; m <= time.December; m++ {
		ticks = append(ticks, plot.Tick{Value: float64(m), Label: m.String()[:3]})
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.X.Min, p.X.Max = 0.5, 12.5
	return p, nil
}

// CorrelationHeatmaps draws one correlation heatmap per dataset. Empty
// columns selects every numeric column of each dataset.
func CorrelationHeatmaps(datasets []*domain.Dataset, titles []string, columns []string) (*Figure, error) {
	if err := checkTitles(datasets, titles); err != nil {
		return nil, err
	}
	f := NewFigure("Correlation Heatmap", 1, len(datasets))
	for i, ds := range datasets {
		p, err := heatmapPanel(ds, columns, titles[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", titles[i], err)
		}
		f.Set(0, i, p)
	}
	f.Resize(vg.Length(len(datasets))*16*vg.Centimeter, 15*vg.Centimeter)
	return f, nil
}

// ScatterPairs scatters every pair of columns, three panels per row.
func ScatterPairs(ds *domain.Dataset, name string, columns []string) (*Figure, error) {
	combos := domain.Combinations(columns)
	if len(combos) == 0 {
		return nil, fmt.Errorf("scatter pairs: at least two columns: %w", domain.ErrNoData)
	}
	rows, cols := gridShape(len(combos), 3)
	f := NewFigure(fmt.Sprintf("%s Scatter Plots", name), rows, cols)
	for i, pair := range combos {
		p, err := scatterPanel(ds, pair.A, pair.B, fmt.Sprintf("%s vs %s", pair.A, pair.B), pair.A, pair.B, steelBlue)
		if err != nil {
			return nil, err
		}
		f.Set(i/cols, i%cols, p)
	}
	return f, nil
}

// WindRoses draws one wind rose per dataset side by side.
func WindRoses(datasets []*domain.Dataset, titles []string, speedColumn, dirColumn string) (*Figure, error) {
	if err := checkTitles(datasets, titles); err != nil {
		return nil, err
	}
	f := NewFigure("", 1, len(datasets))
	for i, ds := range datasets {
		p, err := windRosePanel(ds, speedColumn, dirColumn, titles[i], "Wind Speed (m/s)")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", titles[i], err)
		}
		f.Set(0, i, p)
	}
	f.Resize(vg.Length(len(datasets))*16*vg.Centimeter, 15*vg.Centimeter)
	return f, nil
}

// HistogramGrid draws a histogram for every column of every dataset, one
// row per column and one grid column per dataset.
func HistogramGrid(datasets []*domain.Dataset, titles []string, columns []string) (*Figure, error) {
	if err := checkTitles(datasets, titles); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("no columns: %w", domain.ErrNoData)
	}
	f := NewFigure("", len(columns), len(datasets))
	for r, col := range columns {
		for c, ds := range datasets {
			vs, err := ds.Values(col)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", titles[c], err)
			}
			p, err := histogramPanel(finite(vs), fmt.Sprintf("%s - %s", titles[c], col), col, "Frequency")
			if err != nil {
				return nil, fmt.Errorf("%s - %s: %w", titles[c], col, err)
			}
			f.Set(r, c, p)
		}
	}
	return f, nil
}

// ZScoreGrid draws the z-score distribution of every column of every dataset.
func ZScoreGrid(datasets []*domain.Dataset, titles []string, columns []string) (*Figure, error) {
	if err := checkTitles(datasets, titles); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("no columns: %w", domain.ErrNoData)
	}
	f := NewFigure("", len(columns), len(datasets))
	for r, col := range columns {
		for c, ds := range datasets {
			zs, err := ds.ZScores(col)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", titles[c], err)
			}
			p, err := histogramPanel(finite(zs), fmt.Sprintf("%s - %s Z-scores", titles[c], col), fmt.Sprintf("%s Z-score", col), "Frequency")
			if err != nil {
				return nil, fmt.Errorf("%s - %s: %w", titles[c], col, err)
			}
			f.Set(r, c, p)
		}
	}
	return f, nil
}

// BubbleCharts draws one bubble chart per dataset.
func BubbleCharts(datasets []*domain.Dataset, titles []string, xColumn, yColumn, sizeColumn, hueColumn string) (*Figure, error) {
	if err := checkTitles(datasets, titles); err != nil {
		return nil, err
	}
	f := NewFigure("", 1, len(datasets))
	for i, ds := range datasets {
		p, err := bubblePanel(ds, xColumn, yColumn, sizeColumn, hueColumn, titles[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", titles[i], err)
		}
		f.Set(0, i, p)
	}
	f.Resize(vg.Length(len(datasets))*14*vg.Centimeter, 12*vg.Centimeter)
	return f, nil
}

// TemperatureHumidityPanels scatters temperature against relative humidity
// for each dataset.
func TemperatureHumidityPanels(datasets []*domain.Dataset, titles []string, tempColumn, humColumn string) (*Figure, error) {
	if err := checkTitles(datasets, titles); err != nil {
		return nil, err
	}
	f := NewFigure("", 1, len(datasets))
	for i, ds := range datasets {
		p, err := scatterPanel(ds, humColumn, tempColumn, titles[i], "Relative Humidity (%)", "Ambient Temperature (°C)", seriesColor(i))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", titles[i], err)
		}
		f.Set(0, i, p)
	}
	f.Resize(vg.Length(len(datasets))*12*vg.Centimeter, 11*vg.Centimeter)
	return f, nil
}
