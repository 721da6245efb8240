package chart

import (
	"fmt"
	"image/color"
	"math"

	"github.com/couchcryptid/solar-eda/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	kdePoints      = 200
	bubbleMinArea  = 20.0
	bubbleMaxArea  = 200.0
	scatterAlpha   = 178
	hueLegendSteps = 4
)

// BoxPlot draws a horizontal box plot of one column.
func BoxPlot(ds *domain.Dataset, column string) (*Figure, error) {
	vs, err := ds.Values(column)
	if err != nil {
		return nil, err
	}
	p, err := boxPanel(fmt.Sprintf("Box Plot of %s", column), column, finite(vs))
	if err != nil {
		return nil, err
	}
	f := Single(p)
	f.Height = 8 * vg.Centimeter
	return f, nil
}

func boxPanel(title, column string, vs plotter.Values) (*plot.Plot, error) {
	if len(vs) == 0 {
		return nil, fmt.Errorf("box plot %s: %w", column, domain.ErrNoData)
	}
	p := newPlot(title, column, "")
	box, err := plotter.NewBoxPlot(vg.Points(40), 0, vs)
	if err != nil {
		return nil, fmt.Errorf("box plot %s: %w", column, err)
	}
	box.Horizontal = true
	box.FillColor = withAlpha(steelBlue, 200)
	p.Add(box)
	p.NominalY(column)
	return p, nil
}

// TimeSeries draws column against the parsed timestamps of tsColumn.
// Series longer than maxPoints are averaged down before plotting.
func TimeSeries(ds *domain.Dataset, tsColumn, column string, maxPoints int) (*Figure, error) {
	p, err := timeSeriesPanel(ds, tsColumn, column, fmt.Sprintf("Time Series: %s", column), maxPoints)
	if err != nil {
		return nil, err
	}
	return Single(p), nil
}

func timeSeriesPanel(ds *domain.Dataset, tsColumn, column, title string, maxPoints int) (*plot.Plot, error) {
	pts, err := ds.Series(tsColumn, column)
	if err != nil {
		return nil, err
	}
	pts = domain.Downsample(pts, maxPoints)
	xys := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		xys[i] = plotter.XY{X: float64(pt.Time.Unix()), Y: pt.Value}
	}

	p := newPlot(title, tsColumn, column)
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02\n15:04"}
	addGrid(p)
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("time series %s: %w", column, err)
	}
	line.Color = steelBlue
	p.Add(line)
	return p, nil
}

// CorrelationHeatmap draws the annotated Pearson correlation matrix of columns.
func CorrelationHeatmap(ds *domain.Dataset, columns []string) (*Figure, error) {
	p, err := heatmapPanel(ds, columns, "Correlation Heatmap")
	if err != nil {
		return nil, err
	}
	f := Single(p)
	side := vg.Length(len(columns))*1.8*vg.Centimeter + 6*vg.Centimeter
	f.Resize(max(side, 14*vg.Centimeter), max(side, 12*vg.Centimeter))
	return f, nil
}

// WindRose draws stacked wind speed frequencies by direction sector.
func WindRose(ds *domain.Dataset, speedColumn, dirColumn string) (*Figure, error) {
	p, err := windRosePanel(ds, speedColumn, dirColumn, "Windrose Plot", speedColumn)
	if err != nil {
		return nil, err
	}
	f := Single(p)
	f.Resize(18*vg.Centimeter, 16*vg.Centimeter)
	return f, nil
}

// Histogram draws the distribution of a column with a kernel density overlay.
func Histogram(ds *domain.Dataset, column string) (*Figure, error) {
	vs, err := ds.Values(column)
	if err != nil {
		return nil, err
	}
	p, err := histogramPanel(finite(vs), fmt.Sprintf("Histogram of %s", column), column, "Count")
	if err != nil {
		return nil, fmt.Errorf("histogram %s: %w", column, err)
	}
	return Single(p), nil
}

func histogramPanel(vs plotter.Values, title, xLabel, yLabel string) (*plot.Plot, error) {
	if len(vs) == 0 {
		return nil, domain.ErrNoData
	}
	p := newPlot(title, xLabel, yLabel)
	addGrid(p)
	h, err := plotter.NewHist(vs, domain.HistogramBins(vs))
	if err != nil {
		return nil, err
	}
	h.FillColor = withAlpha(steelBlue, 160)
	h.LineStyle.Color = color.White
	p.Add(h)

	xs, density := domain.KDE(vs, kdePoints)
	if xs == nil {
		return p, nil
	}
	scale := float64(len(vs)) * h.Width
	curve := make(plotter.XYs, len(xs))
	for i := range xs {
		curve[i] = plotter.XY{X: xs[i], Y: density[i] * scale}
	}
	line, err := plotter.NewLine(curve)
	if err != nil {
		return nil, err
	}
	line.Color = darkBlue
	line.Width = vg.Points(1.5)
	p.Add(line)
	return p, nil
}

// TemperatureHumidity scatters a temperature column against a humidity column.
func TemperatureHumidity(ds *domain.Dataset, tempColumn, humColumn string) (*Figure, error) {
	p, err := scatterPanel(ds, humColumn, tempColumn,
		fmt.Sprintf("%s vs %s", tempColumn, humColumn), "Humidity (%)", "Temperature (°C)", steelBlue)
	if err != nil {
		return nil, err
	}
	return Single(p), nil
}

func scatterPanel(ds *domain.Dataset, xColumn, yColumn, title, xLabel, yLabel string, c color.Color) (*plot.Plot, error) {
	xs, err := ds.Floats(xColumn)
	if err != nil {
		return nil, err
	}
	ys, err := ds.Floats(yColumn)
	if err != nil {
		return nil, err
	}
	xys := pairs(xs, ys)
	if len(xys) == 0 {
		return nil, fmt.Errorf("scatter %s/%s: %w", xColumn, yColumn, domain.ErrNoData)
	}
	p := newPlot(title, xLabel, yLabel)
	addGrid(p)
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("scatter %s/%s: %w", xColumn, yColumn, err)
	}
	sc.GlyphStyle.Color = withAlpha(c, scatterAlpha)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Radius = vg.Points(2)
	p.Add(sc)
	return p, nil
}

// ZScoreHistogram draws the distribution of the z-scores of a column.
func ZScoreHistogram(ds *domain.Dataset, column string) (*Figure, error) {
	zs, err := ds.ZScores(column)
	if err != nil {
		return nil, err
	}
	p, err := histogramPanel(finite(zs), fmt.Sprintf("Z-Scores for %s", column), "Z-Score", "Frequency")
	if err != nil {
		return nil, fmt.Errorf("z-scores %s: %w", column, err)
	}
	return Single(p), nil
}

// BubbleChart scatters y against x with glyph area scaled by sizeColumn and
// color mapped from hueColumn.
func BubbleChart(ds *domain.Dataset, xColumn, yColumn, sizeColumn, hueColumn string) (*Figure, error) {
	p, err := bubblePanel(ds, xColumn, yColumn, sizeColumn, hueColumn, fmt.Sprintf("Bubble Chart: %s vs %s", xColumn, yColumn))
	if err != nil {
		return nil, err
	}
	return Single(p), nil
}

func bubblePanel(ds *domain.Dataset, xColumn, yColumn, sizeColumn, hueColumn, title string) (*plot.Plot, error) {
	cols := make([][]float64, 4)
	for i, name := range []string{xColumn, yColumn, sizeColumn, hueColumn} {
		vs, err := ds.Floats(name)
		if err != nil {
			return nil, err
		}
		cols[i] = vs
	}
	var xys plotter.XYs
	var sizes, hues []float64
	for i := range cols[0] {
		if anyNaN(cols[0][i], cols[1][i], cols[2][i], cols[3][i]) {
			continue
		}
		xys = append(xys, plotter.XY{X: cols[0][i], Y: cols[1][i]})
		sizes = append(sizes, cols[2][i])
		hues = append(hues, cols[3][i])
	}
	if len(xys) == 0 {
		return nil, fmt.Errorf("bubble chart: %w", domain.ErrNoData)
	}

	sizeLo, sizeHi := bounds(sizes)
	hueLo, hueHi := bounds(hues)
	cmap := moreland.ExtendedKindlmann()
	cmap.SetMin(hueLo)
	cmap.SetMax(math.Max(hueHi, hueLo+1e-9))
	cmap.SetAlpha(float64(scatterAlpha) / 255)

	hueColor := func(v float64) color.Color {
		c, err := cmap.At(v)
		if err != nil {
			return withAlpha(steelBlue, scatterAlpha)
		}
		return c
	}

	p := newPlot(title, xColumn, yColumn)
	addGrid(p)
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("bubble chart: %w", err)
	}
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		area := bubbleMinArea
		if sizeHi > sizeLo {
			area += (sizes[i] - sizeLo) / (sizeHi - sizeLo) * (bubbleMaxArea - bubbleMinArea)
		}
		return draw.GlyphStyle{
			Color:  hueColor(hues[i]),
			Radius: vg.Points(math.Sqrt(area / math.Pi)),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(sc)

	p.Legend.Add(hueColumn)
	for i := 0; i < hueLegendSteps; i++ {
		v := hueLo + (hueHi-hueLo)*float64(i)/float64(hueLegendSteps-1)
		p.Legend.Add(fmt.Sprintf("%.1f", v), swatch{color: hueColor(v), circle: true})
	}
	p.Legend.Top = true
	return p, nil
}

func anyNaN(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func bounds(vs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// swatch is a legend thumbnail filled with a single color.
type swatch struct {
	color  color.Color
	circle bool
}

func (s swatch) Thumbnail(c *draw.Canvas) {
	if s.circle {
		c.DrawGlyph(draw.GlyphStyle{Color: s.color, Radius: vg.Points(4), Shape: draw.CircleGlyph{}}, c.Center())
		return
	}
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.color, pts)
}

// seriesColor returns the default palette color for the i-th series.
func seriesColor(i int) color.Color {
	return plotutil.Color(i)
}
