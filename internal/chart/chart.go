// Package chart renders exploratory charts of station datasets with
// gonum/plot. Every helper returns a Figure, a grid of plot panels with an
// optional overall title, which can be encoded as SVG or PNG.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Format is an image encoding supported by Render.
type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

// Kind names a dashboard chart.
type Kind string

const (
	KindBox        Kind = "box"
	KindTimeSeries Kind = "timeseries"
	KindHeatmap    Kind = "heatmap"
	KindWindRose   Kind = "windrose"
	KindHistogram  Kind = "histogram"
	KindScatter    Kind = "scatter"
	KindZScore     Kind = "zscore"
	KindBubble     Kind = "bubble"
)

// Kinds lists the dashboard charts in display order.
var Kinds = []Kind{KindBox, KindTimeSeries, KindHeatmap, KindWindRose, KindHistogram, KindScatter, KindZScore, KindBubble}

var (
	// ErrUnsupportedFormat is returned for encodings other than svg and png.
	ErrUnsupportedFormat = errors.New("unsupported chart format")
	// ErrUnknownKind is returned for chart kinds not in Kinds.
	ErrUnknownKind = errors.New("unknown chart kind")
)

// ParseFormat validates an encoding name. An empty name selects SVG.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", SVG:
		return SVG, nil
	case PNG:
		return PNG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type of the encoding.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// ParseKind validates a chart kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

const (
	defaultWidth  = 24 * vg.Centimeter
	defaultHeight = 14 * vg.Centimeter
	panelHeight   = 9 * vg.Centimeter
	suptitlePad   = 28
)

var (
	steelBlue = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	darkBlue  = color.RGBA{R: 31, G: 59, B: 115, A: 255}
	gridGray  = color.Gray{Y: 220}
)

// Figure is a grid of plots with an optional overall title.
type Figure struct {
	Title  string
	Rows   int
	Cols   int
	Width  vg.Length
	Height vg.Length

	panels [][]*plot.Plot
}

// NewFigure allocates an empty rows x cols grid sized for the panel count.
func NewFigure(title string, rows, cols int) *Figure {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	f := &Figure{
		Title:  title,
		Rows:   rows,
		Cols:   cols,
		Width:  defaultWidth,
		Height: defaultHeight,
		panels: make([][]*plot.Plot, rows),
	}
	if rows > 1 {
		f.Height = vg.Length(rows) * panelHeight
	}
	if cols > 2 {
		f.Width = vg.Length(cols) * 12 * vg.Centimeter
	}
	for r := range f.panels {
		f.panels[r] = make([]*plot.Plot, cols)
	}
	return f
}

// Single wraps one plot in a Figure.
func Single(p *plot.Plot) *Figure {
	f := NewFigure("", 1, 1)
	f.panels[0][0] = p
	return f
}

// Set places a plot at row r, column c.
func (f *Figure) Set(r, c int, p *plot.Plot) {
	f.panels[r][c] = p
}

// Panel returns the plot at row r, column c, or nil.
func (f *Figure) Panel(r, c int) *plot.Plot {
	return f.panels[r][c]
}

// Panels returns the number of non-empty panels.
func (f *Figure) Panels() int {
	n := 0
	for _, row := range f.panels {
		for _, p := range row {
			if p != nil {
				n++
			}
		}
	}
	return n
}

// Resize overrides the figure dimensions. Non-positive values are ignored.
func (f *Figure) Resize(w, h vg.Length) {
	if w > 0 {
		f.Width = w
	}
	if h > 0 {
		f.Height = h
	}
}

// Render encodes the figure to w.
func (f *Figure) Render(w io.Writer, format Format) error {
	if _, err := ParseFormat(string(format)); err != nil {
		return err
	}
	c, err := draw.NewFormattedCanvas(f.Width, f.Height, string(format))
	if err != nil {
		return fmt.Errorf("create canvas: %w", err)
	}
	dc := draw.New(c)

	var pad vg.Length
	if f.Title != "" {
		pad = suptitlePad
		sty := plot.New().Title.TextStyle
		sty.Font.Size = vg.Points(15)
		sty.YAlign = draw.YTop
		dc.FillText(sty, vg.Point{X: (dc.Min.X + dc.Max.X) / 2, Y: dc.Max.Y - 6}, f.Title)
	}

	tiles := draw.Tiles{
		Rows:      f.Rows,
		Cols:      f.Cols,
		PadTop:    pad + 4,
		PadBottom: 4,
		PadLeft:   4,
		PadRight:  4,
		PadX:      vg.Millimeter * 6,
		PadY:      vg.Millimeter * 6,
	}
	canvases := plot.Align(f.panels, tiles, dc)
	for r, row := range f.panels {
		for col, p := range row {
			if p != nil {
				p.Draw(canvases[r][col])
			}
		}
	}

	if _, err := c.WriteTo(w); err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	return nil
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(13)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	return p
}

func addGrid(p *plot.Plot) {
	g := plotter.NewGrid()
	g.Vertical.Color = gridGray
	g.Horizontal.Color = gridGray
	p.Add(g)
}

func withAlpha(c color.Color, alpha uint8) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: alpha}
}

// finite drops NaN and infinite values, which gonum plotters reject.
func finite(vs []float64) plotter.Values {
	out := make(plotter.Values, 0, len(vs))
	for _, v := range vs {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// pairs zips two columns, skipping rows where either value is missing.
func pairs(xs, ys []float64) plotter.XYs {
	out := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) || math.IsInf(xs[i], 0) || math.IsInf(ys[i], 0) {
			continue
		}
		out = append(out, plotter.XY{X: xs[i], Y: ys[i]})
	}
	return out
}
