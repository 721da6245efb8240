package chart

import (
	"fmt"
	"image/color"
	"math"

	"github.com/couchcryptid/solar-eda/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	windRoseOpening = 0.8
	windRoseRings   = 4
	arcSteps        = 8
)

var compassPoints = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// windRose draws stacked polar bars of a WindRoseTable. North is up and
// angles increase clockwise.
type windRose struct {
	table  domain.WindRoseTable
	colors []color.Color
	edge   draw.LineStyle
	ring   draw.LineStyle
	label  text.Style
	rmax   float64
}

func newWindRose(table domain.WindRoseTable, labelStyle text.Style) *windRose {
	cmap := moreland.Kindlmann()
	colors := cmap.Palette(len(table.SpeedEdges) + 2).Colors()[1 : len(table.SpeedEdges)+1]

	var rmax float64
	for s := range table.Directions {
		var total float64
		for b := range table.Freq {
			total += table.Freq[b][s]
		}
		rmax = math.Max(rmax, total)
	}
	labelStyle.Font.Size = vg.Points(8)
	labelStyle.XAlign = draw.XCenter
	labelStyle.YAlign = draw.YCenter
	return &windRose{
		table:  table,
		colors: colors,
		edge:   draw.LineStyle{Color: color.White, Width: vg.Points(0.5)},
		ring:   draw.LineStyle{Color: gridGray, Width: vg.Points(0.5), Dashes: []vg.Length{vg.Points(2), vg.Points(2)}},
		label:  labelStyle,
		rmax:   niceCeil(rmax),
	}
}

// Plot implements plot.Plotter.
func (w *windRose) Plot(c draw.Canvas, _ *plot.Plot) {
	center := c.Center()
	radius := 0.85 * math.Min(float64(c.Max.X-c.Min.X), float64(c.Max.Y-c.Min.Y)) / 2
	scale := radius / w.rmax

	for i := 1; i <= windRoseRings; i++ {
		r := float64(i) / windRoseRings * radius
		c.StrokeLines(w.ring, arc(center, r, 0, 360, 64))
		pct := w.rmax * float64(i) / windRoseRings
		c.FillText(w.label, polar(center, r, 22.5), fmt.Sprintf("%.0f%%", pct))
	}
	for i, name := range compassPoints {
		deg := float64(i) * 45
		c.StrokeLines(w.ring, []vg.Point{center, polar(center, radius, deg)})
		c.FillText(w.label, polar(center, radius+10, deg), name)
	}

	half := w.table.SectorWidth() * windRoseOpening / 2
	for s, dir := range w.table.Directions {
		var base float64
		for b := range w.table.Freq {
			v := w.table.Freq[b][s]
			if v <= 0 {
				continue
			}
			inner, outer := base*scale, (base+v)*scale
			poly := wedge(center, inner, outer, dir-half, dir+half)
			c.FillPolygon(w.colors[b], poly)
			c.StrokeLines(w.edge, append(poly, poly[0]))
			base += v
		}
	}
}

// DataRange implements plot.DataRanger so the hidden axes stay finite.
func (w *windRose) DataRange() (xmin, xmax, ymin, ymax float64) {
	return -1, 1, -1, 1
}

func polar(center vg.Point, r, deg float64) vg.Point {
	rad := deg * math.Pi / 180
	return vg.Point{
		X: center.X + vg.Length(r*math.Sin(rad)),
		Y: center.Y + vg.Length(r*math.Cos(rad)),
	}
}

func arc(center vg.Point, r, from, to float64, steps int) []vg.Point {
	pts := make([]vg.Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		pts = append(pts, polar(center, r, from+(to-from)*float64(i)/float64(steps)))
	}
	return pts
}

func wedge(center vg.Point, inner, outer, from, to float64) []vg.Point {
	pts := arc(center, outer, from, to, arcSteps)
	back := arc(center, inner, to, from, arcSteps)
	return append(pts, back...)
}

// niceCeil rounds v up to 1, 2 or 5 times a power of ten.
func niceCeil(v float64) float64 {
	if v <= 0 {
		return 1
	}
	exp := math.Pow(10, math.Floor(math.Log10(v)))
	for _, m := range []float64{1, 2, 5, 10} {
		if m*exp >= v {
			return m * exp
		}
	}
	return 10 * exp
}

func windRosePanel(ds *domain.Dataset, speedColumn, dirColumn, title, legendTitle string) (*plot.Plot, error) {
	table, err := ds.WindRose(speedColumn, dirColumn, domain.DefaultSectors)
	if err != nil {
		return nil, err
	}
	p := newPlot(title, "", "")
	p.HideAxes()
	rose := newWindRose(table, p.Title.TextStyle)
	p.Add(rose)

	p.Legend.Add(legendTitle)
	for b := range table.SpeedEdges {
		p.Legend.Add(table.SpeedLabel(b), swatch{color: rose.colors[b]})
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.TextStyle.Font.Size = vg.Points(8)
	return p, nil
}
