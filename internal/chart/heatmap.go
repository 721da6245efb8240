package chart

import (
	"fmt"
	"image/color"
	"math"

	"github.com/couchcryptid/solar-eda/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"
)

const heatmapLevels = 64

// correlationGrid adapts a correlation matrix to plotter.GridXYZ with the
// first column drawn in the top row.
type correlationGrid struct {
	m domain.CorrelationMatrix
}

func (g correlationGrid) Dims() (c, r int) {
	n := len(g.m.Columns)
	return n, n
}

func (g correlationGrid) Z(c, r int) float64 {
	n := len(g.m.Columns)
	return g.m.Values[n-1-r][c]
}

func (g correlationGrid) X(c int) float64 { return float64(c) }
func (g correlationGrid) Y(r int) float64 { return float64(r) }

func heatmapPanel(ds *domain.Dataset, columns []string, title string) (*plot.Plot, error) {
	m, err := ds.Correlation(columns)
	if err != nil {
		return nil, err
	}
	n := len(m.Columns)

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)

	hm := plotter.NewHeatMap(correlationGrid{m: m}, cmap.Palette(heatmapLevels))
	hm.Min, hm.Max = -1, 1
	hm.NaN = color.Gray{Y: 235}

	p := newPlot(title, "", "")
	p.Add(hm)

	var xys plotter.XYs
	var labels []string
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			v := m.Values[n-1-r][c]
			xys = append(xys, plotter.XY{X: float64(c), Y: float64(r)})
			if math.IsNaN(v) {
				labels = append(labels, "")
				continue
			}
			labels = append(labels, fmt.Sprintf("%.2f", v))
		}
	}
	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("heatmap labels: %w", err)
	}
	for i := range lbl.TextStyle {
		lbl.TextStyle[i].XAlign = draw.XCenter
		lbl.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(lbl)

	reversed := make([]string, n)
	for i, name := range m.Columns {
		reversed[n-1-i] = name
	}
	p.NominalX(m.Columns...)
	p.NominalY(reversed...)
	return p, nil
}
