package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// DefaultSectors is the number of compass sectors in a wind rose.
	DefaultSectors = 16
	windSpeedEdges = 6
)

// WindRoseTable is a frequency table of wind observations by direction
// sector and speed bin, in percent of all observations.
type WindRoseTable struct {
	// Directions holds the center of each sector in degrees from north.
	Directions []float64
	// SpeedEdges are the lower bounds of the speed bins. The last bin is open.
	SpeedEdges []float64
	// Freq[b][s] is the share of observations in speed bin b and sector s.
	Freq [][]float64
	// Count is the number of observations with both speed and direction.
	Count int
}

// SectorWidth returns the angular width of one sector in degrees.
func (t WindRoseTable) SectorWidth() float64 {
	return 360 / float64(len(t.Directions))
}

// SpeedLabel renders the bounds of speed bin b.
func (t WindRoseTable) SpeedLabel(b int) string {
	lo := t.SpeedEdges[b]
	if b == len(t.SpeedEdges)-1 {
		return fmt.Sprintf(">=%.1f", lo)
	}
	return fmt.Sprintf("[%.1f : %.1f)", lo, t.SpeedEdges[b+1])
}

// WindRose bins wind speed against direction. Sector 0 is centered on north.
func (d *Dataset) WindRose(speedColumn, dirColumn string, sectors int) (WindRoseTable, error) {
	if sectors <= 0 {
		sectors = DefaultSectors
	}
	speed, err := d.Floats(speedColumn)
	if err != nil {
		return WindRoseTable{}, err
	}
	dir, err := d.Floats(dirColumn)
	if err != nil {
		return WindRoseTable{}, err
	}
	return BinWind(speed, dir, sectors)
}

// BinWind builds a WindRoseTable from paired speed and direction values,
// skipping pairs where either is missing.
func BinWind(speed, dir []float64, sectors int) (WindRoseTable, error) {
	var ss, ds []float64
	for i := range speed {
		if math.IsNaN(speed[i]) || math.IsNaN(dir[i]) {
			continue
		}
		ss = append(ss, speed[i])
		ds = append(ds, dir[i])
	}
	if len(ss) == 0 {
		return WindRoseTable{}, fmt.Errorf("wind rose: %w", ErrNoData)
	}

	width := 360 / float64(sectors)
	t := WindRoseTable{
		Directions: make([]float64, sectors),
		SpeedEdges: floats.Span(make([]float64, windSpeedEdges), floats.Min(ss), floats.Max(ss)),
		Freq:       make([][]float64, windSpeedEdges),
		Count:      len(ss),
	}
	for s := range t.Directions {
		t.Directions[s] = float64(s) * width
	}
	for b := range t.Freq {
		t.Freq[b] = make([]float64, sectors)
	}

	share := 100 / float64(len(ss))
	for i := range ss {
		t.Freq[speedBin(t.SpeedEdges, ss[i])][sectorOf(ds[i], width, sectors)] += share
	}
	return t, nil
}

func speedBin(edges []float64, v float64) int {
	for b := len(edges) - 1; b > 0; b-- {
		if v >= edges[b] {
			return b
		}
	}
	return 0
}

func sectorOf(deg, width float64, sectors int) int {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return int(math.Floor((deg+width/2)/width)) % sectors
}
