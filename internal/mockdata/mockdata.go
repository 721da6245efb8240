// Package mockdata generates deterministic synthetic station exports with the
// same layout as real solar monitoring CSVs.
package mockdata

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/couchcryptid/solar-eda/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Columns is the header of every generated file.
var Columns = []string{
	"Timestamp", "GHI", "DNI", "DHI", "ModA", "ModB", "Tamb", "RH",
	"WS", "WSgust", "WSstdev", "WD", "WDstdev", "BP", "Cleaning",
	"Precipitation", "TModA", "TModB", "Comments",
}

// TimestampLayout matches the station exports.
const TimestampLayout = "2006-01-02 15:04"

// Station describes the climate a generated file imitates.
type Station struct {
	Name     string
	BaseTemp float64 // mean ambient temperature, °C
	Humidity float64 // mean relative humidity, %
	Wind     float64 // mean wind speed, m/s
	WindDir  float64 // prevailing direction, degrees
	Pressure float64 // mean barometric pressure, hPa
}

// Stations mirrors the three reference sites.
var Stations = []Station{
	{Name: "benin-malanville", BaseTemp: 28, Humidity: 55, Wind: 2.1, WindDir: 45, Pressure: 994},
	{Name: "sierraleone-bumbuna", BaseTemp: 24, Humidity: 80, Wind: 1.1, WindDir: 225, Pressure: 1002},
	{Name: "togo-dapaong_qc", BaseTemp: 27, Humidity: 55, Wind: 2.4, WindDir: 90, Pressure: 975},
}

// Options controls generation.
type Options struct {
	Station  Station
	Clock    clockwork.Clock // start time source; defaults to a fixed date
	Rows     int
	Interval time.Duration // defaults to one minute
	Seed     uint64
	// MissingRate is the probability that WS and RH cells are left empty.
	MissingRate float64
	// OutlierRate is the probability that a GHI value is a sensor spike.
	OutlierRate float64
}

func (o Options) start() time.Time {
	if o.Clock == nil {
		return time.Date(2021, time.August, 9, 0, 1, 0, 0, time.UTC)
	}
	return o.Clock.Now()
}

// Records generates the CSV records for opts, header first.
func Records(opts Options) [][]string {
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	st := opts.Station
	start := opts.start()

	out := make([][]string, 0, opts.Rows+1)
	out = append(out, Columns)
	for i := 0; i < opts.Rows; i++ {
		ts := start.Add(time.Duration(i) * interval)
		hour := float64(ts.Hour()) + float64(ts.Minute())/60
		sun := math.Max(0, math.Sin(math.Pi*(hour-6)/12))

		ghi := 1000*sun + rng.NormFloat64()*15
		if sun == 0 {
			ghi = -rng.Float64() * 2
		}
		if opts.OutlierRate > 0 && rng.Float64() < opts.OutlierRate {
			ghi = 1500 + rng.Float64()*500
		}
		dni := math.Max(0, 0.75*ghi+rng.NormFloat64()*10)
		dhi := math.Max(0, ghi-dni*sun)
		modA := math.Max(0, 0.97*ghi+rng.NormFloat64()*8)
		modB := math.Max(0, 0.95*ghi+rng.NormFloat64()*8)
		tamb := st.BaseTemp + 7*sun - 3*(1-sun) + rng.NormFloat64()
		rh := domain.ClampValue(st.Humidity-25*sun+15*(1-sun)+rng.NormFloat64()*4, 5, 100)
		ws := math.Abs(st.Wind + 1.5*sun + rng.NormFloat64()*0.8)
		wd := math.Mod(st.WindDir+rng.NormFloat64()*50+360, 360)
		precip := 0.0
		if rng.Float64() < 0.01 {
			precip = rng.Float64() * 2.5
		}
		cleaning := 0
		if ts.Hour() == 6 && ts.Minute() == 0 && ts.Weekday() == time.Monday {
			cleaning = 1
		}

		wsCell, rhCell := f1(ws), f1(rh)
		if opts.MissingRate > 0 && rng.Float64() < opts.MissingRate {
			wsCell = ""
		}
		if opts.MissingRate > 0 && rng.Float64() < opts.MissingRate {
			rhCell = ""
		}

		out = append(out, []string{
			ts.Format(TimestampLayout),
			f1(ghi), f1(dni), f1(dhi), f1(modA), f1(modB),
			f1(tamb), rhCell,
			wsCell, f1(ws * (1.3 + rng.Float64()*0.4)), f1(0.2 + rng.Float64()*0.6),
			strconv.Itoa(int(wd)), f1(5 + rng.Float64()*15),
			strconv.Itoa(int(st.Pressure + rng.NormFloat64()*2)),
			strconv.Itoa(cleaning), f1(precip),
			f1(tamb + 22*sun), f1(tamb + 20*sun),
			"",
		})
	}
	return out
}

// WriteCSV writes a generated file to w.
func WriteCSV(w io.Writer, opts Options) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Records(opts)); err != nil {
		return fmt.Errorf("write mock csv: %w", err)
	}
	return nil
}

// CSV returns a generated file as bytes.
func CSV(opts Options) []byte {
	var buf bytes.Buffer
	_ = WriteCSV(&buf, opts)
	return buf.Bytes()
}

// Dataset parses a generated file into a dataset named after the station.
func Dataset(opts Options) (*domain.Dataset, error) {
	return domain.ParseCSV(opts.Station.Name+".csv", bytes.NewReader(CSV(opts)))
}

func f1(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
