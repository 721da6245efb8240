// Command genmock writes synthetic station CSVs shaped like the reference
// solar measurement exports. Output is deterministic for a given seed and
// start time.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -rows 10080 -interval 1m
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/solar-eda/internal/mockdata"
	"github.com/jonboulle/clockwork"
	"github.com/klauspost/pgzip"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock", "output directory")
	rows := flag.Int("rows", 7*24*60, "rows per station")
	interval := flag.Duration("interval", time.Minute, "time between rows")
	start := flag.String("start", "2021-08-09T00:01:00Z", "timestamp of the first row (RFC3339)")
	seed := flag.Uint64("seed", 42, "random seed")
	missing := flag.Float64("missing", 0.01, "probability of an empty WS or RH cell")
	outliers := flag.Float64("outliers", 0.001, "probability of a GHI sensor spike")
	gz := flag.Bool("gzip", false, "write .csv.gz files")
	flag.Parse()

	if *rows <= 0 {
		return fmt.Errorf("-rows must be positive")
	}
	startAt, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	for i, st := range mockdata.Stations {
		opts := mockdata.Options{
			Station:     st,
			Clock:       clockwork.NewFakeClockAt(startAt),
			Rows:        *rows,
			Interval:    *interval,
			Seed:        *seed + uint64(i),
			MissingRate: *missing,
			OutlierRate: *outliers,
		}
		path, err := writeStation(*out, opts, *gz)
		if err != nil {
			return fmt.Errorf("writing %s: %w", st.Name, err)
		}
		log.Printf("%s: %d rows -> %s", st.Name, *rows, path)
	}
	return nil
}

func writeStation(dir string, opts mockdata.Options, gz bool) (string, error) {
	name := opts.Station.Name + ".csv"
	if gz {
		name += ".gz"
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if !gz {
		if err := mockdata.WriteCSV(f, opts); err != nil {
			return "", err
		}
		return path, f.Close()
	}

	zw := pgzip.NewWriter(f)
	if err := mockdata.WriteCSV(zw, opts); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return path, f.Close()
}
