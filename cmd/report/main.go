// Command report renders the exploratory figures for every station CSV in a
// directory and writes a summary workbook next to them.
//
// Usage:
//
//	go run ./cmd/report \
//	  -data-dir data \
//	  -out reports \
//	  -clip GHI:0:1200,DNI:0:1000
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/couchcryptid/solar-eda/internal/adapter/xlsx"
	"github.com/couchcryptid/solar-eda/internal/chart"
	"github.com/couchcryptid/solar-eda/internal/domain"
	"github.com/couchcryptid/solar-eda/internal/observability"
	"github.com/couchcryptid/solar-eda/internal/pipeline"
	"github.com/couchcryptid/solar-eda/internal/store"
	"golang.org/x/sync/errgroup"
)

var (
	irradiance  = []string{"GHI", "DNI", "DHI"}
	seriesCols  = []string{"GHI", "DNI", "DHI", "Tamb"}
	heatmapCols = []string{"GHI", "DNI", "DHI", "TModA", "TModB"}
	histCols    = []string{"GHI", "DNI", "DHI", "WS", "Tamb"}
)

// stationTitles names the reference stations in figure titles.
var stationTitles = map[string]string{
	"benin-malanville.csv":    "Benin",
	"sierraleone-bumbuna.csv": "Sierra Leone",
	"togo-dapaong_qc.csv":     "Togo",
}

// phase tracks pass/fail for a report phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// clipRule bounds one column before rendering.
type clipRule struct {
	column   string
	min, max float64
}

type options struct {
	dataDir   string
	outDir    string
	format    chart.Format
	maxPoints int
	clips     []clipRule
}

func main() {
	dataDir := flag.String("data-dir", "data", "directory containing station CSVs")
	outDir := flag.String("out", "reports", "output directory for figures and summary.xlsx")
	format := flag.String("format", "png", "figure format: svg or png")
	maxPoints := flag.Int("max-points", 5000, "points per time series line")
	clip := flag.String("clip", "", "comma separated COL:MIN:MAX bounds applied before rendering")
	flag.Parse()

	f, err := chart.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(2)
	}
	clips, err := parseClips(*clip)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(2)
	}

	opts := options{dataDir: *dataDir, outDir: *outDir, format: f, maxPoints: *maxPoints, clips: clips}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	os.Exit(run(context.Background(), opts, os.Stdout, logger))
}

// parseClips reads COL:MIN:MAX[,COL:MIN:MAX...].
func parseClips(s string) ([]clipRule, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []clipRule
	for _, part := range strings.Split(s, ",") {
		fields := strings.Split(strings.TrimSpace(part), ":")
		if len(fields) != 3 || fields[0] == "" {
			return nil, fmt.Errorf("invalid -clip %q: want COL:MIN:MAX", part)
		}
		lo, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid -clip minimum %q: %w", fields[1], err)
		}
		hi, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid -clip maximum %q: %w", fields[2], err)
		}
		out = append(out, clipRule{column: fields[0], min: lo, max: hi})
	}
	return out, nil
}

func run(ctx context.Context, opts options, stdout io.Writer, logger *slog.Logger) int {
	fmt.Fprintln(stdout, "=== Solar Data Report ===")
	fmt.Fprintln(stdout)

	p := pipeline.New(store.New(64), nil, logger, observability.NewMetricsForTesting(), pipeline.Options{
		Format:    opts.format,
		MaxPoints: opts.maxPoints,
	})
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		fmt.Fprintf(stdout, "FATAL: create output dir: %v\n", err)
		return 1
	}

	load := &phase{name: "Load datasets"}
	results, err := p.LoadDir(ctx, opts.dataDir)
	if err != nil {
		fmt.Fprintf(stdout, "FATAL: %v\n", err)
		return 1
	}
	for _, res := range results {
		if !res.OK() {
			load.errorf("%s: %s", res.File, res.Error)
		}
	}

	clip := &phase{name: "Clip outliers"}
	for _, ds := range p.Datasets() {
		for _, c := range opts.clips {
			res, err := p.Clip(ctx, pipeline.ClipRequest{Dataset: ds.Name, Columns: []string{c.column}, Min: c.min, Max: c.max})
			if err != nil {
				clip.errorf("%s %s: %v", ds.Name, c.column, err)
				continue
			}
			fmt.Fprintf(stdout, "  clipped %s %s to [%g, %g]: %d values\n", ds.Name, c.column, c.min, c.max, res.Changed)
		}
	}

	datasets := p.Datasets()
	figures := &phase{name: "Render figures"}
	written := renderAll(ctx, datasets, opts, figures)

	summary := &phase{name: "Summary workbook"}
	if len(datasets) == 0 {
		summary.errorf("no datasets loaded from %s", opts.dataDir)
	} else if err := writeSummary(filepath.Join(opts.outDir, "summary.xlsx"), datasets); err != nil {
		summary.errorf("%v", err)
	}

	phases := []*phase{load, clip, figures, summary}
	fmt.Fprintln(stdout)
	allPassed := true
	for _, ph := range phases {
		status := "\033[32mPASS\033[0m"
		if !ph.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(ph.errors))
			allPassed = false
		}
		fmt.Fprintf(stdout, "  %-42s %s\n", ph.name, status)
	}

	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "Datasets: %d loaded, %d figures written to %s\n", len(datasets), written, opts.outDir)

	for _, ph := range phases {
		if ph.passed() {
			continue
		}
		fmt.Fprintf(stdout, "\n--- %s ---\n", ph.name)
		for i, e := range ph.errors {
			fmt.Fprintf(stdout, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(stdout, "\nReport complete.")
		return 0
	}
	fmt.Fprintln(stdout, "\nReport FAILED.")
	return 1
}

// figureJob builds one output file.
type figureJob struct {
	file  string
	build func() (*chart.Figure, error)
}

func titleOf(name string) string {
	if t, ok := stationTitles[name]; ok {
		return t
	}
	return strings.TrimSuffix(name, ".csv")
}

func jobs(datasets []*domain.Dataset, maxPoints int) []figureJob {
	titles := make([]string, len(datasets))
	for i, ds := range datasets {
		titles[i] = titleOf(ds.Name)
	}

	var out []figureJob
	for i, ds := range datasets {
		title := titles[i]
		slug := strings.TrimSuffix(ds.Name, ".csv")
		out = append(out,
			figureJob{slug + "_time_series", func() (*chart.Figure, error) {
				return chart.TimeSeriesPanels(ds, title, "Timestamp", seriesCols, maxPoints)
			}},
			figureJob{slug + "_monthly_trends", func() (*chart.Figure, error) {
				return chart.MonthlyTrends(ds, title, "Timestamp", seriesCols)
			}},
			figureJob{slug + "_scatter", func() (*chart.Figure, error) {
				return chart.ScatterPairs(ds, title, seriesCols)
			}},
		)
	}
	out = append(out,
		figureJob{"correlation_heatmaps", func() (*chart.Figure, error) {
			return chart.CorrelationHeatmaps(datasets, titles, heatmapCols)
		}},
		figureJob{"correlation_heatmaps_all", func() (*chart.Figure, error) {
			return chart.CorrelationHeatmaps(datasets, titles, nil)
		}},
		figureJob{"wind_roses", func() (*chart.Figure, error) {
			return chart.WindRoses(datasets, titles, "WS", "WD")
		}},
		figureJob{"histograms", func() (*chart.Figure, error) {
			return chart.HistogramGrid(datasets, titles, histCols)
		}},
		figureJob{"z_scores", func() (*chart.Figure, error) {
			return chart.ZScoreGrid(datasets, titles, irradiance)
		}},
		figureJob{"bubble_charts", func() (*chart.Figure, error) {
			return chart.BubbleCharts(datasets, titles, "GHI", "Tamb", "WS", "RH")
		}},
		figureJob{"temperature_vs_humidity", func() (*chart.Figure, error) {
			return chart.TemperatureHumidityPanels(datasets, titles, "Tamb", "RH")
		}},
	)
	return out
}

// renderAll writes every figure concurrently and returns the number written.
// A failing figure is recorded on ph and never stops the others.
func renderAll(ctx context.Context, datasets []*domain.Dataset, opts options, ph *phase) int {
	if len(datasets) == 0 {
		return 0
	}
	todo := jobs(datasets, opts.maxPoints)
	errs := make([]error, len(todo))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, job := range todo {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = renderFile(filepath.Join(opts.outDir, job.file+"."+string(opts.format)), job.build, opts.format)
			return nil
		})
	}
	_ = g.Wait()

	written := 0
	for i, err := range errs {
		if err != nil {
			ph.errorf("%s: %v", todo[i].file, err)
			continue
		}
		written++
	}
	return written
}

func renderFile(path string, build func() (*chart.Figure, error), format chart.Format) error {
	fig, err := build()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fig.Render(f, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeSummary(path string, datasets []*domain.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := xlsx.Write(f, datasets...); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
