package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"github.com/couchcryptid/solar-eda/internal/adapter/archive"
	"github.com/couchcryptid/solar-eda/internal/chart"
	"github.com/couchcryptid/solar-eda/internal/domain"
	"github.com/couchcryptid/solar-eda/internal/observability"
	"github.com/couchcryptid/solar-eda/internal/store"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot/vg"
)

// Publisher delivers analysis events to an external sink.
type Publisher interface {
	Publish(ctx context.Context, events ...domain.AnalysisEvent) error
}

// Options holds rendering defaults.
type Options struct {
	Format    chart.Format
	WidthCM   float64
	HeightCM  float64
	MaxPoints int
}

// Pipeline runs the upload, select, clip and render flow against a store.
type Pipeline struct {
	store     *store.Store
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	validate  *validator.Validate
	opts      Options
	ready     atomic.Bool
}

// New creates a Pipeline. A nil publisher disables event publishing.
func New(st *store.Store, pub Publisher, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Format == "" {
		opts.Format = chart.SVG
	}
	if opts.MaxPoints <= 0 {
		opts.MaxPoints = 5000
	}
	return &Pipeline{
		store:     st,
		publisher: pub,
		logger:    logger,
		metrics:   metrics,
		validate:  newValidator(),
		opts:      opts,
	}
}

// MarkReady flags startup preloading as finished.
func (p *Pipeline) MarkReady() {
	p.ready.Store(true)
}

// CheckReadiness returns nil once startup preloading has finished.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("datasets are still being preloaded")
	}
	return nil
}

// Datasets returns every loaded dataset in load order.
func (p *Pipeline) Datasets() []*domain.Dataset {
	return p.store.List()
}

// Dataset returns the dataset registered under name.
func (p *Pipeline) Dataset(name string) (*domain.Dataset, error) {
	return p.store.Get(name)
}

// Upload is one file submitted for analysis.
type Upload struct {
	Name string
	Data []byte
}

// LoadResult reports the outcome of parsing one CSV document.
type LoadResult struct {
	File    string `json:"file"`
	Rows    int    `json:"rows,omitempty"`
	Columns int    `json:"columns,omitempty"`
	Error   string `json:"error,omitempty"`

	dataset *domain.Dataset
}

// OK reports whether the file parsed.
func (r LoadResult) OK() bool { return r.Error == "" }

// Message is the status line shown to the user for the file.
func (r LoadResult) Message() string {
	if r.OK() {
		return fmt.Sprintf("Successfully loaded %s", r.File)
	}
	return fmt.Sprintf("Error loading %s: %s", r.File, r.Error)
}

// Ingest parses uploads concurrently and registers every dataset that
// parsed. Results follow upload order, with archives expanded in place. A
// file that fails to parse is reported in its result and never affects the
// others; the returned error is only set when ctx is cancelled.
func (p *Pipeline) Ingest(ctx context.Context, uploads []Upload) ([]LoadResult, error) {
	slots := make([][]LoadResult, len(uploads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, up := range uploads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = parseUpload(up)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	var results []LoadResult
	var events []domain.AnalysisEvent
	for _, slot := range slots {
		for _, res := range slot {
			results = append(results, res)
			if !res.OK() {
				p.logger.Warn("dataset load failed", "file", res.File, "error", res.Error)
				p.metrics.Uploads.WithLabelValues("error").Inc()
				events = append(events, domain.LoadFailedEvent(res.File, errors.New(res.Error)))
				continue
			}
			if evicted, ok := p.store.Put(res.dataset); ok {
				p.logger.Info("dataset evicted", "dataset", evicted)
			}
			p.logger.Info("dataset loaded", "dataset", res.File, "rows", res.Rows, "columns", res.Columns)
			p.metrics.Uploads.WithLabelValues("success").Inc()
			p.metrics.DatasetRows.Observe(float64(res.Rows))
			events = append(events, domain.LoadedEvent(res.dataset))
		}
	}
	p.metrics.DatasetsLoaded.Set(float64(p.store.Len()))
	p.publish(ctx, events...)
	return results, nil
}

func parseUpload(up Upload) []LoadResult {
	files, err := archive.Expand(up.Name, up.Data)
	if err != nil {
		return []LoadResult{{File: up.Name, Error: err.Error()}}
	}
	out := make([]LoadResult, len(files))
	for i, f := range files {
		ds, err := domain.ParseCSV(f.Name, bytes.NewReader(f.Data))
		if err != nil {
			out[i] = LoadResult{File: f.Name, Error: err.Error()}
			continue
		}
		rows, cols := ds.Shape()
		out[i] = LoadResult{File: f.Name, Rows: rows, Columns: cols, dataset: ds}
	}
	return out
}

// LoadDir ingests every CSV and supported archive in dir.
func (p *Pipeline) LoadDir(ctx context.Context, dir string) ([]LoadResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var uploads []Upload
	for _, e := range entries {
		if e.IsDir() || !archive.Supported(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		uploads = append(uploads, Upload{Name: e.Name(), Data: data})
	}
	return p.Ingest(ctx, uploads)
}

// ClipRequest bounds the values of columns of a dataset.
type ClipRequest struct {
	Dataset string   `json:"dataset" validate:"required"`
	Columns []string `json:"columns" validate:"required,min=1,dive,required"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
}

// Clip clamps the requested columns and stores the result in place of the
// dataset. The original upload stays available to Reset.
func (p *Pipeline) Clip(ctx context.Context, req ClipRequest) (domain.ClipResult, error) {
	if err := p.check(req); err != nil {
		return domain.ClipResult{}, err
	}
	ds, err := p.store.Get(req.Dataset)
	if err != nil {
		return domain.ClipResult{}, err
	}
	res, err := ds.ClipColumns(req.Columns, req.Min, req.Max)
	if err != nil {
		return domain.ClipResult{}, err
	}
	if err := p.store.Replace(res.Dataset); err != nil {
		return domain.ClipResult{}, err
	}
	p.metrics.OutliersClipped.Add(float64(res.Changed))
	p.logger.Info("outliers clipped",
		"dataset", req.Dataset,
		"columns", req.Columns,
		"min", res.Lo,
		"max", res.Hi,
		"changed", res.Changed,
	)

	events := make([]domain.AnalysisEvent, 0, len(req.Columns))
	for _, col := range req.Columns {
		events = append(events, domain.ClippedEvent(req.Dataset, col, res.Lo, res.Hi, res.ByColumn[col]))
	}
	p.publish(ctx, events...)
	return res, nil
}

// Reset restores the dataset to its originally uploaded values.
func (p *Pipeline) Reset(ctx context.Context, name string) (*domain.Dataset, error) {
	ds, err := p.store.Get(name)
	if err != nil {
		return nil, err
	}
	if !ds.Modified() {
		return ds, nil
	}
	orig := ds.Original()
	if err := p.store.Replace(orig); err != nil {
		return nil, err
	}
	p.logger.Info("dataset reset", "dataset", name)
	p.publish(ctx, domain.NewEvent(domain.EventDatasetReset, name))
	return orig, nil
}

// Remove drops a dataset from the store.
func (p *Pipeline) Remove(ctx context.Context, name string) error {
	if !p.store.Delete(name) {
		return fmt.Errorf("%w: %q", domain.ErrDatasetNotFound, name)
	}
	p.metrics.DatasetsLoaded.Set(float64(p.store.Len()))
	p.logger.Info("dataset removed", "dataset", name)
	p.publish(ctx, domain.NewEvent(domain.EventDatasetRemoved, name))
	return nil
}

func (p *Pipeline) publish(ctx context.Context, events ...domain.AnalysisEvent) {
	if p.publisher == nil || len(events) == 0 {
		return
	}
	if err := p.publisher.Publish(ctx, events...); err != nil {
		p.logger.Error("publish events failed", "error", err, "count", len(events))
		p.metrics.EventsPublished.WithLabelValues("error").Add(float64(len(events)))
		return
	}
	p.metrics.EventsPublished.WithLabelValues("success").Add(float64(len(events)))
}

// figureSize converts centimeters to a plot length.
func figureSize(cm float64) vg.Length {
	return vg.Length(cm) * vg.Centimeter
}
