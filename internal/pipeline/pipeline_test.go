package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/couchcryptid/solar-eda/internal/chart"
	"github.com/couchcryptid/solar-eda/internal/domain"
	"github.com/couchcryptid/solar-eda/internal/mockdata"
	"github.com/couchcryptid/solar-eda/internal/observability"
	"github.com/couchcryptid/solar-eda/internal/pipeline"
	"github.com/couchcryptid/solar-eda/internal/store"
	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zip"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.AnalysisEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, events ...domain.AnalysisEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, events...)
	return nil
}

func (m *mockPublisher) types() []domain.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.EventType, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPipeline(t *testing.T, pub pipeline.Publisher) (*pipeline.Pipeline, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(store.New(8), pub, discardLogger(), metrics, pipeline.Options{
		Format:    chart.SVG,
		WidthCM:   20,
		HeightCM:  12,
		MaxPoints: 500,
	})
	return p, metrics
}

func stationCSV(i, rows int) []byte {
	return mockdata.CSV(mockdata.Options{Station: mockdata.Stations[i], Rows: rows, Seed: uint64(i + 1), MissingRate: 0.01})
}

func zipOf(t *testing.T, files map[string][]byte, order []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func loaded(t *testing.T, p *pipeline.Pipeline, uploads ...pipeline.Upload) []pipeline.LoadResult {
	t.Helper()
	res, err := p.Ingest(context.Background(), uploads)
	require.NoError(t, err)
	return res
}

// --- ingest ---

func TestIngest_PreservesOrderAndIsolatesErrors(t *testing.T) {
	pub := &mockPublisher{}
	p, metrics := newPipeline(t, pub)

	archive := zipOf(t, map[string][]byte{
		"sierraleone-bumbuna.csv": stationCSV(1, 20),
		"togo-dapaong_qc.csv":     stationCSV(2, 30),
	}, []string{"sierraleone-bumbuna.csv", "togo-dapaong_qc.csv"})

	res := loaded(t, p,
		pipeline.Upload{Name: "benin-malanville.csv", Data: stationCSV(0, 10)},
		pipeline.Upload{Name: "broken.csv", Data: []byte("A,B\n1,2,3\n")},
		pipeline.Upload{Name: "stations.zip", Data: archive},
		pipeline.Upload{Name: "notes.txt", Data: []byte("hello")},
	)

	files := make([]string, len(res))
	for i, r := range res {
		files[i] = r.File
	}
	want := []string{"benin-malanville.csv", "broken.csv", "sierraleone-bumbuna.csv", "togo-dapaong_qc.csv", "notes.txt"}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("result order mismatch (-want +got):\n%s", diff)
	}

	assert.True(t, res[0].OK())
	assert.Equal(t, 10, res[0].Rows)
	assert.Equal(t, len(mockdata.Columns), res[0].Columns)
	assert.Equal(t, "Successfully loaded benin-malanville.csv", res[0].Message())
	assert.False(t, res[1].OK())
	assert.Contains(t, res[1].Message(), "Error loading broken.csv: ")
	assert.Equal(t, 30, res[3].Rows)
	assert.ErrorContains(t, errors.New(res[4].Error), domain.ErrUnsupportedFile.Error())

	names := make([]string, 0, 3)
	for _, ds := range p.Datasets() {
		names = append(names, ds.Name)
	}
	assert.Equal(t, []string{"benin-malanville.csv", "sierraleone-bumbuna.csv", "togo-dapaong_qc.csv"}, names)

	assert.Equal(t, []domain.EventType{
		domain.EventDatasetLoaded,
		domain.EventDatasetLoadFailed,
		domain.EventDatasetLoaded,
		domain.EventDatasetLoaded,
		domain.EventDatasetLoadFailed,
	}, pub.types())

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Uploads.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Uploads.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.DatasetsLoaded))
}

func TestIngest_CancelledContext(t *testing.T) {
	p, _ := newPipeline(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Ingest(ctx, []pipeline.Upload{{Name: "a.csv", Data: stationCSV(0, 5)}})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, p.Datasets())
}

func TestIngest_PublisherErrorIsNotFatal(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker down")}
	p, metrics := newPipeline(t, pub)

	res := loaded(t, p, pipeline.Upload{Name: "a.csv", Data: stationCSV(0, 5)})
	require.Len(t, res, 1)
	assert.True(t, res[0].OK())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("error")))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "benin-malanville.csv"), stationCSV(0, 12), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# data"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "raw"), 0o755))

	p, _ := newPipeline(t, nil)
	res, err := p.LoadDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.True(t, res[0].OK())

	ds, err := p.Dataset("benin-malanville.csv")
	require.NoError(t, err)
	rows, _ := ds.Shape()
	assert.Equal(t, 12, rows)
}

func TestLoadDir_Missing(t *testing.T) {
	p, _ := newPipeline(t, nil)
	_, err := p.LoadDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

// --- clip and reset ---

func clipSample(t *testing.T, pub pipeline.Publisher) *pipeline.Pipeline {
	t.Helper()
	p, _ := newPipeline(t, pub)
	loaded(t, p, pipeline.Upload{Name: "s.csv", Data: []byte("GHI,Tamb\n-5,20\n500,21\n1500,\n")})
	return p
}

func TestClip_PersistsAndReset(t *testing.T) {
	pub := &mockPublisher{}
	p := clipSample(t, pub)

	res, err := p.Clip(context.Background(), pipeline.ClipRequest{Dataset: "s.csv", Columns: []string{"GHI"}, Min: 0, Max: 1000})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Changed)

	ds, err := p.Dataset("s.csv")
	require.NoError(t, err)
	vs, err := ds.Floats("GHI")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 500, 1000}, vs)
	assert.True(t, ds.Modified())

	orig, err := p.Reset(context.Background(), "s.csv")
	require.NoError(t, err)
	assert.False(t, orig.Modified())
	vs, err = orig.Floats("GHI")
	require.NoError(t, err)
	assert.Equal(t, []float64{-5, 500, 1500}, vs)

	assert.Equal(t, []domain.EventType{
		domain.EventDatasetLoaded,
		domain.EventOutliersClipped,
		domain.EventDatasetReset,
	}, pub.types())
}

func TestClip_InvertedBounds(t *testing.T) {
	p, _ := newPipeline(t, nil)
	loaded(t, p, pipeline.Upload{Name: "v.csv", Data: []byte("v\n1\n5\n10\n")})

	res, err := p.Clip(context.Background(), pipeline.ClipRequest{Dataset: "v.csv", Columns: []string{"v"}, Min: 8, Max: 2})
	require.NoError(t, err)

	vs, err := res.Dataset.Floats("v")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 5, 8}, vs)
}

func TestClip_EventsCountPerColumn(t *testing.T) {
	pub := &mockPublisher{}
	p := clipSample(t, pub)

	_, err := p.Clip(context.Background(), pipeline.ClipRequest{Dataset: "s.csv", Columns: []string{"GHI", "Tamb"}, Min: 1000, Max: 0})
	require.NoError(t, err)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.events, 3)
	gotChanged := map[string]int{}
	for _, e := range pub.events[1:] {
		require.Equal(t, domain.EventOutliersClipped, e.Type)
		assert.InDelta(t, 0.0, *e.Min, 0)
		assert.InDelta(t, 1000.0, *e.Max, 0)
		gotChanged[e.Column] = e.Changed
	}
	assert.Equal(t, map[string]int{"GHI": 2, "Tamb": 0}, gotChanged)
}

func TestReset_Unmodified(t *testing.T) {
	pub := &mockPublisher{}
	p := clipSample(t, pub)

	_, err := p.Reset(context.Background(), "s.csv")
	require.NoError(t, err)
	assert.Equal(t, []domain.EventType{domain.EventDatasetLoaded}, pub.types())

	_, err = p.Reset(context.Background(), "other.csv")
	require.ErrorIs(t, err, domain.ErrDatasetNotFound)
}

func TestRemove(t *testing.T) {
	pub := &mockPublisher{}
	p := clipSample(t, pub)

	require.NoError(t, p.Remove(context.Background(), "s.csv"))
	assert.Empty(t, p.Datasets())
	assert.Equal(t, []domain.EventType{domain.EventDatasetLoaded, domain.EventDatasetRemoved}, pub.types())

	err := p.Remove(context.Background(), "s.csv")
	require.ErrorIs(t, err, domain.ErrDatasetNotFound)
}

func TestClip_Errors(t *testing.T) {
	p := clipSample(t, nil)

	tests := []struct {
		name string
		req  pipeline.ClipRequest
		want error
	}{
		{"no columns", pipeline.ClipRequest{Dataset: "s.csv", Min: 0, Max: 1}, pipeline.ErrInvalidRequest},
		{"blank column", pipeline.ClipRequest{Dataset: "s.csv", Columns: []string{""}, Max: 1}, pipeline.ErrInvalidRequest},
		{"no dataset", pipeline.ClipRequest{Columns: []string{"GHI"}, Max: 1}, pipeline.ErrInvalidRequest},
		{"unknown dataset", pipeline.ClipRequest{Dataset: "x.csv", Columns: []string{"GHI"}, Max: 1}, domain.ErrDatasetNotFound},
		{"unknown column", pipeline.ClipRequest{Dataset: "s.csv", Columns: []string{"Nope"}, Max: 1}, domain.ErrUnknownColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Clip(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.want)
		})
	}

	_, err := p.Clip(context.Background(), pipeline.ClipRequest{Dataset: "s.csv", Columns: []string{"GHI"}, Min: 10, Max: 1})
	assert.ErrorContains(t, err, "Max must be greater than or equal to Min")
}

// --- render ---

func TestRender_AllKinds(t *testing.T) {
	p, metrics := newPipeline(t, nil)
	loaded(t, p, pipeline.Upload{Name: "benin.csv", Data: stationCSV(0, 400)})

	reqs := []pipeline.ChartRequest{
		{Kind: chart.KindBox, Column: "GHI"},
		{Kind: chart.KindTimeSeries, Column: "GHI", Timestamp: "Timestamp"},
		{Kind: chart.KindHeatmap, Columns: []string{"GHI", "DNI", "DHI"}},
		{Kind: chart.KindHeatmap},
		{Kind: chart.KindWindRose, Speed: "WS", Direction: "WD"},
		{Kind: chart.KindHistogram, Column: "Tamb"},
		{Kind: chart.KindScatter, X: "RH", Y: "Tamb"},
		{Kind: chart.KindZScore, Column: "GHI"},
		{Kind: chart.KindBubble, X: "GHI", Y: "Tamb", Size: "WS", Hue: "RH"},
	}
	for _, req := range reqs {
		t.Run(string(req.Kind), func(t *testing.T) {
			req.Dataset = "benin.csv"
			var buf bytes.Buffer
			format, err := p.Render(context.Background(), req, &buf)
			require.NoError(t, err)
			assert.Equal(t, chart.SVG, format)
			assert.Contains(t, buf.String(), "<svg")
		})
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ChartsRendered.WithLabelValues("box", "svg")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ChartsRendered.WithLabelValues("heatmap", "svg")))
}

func TestRender_PNG(t *testing.T) {
	p, _ := newPipeline(t, nil)
	loaded(t, p, pipeline.Upload{Name: "benin.csv", Data: stationCSV(0, 50)})

	var buf bytes.Buffer
	format, err := p.Render(context.Background(), pipeline.ChartRequest{
		Dataset: "benin.csv", Kind: chart.KindHistogram, Column: "GHI", Format: chart.PNG, WidthCM: 10, HeightCM: 8,
	}, &buf)
	require.NoError(t, err)
	assert.Equal(t, chart.PNG, format)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestRender_Errors(t *testing.T) {
	p, metrics := newPipeline(t, nil)
	loaded(t, p, pipeline.Upload{Name: "benin.csv", Data: stationCSV(0, 50)})

	tests := []struct {
		name string
		req  pipeline.ChartRequest
		want error
		msg  string
	}{
		{"unknown kind", pipeline.ChartRequest{Dataset: "benin.csv", Kind: "pie"}, pipeline.ErrInvalidRequest, "Kind must be one of"},
		{"missing column", pipeline.ChartRequest{Dataset: "benin.csv", Kind: chart.KindBox}, pipeline.ErrInvalidRequest, "Column is required for box charts"},
		{"missing bubble fields", pipeline.ChartRequest{Dataset: "benin.csv", Kind: chart.KindBubble, X: "GHI"}, pipeline.ErrInvalidRequest, "Hue is required"},
		{"bad format", pipeline.ChartRequest{Dataset: "benin.csv", Kind: chart.KindBox, Column: "GHI", Format: "gif"}, pipeline.ErrInvalidRequest, "Format"},
		{"unknown dataset", pipeline.ChartRequest{Dataset: "x.csv", Kind: chart.KindBox, Column: "GHI"}, domain.ErrDatasetNotFound, ""},
		{"non-numeric column", pipeline.ChartRequest{Dataset: "benin.csv", Kind: chart.KindHistogram, Column: "Timestamp"}, domain.ErrNotNumeric, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Render(context.Background(), tt.req, io.Discard)
			require.ErrorIs(t, err, tt.want)
			if tt.msg != "" {
				assert.ErrorContains(t, err, tt.msg)
			}
		})
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ChartErrors.WithLabelValues("histogram")))
}

// --- readiness ---

func TestCheckReadiness(t *testing.T) {
	p, _ := newPipeline(t, nil)
	require.Error(t, p.CheckReadiness(context.Background()))

	p.MarkReady()
	require.NoError(t, p.CheckReadiness(context.Background()))
}
