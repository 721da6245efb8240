package chart_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/couchcryptid/solar-eda/internal/chart"
	"github.com/couchcryptid/solar-eda/internal/domain"
	"github.com/couchcryptid/solar-eda/internal/mockdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func station(t *testing.T, i int) *domain.Dataset {
	t.Helper()
	ds, err := mockdata.Dataset(mockdata.Options{
		Station:     mockdata.Stations[i],
		Rows:        600,
		Interval:    5 * 60 * 1e9,
		Seed:        uint64(i + 1),
		MissingRate: 0.02,
	})
	require.NoError(t, err)
	return ds
}

func renderSVG(t *testing.T, f *chart.Figure) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, f.Render(&buf, chart.SVG))
	out := buf.String()
	require.Contains(t, out, "<svg")
	return out
}

func TestParseFormat(t *testing.T) {
	f, err := chart.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, chart.SVG, f)

	f, err = chart.ParseFormat("png")
	require.NoError(t, err)
	assert.Equal(t, chart.PNG, f)
	assert.Equal(t, "image/png", f.ContentType())

	_, err = chart.ParseFormat("pdf")
	require.ErrorIs(t, err, chart.ErrUnsupportedFormat)
}

func TestParseKind(t *testing.T) {
	for _, k := range chart.Kinds {
		got, err := chart.ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := chart.ParseKind("pie")
	require.ErrorIs(t, err, chart.ErrUnknownKind)
}

func TestDashboardCharts_RenderSVG(t *testing.T) {
	ds := station(t, 0)

	tests := []struct {
		name  string
		build func() (*chart.Figure, error)
		title string
	}{
		{"box", func() (*chart.Figure, error) { return chart.BoxPlot(ds, "GHI") }, "Box Plot of GHI"},
		{"timeseries", func() (*chart.Figure, error) { return chart.TimeSeries(ds, "Timestamp", "GHI", 200) }, "Time Series: GHI"},
		{"heatmap", func() (*chart.Figure, error) {
			return chart.CorrelationHeatmap(ds, []string{"GHI", "DNI", "DHI", "Tamb"})
		}, "Correlation Heatmap"},
		{"windrose", func() (*chart.Figure, error) { return chart.WindRose(ds, "WS", "WD") }, "Windrose Plot"},
		{"histogram", func() (*chart.Figure, error) { return chart.Histogram(ds, "Tamb") }, "Histogram of Tamb"},
		{"scatter", func() (*chart.Figure, error) { return chart.TemperatureHumidity(ds, "Tamb", "RH") }, "Tamb vs RH"},
		{"zscore", func() (*chart.Figure, error) { return chart.ZScoreHistogram(ds, "GHI") }, "Z-Scores for GHI"},
		{"bubble", func() (*chart.Figure, error) { return chart.BubbleChart(ds, "GHI", "Tamb", "WS", "RH") }, "Bubble Chart: GHI vs Tamb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.build()
			require.NoError(t, err)
			assert.Equal(t, 1, f.Panels())
			assert.Contains(t, renderSVG(t, f), tt.title)
		})
	}
}

func TestFigure_RenderPNG(t *testing.T) {
	f, err := chart.Histogram(station(t, 1), "WS")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Render(&buf, chart.PNG))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestFigure_RenderUnsupportedFormat(t *testing.T) {
	f, err := chart.BoxPlot(station(t, 0), "GHI")
	require.NoError(t, err)

	err = f.Render(&bytes.Buffer{}, chart.Format("gif"))
	require.ErrorIs(t, err, chart.ErrUnsupportedFormat)
}

func TestDashboardCharts_ColumnErrors(t *testing.T) {
	ds := station(t, 0)

	_, err := chart.BoxPlot(ds, "Missing")
	require.ErrorIs(t, err, domain.ErrUnknownColumn)

	_, err = chart.Histogram(ds, "Comments")
	require.ErrorIs(t, err, domain.ErrNotNumeric)

	_, err = chart.TimeSeries(ds, "GHI", "Tamb", 100)
	require.ErrorIs(t, err, domain.ErrNoTimestamps)
}

func TestNotebookHelpers(t *testing.T) {
	datasets := []*domain.Dataset{station(t, 0), station(t, 1), station(t, 2)}
	titles := []string{"Benin", "Sierra Leone", "Togo"}

	t.Run("time series panels", func(t *testing.T) {
		f, err := chart.TimeSeriesPanels(datasets[0], "Benin", "Timestamp", []string{"GHI", "DNI", "DHI", "Tamb"}, 200)
		require.NoError(t, err)
		assert.Equal(t, 2, f.Rows)
		assert.Equal(t, 2, f.Cols)
		assert.Equal(t, 4, f.Panels())
		assert.Contains(t, renderSVG(t, f), "Benin Time Series Data")
	})

	t.Run("monthly trends", func(t *testing.T) {
		columns := []string{"GHI", "DNI", "DHI", "Tamb"}
		f, err := chart.MonthlyTrends(datasets[0], "Benin", "Timestamp", columns)
		require.NoError(t, err)
		assert.Equal(t, len(columns), f.Panels())
		assert.Equal(t, 2, f.Rows)
		assert.Equal(t, 2, f.Cols)
		assert.Equal(t, "Tamb", f.Panel(1, 1).Title.Text)
		assert.Contains(t, renderSVG(t, f), "Benin Monthly Trends")
	})

	t.Run("correlation heatmaps", func(t *testing.T) {
		f, err := chart.CorrelationHeatmaps(datasets, titles, []string{"GHI", "DNI", "DHI"})
		require.NoError(t, err)
		assert.Equal(t, 3, f.Panels())
		svg := renderSVG(t, f)
		assert.Contains(t, svg, "Correlation Heatmap")
		assert.Contains(t, svg, "Sierra Leone")
	})

	t.Run("scatter pairs", func(t *testing.T) {
		f, err := chart.ScatterPairs(datasets[2], "Togo", []string{"GHI", "DNI", "DHI", "Tamb"})
		require.NoError(t, err)
		assert.Equal(t, 6, f.Panels())
		assert.Equal(t, 2, f.Rows)
		svg := renderSVG(t, f)
		assert.Contains(t, svg, "Togo Scatter Plots")
		assert.Contains(t, svg, "GHI vs DNI")
	})

	t.Run("wind roses", func(t *testing.T) {
		f, err := chart.WindRoses(datasets, titles, "WS", "WD")
		require.NoError(t, err)
		assert.Contains(t, renderSVG(t, f), "Wind Speed (m/s)")
	})

	t.Run("histogram grid", func(t *testing.T) {
		f, err := chart.HistogramGrid(datasets, titles, []string{"GHI", "WS"})
		require.NoError(t, err)
		assert.Equal(t, 2, f.Rows)
		assert.Equal(t, 3, f.Cols)
		assert.Contains(t, renderSVG(t, f), "Togo - WS")
	})

	t.Run("z-score grid", func(t *testing.T) {
		f, err := chart.ZScoreGrid(datasets, titles, []string{"Tamb"})
		require.NoError(t, err)
		svg := renderSVG(t, f)
		assert.Contains(t, svg, "Benin - Tamb Z-scores")
		assert.Contains(t, svg, "Tamb Z-score")
	})

	t.Run("bubble charts", func(t *testing.T) {
		f, err := chart.BubbleCharts(datasets, titles, "GHI", "Tamb", "WS", "RH")
		require.NoError(t, err)
		assert.Equal(t, 3, f.Panels())
		renderSVG(t, f)
	})

	t.Run("temperature vs humidity", func(t *testing.T) {
		f, err := chart.TemperatureHumidityPanels(datasets, titles, "Tamb", "RH")
		require.NoError(t, err)
		svg := renderSVG(t, f)
		assert.Contains(t, svg, "Relative Humidity (%)")
		assert.True(t, strings.Contains(svg, "Ambient Temperature"))
	})
}

func TestNotebookHelpers_Errors(t *testing.T) {
	ds := station(t, 0)

	_, err := chart.CorrelationHeatmaps([]*domain.Dataset{ds}, nil, nil)
	require.Error(t, err)

	_, err = chart.WindRoses(nil, nil, "WS", "WD")
	require.ErrorIs(t, err, domain.ErrNoData)

	_, err = chart.MonthlyTrends(ds, "Benin", "Timestamp", nil)
	require.ErrorIs(t, err, domain.ErrNoData)

	_, err = chart.ScatterPairs(ds, "Benin", []string{"GHI"})
	require.ErrorIs(t, err, domain.ErrNoData)

	_, err = chart.HistogramGrid([]*domain.Dataset{ds}, []string{"Benin"}, []string{"Nope"})
	require.True(t, errors.Is(err, domain.ErrUnknownColumn))
}
