package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/couchcryptid/solar-eda/internal/chart"
	"github.com/couchcryptid/solar-eda/internal/domain"
)

// ChartRequest selects a dashboard chart and the columns it draws.
type ChartRequest struct {
	Dataset string     `json:"dataset" validate:"required"`
	Kind    chart.Kind `json:"kind" validate:"required,oneof=box timeseries heatmap windrose histogram scatter zscore bubble"`

	Column    string   `json:"column,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
	Columns   []string `json:"columns,omitempty" validate:"omitempty,dive,required"`
	Speed     string   `json:"speed,omitempty"`
	Direction string   `json:"direction,omitempty"`
	// X and Y are the scatter axes: humidity and temperature for the
	// temperature chart.
	X    string `json:"x,omitempty"`
	Y    string `json:"y,omitempty"`
	Size string `json:"size,omitempty"`
	Hue  string `json:"hue,omitempty"`

	Format   chart.Format `json:"format,omitempty" validate:"omitempty,oneof=svg png"`
	WidthCM  float64      `json:"width_cm,omitempty" validate:"omitempty,gt=0,lte=200"`
	HeightCM float64      `json:"height_cm,omitempty" validate:"omitempty,gt=0,lte=200"`
}

// Render builds the requested chart and encodes it to w, returning the
// encoding used.
func (p *Pipeline) Render(ctx context.Context, req ChartRequest, w io.Writer) (chart.Format, error) {
	if err := p.check(req); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ds, err := p.store.Get(req.Dataset)
	if err != nil {
		return "", err
	}
	format := req.Format
	if format == "" {
		format = p.opts.Format
	}

	start := time.Now()
	fig, err := p.figure(ds, req)
	if err == nil {
		p.resize(fig, req)
		err = fig.Render(w, format)
	}
	if err != nil {
		p.metrics.ChartErrors.WithLabelValues(string(req.Kind)).Inc()
		p.logger.Warn("chart render failed", "dataset", req.Dataset, "kind", req.Kind, "error", err)
		return "", fmt.Errorf("render %s: %w", req.Kind, err)
	}
	p.metrics.ChartsRendered.WithLabelValues(string(req.Kind), string(format)).Inc()
	p.metrics.ChartDuration.WithLabelValues(string(req.Kind)).Observe(time.Since(start).Seconds())
	return format, nil
}

func (p *Pipeline) figure(ds *domain.Dataset, req ChartRequest) (*chart.Figure, error) {
	switch req.Kind {
	case chart.KindBox:
		return chart.BoxPlot(ds, req.Column)
	case chart.KindTimeSeries:
		return chart.TimeSeries(ds, req.Timestamp, req.Column, p.opts.MaxPoints)
	case chart.KindHeatmap:
		return chart.CorrelationHeatmap(ds, req.Columns)
	case chart.KindWindRose:
		return chart.WindRose(ds, req.Speed, req.Direction)
	case chart.KindHistogram:
		return chart.Histogram(ds, req.Column)
	case chart.KindScatter:
		return chart.TemperatureHumidity(ds, req.Y, req.X)
	case chart.KindZScore:
		return chart.ZScoreHistogram(ds, req.Column)
	case chart.KindBubble:
		return chart.BubbleChart(ds, req.X, req.Y, req.Size, req.Hue)
	default:
		return nil, fmt.Errorf("%w: %q", chart.ErrUnknownKind, req.Kind)
	}
}

// resize applies the requested size, or the configured default to the wide
// single panel charts.
func (p *Pipeline) resize(fig *chart.Figure, req ChartRequest) {
	w, h := req.WidthCM, req.HeightCM
	if w == 0 && h == 0 {
		switch req.Kind {
		case chart.KindTimeSeries, chart.KindHistogram, chart.KindScatter, chart.KindZScore, chart.KindBubble:
			w, h = p.opts.WidthCM, p.opts.HeightCM
		}
	}
	fig.Resize(figureSize(w), figureSize(h))
}
