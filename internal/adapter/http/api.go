package http

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/couchcryptid/solar-eda/internal/chart"
	"github.com/couchcryptid/solar-eda/internal/domain"
	"github.com/couchcryptid/solar-eda/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// datasetInfo is the JSON listing entry of a dataset.
type datasetInfo struct {
	Name     string   `json:"name"`
	Rows     int      `json:"rows"`
	Columns  int      `json:"columns"`
	Names    []string `json:"column_names"`
	Numeric  []string `json:"numeric_columns"`
	Modified bool     `json:"modified"`
}

func infoOf(ds *domain.Dataset) datasetInfo {
	rows, cols := ds.Shape()
	return datasetInfo{
		Name:     ds.Name,
		Rows:     rows,
		Columns:  cols,
		Names:    ds.Columns(),
		Numeric:  ds.NumericColumns(),
		Modified: ds.Modified(),
	}
}

// columnStats mirrors domain.ColumnSummary with NaN encoded as null.
type columnStats struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	Q25    *float64 `json:"25%"`
	Median *float64 `json:"50%"`
	Q75    *float64 `json:"75%"`
	Max    *float64 `json:"max"`
}

type categoricalStats struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Unique int    `json:"unique"`
	Top    string `json:"top"`
	Freq   int    `json:"freq"`
}

type datasetView struct {
	datasetInfo
	Preview     domain.Preview        `json:"preview"`
	Statistics  []columnStats         `json:"statistics,omitempty"`
	Categorical []categoricalStats    `json:"categorical,omitempty"`
	Missing     []domain.MissingCount `json:"missing"`
}

func viewOf(ds *domain.Dataset) datasetView {
	v := datasetView{
		datasetInfo: infoOf(ds),
		Preview:     ds.Head(previewRows),
		Missing:     ds.MissingCounts(),
	}
	summary := ds.Describe()
	for _, s := range summary.Numeric {
		v.Statistics = append(v.Statistics, columnStats{
			Column: s.Column,
			Count:  s.Count,
			Mean:   nullable(s.Mean),
			Std:    nullable(s.Std),
			Min:    nullable(s.Min),
			Q25:    nullable(s.Q25),
			Median: nullable(s.Median),
			Q75:    nullable(s.Q75),
			Max:    nullable(s.Max),
		})
	}
	for _, s := range summary.Categorical {
		v.Categorical = append(v.Categorical, categoricalStats(s))
	}
	return v
}

// nullable returns nil for values JSON cannot encode.
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nullables(vs []float64) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		out[i] = nullable(v)
	}
	return out
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets := s.svc.Datasets()
	out := make([]datasetInfo, len(datasets))
	for i, ds := range datasets {
		out[i] = infoOf(ds)
	}
	render.JSON(w, r, map[string]any{"datasets": out})
}

func (s *Server) handleUploadAPI(w http.ResponseWriter, r *http.Request) {
	uploads, err := s.readUploads(w, r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	results, err := s.svc.Ingest(r.Context(), uploads)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	loaded := 0
	for _, res := range results {
		if res.OK() {
			loaded++
		}
	}
	status := http.StatusCreated
	if loaded == 0 {
		status = http.StatusUnprocessableEntity
	}
	render.Status(r, status)
	render.JSON(w, r, map[string]any{"loaded": loaded, "results": results})
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.svc.Dataset(datasetName(r))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, viewOf(ds))
}

type clipBody struct {
	Columns []string `json:"columns"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
}

func (s *Server) handleClipAPI(w http.ResponseWriter, r *http.Request) {
	var body clipBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		s.renderError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	res, err := s.svc.Clip(r.Context(), pipeline.ClipRequest{
		Dataset: datasetName(r),
		Columns: body.Columns,
		Min:     body.Min,
		Max:     body.Max,
	})
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"dataset": infoOf(res.Dataset), "changed": res.Changed})
}

func (s *Server) handleResetAPI(w http.ResponseWriter, r *http.Request) {
	ds, err := s.svc.Reset(r.Context(), datasetName(r))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"dataset": infoOf(ds)})
}

func (s *Server) handleRemoveAPI(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Remove(r.Context(), datasetName(r)); err != nil {
		s.renderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleZScores returns the z-scores of the columns named by repeated col
// parameters, or of every numeric column.
func (s *Server) handleZScores(w http.ResponseWriter, r *http.Request) {
	ds, err := s.svc.Dataset(datasetName(r))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	columns := r.URL.Query()["col"]
	if len(columns) == 0 {
		columns = ds.NumericColumns()
	}
	out := make(map[string][]*float64, len(columns))
	for _, col := range columns {
		zs, err := ds.ZScores(col)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		out[col] = nullables(zs)
	}
	render.JSON(w, r, map[string]any{"dataset": ds.Name, "zscores": out})
}

func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	ds, err := s.svc.Dataset(datasetName(r))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	m, err := ds.Correlation(r.URL.Query()["col"])
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	values := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		values[i] = nullables(row)
	}
	render.JSON(w, r, map[string]any{"dataset": ds.Name, "columns": m.Columns, "values": values})
}

// handleChart renders one dashboard chart as an image. Columns come from
// the col, ts, speed, dir, x, y, size and hue parameters.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := pipeline.ChartRequest{
		Dataset:   datasetName(r),
		Kind:      chart.Kind(chi.URLParam(r, "kind")),
		Timestamp: q.Get("ts"),
		Speed:     q.Get("speed"),
		Direction: q.Get("dir"),
		X:         q.Get("x"),
		Y:         q.Get("y"),
		Size:      q.Get("size"),
		Hue:       q.Get("hue"),
		Format:    chart.Format(q.Get("format")),
	}
	if req.Kind == chart.KindHeatmap {
		req.Columns = q["col"]
	} else {
		req.Column = q.Get("col")
	}
	var err error
	if req.WidthCM, err = parseBound(q, "width"); err != nil {
		s.renderError(w, r, err)
		return
	}
	if req.HeightCM, err = parseBound(q, "height"); err != nil {
		s.renderError(w, r, err)
		return
	}

	var buf bytes.Buffer
	format, err := s.svc.Render(r.Context(), req, &buf)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("write chart failed", "error", err, "request_id", requestID(r))
	}
}
