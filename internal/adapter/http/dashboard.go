package http

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/solar-eda/internal/chart"
	"github.com/couchcryptid/solar-eda/internal/domain"
	"github.com/couchcryptid/solar-eda/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTmpl = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"num": func(v float64) string {
		if math.IsNaN(v) {
			return "NaN"
		}
		return strconv.FormatFloat(v, 'f', 6, 64)
	},
	"selected": func(a, b string) bool { return a == b },
	"contains": func(list []string, s string) bool {
		for _, v := range list {
			if v == s {
				return true
			}
		}
		return false
	},
}).ParseFS(templateFS, "templates/dashboard.html"))

const previewRows = 5

// flash is a status line shown at the top of the page.
type flash struct {
	Text string
	OK   bool
}

// selection holds the column chosen in every chart section.
type selection struct {
	Box, TimeSeries, Timestamp string
	Correlation                []string
	Speed, Direction           string
	Histogram                  string
	Temperature, Humidity      string
	ZScore                     string
	X, Y, Size, Hue            string
}

type pageData struct {
	Messages []flash
	Datasets []string
	Selected string

	Shape     string
	Modified  bool
	Preview   domain.Preview
	Summary   domain.Summary
	Missing   []domain.MissingCount
	Columns   []string
	Numeric   []string
	Sel       selection
	Charts    map[string]string
	Downloads map[string]string
}

// readSelection reads the chart selections from the query, defaulting each
// to the first numeric column.
func readSelection(q url.Values, ds *domain.Dataset) selection {
	numeric := ds.NumericColumns()
	pick := func(key string, fallback int) string {
		if v := q.Get(key); v != "" {
			return v
		}
		if len(numeric) == 0 {
			return ""
		}
		if fallback >= len(numeric) {
			fallback = 0
		}
		return numeric[fallback]
	}
	ts := q.Get("ts")
	if ts == "" {
		if cols := ds.TimestampColumns(); len(cols) > 0 {
			ts = cols[0]
		} else if all := ds.Columns(); len(all) > 0 {
			ts = all[0]
		}
	}
	return selection{
		Box:         pick("box", 0),
		TimeSeries:  pick("series", 0),
		Timestamp:   ts,
		Correlation: q["corr"],
		Speed:       pick("speed", 0),
		Direction:   pick("dir", 0),
		Histogram:   pick("hist", 0),
		Temperature: pick("temp", 0),
		Humidity:    pick("hum", 0),
		ZScore:      pick("z", 0),
		X:           pick("x", 0),
		Y:           pick("y", 0),
		Size:        pick("size", 0),
		Hue:         pick("hue", 0),
	}
}

func chartURL(name string, kind chart.Kind, params url.Values) string {
	return fmt.Sprintf("/datasets/%s/charts/%s?%s", url.PathEscape(name), kind, params.Encode())
}

func chartLinks(name string, sel selection) map[string]string {
	links := map[string]string{
		string(chart.KindBox):        chartURL(name, chart.KindBox, url.Values{"col": {sel.Box}}),
		string(chart.KindTimeSeries): chartURL(name, chart.KindTimeSeries, url.Values{"col": {sel.TimeSeries}, "ts": {sel.Timestamp}}),
		string(chart.KindWindRose):   chartURL(name, chart.KindWindRose, url.Values{"speed": {sel.Speed}, "dir": {sel.Direction}}),
		string(chart.KindHistogram):  chartURL(name, chart.KindHistogram, url.Values{"col": {sel.Histogram}}),
		string(chart.KindScatter):    chartURL(name, chart.KindScatter, url.Values{"x": {sel.Humidity}, "y": {sel.Temperature}}),
		string(chart.KindZScore):     chartURL(name, chart.KindZScore, url.Values{"col": {sel.ZScore}}),
		string(chart.KindBubble):     chartURL(name, chart.KindBubble, url.Values{"x": {sel.X}, "y": {sel.Y}, "size": {sel.Size}, "hue": {sel.Hue}}),
	}
	if len(sel.Correlation) > 0 {
		links[string(chart.KindHeatmap)] = chartURL(name, chart.KindHeatmap, url.Values{"col": sel.Correlation})
	}
	return links
}

func (s *Server) page(q url.Values, messages []flash) pageData {
	data := pageData{Messages: messages}
	datasets := s.svc.Datasets()
	for _, ds := range datasets {
		data.Datasets = append(data.Datasets, ds.Name)
	}
	if len(datasets) == 0 {
		return data
	}

	ds := datasets[0]
	if name := q.Get("dataset"); name != "" {
		if found, err := s.svc.Dataset(name); err == nil {
			ds = found
		}
	}
	rows, cols := ds.Shape()
	data.Selected = ds.Name
	data.Shape = fmt.Sprintf("(%d, %d)", rows, cols)
	data.Modified = ds.Modified()
	data.Preview = ds.Head(previewRows)
	data.Summary = ds.Describe()
	data.Missing = ds.MissingCounts()
	data.Columns = ds.Columns()
	data.Numeric = ds.NumericColumns()
	data.Sel = readSelection(q, ds)
	data.Charts = chartLinks(ds.Name, data.Sel)

	escaped := url.PathEscape(ds.Name)
	data.Downloads = map[string]string{
		"CSV":     "/datasets/" + escaped + "/export.csv",
		"Excel":   "/datasets/" + escaped + "/export.xlsx",
		"Parquet": "/datasets/" + escaped + "/export.parquet",
	}
	return data
}

func (s *Server) writePage(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := dashboardTmpl.Execute(w, data); err != nil {
		s.logger.Error("render dashboard failed", "error", err)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var messages []flash
	if col := q.Get("clipped"); col != "" {
		messages = append(messages, flash{Text: fmt.Sprintf("Outliers clipped for %s", col), OK: true})
	}
	if q.Get("reset") != "" {
		messages = append(messages, flash{Text: fmt.Sprintf("Restored original data for %s", q.Get("dataset")), OK: true})
	}
	s.writePage(w, http.StatusOK, s.page(q, messages))
}

// readUploads reads the files of a multipart form field named "files".
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request) ([]pipeline.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: no files uploaded", errBadRequest)
	}
	uploads := make([]pipeline.Upload, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", h.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", h.Filename, err)
		}
		uploads = append(uploads, pipeline.Upload{Name: h.Filename, Data: data})
	}
	return uploads, nil
}

func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	uploads, err := s.readUploads(w, r)
	if err != nil {
		apiErr := errorFor(err)
		s.writePage(w, apiErr.StatusCode, s.page(url.Values{}, []flash{{Text: apiErr.Message}}))
		return
	}
	results, err := s.svc.Ingest(r.Context(), uploads)
	if err != nil {
		s.writePage(w, http.StatusInternalServerError, s.page(url.Values{}, []flash{{Text: err.Error()}}))
		return
	}

	messages := make([]flash, len(results))
	q := url.Values{}
	for i, res := range results {
		messages[i] = flash{Text: res.Message(), OK: res.OK()}
		if res.OK() && q.Get("dataset") == "" {
			q.Set("dataset", res.File)
		}
	}
	s.writePage(w, http.StatusOK, s.page(q, messages))
}

// datasetName returns the {name} URL parameter. chi matches on RawPath when
// the request path needed escaping, so only then is the parameter still
// encoded.
func datasetName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name
	}
	if un, err := url.PathUnescape(name); err == nil {
		return un
	}
	return name
}

func parseBound(form url.Values, key string) (float64, error) {
	raw := strings.TrimSpace(form.Get(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", errBadRequest, key, raw)
	}
	return v, nil
}

func (s *Server) handleClipPage(w http.ResponseWriter, r *http.Request) {
	name := datasetName(r)
	back := url.Values{"dataset": {name}}
	if err := r.ParseForm(); err != nil {
		s.writePage(w, http.StatusBadRequest, s.page(back, []flash{{Text: err.Error()}}))
		return
	}
	column := r.PostForm.Get("column")
	back.Set("box", column)

	lo, err := parseBound(r.PostForm, "min")
	if err == nil {
		var hi float64
		hi, err = parseBound(r.PostForm, "max")
		if err == nil {
			_, err = s.svc.Clip(r.Context(), pipeline.ClipRequest{Dataset: name, Columns: []string{column}, Min: lo, Max: hi})
		}
	}
	if err != nil {
		apiErr := errorFor(err)
		s.writePage(w, apiErr.StatusCode, s.page(back, []flash{{Text: apiErr.Message}}))
		return
	}
	back.Set("clipped", column)
	http.Redirect(w, r, "/?"+back.Encode(), http.StatusSeeOther)
}

func (s *Server) handleResetPage(w http.ResponseWriter, r *http.Request) {
	name := datasetName(r)
	if _, err := s.svc.Reset(r.Context(), name); err != nil {
		apiErr := errorFor(err)
		s.writePage(w, apiErr.StatusCode, s.page(url.Values{}, []flash{{Text: apiErr.Message}}))
		return
	}
	http.Redirect(w, r, "/?"+url.Values{"dataset": {name}, "reset": {"1"}}.Encode(), http.StatusSeeOther)
}
