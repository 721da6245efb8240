package http_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/solar-eda/internal/adapter/http"
	"github.com/couchcryptid/solar-eda/internal/chart"
	"github.com/couchcryptid/solar-eda/internal/mockdata"
	"github.com/couchcryptid/solar-eda/internal/observability"
	"github.com/couchcryptid/solar-eda/internal/pipeline"
	"github.com/couchcryptid/solar-eda/internal/store"
	"github.com/google/go-cmp/cmp"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const benin = "benin-malanville.csv"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(t *testing.T, ready bool) *pipeline.Pipeline {
	t.Helper()
	p := pipeline.New(store.New(4), nil, discardLogger(), observability.NewMetricsForTesting(), pipeline.Options{
		Format:    chart.SVG,
		WidthCM:   20,
		HeightCM:  12,
		MaxPoints: 300,
	})
	if ready {
		p.MarkReady()
	}
	return p
}

func newTestServer(t *testing.T, svc *pipeline.Pipeline, maxUpload int64) *httpadapter.Server {
	t.Helper()
	return httpadapter.NewServer(":0", svc, maxUpload, discardLogger())
}

func stationCSV(rows int) []byte {
	return mockdata.CSV(mockdata.Options{
		Station:     mockdata.Stations[0],
		Rows:        rows,
		Interval:    10 * time.Minute,
		Seed:        7,
		MissingRate: 0.02,
	})
}

// loadedServer returns a server with the Benin station already uploaded.
func loadedServer(t *testing.T) (*httpadapter.Server, *pipeline.Pipeline) {
	t.Helper()
	svc := newService(t, true)
	res, err := svc.Ingest(context.Background(), []pipeline.Upload{{Name: benin, Data: stationCSV(120)}})
	require.NoError(t, err)
	require.True(t, res[0].OK())
	return newTestServer(t, svc, 10<<20), svc
}

func multipartBody(t *testing.T, files map[string][]byte, order []string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range order {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(srv http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func get(srv http.Handler, target string) *httptest.ResponseRecorder {
	return do(srv, httptest.NewRequest(http.MethodGet, target, nil))
}

func postForm(srv http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(srv, req)
}

func postJSON(srv http.Handler, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(srv, req)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// --- health ---

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(t, newService(t, false), 1<<20)
	rec := get(srv, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(t, newService(t, true), 1<<20)
	rec := get(srv, "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(t, newService(t, false), 1<<20)
	rec := get(srv, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "datasets are still being preloaded", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, newService(t, true), 1<<20)
	rec := get(srv, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- dashboard ---

func TestDashboard_EmptyPromptsForUpload(t *testing.T) {
	srv := newTestServer(t, newService(t, true), 1<<20)
	rec := get(srv, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "Solar and Meteorological Data Analysis")
	assert.Contains(t, body, "Please upload at least one CSV file to proceed.")
	assert.NotContains(t, body, "Data Preview")
}

func TestUploadPage_ReportsEveryFile(t *testing.T) {
	svc := newService(t, true)
	srv := newTestServer(t, svc, 10<<20)

	body, ct := multipartBody(t, map[string][]byte{
		benin:       stationCSV(50),
		"notes.txt": []byte("hello"),
	}, []string{benin, "notes.txt"})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := do(srv, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "Successfully loaded benin-malanville.csv")
	assert.Contains(t, page, "Error loading notes.txt")
	assert.Contains(t, page, "Data Preview")
	assert.Contains(t, page, "Shape: (50, 19)")
	assert.Contains(t, page, "/datasets/benin-malanville.csv/charts/box?col=GHI")
	assert.Contains(t, page, "/datasets/benin-malanville.csv/export.xlsx")

	_, err := svc.Dataset(benin)
	require.NoError(t, err)
}

func TestUploadPage_NoFiles(t *testing.T) {
	srv := newTestServer(t, newService(t, true), 1<<20)

	body, ct := multipartBody(t, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := do(srv, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no files uploaded")
}

func TestUploadPage_BodyLimit(t *testing.T) {
	srv := newTestServer(t, newService(t, true), 512)

	body, ct := multipartBody(t, map[string][]byte{benin: stationCSV(200)}, []string{benin})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := do(srv, req)

	assert.GreaterOrEqual(t, rec.Code, http.StatusBadRequest)
	assert.Less(t, rec.Code, http.StatusInternalServerError)
	assert.Contains(t, rec.Body.String(), "Please upload at least one CSV file to proceed.")
}

func TestDashboard_SelectsDatasetAndColumns(t *testing.T) {
	srv, _ := loadedServer(t)

	q := url.Values{"dataset": {benin}, "box": {"Tamb"}, "corr": {"GHI", "DNI"}}
	rec := get(srv, "/?"+q.Encode())

	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "/datasets/benin-malanville.csv/charts/box?col=Tamb")
	assert.Contains(t, page, "/datasets/benin-malanville.csv/charts/heatmap?col=GHI")
	assert.Contains(t, page, "Missing Values")
	assert.Contains(t, page, "Enter minimum value for Tamb")
}

func TestClipPage_ClipsThenResets(t *testing.T) {
	srv, svc := loadedServer(t)

	rec := postForm(srv, "/datasets/"+benin+"/clip", url.Values{"column": {"GHI"}, "min": {"0"}, "max": {"400"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	assert.Contains(t, loc, "clipped=GHI")

	ds, err := svc.Dataset(benin)
	require.NoError(t, err)
	assert.True(t, ds.Modified())
	vs, err := ds.Values("GHI")
	require.NoError(t, err)
	for _, v := range vs {
		assert.True(t, v >= 0 && v <= 400, "value %v outside bounds", v)
	}

	page := get(srv, loc).Body.String()
	assert.Contains(t, page, "Outliers clipped for GHI")
	assert.Contains(t, page, "(outliers clipped)")

	rec = postForm(srv, "/datasets/"+benin+"/reset", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	ds, err = svc.Dataset(benin)
	require.NoError(t, err)
	assert.False(t, ds.Modified())
	assert.Contains(t, get(srv, rec.Header().Get("Location")).Body.String(), "Restored original data for benin-malanville.csv")
}

func TestClipPage_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		form   url.Values
		status int
		text   string
	}{
		{"not a number", "/datasets/" + benin + "/clip", url.Values{"column": {"GHI"}, "min": {"abc"}}, http.StatusBadRequest, "is not a number"},
		{"unknown column", "/datasets/" + benin + "/clip", url.Values{"column": {"Nope"}, "min": {"0"}, "max": {"1"}}, http.StatusUnprocessableEntity, "unknown column"},
		{"unknown dataset", "/datasets/missing.csv/clip", url.Values{"column": {"GHI"}, "min": {"0"}, "max": {"1"}}, http.StatusNotFound, "dataset not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := loadedServer(t)
			rec := postForm(srv, tt.target, tt.form)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.text)
		})
	}
}

// --- charts ---

func TestChart_RendersImages(t *testing.T) {
	srv, _ := loadedServer(t)

	tests := []struct {
		name  string
		path  string
		query url.Values
	}{
		{"box", "box", url.Values{"col": {"GHI"}}},
		{"timeseries", "timeseries", url.Values{"col": {"GHI"}, "ts": {"Timestamp"}}},
		{"heatmap", "heatmap", url.Values{"col": {"GHI", "DNI", "Tamb"}}},
		{"windrose", "windrose", url.Values{"speed": {"WS"}, "dir": {"WD"}}},
		{"histogram", "histogram", url.Values{"col": {"Tamb"}}},
		{"scatter", "scatter", url.Values{"x": {"RH"}, "y": {"Tamb"}}},
		{"zscore", "zscore", url.Values{"col": {"GHI"}}},
		{"bubble", "bubble", url.Values{"x": {"GHI"}, "y": {"Tamb"}, "size": {"WS"}, "hue": {"RH"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(srv, "/datasets/"+benin+"/charts/"+tt.path+"?"+tt.query.Encode())
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, chart.SVG.ContentType(), rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), "<svg")
		})
	}
}

func TestChart_PNG(t *testing.T) {
	srv, _ := loadedServer(t)

	rec := get(srv, "/datasets/"+benin+"/charts/histogram?col=WS&format=png&width=12&height=8")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestChart_Errors(t *testing.T) {
	srv, _ := loadedServer(t)

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"unknown dataset", "/datasets/missing.csv/charts/box?col=GHI", http.StatusNotFound, "DATASET_NOT_FOUND"},
		{"unknown kind", "/datasets/" + benin + "/charts/pie?col=GHI", http.StatusUnprocessableEntity, "VALIDATION_FAILED"},
		{"missing column", "/datasets/" + benin + "/charts/box", http.StatusUnprocessableEntity, "VALIDATION_FAILED"},
		{"unknown column", "/datasets/" + benin + "/charts/histogram?col=Nope", http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY"},
		{"bad format", "/datasets/" + benin + "/charts/box?col=GHI&format=gif", http.StatusUnprocessableEntity, "VALIDATION_FAILED"},
		{"bad width", "/datasets/" + benin + "/charts/box?col=GHI&width=wide", http.StatusBadRequest, "INVALID_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(srv, tt.target)
			assert.Equal(t, tt.status, rec.Code)

			var body httpadapter.APIError
			decode(t, rec, &body)
			assert.Equal(t, tt.code, body.ErrorCode)
			assert.NotEmpty(t, body.Message)
		})
	}
}

// --- exports ---

func TestExport_CSV(t *testing.T) {
	srv, svc := loadedServer(t)

	rec := get(srv, "/datasets/"+benin+"/export.csv")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="benin-malanville.csv"`)
	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)

	ds, err := svc.Dataset(benin)
	require.NoError(t, err)
	if diff := cmp.Diff(ds.Records(), records); diff != "" {
		t.Errorf("exported records mismatch (-want +got):\n%s", diff)
	}
}

func TestExport_Excel(t *testing.T) {
	srv, _ := loadedServer(t)

	rec := get(srv, "/datasets/"+benin+"/export.xlsx")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="benin-malanville.xlsx"`)
	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Statistics")
}

func TestExport_Parquet(t *testing.T) {
	srv, _ := loadedServer(t)

	rec := get(srv, "/datasets/"+benin+"/export.parquet")

	require.Equal(t, http.StatusOK, rec.Code)
	data := rec.Body.Bytes()
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, int64(120), f.NumRows())
}

func TestExport_UnknownFormat(t *testing.T) {
	srv, _ := loadedServer(t)

	rec := get(srv, "/datasets/"+benin+"/export.json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- JSON API ---

func TestAPI_UploadAndList(t *testing.T) {
	srv := newTestServer(t, newService(t, true), 10<<20)

	body, ct := multipartBody(t, map[string][]byte{benin: stationCSV(30)}, []string{benin})
	req := httptest.NewRequest(http.MethodPost, "/api/datasets", body)
	req.Header.Set("Content-Type", ct)
	rec := do(srv, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var uploaded struct {
		Loaded  int                   `json:"loaded"`
		Results []pipeline.LoadResult `json:"results"`
	}
	decode(t, rec, &uploaded)
	assert.Equal(t, 1, uploaded.Loaded)
	require.Len(t, uploaded.Results, 1)
	assert.Equal(t, 30, uploaded.Results[0].Rows)

	rec = get(srv, "/api/datasets")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Datasets []struct {
			Name    string   `json:"name"`
			Rows    int      `json:"rows"`
			Columns int      `json:"columns"`
			Numeric []string `json:"numeric_columns"`
		} `json:"datasets"`
	}
	decode(t, rec, &list)
	require.Len(t, list.Datasets, 1)
	assert.Equal(t, benin, list.Datasets[0].Name)
	assert.Equal(t, 30, list.Datasets[0].Rows)
	assert.Equal(t, 19, list.Datasets[0].Columns)
	assert.Contains(t, list.Datasets[0].Numeric, "GHI")
}

func TestAPI_UploadNothingParses(t *testing.T) {
	srv := newTestServer(t, newService(t, true), 1<<20)

	body, ct := multipartBody(t, map[string][]byte{"notes.txt": []byte("x")}, []string{"notes.txt"})
	req := httptest.NewRequest(http.MethodPost, "/api/datasets", body)
	req.Header.Set("Content-Type", ct)
	rec := do(srv, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAPI_GetDataset(t *testing.T) {
	srv, _ := loadedServer(t)

	rec := get(srv, "/api/datasets/"+benin)

	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Name    string `json:"name"`
		Preview struct {
			Columns []string   `json:"columns"`
			Rows    [][]string `json:"rows"`
		} `json:"preview"`
		Statistics []struct {
			Column string   `json:"column"`
			Count  int      `json:"count"`
			Mean   *float64 `json:"mean"`
		} `json:"statistics"`
		Missing []struct {
			Column string `json:"column"`
			Count  int    `json:"count"`
		} `json:"missing"`
	}
	decode(t, rec, &view)
	assert.Equal(t, benin, view.Name)
	assert.Equal(t, mockdata.Columns, view.Preview.Columns)
	assert.Len(t, view.Preview.Rows, 5)
	require.NotEmpty(t, view.Statistics)
	assert.Equal(t, "GHI", view.Statistics[0].Column)
	assert.Equal(t, 120, view.Statistics[0].Count)
	require.NotNil(t, view.Statistics[0].Mean)
	assert.Len(t, view.Missing, len(mockdata.Columns))
}

func TestAPI_ClipAndReset(t *testing.T) {
	srv, _ := loadedServer(t)

	rec := postJSON(srv, "/api/datasets/"+benin+"/clip", `{"columns":["GHI","DNI"],"min":0,"max":300}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var clipped struct {
		Dataset struct {
			Modified bool `json:"modified"`
		} `json:"dataset"`
		Changed int `json:"changed"`
	}
	decode(t, rec, &clipped)
	assert.True(t, clipped.Dataset.Modified)
	assert.Positive(t, clipped.Changed)

	rec = postJSON(srv, "/api/datasets/"+benin+"/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var reset struct {
		Dataset struct {
			Modified bool `json:"modified"`
		} `json:"dataset"`
	}
	decode(t, rec, &reset)
	assert.False(t, reset.Dataset.Modified)
}

func TestAPI_RemoveDataset(t *testing.T) {
	srv, _ := loadedServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/datasets/"+benin, http.NoBody)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/"+benin, http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/datasets/"+benin, http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_ClipInvertedBounds(t *testing.T) {
	srv, svc := loadedServer(t)

	rec := postJSON(srv, "/api/datasets/"+benin+"/clip", `{"columns":["GHI"],"min":300,"max":0}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ds, err := svc.Dataset(benin)
	require.NoError(t, err)
	vs, err := ds.Floats("GHI")
	require.NoError(t, err)
	for _, v := range vs {
		if !math.IsNaN(v) {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 300.0)
		}
	}
}

func TestAPI_DatasetNamesAreDecodedOnce(t *testing.T) {
	svc := newService(t, true)
	names := []string{"x%41.csv", "my station.csv"}
	for _, name := range names {
		res, err := svc.Ingest(context.Background(), []pipeline.Upload{{Name: name, Data: []byte("GHI\n1\n2\n")}})
		require.NoError(t, err)
		require.True(t, res[0].OK())
	}
	srv := newTestServer(t, svc, 10<<20)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			rec := get(srv, "/api/datasets/"+url.PathEscape(name))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var body struct {
				Name string `json:"name"`
			}
			decode(t, rec, &body)
			assert.Equal(t, name, body.Name)
		})
	}
}

func TestAPI_ClipErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		status int
		code   string
	}{
		{"malformed json", "/api/datasets/" + benin + "/clip", `{"columns":`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"no columns", "/api/datasets/" + benin + "/clip", `{"min":0,"max":1}`, http.StatusUnprocessableEntity, "VALIDATION_FAILED"},
		{"text column", "/api/datasets/" + benin + "/clip", `{"columns":["Timestamp"],"min":0,"max":1}`, http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY"},
		{"unknown dataset", "/api/datasets/missing.csv/clip", `{"columns":["GHI"],"min":0,"max":1}`, http.StatusNotFound, "DATASET_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := loadedServer(t)
			rec := postJSON(srv, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var body httpadapter.APIError
			decode(t, rec, &body)
			assert.Equal(t, tt.code, body.ErrorCode)
		})
	}
}

func TestAPI_ZScores(t *testing.T) {
	srv, _ := loadedServer(t)

	rec := get(srv, "/api/datasets/"+benin+"/zscores?col=Tamb&col=WS")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		ZScores map[string][]*float64 `json:"zscores"`
	}
	decode(t, rec, &body)
	require.Len(t, body.ZScores["Tamb"], 120)
	require.Len(t, body.ZScores["WS"], 120)

	var sum float64
	for _, z := range body.ZScores["Tamb"] {
		require.NotNil(t, z)
		sum += *z
	}
	assert.InDelta(t, 0, sum, 1e-6)
}

func TestAPI_Correlation(t *testing.T) {
	srv, _ := loadedServer(t)

	rec := get(srv, "/api/datasets/"+benin+"/correlation?col=GHI&col=DNI")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Columns []string     `json:"columns"`
		Values  [][]*float64 `json:"values"`
	}
	decode(t, rec, &body)
	assert.Equal(t, []string{"GHI", "DNI"}, body.Columns)
	require.Len(t, body.Values, 2)
	require.NotNil(t, body.Values[0][0])
	assert.InDelta(t, 1, *body.Values[0][0], 1e-9)
	require.NotNil(t, body.Values[0][1])
	assert.Greater(t, *body.Values[0][1], 0.5)
}

func TestAPI_UnknownDataset(t *testing.T) {
	srv, _ := loadedServer(t)

	for _, target := range []string{"/api/datasets/missing.csv", "/api/datasets/missing.csv/zscores", "/api/datasets/missing.csv/correlation"} {
		rec := get(srv, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
	rec := postJSON(srv, "/api/datasets/missing.csv/reset", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
