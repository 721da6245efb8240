package http

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/solar-eda/internal/adapter/parquet"
	"github.com/couchcryptid/solar-eda/internal/adapter/xlsx"
	"github.com/couchcryptid/solar-eda/internal/domain"
	"github.com/go-chi/chi/v5"
)

type exporter struct {
	contentType string
	write       func(io.Writer, *domain.Dataset) error
}

var exporters = map[string]exporter{
	"csv": {"text/csv; charset=utf-8", writeCSV},
	"xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", func(w io.Writer, ds *domain.Dataset) error {
		return xlsx.Write(w, ds)
	}},
	"parquet": {"application/vnd.apache.parquet", parquet.Write},
}

func writeCSV(w io.Writer, ds *domain.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(ds.Records()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// exportName replaces the extension of the uploaded file name.
func exportName(name, ext string) string {
	base := strings.TrimSuffix(name, ".csv")
	return base + "." + ext
}

// handleExport downloads the current state of a dataset as CSV, Excel or
// Parquet.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ext := chi.URLParam(r, "ext")
	exp, ok := exporters[ext]
	if !ok {
		s.renderError(w, r, fmt.Errorf("%w: unsupported export format %q", errBadRequest, ext))
		return
	}
	ds, err := s.svc.Dataset(datasetName(r))
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := exp.write(&buf, ds); err != nil {
		s.renderError(w, r, fmt.Errorf("export %s as %s: %w", ds.Name, ext, err))
		return
	}
	w.Header().Set("Content-Type", exp.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(ds.Name, ext)))
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("write export failed", "error", err, "request_id", requestID(r))
	}
}
