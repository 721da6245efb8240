// Command fetchdata makes sure the reference station CSVs are present in a
// data directory, downloading and unpacking the archive when any is missing.
//
// Usage:
//
//	go run ./cmd/fetchdata -data-dir data
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/couchcryptid/solar-eda/internal/adapter/archive"
	"github.com/couchcryptid/solar-eda/internal/adapter/download"
	"github.com/couchcryptid/solar-eda/internal/observability"
)

// stationFiles are the files the dashboard and report expect.
var stationFiles = []string{
	"benin-malanville.csv",
	"sierraleone-bumbuna.csv",
	"togo-dapaong_qc.csv",
}

func main() {
	dataDir := flag.String("data-dir", "data", "directory that holds the station CSVs")
	url := flag.String("url", download.DriveURL, "archive download URL")
	timeout := flag.Duration("timeout", 10*time.Minute, "download timeout")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: observability.ParseLevel(*logLevel)}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *dataDir, *url, download.NewClient(*timeout, logger), logger); err != nil {
		logger.Error("fetch data failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dataDir, url string, client *download.Client, logger *slog.Logger) error {
	missing := missingFiles(dataDir)
	if len(missing) == 0 {
		logger.Info("data files already present", "dir", dataDir)
		return nil
	}
	logger.Info("data files missing, downloading", "dir", dataDir, "missing", missing)

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	zipPath := filepath.Join(dataDir, "data.zip")
	n, err := client.Download(ctx, url, zipPath)
	if err != nil {
		return fmt.Errorf("download archive: %w", err)
	}
	logger.Info("archive downloaded", "path", zipPath, "bytes", n)

	written, err := archive.ExtractZip(zipPath, dataDir)
	if err != nil {
		return fmt.Errorf("extract archive: %w", err)
	}
	if err := os.Remove(zipPath); err != nil {
		logger.Warn("remove archive failed", "path", zipPath, "error", err)
	}
	if err := flatten(dataDir, written); err != nil {
		return err
	}
	logger.Info("archive extracted", "files", len(written))

	if still := missingFiles(dataDir); len(still) > 0 {
		return fmt.Errorf("archive did not contain %v", still)
	}
	return nil
}

func missingFiles(dir string) []string {
	var out []string
	for _, name := range stationFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); errors.Is(err, os.ErrNotExist) {
			out = append(out, name)
		}
	}
	return out
}

// flatten moves station files extracted into subdirectories up to dir.
func flatten(dir string, written []string) error {
	want := make(map[string]bool, len(stationFiles))
	for _, name := range stationFiles {
		want[name] = true
	}
	for _, path := range written {
		base := filepath.Base(path)
		target := filepath.Join(dir, base)
		if !want[base] || filepath.Clean(path) == filepath.Clean(target) {
			continue
		}
		if _, err := os.Stat(target); err == nil {
			continue
		}
		if err := os.Rename(path, target); err != nil {
			return fmt.Errorf("move %s: %w", base, err)
		}
	}
	return nil
}
