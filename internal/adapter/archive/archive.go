// Package archive unpacks uploaded and downloaded station files.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/solar-eda/internal/domain"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/pgzip"
)

// File is one CSV document found in an upload.
type File struct {
	Name string
	Data []byte
}

// Supported reports whether name has an extension Expand can handle.
func Supported(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".csv") ||
		strings.HasSuffix(lower, ".csv.gz") ||
		strings.HasSuffix(lower, ".zip")
}

// Expand returns the CSV documents contained in an upload. Plain CSVs are
// returned as is, gzip files are decompressed and zip archives yield every
// CSV entry in archive order.
func Expand(name string, data []byte) ([]File, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return []File{{Name: name, Data: data}}, nil
	case strings.HasSuffix(lower, ".csv.gz"):
		out, err := gunzip(data)
		if err != nil {
			return nil, fmt.Errorf("gunzip %s: %w", name, err)
		}
		return []File{{Name: name[:len(name)-len(".gz")], Data: out}}, nil
	case strings.HasSuffix(lower, ".zip"):
		files, err := unzip(data)
		if err != nil {
			return nil, fmt.Errorf("unzip %s: %w", name, err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("unzip %s: no csv files: %w", name, domain.ErrNoData)
		}
		return files, nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, name)
	}
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := pgzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func unzip(data []byte) ([]File, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	var out []File
	for _, f := range zr.File {
		if !isCSVEntry(f.Name) {
			continue
		}
		b, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		out = append(out, File{Name: path.Base(f.Name), Data: b})
	}
	return out, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// isCSVEntry skips directories and resource forks added by macOS archivers.
func isCSVEntry(name string) bool {
	if strings.HasSuffix(name, "/") || strings.HasPrefix(name, "__MACOSX/") {
		return false
	}
	base := path.Base(name)
	return !strings.HasPrefix(base, "._") && strings.EqualFold(path.Ext(base), ".csv")
}

// ErrUnsafePath is returned when a zip entry would be written outside the
// extraction directory.
var ErrUnsafePath = errors.New("zip entry escapes destination")

// ExtractZip unpacks every file in the archive at src into dir and returns
// the written paths.
func ExtractZip(src, dir string) ([]string, error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src, err)
	}
	defer zr.Close()

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	var written []string
	for _, f := range zr.File {
		dest := filepath.Join(root, filepath.FromSlash(f.Name))
		if dest != root && !strings.HasPrefix(dest, root+string(os.PathSeparator)) {
			return written, fmt.Errorf("%s: %w", f.Name, ErrUnsafePath)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return written, fmt.Errorf("mkdir %s: %w", dest, err)
			}
			continue
		}
		if err := extractFile(f, dest); err != nil {
			return written, err
		}
		written = append(written, dest)
	}
	return written, nil
}

func extractFile(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(dest), err)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return out.Close()
}
