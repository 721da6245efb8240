// Package download fetches remote station archives.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// DriveURL is the Google Drive link of the reference station archive.
const DriveURL = "https://drive.google.com/uc?id=1wRxR5CROC95Z9vPYlXwHrSGt79Of_zQU"

// ErrConfirmationPage is returned when a download still serves an HTML page
// after the confirmation retry.
var ErrConfirmationPage = errors.New("download returned an html page")

// Client downloads files over HTTP.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a download client with an overall request timeout.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Download writes the body at rawURL to dest and returns the bytes written.
// Large Google Drive files answer with a virus scan warning page first; in
// that case the request is repeated once with confirm=t.
func (c *Client) Download(ctx context.Context, rawURL, dest string) (int64, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	if isHTML(resp) {
		resp.Body.Close()
		confirmed, err := withConfirm(rawURL)
		if err != nil {
			return 0, err
		}
		c.logger.Info("download confirmation required, retrying", "url", rawURL)
		resp, err = c.get(ctx, confirmed)
		if err != nil {
			return 0, err
		}
		if isHTML(resp) {
			resp.Body.Close()
			return 0, fmt.Errorf("%s: %w", rawURL, ErrConfirmationPage)
		}
	}
	defer resp.Body.Close()

	n, err := writeFile(dest, resp.Body)
	if err != nil {
		return n, err
	}
	c.logger.Info("download complete", "url", rawURL, "dest", dest, "bytes", n)
	return n, nil
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("download error: status %d: %s", resp.StatusCode, body)
	}
	return resp, nil
}

func isHTML(resp *http.Response) bool {
	mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return err == nil && mt == "text/html"
}

func withConfirm(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set("confirm", "t")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// writeFile streams r into a temporary file next to dest and renames it
// into place so a failed download never leaves a partial file behind.
func writeFile(dest string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return n, fmt.Errorf("write %s: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return n, fmt.Errorf("rename %s: %w", dest, err)
	}
	return n, nil
}
