// Package refdata downloads reference checklists.
package refdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"
)

// DefaultURL is the Darwin Core taxa file exported from ITIS.
const DefaultURL = "http://gaurav.github.com/itis-dwca/latest/taxa.txt"

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// FileName returns the name of the cached file for rawURL.
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid reference URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid reference URL %q: scheme must be http or https", rawURL)
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." || base == "" {
		base = "reference.txt"
	}
	return base, nil
}

// Cached returns the path of a previously fetched copy of rawURL in dir, if
// any.
func Cached(rawURL, dir string) (string, bool) {
	base, err := FileName(rawURL)
	if err != nil {
		return "", false
	}
	p := filepath.Join(dir, base)
	if fi, err := os.Stat(p); err != nil || !fi.Mode().IsRegular() {
		return "", false
	}
	return p, true
}

// Fetch downloads rawURL into dir and returns the path of the file. The
// download goes to a temporary file renamed once complete, so that a failed
// download never leaves a truncated file behind.
func Fetch(ctx context.Context, client *http.Client, rawURL, dir string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	base, err := FileName(rawURL)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	f, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()
	pw := &progressWriter{w: f, total: resp.ContentLength, url: rawURL, s: rate.Sometimes{Interval: 2 * time.Second}}
	_, err = io.Copy(pw, resp.Body)
	if err2 := f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return "", errors.Join(fmt.Errorf("failed to download %s: %w", rawURL, err), os.Remove(tmp))
	}
	dst := filepath.Join(dir, base)
	if err := os.Rename(tmp, dst); err != nil {
		return "", errors.Join(fmt.Errorf("failed to rename download: %w", err), os.Remove(tmp))
	}
	slog.Info("Downloaded reference", "url", rawURL, "path", dst, "bytes", pw.n, "dur", time.Since(start).Round(time.Millisecond))
	return dst, nil
}

type progressWriter struct {
	w     io.Writer
	n     int64
	total int64
	url   string
	s     rate.Sometimes
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.n += int64(n)
	p.s.Do(func() {
		slog.Info("Downloading reference", "url", p.url, "bytes", p.n, "total", p.total)
	})
	return n, err
}
