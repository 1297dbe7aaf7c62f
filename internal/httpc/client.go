// Package httpc provides the shared HTTP client and a cached file fetcher
// used to pull model weights at startup.
package httpc

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Default timeouts for HTTP operations.
const (
	DefaultTimeout        = 2 * time.Minute
	DefaultConnectTimeout = 10 * time.Second

	// MaxDownload caps a fetched file.
	MaxDownload = 256 << 20
)

// Client is the shared HTTP client. Its timeout covers a full model download.
var Client = NewClient(DefaultTimeout)

// NewClient creates an HTTP client with the specified overall timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DefaultConnectTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

// IsURL reports whether s is an http or https URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Fetch downloads rawURL into dir and returns the local path. A file
// already present under the same name is reused without a request.
func Fetch(ctx context.Context, c *http.Client, rawURL, dir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", rawURL, err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "", fmt.Errorf("no file name in %s", rawURL)
	}

	dst := filepath.Join(dir, name)
	if fi, err := os.Stat(dst); err == nil && fi.Size() > 0 {
		return dst, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if c == nil {
		c = Client
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(dir, name+".*.part")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, MaxDownload+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if n > MaxDownload {
		return "", fmt.Errorf("fetch %s: larger than %d bytes", rawURL, MaxDownload)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", err
	}
	return dst, nil
}

// CacheDir returns the per-user cache directory for app.
func CacheDir(app string) string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, app)
	}
	return filepath.Join(os.TempDir(), app)
}
