// SPDX-License-Identifier: MPL-2.0

package hostplatform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/plugkit/plugkit/internal/checksum"
	"github.com/plugkit/plugkit/internal/platform"
)

const (
	// DefaultBaseURL is the public JetBrains download service.
	DefaultBaseURL = "https://download.jetbrains.com"

	// completeMarker is written last so interrupted extractions are not reused.
	completeMarker = ".plugkit-complete"

	// maxSidecarBytes bounds the .sha256 response.
	maxSidecarBytes = 64 << 10
)

// ErrDownloadFailed is wrapped by errors for non-200 download responses.
var ErrDownloadFailed = errors.New("download failed")

type (
	// Client fetches IDE distributions.
	Client struct {
		httpClient *http.Client
		baseURL    string
		cacheDir   string
		userAgent  string
		logger     *log.Logger
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)

	// Install is an unpacked distribution.
	Install struct {
		// Home is the IDE home directory (contains bin/, lib/, plugins/).
		Home    string
		Product platform.Product
		Version string
		// Cached is true when an existing install was reused.
		Cached bool
	}

	// StatusError reports an unexpected HTTP status.
	StatusError struct {
		URL        string
		StatusCode int
	}
)

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Unwrap returns ErrDownloadFailed for errors.Is() compatibility.
func (e *StatusError) Unwrap() error { return ErrDownloadFailed }

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

// WithBaseURL overrides the download service, primarily for test servers.
func WithBaseURL(base string) ClientOption {
	return func(cl *Client) {
		if base != "" {
			cl.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithCacheDir sets the directory installs are unpacked into.
func WithCacheDir(dir string) ClientOption {
	return func(cl *Client) {
		if dir != "" {
			cl.cacheDir = dir
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) { cl.userAgent = ua }
}

// WithLogger sets the logger used for progress messages.
func WithLogger(l *log.Logger) ClientOption {
	return func(cl *Client) { cl.logger = l }
}

// DefaultCacheDir returns <user cache dir>/plugkit/platforms.
func DefaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user cache directory: %w", err)
	}
	return filepath.Join(base, "plugkit", "platforms"), nil
}

// NewClient creates a Client. Without WithCacheDir the user cache directory
// is used.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
		userAgent:  "plugkit/dev",
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cacheDir == "" {
		dir, err := DefaultCacheDir()
		if err != nil {
			return nil, err
		}
		c.cacheDir = dir
	}
	return c, nil
}

// ArchiveURL returns the distribution URL for a remote target.
func (c *Client) ArchiveURL(target platform.Remote) (string, error) {
	product, err := platform.LookupProduct(target.Type)
	if err != nil {
		return "", err
	}
	return c.archiveURL(product, target.Version), nil
}

// InstallDir returns the cache directory a remote target unpacks into.
func (c *Client) InstallDir(target platform.Remote) string {
	return filepath.Join(c.cacheDir, target.Coordinates())
}

// Fetch downloads, verifies and unpacks target unless a completed install is
// already cached.
func (c *Client) Fetch(ctx context.Context, target platform.Remote) (*Install, error) {
	product, err := platform.LookupProduct(target.Type)
	if err != nil {
		return nil, err
	}

	dest := c.InstallDir(target)
	install := &Install{Home: dest, Product: product, Version: target.Version}

	if fileExists(filepath.Join(dest, completeMarker)) {
		c.logger.Debug("reusing cached platform", "target", target.Coordinates(), "dir", dest)
		install.Cached = true
		return install, nil
	}

	archiveURL := c.archiveURL(product, target.Version)
	archiveName := pathBase(archiveURL)

	expected, err := c.fetchChecksum(ctx, archiveURL+".sha256", archiveName)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	c.logger.Info("downloading platform", "target", target.Coordinates(), "url", archiveURL)
	archivePath, err := c.download(ctx, archiveURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(archivePath) }() // temp download

	if err := checksum.VerifyFile(archivePath, expected); err != nil {
		return nil, fmt.Errorf("verifying %s: %w", archiveName, err)
	}

	staging, err := os.MkdirTemp(c.cacheDir, target.Coordinates()+".partial-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }() // no-op after a successful rename

	if err := extractTarGz(archivePath, staging); err != nil {
		return nil, fmt.Errorf("extracting %s: %w", archiveName, err)
	}
	root, err := installRoot(staging)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(root, completeMarker), []byte(expected+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("writing install marker: %w", err)
	}

	// A stale partial install without marker is replaced.
	if err := os.RemoveAll(dest); err != nil {
		return nil, fmt.Errorf("removing stale install: %w", err)
	}
	if err := os.Rename(root, dest); err != nil {
		return nil, fmt.Errorf("moving install into place: %w", err)
	}

	c.logger.Info("platform ready", "target", target.Coordinates(), "dir", dest)
	return install, nil
}

func (c *Client) archiveURL(product platform.Product, version string) string {
	return fmt.Sprintf("%s/%s/%s-%s.tar.gz", c.baseURL, product.DownloadPath, product.FilePrefix, version)
}

func (c *Client) fetchChecksum(ctx context.Context, sidecarURL, archiveName string) (string, error) {
	resp, err := c.get(ctx, sidecarURL)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	entries, err := checksum.Parse(io.LimitReader(resp.Body, maxSidecarBytes))
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", redactURL(sidecarURL), err)
	}
	hash, err := checksum.Find(entries, archiveName)
	if err != nil {
		return "", fmt.Errorf("%s: %w", redactURL(sidecarURL), err)
	}
	return hash, nil
}

func (c *Client) download(ctx context.Context, archiveURL string) (_ string, err error) {
	resp, err := c.get(ctx, archiveURL)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	tmp, err := os.CreateTemp(c.cacheDir, "download-*.tar.gz")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if closeErr := tmp.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	return tmp.Name(), nil
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", redactURL(rawURL), err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: redactURL(rawURL), StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// redactURL strips query parameters and fragments for error messages.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func pathBase(rawURL string) string {
	if i := strings.LastIndex(rawURL, "/"); i >= 0 {
		return rawURL[i+1:]
	}
	return rawURL
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
