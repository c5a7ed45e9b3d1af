// SPDX-License-Identifier: MPL-2.0

package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/plugkit/plugkit/internal/version"
)

const (
	// DefaultMarketplaceURL is the public plugin marketplace.
	DefaultMarketplaceURL = "https://plugins.jetbrains.com"

	uploadPath = "/plugin/uploadPlugin"

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 4 << 10
)

// ErrPublishRejected is wrapped by PublishError.
var ErrPublishRejected = errors.New("marketplace rejected upload")

type (
	// PublishRequest describes one upload.
	PublishRequest struct {
		// XMLID is the plugin identifier known to the marketplace.
		XMLID       string
		Artifact    string
		Credentials PublishCredentials
	}

	// Publisher uploads an artifact to a distribution channel. Implementations
	// must reject a missing token themselves.
	Publisher interface {
		Publish(ctx context.Context, req PublishRequest) error
	}

	// MarketplaceClient uploads plugins over the marketplace HTTP API.
	MarketplaceClient struct {
		httpClient *http.Client
		baseURL    string
		userAgent  string
		logger     *log.Logger
	}

	// MarketplaceOption configures a MarketplaceClient.
	MarketplaceOption func(*MarketplaceClient)

	// PublishError reports a non-2xx upload response.
	PublishError struct {
		Channel    string
		StatusCode int
		Body       string
	}
)

// Error implements the error interface.
func (e *PublishError) Error() string {
	msg := fmt.Sprintf("upload to channel %q failed with status %d", e.Channel, e.StatusCode)
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}
	return msg
}

// Unwrap returns ErrPublishRejected for errors.Is() compatibility.
func (e *PublishError) Unwrap() error { return ErrPublishRejected }

// WithMarketplaceURL overrides the marketplace base URL.
func WithMarketplaceURL(base string) MarketplaceOption {
	return func(c *MarketplaceClient) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithMarketplaceHTTPClient sets a custom HTTP client.
func WithMarketplaceHTTPClient(hc *http.Client) MarketplaceOption {
	return func(c *MarketplaceClient) { c.httpClient = hc }
}

// WithMarketplaceLogger sets the logger.
func WithMarketplaceLogger(l *log.Logger) MarketplaceOption {
	return func(c *MarketplaceClient) { c.logger = l }
}

// NewMarketplaceClient creates a MarketplaceClient.
func NewMarketplaceClient(opts ...MarketplaceOption) *MarketplaceClient {
	c := &MarketplaceClient{
		httpClient: http.DefaultClient,
		baseURL:    DefaultMarketplaceURL,
		userAgent:  "plugkit/dev",
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Publish uploads the artifact once per channel. The default channel is sent
// without a channel field.
func (c *MarketplaceClient) Publish(ctx context.Context, req PublishRequest) error {
	channels := req.Credentials.Channels
	if len(channels) == 0 {
		channels = []string{version.DefaultChannel}
	}
	for _, channel := range channels {
		if err := c.upload(ctx, req, channel); err != nil {
			return err
		}
		c.logger.Info("published", "plugin", req.XMLID, "channel", channel)
	}
	return nil
}

func (c *MarketplaceClient) upload(ctx context.Context, req PublishRequest, channel string) error {
	body, contentType := multipartBody(req, channel)
	defer func() { _ = body.Close() }()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("User-Agent", c.userAgent)
	if req.Credentials.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Credentials.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", filepath.Base(req.Artifact), err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // best-effort diagnostics
		return &PublishError{Channel: channel, StatusCode: resp.StatusCode, Body: string(msg)}
	}
	return nil
}

// multipartBody streams the upload form through a pipe so large artifacts
// are not buffered in memory.
func multipartBody(req PublishRequest, channel string) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeForm(mw, req, channel))
	}()
	return pr, mw.FormDataContentType()
}

func writeForm(mw *multipart.Writer, req PublishRequest, channel string) error {
	if err := mw.WriteField("xmlId", req.XMLID); err != nil {
		return err
	}
	if channel != "" && channel != version.DefaultChannel {
		if err := mw.WriteField("channel", channel); err != nil {
			return err
		}
	}

	part, err := mw.CreateFormFile("file", filepath.Base(req.Artifact))
	if err != nil {
		return err
	}
	f, err := os.Open(req.Artifact)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }() // read-only handle
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	return mw.Close()
}
