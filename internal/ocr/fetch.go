package ocr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/joseph-ayodele/property-annotator/internal/common"
)

// Fetcher retrieves page image bytes.
type Fetcher interface {
	Fetch(ctx context.Context, src string) ([]byte, error)
}

// HTTPFetcher reads http(s) URLs with a GET. file:// URLs and bare paths are
// read from disk only when allowLocal is set.
type HTTPFetcher struct {
	client     *http.Client
	maxBytes   int64
	allowLocal bool
	logger     *slog.Logger
}

func NewHTTPFetcher(timeout time.Duration, maxBytes int64, allowLocal bool, logger *slog.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = 50 << 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPFetcher{
		client:     &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
		allowLocal: allowLocal,
		logger:     logger,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	u, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: parse url %q: %v", common.ErrFetch, src, err)
	}
	switch u.Scheme {
	case "http", "https":
		return f.fetchHTTP(ctx, src)
	case "file", "":
		if !f.allowLocal {
			f.logger.Warn("ocr.fetch.local_rejected", "src", src)
			return nil, fmt.Errorf("%w: local files are not allowed: %q", common.ErrFetch, src)
		}
		if u.Scheme == "file" {
			return f.readFile(u.Path)
		}
		return f.readFile(src)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", common.ErrFetch, u.Scheme)
	}
}

func (f *HTTPFetcher) fetchHTTP(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", common.ErrFetch, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrFetch, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			f.logger.Warn("ocr.fetch.body_close_error", "url", src, "error", err)
		}
	}(resp.Body)

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: %s returned status %d", common.ErrFetch, src, resp.StatusCode)
	}
	return f.readLimited(resp.Body)
}

func (f *HTTPFetcher) readFile(path string) ([]byte, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrFetch, err)
	}
	defer fh.Close()
	return f.readLimited(fh)
}

func (f *HTTPFetcher) readLimited(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", common.ErrFetch, err)
	}
	if int64(len(b)) > f.maxBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", common.ErrFetch, f.maxBytes)
	}
	return b, nil
}
