package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	fetchAttempts    = 3
	defaultBackoff   = time.Second
	maxRedirects     = 3
	defaultUserAgent = "Claim-Evidence-Inspector/1.0"
)

// EvidenceFetcher downloads the raw bytes of a remote evidence file
type EvidenceFetcher interface {
	Fetch(ctx context.Context, evidenceURL string) ([]byte, error)
}

// StatusError is returned for non-200 responses
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	if e.Code >= 500 {
		return fmt.Sprintf("server error: status code %d", e.Code)
	}
	return fmt.Sprintf("client error: status code %d", e.Code)
}

// HTTPFetcherOptions tunes the HTTP fetcher
type HTTPFetcherOptions struct {
	Timeout  time.Duration
	MaxBytes int64
	Backoff  time.Duration
}

// HTTPFetcher implements EvidenceFetcher with retries on transient errors
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
	backoff  time.Duration
}

// NewHTTPFetcher creates a fetcher with pooled connections sized for single
// file downloads
func NewHTTPFetcher(opts HTTPFetcherOptions) *HTTPFetcher {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	return &HTTPFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (limit: %d)", maxRedirects)
				}
				return nil
			},
		},
		maxBytes: opts.MaxBytes,
		backoff:  backoff,
	}
}

// Fetch retries network errors and 5xx responses with linear backoff. 4xx
// responses and oversized bodies fail immediately.
func (h *HTTPFetcher) Fetch(ctx context.Context, evidenceURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < fetchAttempts; attempt++ {
		data, err := h.fetchOnce(ctx, evidenceURL)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if !retryable(err) || ctx.Err() != nil {
			break
		}

		if attempt < fetchAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * h.backoff):
			}
		}
	}

	return nil, fmt.Errorf("failed to fetch evidence after %d attempts: %w", fetchAttempts, lastErr)
}

func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500
	}
	var tooLarge *TooLargeError
	return !errors.As(err, &tooLarge)
}

func (h *HTTPFetcher) fetchOnce(ctx context.Context, evidenceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, evidenceURL, nil)
	if err != nil {
		return nil, &StatusError{Code: http.StatusBadRequest}
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/tiff, image/bmp, */*")
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode}
	}

	return readLimited(resp.Body, h.maxBytes)
}

// readLimited reads at most limit bytes; a larger body is an error
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, &TooLargeError{Limit: limit}
	}
	return data, nil
}

// TooLargeError is returned when a download exceeds the configured size
type TooLargeError struct {
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("evidence exceeds %d bytes", e.Limit)
}
