// Package fetch defines the boundary between detection strategies and the
// network.
//
// Strategies never talk to HTTP directly: they receive a [Fetcher] and ask it
// for structured or raw data. The contract is deliberately small: given a
// URL, return decoded data or fail with an error tagged transient or
// permanent via the pkg/errors taxonomy. Retrying is the orchestrator's
// responsibility, so a Fetcher performs exactly one attempt per call.
//
// [HTTPFetcher] is the bundled implementation backed by net/http. Headless
// browser automation and DOM parsing adapters implement the same interface
// out of tree.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	verrors "github.com/verscout/verscout/pkg/errors"
	"github.com/verscout/verscout/pkg/observability"
)

// Fetcher is the injected fetch-and-parse collaborator used by strategies.
//
// Implementations must respect ctx cancellation and deadline, perform no
// internal retries, and tag failures with pkg/errors codes so the retry
// controller can distinguish transient from permanent outcomes.
type Fetcher interface {
	// GetJSON fetches url and JSON-decodes the response body into v.
	GetJSON(ctx context.Context, url string, v any) error

	// GetText fetches url and returns the raw response body as a string.
	GetText(ctx context.Context, url string) (string, error)
}

// HTTPFetcher implements Fetcher over net/http.
//
// All methods are safe for concurrent use by multiple goroutines.
type HTTPFetcher struct {
	http    *http.Client
	headers map[string]string
}

// maxBodySize caps response bodies read by GetText. Vendor download pages can
// be arbitrarily large; versions live near the top.
const maxBodySize = 4 << 20

// NewHTTPFetcher creates an HTTPFetcher with the given default headers.
// Headers are applied to all requests. Pass nil if no defaults are needed.
// Timeouts come from the caller's context, not the client.
func NewHTTPFetcher(headers map[string]string) *HTTPFetcher {
	return &HTTPFetcher{
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        64,
				MaxIdleConnsPerHost: 8,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		headers: headers,
	}
}

// GetJSON performs an HTTP GET and JSON-decodes the response into v.
// A body that cannot be decoded yields a PARSE_FAILURE error.
func (f *HTTPFetcher) GetJSON(ctx context.Context, rawURL string, v any) error {
	body, err := f.do(ctx, rawURL)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return verrors.Wrap(verrors.ErrCodeParseFailure, err, "decode response from %s", rawURL)
	}
	return nil
}

// GetText performs an HTTP GET and returns the response body as a string.
// Useful for plain-text endpoints and page scans.
func (f *HTTPFetcher) GetText(ctx context.Context, rawURL string) (string, error) {
	body, err := f.do(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer body.Close()
	data, err := io.ReadAll(io.LimitReader(body, maxBodySize))
	if err != nil {
		return "", verrors.Wrap(verrors.ErrCodeSourceUnavailable, err, "read response from %s", rawURL)
	}
	return string(data), nil
}

func (f *HTTPFetcher) do(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, verrors.Wrap(verrors.ErrCodeInvalidURL, err, "parse %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, verrors.Wrap(verrors.ErrCodeInvalidURL, err, "build request for %s", rawURL)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	observability.HTTP().OnRequest(ctx, http.MethodGet, u.Host, u.Path)
	start := time.Now()

	resp, err := f.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, u.Host, u.Path, err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, verrors.Wrap(verrors.ErrCodeTimeout, err, "fetch %s", rawURL)
		}
		if errors.Is(err, context.Canceled) {
			return nil, verrors.Wrap(verrors.ErrCodeCanceled, err, "fetch %s", rawURL)
		}
		return nil, verrors.Wrap(verrors.ErrCodeSourceUnavailable, err, "fetch %s", rawURL)
	}

	observability.HTTP().OnResponse(ctx, http.MethodGet, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// checkStatus maps HTTP status codes onto the detection error taxonomy.
func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return verrors.New(verrors.ErrCodeNotFound, "status %d", code)
	case code == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return verrors.Wrap(verrors.ErrCodeRateLimited,
			&verrors.RateLimitedError{RetryAfter: retryAfter}, "status %d", code)
	case code == http.StatusRequestTimeout:
		return verrors.New(verrors.ErrCodeTimeout, "status %d", code)
	case code >= 500:
		return verrors.New(verrors.ErrCodeSourceUnavailable, "status %d", code)
	default:
		// Remaining 4xx: the source answered but will not yield version
		// info for this request. Permanent, not retried.
		return verrors.New(verrors.ErrCodeNotFound, "status %d", code)
	}
}

// Host extracts the lowercase host from a URL, or "" when the URL is
// unparseable. Used as the failure-domain key for breakers and admission.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

var _ Fetcher = (*HTTPFetcher)(nil)
