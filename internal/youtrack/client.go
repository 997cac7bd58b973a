package youtrack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/trackhub/trackhub/internal/telemetry"
)

const (
	maxAttempts       = 4
	metadataCacheSize = 256
	metadataCacheTTL  = 5 * time.Minute
)

// metadataPaths lists path prefixes whose GET responses change rarely enough
// to serve from cache: project metadata, boards, link types. Issue data is
// never cached. The user directory ("users") caches only on exact match:
// "users/me" doubles as the readiness ping and must always reach the backend.
var metadataPaths = []string{"admin/projects", "agiles", "issueLinkTypes"}

// Client talks to the YouTrack REST API. GETs are retried on transient
// failures; mutations (POST, DELETE) are issued exactly once, because a
// failed command may still have been applied server-side.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	cache      *expirable.LRU[string, []byte]
}

func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      expirable.NewLRU[string, []byte](metadataCacheSize, nil, metadataCacheTTL),
	}
}

// BaseURL returns the instance URL without a trailing slash, for building
// human-facing issue and article links.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s HTTP %d: %s", e.Operation, e.StatusCode, e.Body)
}

// HTTPStatus lets callers classify the failure without importing this package.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// Get issues a GET against /api/<path>. Metadata paths are served from an
// expiring cache. out may be nil when only the status matters.
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	key := cacheKey(path, params)
	if cacheable(path) {
		if data, ok := c.cache.Get(key); ok {
			if out == nil {
				return nil
			}
			return json.Unmarshal(data, out)
		}
	}

	endpoint := c.apiURL(path, params)
	op := "GET " + path

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts && isRetryableError(err) {
				if !sleepWithBackoff(ctx, attempt, 0) {
					return ctx.Err()
				}
				continue
			}
			return err
		}

		if resp.StatusCode == http.StatusOK {
			data, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return fmt.Errorf("%s: read body: %w", op, readErr)
			}
			if cacheable(path) {
				c.cache.Add(key, data)
			}
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("%s: decode response: %w", op, err)
			}
			return nil
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%s HTTP %d and read body failed: %w", op, resp.StatusCode, readErr)
		} else {
			telemetry.IncAPIError(metricOp(http.MethodGet, path), resp.StatusCode)
			lastErr = &APIError{Operation: op, StatusCode: resp.StatusCode, Body: string(body)}
		}

		retryAfter := retryAfterDuration(resp)
		if attempt < maxAttempts && isRetryableStatus(resp.StatusCode) {
			if !sleepWithBackoff(ctx, attempt, retryAfter) {
				return ctx.Err()
			}
			continue
		}

		return lastErr
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%s failed", op)
	}
	return lastErr
}

// Post issues a POST against /api/<path>. The path may carry its own query
// string (YouTrack passes draftId and fields selectors that way). Never
// retried.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	endpoint := c.apiURL(path, nil)
	op := "POST " + path

	resp, err := c.doRequest(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("%s HTTP %d and read body failed: %w", op, resp.StatusCode, readErr)
		}
		telemetry.IncAPIError(metricOp(http.MethodPost, path), resp.StatusCode)
		return &APIError{Operation: op, StatusCode: resp.StatusCode, Body: string(b)}
	}

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", op, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// Delete issues a DELETE against /api/<path>. Never retried.
func (c *Client) Delete(ctx context.Context, path string) error {
	endpoint := c.apiURL(path, nil)
	op := "DELETE " + path

	resp, err := c.doRequest(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("%s HTTP %d and read body failed: %w", op, resp.StatusCode, readErr)
		}
		telemetry.IncAPIError(metricOp(http.MethodDelete, path), resp.StatusCode)
		return &APIError{Operation: op, StatusCode: resp.StatusCode, Body: string(b)}
	}

	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body any) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

func (c *Client) apiURL(path string, params url.Values) string {
	endpoint := c.baseURL + "/api/" + path
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		endpoint += sep + params.Encode()
	}
	return endpoint
}

func cacheKey(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

func cacheable(path string) bool {
	if path == "users" {
		return true
	}
	for _, prefix := range metadataPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// metricOp reduces a request to a bounded counter key: method plus the first
// path segment, so issue IDs and query strings never become metric labels.
func metricOp(method, path string) string {
	p := path
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return method + " " + p
}

func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func retryAfterDuration(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d > 0 {
			return d
		}
	}
	return 0
}

func sleepWithBackoff(ctx context.Context, attempt int, retryAfter time.Duration) bool {
	base := 250 * time.Millisecond
	max := 5 * time.Second
	backoff := base * time.Duration(1<<(attempt-1))
	if backoff > max {
		backoff = max
	}
	jitter := time.Duration(rand.Intn(200)) * time.Millisecond
	wait := backoff + jitter
	if retryAfter > wait {
		wait = retryAfter
	}

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
