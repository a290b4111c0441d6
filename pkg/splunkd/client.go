// Package splunkd is a thin authenticated HTTP client for the splunkd
// REST API.
//
// The client owns connection details only: base URL, credentials, timeouts,
// and an optional request throttle. It performs no retries and no response
// interpretation beyond JSON decoding and HTTP status classification; the
// higher layers (pkg/jobs) own the semantics of what comes back.
package splunkd

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout is the per-request timeout when none is configured.
const DefaultTimeout = 30 * time.Second

// Config holds connection settings for a splunkd endpoint.
type Config struct {
	// BaseURL is the management endpoint, e.g. "https://localhost:8089".
	BaseURL string

	// Token is the bearer token used for authentication.
	Token string

	// Timeout is the per-request timeout. Zero means DefaultTimeout.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	// Intended for local development instances with self-signed certs.
	InsecureSkipVerify bool

	// RequestsPerSecond caps outbound request rate when > 0.
	RequestsPerSecond float64
}

// Client issues authenticated requests and decodes JSON responses.
//
// Client is safe for concurrent use. It never retries: transient-failure
// policy belongs to callers.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a Client from config.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		baseURL: base,
		token:   cfg.Token,
		timeout: timeout,
		http:    &http.Client{Transport: transport},
		limiter: limiter,
	}, nil
}

// BaseURL returns the configured endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET to path with query parameters.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (map[string]any, error) {
	return c.do(ctx, http.MethodGet, path, params, nil)
}

// Post issues a form-encoded POST to path.
func (c *Client) Post(ctx context.Context, path string, data url.Values) (map[string]any, error) {
	return c.do(ctx, http.MethodPost, path, nil, data)
}

// Delete issues a DELETE to path.
func (c *Client) Delete(ctx context.Context, path string) (map[string]any, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, form url.Values) (map[string]any, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &APIError{Op: method, Path: path, Err: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// All responses are requested as JSON; splunkd defaults to XML.
	q := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("output_mode", "json")

	full := c.baseURL + path + "?" + q.Encode()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, full, body)
	if err != nil {
		return nil, &APIError{Op: method, Path: path, Err: err}
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Op: method, Path: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, &APIError{Op: method, Path: path, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Op:         method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(raw),
			Err:        sentinelForStatus(resp.StatusCode),
		}
	}

	if len(strings.TrimSpace(string(raw))) == 0 {
		return map[string]any{}, nil
	}

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &APIError{Op: method, Path: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return parsed, nil
}

// errorDetail pulls the first message text out of a splunkd error body.
//
// Error responses look like:
//
//	{"messages":[{"type":"ERROR","text":"Unknown sid."}]}
func errorDetail(raw []byte) string {
	var parsed struct {
		Messages []struct {
			Text string `json:"text"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ""
	}
	if len(parsed.Messages) == 0 {
		return ""
	}
	return parsed.Messages[0].Text
}
