package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used by the helper.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithHeaders assigns default headers added to every request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) {
		for k, values := range h {
			for _, v := range values {
				c.headers.Add(k, v)
			}
		}
	}
}

// WithTimeout sets the overall per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithLogger attaches a logger used for per-request debug lines.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics registers request counters and latency histograms on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		if reg != nil {
			c.metrics = newMetrics(reg)
		}
	}
}

// WithHandler routes every request to h in-process instead of the network.
func WithHandler(h http.Handler) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = &http.Client{Transport: HandlerTransport{Handler: h}}
		}
	}
}

// Client wraps http.Client providing base URL joining, default headers and
// request instrumentation. It never retries.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	headers    http.Header
	timeout    time.Duration
	logger     zerolog.Logger
	metrics    *metrics
}

// Request describes a single outbound request.
type Request struct {
	Method string
	Query  url.Values
	Header http.Header
	Body   io.Reader

	// Path is joined onto the base URL path. Callers escape dynamic segments.
	Path string

	// Route is the low-cardinality path template used for metrics labels.
	Route string
}

// NewClient creates a Client for the provided base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("httpx: base URL is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("httpx: invalid base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("httpx: invalid base URL %q: scheme and host are required", baseURL)
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""

	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{},
		headers:    make(http.Header),
		logger:     zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// BaseURL returns the normalised base URL the client resolves paths against.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Do executes the request once and returns the response whatever its status
// code. Only transport-level failures are reported as errors; the caller owns
// resp.Body.
func (c *Client) Do(ctx context.Context, req *Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("httpx: request is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Method == "" {
		return nil, errors.New("httpx: HTTP method is required")
	}

	fullURL := c.buildURL(req.Path, req.Query)

	body := req.Body
	if body == nil {
		body = http.NoBody
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header = cloneHeader(c.headers)
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	route := req.Route
	if route == "" {
		route = req.Path
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.observe(req.Method, route, 0, elapsed)
		return nil, err
	}

	c.metrics.observe(req.Method, route, resp.StatusCode, elapsed)
	c.logger.Debug().
		Str("method", req.Method).
		Str("path", route).
		Int("status", resp.StatusCode).
		Dur("duration", elapsed).
		Msg("HTTP request")
	return resp, nil
}

func (c *Client) buildURL(path string, q url.Values) string {
	base := strings.TrimRight(c.baseURL.String(), "/")
	full := base + "/" + strings.TrimLeft(path, "/")
	if len(q) > 0 {
		full += "?" + q.Encode()
	}
	return full
}

// WithJSONBody serializes the supplied value into JSON and returns a reusable reader.
func WithJSONBody(v any) (io.Reader, string, error) {
	data, err := jsonMarshal(v)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}

// ReadAllAndClose drains the reader and ensures it is closed.
func ReadAllAndClose(rc io.ReadCloser) ([]byte, error) {
	defer closeBody(rc)
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func closeBody(rc io.ReadCloser) {
	if rc != nil {
		_ = rc.Close()
	}
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(contentType) == "application/json"
}

func cloneHeader(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for k, values := range src {
		vCopy := make([]string, len(values))
		copy(vCopy, values)
		dst[k] = vCopy
	}
	return dst
}

func jsonMarshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	data := bytes.TrimRight(buf.Bytes(), "\n")
	return data, nil
}
