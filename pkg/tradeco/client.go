package tradeco

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/tradeco/tradeco_sdk_go/internal/apienvelope"
	"github.com/tradeco/tradeco_sdk_go/internal/httpx"
	"github.com/tradeco/tradeco_sdk_go/pkg/session"
)

// Option configures a Client.
type Option func(*options)

type options struct {
	logger    zerolog.Logger
	loggerSet bool
	http      []httpx.Option
}

// WithLogger sets the logger used for transport diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
		o.loggerSet = true
		o.http = append(o.http, httpx.WithLogger(l))
	}
}

// WithHTTPClient overrides the underlying *http.Client. Ignored by
// NewWithHTTPClient.
func WithHTTPClient(h *http.Client) Option {
	return func(o *options) { o.http = append(o.http, httpx.WithHTTPClient(h)) }
}

// WithTimeout sets a per-request timeout. Ignored by NewWithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.http = append(o.http, httpx.WithTimeout(d)) }
}

// WithMetrics records request counters on reg. Ignored by NewWithHTTPClient.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.http = append(o.http, httpx.WithMetrics(reg)) }
}

// WithHandler serves every request from h in-process. Ignored by
// NewWithHTTPClient.
func WithHandler(h http.Handler) Option {
	return func(o *options) { o.http = append(o.http, httpx.WithHandler(h)) }
}

// Client is the TradeCo API façade.
type Client struct {
	http    *httpx.Client
	session *session.Store
	logger  zerolog.Logger
}

// New constructs a Client for the API rooted at baseURL, e.g.
// "http://localhost:5000/api". A nil store gets an in-memory session.
func New(baseURL string, store *session.Store, opts ...Option) (*Client, error) {
	o := collect(opts)
	cl, err := httpx.NewClient(baseURL, o.http...)
	if err != nil {
		return nil, err
	}
	return build(cl, store, o), nil
}

// NewWithHTTPClient wraps an existing httpx.Client.
func NewWithHTTPClient(httpClient *httpx.Client, store *session.Store, opts ...Option) (*Client, error) {
	if httpClient == nil {
		return nil, errors.New("tradeco: http client is nil")
	}
	return build(httpClient, store, collect(opts)), nil
}

func collect(opts []Option) *options {
	o := &options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func build(cl *httpx.Client, store *session.Store, o *options) *Client {
	if store == nil {
		store = session.New(nil, session.WithLogger(o.logger))
	}
	return &Client{http: cl, session: store, logger: o.logger}
}

// Session exposes the store the client reads tokens from and writes to.
func (c *Client) Session() *session.Store {
	return c.session
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.http.BaseURL()
}

// IsAuthenticated reports whether a session token is stored.
func (c *Client) IsAuthenticated() bool {
	return c.session.IsAuthenticated()
}

// CurrentUser returns the cached user, if any.
func (c *Client) CurrentUser() (User, bool) {
	var u User
	ok := c.session.User(&u)
	return u, ok
}

// Logout clears the session and navigates home.
func (c *Client) Logout() error {
	return c.session.Logout()
}

type call struct {
	method      string
	path        string
	route       string
	query       url.Values
	body        io.Reader
	contentType string

	// authMessage, when set, makes the call require a token and is the
	// failure message if none is stored.
	authMessage string
}

func (c *Client) send(ctx context.Context, op string, in call) Result[json.RawMessage] {
	header := make(http.Header)
	header.Set("Accept", "application/json")
	if in.authMessage != "" {
		token, ok := c.session.Token()
		if !ok {
			return failure[json.RawMessage](KindUnauthenticated, in.authMessage, 0)
		}
		header.Set("Authorization", "Bearer "+token)
	}
	if in.contentType != "" {
		header.Set("Content-Type", in.contentType)
	}

	resp, err := c.http.Do(ctx, &httpx.Request{
		Method: in.method,
		Path:   in.path,
		Route:  in.route,
		Query:  in.query,
		Header: header,
		Body:   in.body,
	})
	if err != nil {
		c.logger.Error().Err(err).Str("op", op).Str("path", in.route).Msg("request failed")
		return failure[json.RawMessage](KindConnection, MsgConnection, 0)
	}
	body, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		c.logger.Error().Err(err).Str("op", op).Int("status", resp.StatusCode).Msg("read response body")
		return failure[json.RawMessage](KindConnection, MsgConnection, resp.StatusCode)
	}

	env, err := apienvelope.Parse(body)
	if err != nil {
		c.logger.Error().Err(httpx.NewHTTPError(resp, body)).Str("op", op).Msg("unexpected response")
		return failure[json.RawMessage](KindInvalidResponse, invalidResponseMessage(resp.StatusCode), resp.StatusCode)
	}

	res := Result[json.RawMessage]{
		Success: env.Success,
		Message: env.Message,
		Data:    env.Data,
		Errors:  env.Errors,
		Status:  resp.StatusCode,
	}
	if !env.Success {
		res.Kind = KindRejected
	}
	return res
}

// as decodes the data member of raw into T. A successful envelope whose data
// does not fit T becomes an invalid response.
func as[T any](c *Client, op string, raw Result[json.RawMessage]) Result[T] {
	out := Result[T]{
		Success: raw.Success,
		Message: raw.Message,
		Errors:  raw.Errors,
		Status:  raw.Status,
		Kind:    raw.Kind,
	}
	if len(raw.Data) == 0 {
		return out
	}
	if err := json.Unmarshal(raw.Data, &out.Data); err != nil {
		if !raw.Success {
			return out
		}
		c.logger.Error().Err(err).Str("op", op).Msg("decode response data")
		return failure[T](KindInvalidResponse, invalidResponseMessage(raw.Status), raw.Status)
	}
	return out
}

func jsonCall(method, path string, v any) (call, error) {
	body, contentType, err := httpx.WithJSONBody(v)
	if err != nil {
		return call{}, err
	}
	return call{method: method, path: path, route: path, body: body, contentType: contentType}, nil
}
