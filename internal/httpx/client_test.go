package httpx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
	}{
		{name: "empty", baseURL: "  "},
		{name: "unparsable", baseURL: "://not-a-url"},
		{name: "missing host", baseURL: "/api"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewClient(tc.baseURL)
			require.Error(t, err)
		})
	}
}

func TestBuildURLKeepsBasePath(t *testing.T) {
	c, err := NewClient("http://localhost:5000/api/")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000/api/auth/login", c.buildURL("/auth/login", nil))
	assert.Equal(t, "http://localhost:5000/api/products/", c.buildURL("products/", nil))
	assert.Equal(t,
		"http://localhost:5000/api/products/?limit=20&page=2",
		c.buildURL("/products/", url.Values{"page": {"2"}, "limit": {"20"}}),
	)
}

func TestDoReturnsNon2xxWithoutError(t *testing.T) {
	var gotHeader, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Client")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"success":false,"message":"not found"}`)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/api", WithHeaders(http.Header{"X-Client": {"sdk"}}))
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), &Request{
		Method: http.MethodGet,
		Path:   "/products/missing",
		Header: http.Header{"Authorization": {"Bearer t1"}},
	})
	require.NoError(t, err)
	body, err := ReadAllAndClose(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"success":false,"message":"not found"}`, string(body))
	assert.Equal(t, "sdk", gotHeader)
	assert.Equal(t, "Bearer t1", gotAuth)
}

func TestDoTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := NewClient(base)
	require.NoError(t, err)
	_, err = c.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/health"})
	require.Error(t, err)
}

func TestDoRejectsMissingMethod(t *testing.T) {
	c, err := NewClient("http://localhost")
	require.NoError(t, err)
	_, err = c.Do(context.Background(), &Request{Path: "/x"})
	require.Error(t, err)
	_, err = c.Do(context.Background(), nil)
	require.Error(t, err)
}

func TestMetricsAndHandlerTransport(t *testing.T) {
	reg := prometheus.NewRegistry()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/abc", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	c, err := NewClient("http://sandbox.local/api", WithHandler(handler), WithMetrics(reg))
	require.NoError(t, err)
	// A second client on the same registry must reuse the collectors.
	other, err := NewClient("http://sandbox.local/api", WithHandler(handler), WithMetrics(reg))
	require.NoError(t, err)

	for _, cl := range []*Client{c, other} {
		resp, err := cl.Do(context.Background(), &Request{
			Method: http.MethodGet,
			Path:   "/products/abc",
			Route:  "/products/{id}",
		})
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(c.metrics.requests.WithLabelValues(http.MethodGet, "/products/{id}", "200")))
}

func TestHandlerTransportHonoursCancelledContext(t *testing.T) {
	c, err := NewClient("http://sandbox.local", WithHandler(http.NotFoundHandler()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Do(ctx, &Request{Method: http.MethodGet, Path: "/"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewHTTPError(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusBadGateway,
		Header:     http.Header{"Content-Type": {"text/html"}},
	}
	err := NewHTTPError(resp, []byte("<html>bad gateway</html>"))
	assert.Equal(t, http.StatusBadGateway, err.StatusCode)
	assert.Nil(t, err.JSON)
	assert.Contains(t, err.Error(), "status=502")
}
