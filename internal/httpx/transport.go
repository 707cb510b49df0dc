package httpx

import (
	"net/http"
	"net/http/httptest"
)

// HandlerTransport serves requests with an in-process http.Handler.
type HandlerTransport struct {
	Handler http.Handler
}

// RoundTrip implements http.RoundTripper.
func (t HandlerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		defer req.Body.Close()
	}
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	inbound := req.Clone(req.Context())
	inbound.RequestURI = req.URL.RequestURI()
	if inbound.Body == nil {
		inbound.Body = http.NoBody
	}

	rec := httptest.NewRecorder()
	t.Handler.ServeHTTP(rec, inbound)
	resp := rec.Result()
	resp.Request = req
	return resp, nil
}
