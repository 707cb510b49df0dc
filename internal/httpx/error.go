package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPError represents a response whose body the caller could not interpret,
// such as a gateway error page in place of a JSON document.
type HTTPError struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	JSON       any
}

// NewHTTPError captures resp metadata together with the already-read body.
func NewHTTPError(resp *http.Response, body []byte) *HTTPError {
	httpErr := &HTTPError{Body: body}
	if resp == nil {
		return httpErr
	}
	httpErr.StatusCode = resp.StatusCode
	httpErr.Header = resp.Header.Clone()
	if isJSON(resp.Header.Get("Content-Type")) {
		httpErr.JSON = decodeJSONBody(body)
	}
	return httpErr
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, truncate(e.Body, 256))
}

// decodeJSONBody parses the body bytes into a generic JSON payload.
func decodeJSONBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	return payload
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
