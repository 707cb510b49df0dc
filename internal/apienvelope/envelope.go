// Package apienvelope decodes the {success, message, data} document every
// TradeCo API endpoint responds with.
package apienvelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotEnvelope reports a body that is not a JSON object with a boolean
// "success" field.
var ErrNotEnvelope = errors.New("apienvelope: body is not a response envelope")

// Envelope is the raw wire form of an API response.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Errors  []string        `json:"errors,omitempty"`
}

// Parse decodes body into an Envelope. Bodies that are empty, not JSON, or
// JSON without a boolean "success" member yield ErrNotEnvelope.
func Parse(body []byte) (*Envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotEnvelope
	}

	var probe struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil || probe.Success == nil {
		return nil, ErrNotEnvelope
	}

	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotEnvelope, err)
	}
	if bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		env.Data = nil
	}
	return &env, nil
}

// DecodeData unmarshals the data member into out. A missing or null data
// member leaves out untouched.
func (e *Envelope) DecodeData(out any) error {
	if e == nil || len(e.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("apienvelope: decode data: %w", err)
	}
	return nil
}

// Encode renders an envelope with data marshalled from v. It is the writer
// counterpart of Parse.
func Encode(success bool, message string, v any) ([]byte, error) {
	env := Envelope{Success: success, Message: message}
	if v != nil {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("apienvelope: encode data: %w", err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}
