package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a structured error returned by the backend on a non-2xx response.
// Body shape: {"error": "<code>", "message": "<text>", "details": {"field": "message"}}.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend %d %s", e.Status, e.Code)
}

// TransportError means the request never produced an HTTP response.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsTransport reports whether err is a network-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	ae, ok := AsAPIError(err)
	return ok && ae.Status == status
}

// parseErrorBody builds an APIError from a failed response body. Bodies that are
// not the documented JSON shape still yield an error, never a silent success.
func parseErrorBody(status int, body []byte) *APIError {
	ae := &APIError{Status: status}

	var raw struct {
		Error   string          `json:"error"`
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		ae.Code = fmt.Sprintf("HTTP_%d", status)
		ae.Message = strings.TrimSpace(string(body))
		if ae.Message == "" {
			ae.Message = http.StatusText(status)
		}
		return ae
	}

	ae.Code = raw.Error
	if ae.Code == "" {
		ae.Code = raw.Code
	}
	if ae.Code == "" {
		ae.Code = fmt.Sprintf("HTTP_%d", status)
	}
	ae.Message = raw.Message

	if len(raw.Details) > 0 {
		var details map[string]string
		if err := json.Unmarshal(raw.Details, &details); err == nil && len(details) > 0 {
			ae.Details = details
		}
	}
	return ae
}
