package imgix

import (
	"encoding/json"
	"fmt"
)

// APIError is a structured JSON:API error returned by the imgix Management
// API, as opposed to a plain transport failure. The errors[].detail text is
// more specific than the HTTP status line, so upload failure notifications
// surface it when present.
type APIError struct {
	StatusCode int
	Errors     []APIErrorEntry
}

// APIErrorEntry is one entry of a JSON:API errors array.
type APIErrorEntry struct {
	Status string `json:"status,omitempty"`
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func (e *APIError) Error() string {
	if detail := e.Detail(); detail != "" {
		return fmt.Sprintf("imgix API error (status %d): %s", e.StatusCode, detail)
	}
	return fmt.Sprintf("imgix API error (status %d)", e.StatusCode)
}

// Detail returns the first error entry's detail text, or "".
func (e *APIError) Detail() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].Detail
}

// parseAPIError builds an APIError from a non-2xx response body. Bodies that
// do not carry a JSON:API errors array still produce an APIError with the
// status code alone.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	var envelope struct {
		Errors []APIErrorEntry `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		apiErr.Errors = envelope.Errors
	}
	return apiErr
}
