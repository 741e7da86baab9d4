package thingworx

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the platform.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string // reason phrase, e.g. "Not Found"
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, e.Status)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the platform.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsAlreadyExists reports whether err is the platform's answer to creating
// an entity that exists: a 500 whose body says "already exists".
func IsAlreadyExists(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusInternalServerError &&
		strings.Contains(apiErr.Body, "already exists")
}
