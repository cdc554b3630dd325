// ABOUTME: Uniform transport error for the CRM client
// ABOUTME: Carries the action label and HTTP status of a failed request
package api

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is returned for every failed request. StatusCode is zero when no
// response was received; Err is set for network and decode failures.
type HTTPError struct {
	Action     string
	StatusCode int
	Body       string
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", e.Action, e.Err)
	}
	return fmt.Sprintf("%s failed (Status: %d)", e.Action, e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

func IsConflict(err error) bool {
	return StatusCode(err) == http.StatusConflict
}
