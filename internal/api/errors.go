package api

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
)

// ErrStaleWrite means a write targeted something the backend no longer has
var ErrStaleWrite = errors.New("target no longer exists")

// HTTPError is a non-2xx answer
type HTTPError struct {
	Method string
	Path   string
	Status int
	// Message is the server's error text, if it sent one.
	Message string

	body []byte
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, http.StatusText(e.Status), e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// Temporary reports whether retrying may help
func (e *HTTPError) Temporary() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// FetchError is a failed read of one collection
type FetchError struct {
	Op     string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func statusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return 0
}
