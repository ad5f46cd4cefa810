// Package transport is the REST seam used by the submission pipeline. The
// Adapter interface models a single request/response exchange; HTTPClient
// implements it over net/http with a base URL, timeouts and header injectors
// resolved once at construction time.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Request describes one outgoing call. Path is resolved against the adapter's
// base URL.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Response is the raw result of a call. Non-2xx statuses are responses, not
// errors.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports whether Status is in the 2xx range.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Adapter performs requests. Implementations return an error only when no
// response was obtained (dial, TLS, timeout, cancelled context).
type Adapter interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// AdapterFunc adapts a function into an Adapter.
type AdapterFunc func(ctx context.Context, req Request) (Response, error)

// Do calls fn.
func (fn AdapterFunc) Do(ctx context.Context, req Request) (Response, error) {
	return fn(ctx, req)
}

// HeaderInjector decorates outgoing headers with ambient credentials.
type HeaderInjector interface {
	Inject(h http.Header)
}

// HeaderInjectorFunc adapts a function into a HeaderInjector.
type HeaderInjectorFunc func(h http.Header)

// Inject calls fn.
func (fn HeaderInjectorFunc) Inject(h http.Header) {
	fn(h)
}

// ErrBodyTooLarge is reported when a response exceeds the configured limit.
var ErrBodyTooLarge = errors.New("transport: response body too large")

// Error wraps a failure to obtain a response.
type Error struct {
	Method string
	URL    string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline or timeout.
func (e *Error) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}
