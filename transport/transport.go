// Package transport defines the capability interface between the yadisk
// client and a concrete HTTP backend. A backend implements Session and
// Response; everything above this package is backend-agnostic.
//
// Backends translate their native failures into the small fixed error
// vocabulary defined here (ErrConnection, ErrTimeout, ErrTooManyRedirects,
// ErrRequest) so that retry and classification logic never has to know
// which HTTP library is underneath.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"
)

// Transport-level failure kinds. Every Session implementation must return
// errors matching one of these via errors.Is; backend-native exceptions must
// never escape. ErrRequest is the generic kind the other three wrap, so
// errors.Is(err, ErrRequest) identifies any transport-level failure.
var (
	ErrRequest          = errors.New("transport: request failed")
	ErrConnection       = fmt.Errorf("%w: connection error", ErrRequest)
	ErrTimeout          = fmt.Errorf("%w: request timed out", ErrRequest)
	ErrTooManyRedirects = fmt.Errorf("%w: too many redirects", ErrRequest)
)

// Timeout is a connect/read timeout pair. A zero field means no limit.
// The read timeout is a stall detector, not a total-duration bound: progress
// on sending a request body defers it, streamed response bodies are not
// bounded by it, and it otherwise limits time-to-response-headers. A whole
// upload or download must never be constrained by a per-request timeout.
type Timeout struct {
	Connect time.Duration
	Read    time.Duration
}

// IsZero reports whether both parts of the timeout are unset.
func (t Timeout) IsZero() bool {
	return t.Connect == 0 && t.Read == 0
}

// Request describes one HTTP exchange. A Request may be sent multiple times
// across retries only when Body is re-derivable by the caller (the transfer
// engine re-seeks or re-creates the body before each attempt).
type Request struct {
	Method string
	URL    string

	// Params are appended to the URL's query string.
	Params url.Values

	// Body is the request payload: raw bytes via bytes.Reader, a file, or
	// any streaming reader. Nil means no body.
	Body io.Reader

	// Headers are set on the request after the session's default headers,
	// so per-request values win.
	Headers map[string]string

	// Timeout overrides the session's default timeout pair when non-zero.
	Timeout Timeout

	// Stream leaves the response body unread for the caller to pull via
	// Response.Download or JSON. When false the body is buffered and the
	// connection released before Send returns.
	Stream bool

	// Backend carries backend-specific options, forwarded verbatim to the
	// concrete Session without interpretation.
	Backend map[string]any
}

// Response represents one completed (or, when streamed, in-flight) HTTP
// exchange. It must be closed on every exit path by exactly one consumer.
type Response interface {
	// Status returns the HTTP status code.
	Status() int

	// JSON parses the response body into v. A body that is not valid JSON
	// yields an error; the caller decides whether that is fatal.
	JSON(v any) error

	// Download pushes body chunks to consume until EOF. A non-nil error
	// from consume aborts the stream and is returned as-is; transport
	// failures mid-stream are returned as transport error kinds.
	Download(consume func(chunk []byte) error) error

	// Close releases the underlying connection back to the pool.
	Close() error
}

// Session is an ownership-bound handle to a pool of connections plus a
// mutable map of default headers. It must be closed by its owner. Default
// headers are applied to every request sent through the session.
type Session interface {
	// SetToken sets the Authorization header from an OAuth token.
	SetToken(token string)

	// SetHeaders merges headers into the session's default header set.
	SetHeaders(headers map[string]string)

	// Send performs one HTTP exchange. Transport-level failures are
	// reported as one of the fixed error kinds above.
	Send(ctx context.Context, req *Request) (Response, error)

	// Close releases all pooled connections.
	Close() error
}
