package yadisk

import (
	"errors"
	"fmt"

	"github.com/yadisk-unofficial/yadisk-go/transport"
)

// Sentinel errors for API error classification. Check with errors.Is; the
// hierarchy is expressed by wrapping, so errors.Is(err, ErrNotFound) is true
// for ErrPathNotFound as well.
var (
	ErrBadRequest           = errors.New("yadisk: bad request")
	ErrFieldValidation      = fmt.Errorf("%w: invalid field data", ErrBadRequest)
	ErrAuthorizationPending = fmt.Errorf("%w: authorization pending", ErrBadRequest)
	ErrInvalidClient        = fmt.Errorf("%w: invalid client ID or secret", ErrBadRequest)
	ErrInvalidGrant         = fmt.Errorf("%w: code is expired or invalid", ErrBadRequest)
	ErrBadVerificationCode  = fmt.Errorf("%w: malformed verification code", ErrBadRequest)
	ErrUnsupportedTokenType = fmt.Errorf("%w: unsupported token type", ErrBadRequest)

	ErrUnauthorized = errors.New("yadisk: unauthorized")

	ErrForbidden        = errors.New("yadisk: forbidden")
	ErrPasswordRequired = fmt.Errorf("%w: password required", ErrForbidden)

	ErrNotFound          = errors.New("yadisk: not found")
	ErrPathNotFound      = fmt.Errorf("%w: path does not exist", ErrNotFound)
	ErrOperationNotFound = fmt.Errorf("%w: operation does not exist", ErrNotFound)

	ErrNotAcceptable = errors.New("yadisk: not acceptable")

	ErrConflict        = errors.New("yadisk: conflict")
	ErrParentNotFound  = fmt.Errorf("%w: parent directory does not exist", ErrConflict)
	ErrPathExists      = fmt.Errorf("%w: path already exists", ErrConflict)
	ErrDirectoryExists = fmt.Errorf("%w: directory already exists", ErrPathExists)
	ErrMD5Differ       = fmt.Errorf("%w: MD5 hash mismatch", ErrConflict)

	ErrGone             = errors.New("yadisk: resource gone")
	ErrPayloadTooLarge  = errors.New("yadisk: payload too large")
	ErrUnsupportedMedia = errors.New("yadisk: unsupported media type")

	ErrLocked             = errors.New("yadisk: resource locked")
	ErrResourceLocked     = fmt.Errorf("%w: locked by another operation", ErrLocked)
	ErrUploadTrafficLimit = fmt.Errorf("%w: upload traffic limit exceeded", ErrLocked)

	ErrTooManyRequests       = errors.New("yadisk: too many requests")
	ErrDownloadLimitExceeded = fmt.Errorf("%w: download limit exceeded", ErrTooManyRequests)

	ErrInsufficientStorage = errors.New("yadisk: insufficient storage")
)

// ErrRetriable marks server-side error kinds worth retrying. The retry
// engine consumes budget for any error matching it (or any transport error).
var ErrRetriable = errors.New("yadisk: retriable error")

// Retriable server-side kinds.
var (
	ErrInternalServer = fmt.Errorf("%w: internal server error", ErrRetriable)
	ErrBadGateway     = fmt.Errorf("%w: bad gateway", ErrRetriable)
	ErrUnavailable    = fmt.Errorf("%w: service unavailable", ErrRetriable)
	ErrGatewayTimeout = fmt.Errorf("%w: gateway timeout", ErrRetriable)

	// ErrUnknown is the kind for any status code the classification table
	// does not know about.
	ErrUnknown = fmt.Errorf("%w: unknown disk error", ErrRetriable)

	// ErrOperationFailed reports a server-side asynchronous operation that
	// reached the "failed" status. It is retriable: restarting the whole
	// operation is a meaningful recovery.
	ErrOperationFailed = fmt.Errorf("%w: asynchronous operation failed", ErrRetriable)
)

// Client-side error kinds, never retried.
var (
	// ErrOperationPollingTimeout reports that polling an asynchronous
	// operation exceeded the configured poll timeout. Distinct from
	// ErrOperationFailed: the server never reported a terminal status.
	ErrOperationPollingTimeout = errors.New("yadisk: polling timed out waiting for operation")

	// ErrInvalidResponse reports a response body that is not valid JSON or
	// does not match the expected shape.
	ErrInvalidResponse = errors.New("yadisk: server returned invalid response")

	// ErrWrongResourceType reports a resource of an unexpected type,
	// e.g. listing a file as a directory.
	ErrWrongResourceType = errors.New("yadisk: wrong resource type")
)

// Transport-level failure kinds, re-exported for callers that only import
// this package. See the transport package for the contract.
var (
	ErrRequestFailed    = transport.ErrRequest
	ErrConnection       = transport.ErrConnection
	ErrTimeout          = transport.ErrTimeout
	ErrTooManyRedirects = transport.ErrTooManyRedirects
)

// Error carries the details of one classified API failure: the sentinel
// kind, the server's machine-readable error code, and the human-readable
// message and description from the error body.
type Error struct {
	// ErrorType is the server's error code string, e.g. "DiskNotFoundError".
	ErrorType string

	// Message and Description come from the error body. When the body could
	// not be parsed as JSON both hold the "<empty>" placeholder.
	Message     string
	Description string

	// StatusCode is the HTTP status of the failed exchange. Zero for errors
	// not produced by an HTTP response (e.g. operation polling failures).
	StatusCode int

	// DisableRetry short-circuits the retry engine even when Err matches a
	// retriable kind.
	DisableRetry bool

	// Err is the sentinel kind, for errors.Is.
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Err.Error()
	}

	if e.StatusCode == 0 {
		return msg
	}

	if e.ErrorType != "" {
		return fmt.Sprintf("%s | Error code: %s | Status code: %d", msg, e.ErrorType, e.StatusCode)
	}

	return fmt.Sprintf("%s | Status code: %d", msg, e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// isRetriable reports whether the retry engine should consume budget for
// err: any transport-level failure or any retriable API kind.
func isRetriable(err error) bool {
	return errors.Is(err, transport.ErrRequest) || errors.Is(err, ErrRetriable)
}

// retryDisabled reports whether err carries the disable-retry flag.
func retryDisabled(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.DisableRetry
}

// withRetryDisabled flags err so the retry engine stops immediately. An
// *Error in the chain is flagged in place; anything else is wrapped so the
// original remains visible to errors.Is/errors.As.
func withRetryDisabled(err error) error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		apiErr.DisableRetry = true

		return err
	}

	return &Error{Message: err.Error(), DisableRetry: true, Err: err}
}
