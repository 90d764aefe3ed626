package yadisk

import (
	"encoding/json"
	"fmt"
)

// emptyPlaceholder is substituted for message and description when the error
// body is missing or not parseable, so classification never fails on bad input.
const emptyPlaceholder = "<empty>"

// errorBody is the JSON shape of a Yandex.Disk error response.
type errorBody struct {
	Message     string `json:"message"`
	Description string `json:"description"`
	Error       string `json:"error"`
}

// statusBucket holds the default kind for a status code plus more specific
// kinds keyed by the server's error code string.
type statusBucket struct {
	fallback error
	codes    map[string]error
}

// classificationTable maps HTTP status codes to error kinds. Statuses not
// present yield ErrUnknown. Mirrors the REST API's documented error codes.
var classificationTable = map[int]statusBucket{
	400: {fallback: ErrBadRequest, codes: map[string]error{
		"FieldValidationError":   ErrFieldValidation,
		"authorization_pending":  ErrAuthorizationPending,
		"invalid_client":         ErrInvalidClient,
		"invalid_grant":          ErrInvalidGrant,
		"bad_verification_code":  ErrBadVerificationCode,
		"unsupported_token_type": ErrUnsupportedTokenType,
	}},
	401: {fallback: ErrUnauthorized},
	403: {fallback: ErrForbidden, codes: map[string]error{
		"DiskSymlinkPasswordRequiredError": ErrPasswordRequired,
	}},
	404: {fallback: ErrNotFound, codes: map[string]error{
		"DiskNotFoundError":          ErrPathNotFound,
		"DiskOperationNotFoundError": ErrOperationNotFound,
	}},
	406: {fallback: ErrNotAcceptable},
	409: {fallback: ErrConflict, codes: map[string]error{
		"DiskPathDoesntExistsError":              ErrParentNotFound,
		"DiskPathPointsToExistentDirectoryError": ErrDirectoryExists,
		"DiskResourceAlreadyExistsError":         ErrPathExists,
		"MD5DifferError":                         ErrMD5Differ,
	}},
	410: {fallback: ErrGone},
	413: {fallback: ErrPayloadTooLarge},
	415: {fallback: ErrUnsupportedMedia},
	423: {fallback: ErrLocked, codes: map[string]error{
		"DiskResourceLockedError":        ErrResourceLocked,
		"DiskUploadTrafficLimitExceeded": ErrUploadTrafficLimit,
	}},
	429: {fallback: ErrTooManyRequests, codes: map[string]error{
		"DiskResourceDownloadLimitExceededError": ErrDownloadLimitExceeded,
	}},
	500: {fallback: ErrInternalServer},
	502: {fallback: ErrBadGateway},
	503: {fallback: ErrUnavailable},
	504: {fallback: ErrGatewayTimeout},
	507: {fallback: ErrInsufficientStorage},
}

// classify maps a failed exchange to a typed error. Pure and deterministic:
// no I/O, same inputs always yield the same kind. body is the raw response
// body; a body that is not valid JSON degrades to "<empty>" placeholders
// rather than producing a secondary parse failure.
func classify(status int, body []byte) *Error {
	var eb errorBody

	parsed := len(body) > 0 && json.Unmarshal(body, &eb) == nil

	bucket, known := classificationTable[status]
	if !known {
		return &Error{
			Message:    fmt.Sprintf("Unknown Yandex.Disk error: status code %d", status),
			StatusCode: status,
			Err:        ErrUnknown,
		}
	}

	if !parsed {
		eb = errorBody{}
	}

	if eb.Message == "" {
		eb.Message = emptyPlaceholder
	}

	if eb.Description == "" {
		eb.Description = emptyPlaceholder
	}

	kind := bucket.fallback
	if specific, ok := bucket.codes[eb.Error]; ok {
		kind = specific
	}

	return &Error{
		ErrorType:   eb.Error,
		Message:     eb.Message,
		Description: eb.Description,
		StatusCode:  status,
		Err:         kind,
	}
}
