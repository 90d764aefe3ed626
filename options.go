package yadisk

import (
	"log/slog"
	"time"

	"github.com/yadisk-unofficial/yadisk-go/transport"
)

// Library-wide defaults, applied when neither the client nor the call
// overrides them.
const (
	// DefaultBaseURL is the REST API endpoint.
	DefaultBaseURL = "https://cloud-api.yandex.net"

	// DefaultOAuthBaseURL is the OAuth endpoint.
	DefaultOAuthBaseURL = "https://oauth.yandex.ru"

	// DefaultConnectTimeout and DefaultReadTimeout form the default
	// timeout pair for every request, uploads and downloads included.
	DefaultConnectTimeout = 10 * time.Second
	DefaultReadTimeout    = 15 * time.Second

	// DefaultRetries is the default retry budget per logical call.
	DefaultRetries = 3

	// DefaultRetryInterval is the default delay between retry attempts.
	DefaultRetryInterval = 0 * time.Second

	// DefaultPollInterval is the delay between operation status polls.
	DefaultPollInterval = 1 * time.Second
)

// ClientOption configures a Client at construction. The resulting
// configuration is immutable; per-call options are merged into a copy.
type ClientOption func(*Client)

// WithBaseURL overrides the REST API endpoint (useful for tests).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithOAuthBaseURL overrides the OAuth endpoint.
func WithOAuthBaseURL(u string) ClientOption {
	return func(c *Client) { c.oauthBaseURL = u }
}

// WithBackend selects the transport backend by registry name. The default
// is the net/http backend. An unregistered name makes New fail.
func WithBackend(name string) ClientOption {
	return func(c *Client) { c.backendName = name }
}

// WithSession supplies a pre-built session, bypassing the registry. The
// client takes ownership: Close closes the session.
func WithSession(s transport.Session) ClientOption {
	return func(c *Client) { c.session = s }
}

// WithLogger sets the logger. Nil (the default) discards all output.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithDefaultTimeout sets the default connect/read timeout pair.
func WithDefaultTimeout(t transport.Timeout) ClientOption {
	return func(c *Client) { c.defaultTimeout = t }
}

// WithDefaultRetries sets the default retry budget.
func WithDefaultRetries(n int) ClientOption {
	return func(c *Client) { c.defaultRetries = n }
}

// WithDefaultRetryInterval sets the default delay between retries.
func WithDefaultRetryInterval(d time.Duration) ClientOption {
	return func(c *Client) { c.defaultRetryInterval = d }
}

// WithUploadTimeout sets the timeout pair used by uploads. By default
// uploads reuse the regular default timeout.
func WithUploadTimeout(t transport.Timeout) ClientOption {
	return func(c *Client) {
		c.uploadTimeout = t
		c.hasUploadTimeout = true
	}
}

// WithUploadRetryInterval sets the retry delay used by uploads.
func WithUploadRetryInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		c.uploadRetryInterval = d
		c.hasUploadRetryInterval = true
	}
}

// WithDefaultHeaders sets headers sent with every request.
func WithDefaultHeaders(h map[string]string) ClientOption {
	return func(c *Client) { c.defaultHeaders = h }
}

// callOptions is the per-call configuration after merging client defaults
// with the caller's CallOptions. Never shared between calls.
type callOptions struct {
	timeout       transport.Timeout
	nRetries      int
	retryInterval time.Duration
	headers       map[string]string
	backend       map[string]any

	fields      []string
	overwrite   bool
	permanently bool
	forceAsync  bool
	md5         string

	limit       int
	hasLimit    bool
	offset      int
	sort        string
	previewSize string
	previewCrop bool

	wait           bool
	pollInterval   time.Duration
	pollTimeout    time.Duration
	hasPollTimeout bool
}

// CallOption overrides one request parameter for a single call.
type CallOption func(*callOptions)

// WithTimeout overrides the connect/read timeout pair for this call.
func WithTimeout(t transport.Timeout) CallOption {
	return func(o *callOptions) { o.timeout = t }
}

// WithRetries overrides the retry budget for this call. Zero means exactly
// one attempt.
func WithRetries(n int) CallOption {
	return func(o *callOptions) { o.nRetries = n }
}

// WithRetryInterval overrides the delay between retries for this call.
func WithRetryInterval(d time.Duration) CallOption {
	return func(o *callOptions) { o.retryInterval = d }
}

// WithHeaders adds headers to this call, overriding session defaults on
// conflict.
func WithHeaders(h map[string]string) CallOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string, len(h))
		}

		for k, v := range h {
			o.headers[k] = v
		}
	}
}

// WithBackendOptions forwards backend-specific options verbatim to the
// transport layer.
func WithBackendOptions(opts map[string]any) CallOption {
	return func(o *callOptions) { o.backend = opts }
}

// WithFields limits the response to the named keys.
func WithFields(fields ...string) CallOption {
	return func(o *callOptions) { o.fields = fields }
}

// WithOverwrite allows the destination to be overwritten if it exists.
func WithOverwrite(overwrite bool) CallOption {
	return func(o *callOptions) { o.overwrite = overwrite }
}

// WithPermanently bypasses the trash on Remove.
func WithPermanently(permanently bool) CallOption {
	return func(o *callOptions) { o.permanently = permanently }
}

// WithForceAsync forces the server to perform the operation asynchronously.
func WithForceAsync(force bool) CallOption {
	return func(o *callOptions) { o.forceAsync = force }
}

// WithMD5 supplies the expected MD5 hash for Remove.
func WithMD5(md5 string) CallOption {
	return func(o *callOptions) { o.md5 = md5 }
}

// WithLimit caps the number of items per listing page.
func WithLimit(limit int) CallOption {
	return func(o *callOptions) {
		o.limit = limit
		o.hasLimit = true
	}
}

// WithOffset sets the listing offset.
func WithOffset(offset int) CallOption {
	return func(o *callOptions) { o.offset = offset }
}

// WithSort sets the listing sort field (prefix with "-" for descending).
func WithSort(field string) CallOption {
	return func(o *callOptions) { o.sort = field }
}

// WithPreviewSize requests image previews of the given size (e.g. "M",
// "120x240").
func WithPreviewSize(size string) CallOption {
	return func(o *callOptions) { o.previewSize = size }
}

// WithPreviewCrop crops previews to exactly the requested size.
func WithPreviewCrop(crop bool) CallOption {
	return func(o *callOptions) { o.previewCrop = crop }
}

// WithoutWaiting makes Copy/Move/Remove return the operation link instead
// of polling it to completion.
func WithoutWaiting() CallOption {
	return func(o *callOptions) { o.wait = false }
}

// WithPollInterval sets the delay between operation status polls.
func WithPollInterval(d time.Duration) CallOption {
	return func(o *callOptions) { o.pollInterval = d }
}

// WithPollTimeout bounds total polling wall time. Zero is an immediate
// deadline; the default (option absent) is no timeout.
func WithPollTimeout(d time.Duration) CallOption {
	return func(o *callOptions) {
		o.pollTimeout = d
		o.hasPollTimeout = true
	}
}
