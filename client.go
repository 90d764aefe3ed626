package yadisk

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/yadisk-unofficial/yadisk-go/transport"
	// Register the default backend.
	_ "github.com/yadisk-unofficial/yadisk-go/transport/httpsession"
)

// userAgent identifies this library to the API.
const userAgent = "yadisk-go/0.1"

// Client is a Yandex.Disk REST API client. It owns a transport session and
// an immutable configuration; per-call options are merged functionally and
// never mutate shared state. A Client is safe for concurrent use as long as
// the underlying session is.
//
// The caller owns the Client and must Close it to release connections.
type Client struct {
	session transport.Session
	logger  *slog.Logger

	baseURL      string
	oauthBaseURL string
	backendName  string
	token        string

	defaultTimeout       transport.Timeout
	defaultRetries       int
	defaultRetryInterval time.Duration
	defaultHeaders       map[string]string

	uploadTimeout          transport.Timeout
	hasUploadTimeout       bool
	uploadRetryInterval    time.Duration
	hasUploadRetryInterval bool

	// sleepFunc waits between operation status polls. Tests override it to
	// avoid real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// New creates a Client authorized with the given OAuth token. An empty
// token is allowed for the few calls that work unauthenticated.
func New(token string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		token:                token,
		baseURL:              DefaultBaseURL,
		oauthBaseURL:         DefaultOAuthBaseURL,
		backendName:          "http",
		defaultTimeout:       transport.Timeout{Connect: DefaultConnectTimeout, Read: DefaultReadTimeout},
		defaultRetries:       DefaultRetries,
		defaultRetryInterval: DefaultRetryInterval,
		sleepFunc:            ctxSleep,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// Uploads reuse the regular defaults unless configured separately.
	if !c.hasUploadTimeout {
		c.uploadTimeout = c.defaultTimeout
	}

	if !c.hasUploadRetryInterval {
		c.uploadRetryInterval = c.defaultRetryInterval
	}

	if c.session == nil {
		session, err := transport.New(c.backendName, transport.Config{
			Timeout: c.defaultTimeout,
			Headers: map[string]string{"User-Agent": userAgent},
			Logger:  c.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("yadisk: creating session: %w", err)
		}

		c.session = session
	}

	c.session.SetHeaders(c.defaultHeaders)

	if token != "" {
		c.session.SetToken(token)
	}

	return c, nil
}

// SetToken replaces the client's OAuth token for subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
	c.session.SetToken(token)
}

// Close releases the client's connections. The client must not be used
// after Close.
func (c *Client) Close() error {
	return c.session.Close()
}

// resolveOptions merges client defaults with per-call options into a fresh
// callOptions value.
func (c *Client) resolveOptions(opts []CallOption) *callOptions {
	o := &callOptions{
		timeout:       c.defaultTimeout,
		nRetries:      c.defaultRetries,
		retryInterval: c.defaultRetryInterval,
		wait:          true,
		pollInterval:  DefaultPollInterval,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// resolveUploadOptions is resolveOptions with the upload-specific defaults
// seeded instead of the regular ones.
func (c *Client) resolveUploadOptions(opts []CallOption) *callOptions {
	o := &callOptions{
		timeout:       c.uploadTimeout,
		nRetries:      c.defaultRetries,
		retryInterval: c.uploadRetryInterval,
		wait:          true,
		pollInterval:  DefaultPollInterval,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// ctxSleep waits for d or until ctx is canceled. Default sleepFunc.
func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
