// Package httpsession implements the transport.Session interface on top of
// net/http. It registers itself under the name "http".
package httpsession

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yadisk-unofficial/yadisk-go/transport"
)

// BackendName is the identifier this backend registers under.
const BackendName = "http"

// maxRedirects matches the default redirect budget of the mainstream HTTP
// clients; exceeding it surfaces as transport.ErrTooManyRedirects.
const maxRedirects = 10

// downloadChunkSize is the read buffer used by Response.Download.
const downloadChunkSize = 8 * 1024

func init() {
	transport.Register(BackendName, func(cfg transport.Config) (transport.Session, error) {
		return New(cfg)
	})
}

// Session is a transport.Session backed by a pooled http.Client.
//
// The read timeout is enforced as a stall watchdog: request-body progress
// defers it, and it otherwise bounds time-to-response-headers. The connect
// timeout applies whenever a new connection is dialed, with per-request
// overrides carried to the dialer through the request context. Default
// headers are guarded by a lock: the session may serve many sequential
// calls, and nothing stops a caller from mutating headers from another
// goroutine.
type Session struct {
	client  *http.Client
	timeout transport.Timeout
	logger  *slog.Logger

	headersMu sync.RWMutex
	headers   map[string]string
}

// New builds a Session from the given config.
func New(cfg transport.Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	defaultConnect := cfg.Timeout.Connect

	httpTransport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: connectTimeoutFrom(ctx, defaultConnect)}

			return dialer.DialContext(ctx, network, addr)
		},
		MaxIdleConnsPerHost: 4,
		ForceAttemptHTTP2:   true,
	}

	client := &http.Client{
		Transport: httpTransport,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return transport.ErrTooManyRedirects
			}

			return nil
		},
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	return &Session{
		client:  client,
		timeout: cfg.Timeout,
		logger:  logger,
		headers: headers,
	}, nil
}

// SetToken sets the Authorization header. Yandex.Disk uses the OAuth scheme
// rather than Bearer.
func (s *Session) SetToken(token string) {
	s.SetHeaders(map[string]string{"Authorization": "OAuth " + token})
}

// SetHeaders merges headers into the session defaults.
func (s *Session) SetHeaders(headers map[string]string) {
	s.headersMu.Lock()
	defer s.headersMu.Unlock()

	for k, v := range headers {
		s.headers[k] = v
	}
}

// Send performs one HTTP exchange. Unless req.Stream is set, the body is
// buffered and the connection released before Send returns.
func (s *Session) Send(ctx context.Context, req *transport.Request) (transport.Response, error) {
	httpReq, err := s.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	// Watchdog for the read timeout: cancels the exchange with
	// transport.ErrTimeout as the cause so it is distinguishable from a
	// caller-initiated cancellation.
	readTimeout := s.timeout.Read
	if !req.Timeout.IsZero() {
		readTimeout = req.Timeout.Read
	}

	sendCtx, cancel := context.WithCancelCause(ctx)

	// A pooled connection skips the dialer entirely; the connect override
	// only matters when this request triggers a fresh dial.
	if !req.Timeout.IsZero() && req.Timeout.Connect > 0 {
		sendCtx = withConnectTimeout(sendCtx, req.Timeout.Connect)
	}

	httpReq = httpReq.WithContext(sendCtx)

	var watchdog *time.Timer
	if readTimeout > 0 {
		watchdog = time.AfterFunc(readTimeout, func() {
			cancel(transport.ErrTimeout)
		})

		// A request body may legitimately take longer than the read timeout
		// to transmit. Each read of the body defers the deadline, so the
		// watchdog fires only when the exchange stalls, never on a steadily
		// progressing upload.
		if httpReq.Body != nil {
			httpReq.Body = &progressBody{
				body:    httpReq.Body,
				timer:   watchdog,
				timeout: readTimeout,
			}
		}
	}

	stopWatchdog := func() {
		if watchdog != nil {
			watchdog.Stop()
		}
	}

	httpResp, err := s.client.Do(httpReq)
	if err != nil {
		stopWatchdog()
		cancel(nil)

		return nil, translateError(sendCtx, err)
	}

	s.logger.Debug("request sent",
		slog.String("method", req.Method),
		slog.Int("status", httpResp.StatusCode),
	)

	if req.Stream {
		// Headers have arrived; the body read is unbounded. The context
		// stays alive until the caller closes the response.
		stopWatchdog()

		return &response{
			status:  httpResp.StatusCode,
			body:    httpResp.Body,
			release: func() { cancel(nil) },
		}, nil
	}

	body, readErr := io.ReadAll(httpResp.Body)
	httpResp.Body.Close()
	stopWatchdog()
	cancel(nil)

	if readErr != nil {
		return nil, translateError(sendCtx, readErr)
	}

	return &response{
		status: httpResp.StatusCode,
		buf:    body,
	}, nil
}

// Close releases pooled connections.
func (s *Session) Close() error {
	s.client.CloseIdleConnections()

	return nil
}

// buildRequest assembles the http.Request: URL + query params, session
// default headers, then per-request headers (which win on conflict).
func (s *Session) buildRequest(ctx context.Context, req *transport.Request) (*http.Request, error) {
	fullURL := req.URL
	if len(req.Params) > 0 {
		sep := "?"
		if strings.Contains(fullURL, "?") {
			sep = "&"
		}

		fullURL += sep + req.Params.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, req.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", transport.ErrRequest, err)
	}

	s.headersMu.RLock()
	for k, v := range s.headers {
		httpReq.Header.Set(k, v)
	}
	s.headersMu.RUnlock()

	for k, v := range req.Headers {
		if v == "" {
			httpReq.Header.Del(k)

			continue
		}

		httpReq.Header.Set(k, v)
	}

	return httpReq, nil
}

// connectTimeoutKey carries a per-request connect timeout override to the
// dialer.
type connectTimeoutKey struct{}

// withConnectTimeout stores a connect timeout override on the context.
func withConnectTimeout(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, connectTimeoutKey{}, d)
}

// connectTimeoutFrom returns the override carried by ctx, or fallback.
func connectTimeoutFrom(ctx context.Context, fallback time.Duration) time.Duration {
	if d, ok := ctx.Value(connectTimeoutKey{}).(time.Duration); ok && d > 0 {
		return d
	}

	return fallback
}

// progressBody defers the read-timeout watchdog while the request body is
// being sent. The timer may already have fired when Reset is called; that is
// fine, the context is canceled and the next read fails anyway.
type progressBody struct {
	body    io.ReadCloser
	timer   *time.Timer
	timeout time.Duration
}

func (pb *progressBody) Read(p []byte) (int, error) {
	n, err := pb.body.Read(p)
	if n > 0 {
		pb.timer.Reset(pb.timeout)
	}

	return n, err
}

func (pb *progressBody) Close() error {
	return pb.body.Close()
}

// translateError maps a net/http failure onto the fixed transport error
// vocabulary. The watchdog cause takes priority: a context canceled by the
// read-timeout timer is a timeout, not a generic cancellation.
func translateError(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); errors.Is(cause, transport.ErrTimeout) {
		return fmt.Errorf("%w: %v", transport.ErrTimeout, err)
	}

	switch {
	case errors.Is(err, transport.ErrTooManyRedirects):
		return fmt.Errorf("%w: %v", transport.ErrTooManyRedirects, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", transport.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", transport.ErrRequest, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", transport.ErrTimeout, err)
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) {
		return fmt.Errorf("%w: %v", transport.ErrConnection, err)
	}

	return fmt.Errorf("%w: %v", transport.ErrRequest, err)
}

// response implements transport.Response for both buffered and streamed
// exchanges. Exactly one of buf/body is populated.
type response struct {
	status int
	buf    []byte

	body    io.ReadCloser
	release func()
	closed  bool
}

func (r *response) Status() int {
	return r.status
}

// JSON parses the body. For streamed responses this drains the remaining
// body; calling it twice on a stream returns a parse error on empty input.
func (r *response) JSON(v any) error {
	data := r.buf

	if r.body != nil {
		read, err := io.ReadAll(r.body)
		if err != nil {
			return fmt.Errorf("%w: reading body: %v", transport.ErrRequest, err)
		}

		data = read
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("httpsession: parsing JSON body: %w", err)
	}

	return nil
}

// Download pushes body chunks to consume. Errors from consume are returned
// unchanged; read failures are translated to transport kinds.
func (r *response) Download(consume func(chunk []byte) error) error {
	var src io.Reader = bytes.NewReader(r.buf)
	if r.body != nil {
		src = r.body
	}

	chunk := make([]byte, downloadChunkSize)

	for {
		n, err := src.Read(chunk)
		if n > 0 {
			if consumeErr := consume(chunk[:n]); consumeErr != nil {
				return consumeErr
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return fmt.Errorf("%w: %v", transport.ErrTimeout, err)
			}

			return fmt.Errorf("%w: %v", transport.ErrConnection, err)
		}
	}
}

// Close releases the underlying connection. Safe to call more than once.
func (r *response) Close() error {
	if r.closed {
		return nil
	}

	r.closed = true

	var err error
	if r.body != nil {
		err = r.body.Close()
	}

	if r.release != nil {
		r.release()
	}

	return err
}
