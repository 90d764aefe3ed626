package yadisk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// GetOperationStatus returns the state of an asynchronous operation. The
// argument may be an operation id or the full status link returned by
// Copy, Move or Remove.
func (c *Client) GetOperationStatus(ctx context.Context, operation string, opts ...CallOption) (OperationStatus, error) {
	o := c.resolveOptions(opts)

	id := operation
	if c.isOperationLink(operation) {
		id = operation[strings.LastIndex(operation, "/")+1:]
	}

	if id == "" {
		return "", fmt.Errorf("%w: empty operation id", ErrOperationNotFound)
	}

	params := url.Values{}
	params.Set("fields", "status")

	raw, err := c.send(ctx, &apiRequest{
		method: "GET",
		path:   "/v1/disk/operations/" + url.PathEscape(id),
		params: params,
		opts:   o,
	})
	if err != nil {
		return "", err
	}

	var body operationStatusBody
	if err := decodeStrict(raw, &body); err != nil {
		return "", err
	}

	switch body.Status {
	case OperationInProgress, OperationSuccess, OperationFailed:
		return body.Status, nil
	}

	return "", fmt.Errorf("%w: unknown operation status %q", ErrInvalidResponse, body.Status)
}

// WaitForOperation polls an operation until it reaches a terminal state.
// A failed operation yields ErrOperationFailed; exceeding the poll timeout
// yields ErrOperationPollingTimeout. Without WithPollTimeout, polling
// continues until ctx is canceled.
func (c *Client) WaitForOperation(ctx context.Context, operation string, opts ...CallOption) error {
	o := c.resolveOptions(opts)

	var deadline time.Time
	if o.hasPollTimeout {
		deadline = time.Now().Add(o.pollTimeout)
	}

	for {
		status, err := c.GetOperationStatus(ctx, operation, opts...)
		if err != nil {
			return err
		}

		switch status {
		case OperationSuccess:
			return nil
		case OperationFailed:
			return fmt.Errorf("%w: %s", ErrOperationFailed, operation)
		}

		c.logger.Debug("operation in progress",
			slog.String("operation", operation),
			slog.Duration("poll_interval", o.pollInterval),
		)

		if o.hasPollTimeout && !time.Now().Before(deadline) {
			return fmt.Errorf("%w: %s", ErrOperationPollingTimeout, operation)
		}

		if err := c.sleepFunc(ctx, o.pollInterval); err != nil {
			return err
		}
	}
}

// performAndWait issues a request that may complete asynchronously and, by
// default, polls the resulting operation until it finishes. The retry
// budget covers the whole exchange: on a retriable failure the original
// request is reissued from scratch, so a single call never consumes more
// than nRetries+1 request attempts. Failures that happen during polling,
// other than the operation itself failing, do not restart the request.
func (c *Client) performAndWait(ctx context.Context, r *apiRequest) (*Link, error) {
	outer := *r.opts

	// The inner exchange must not retry on its own or the combined attempt
	// count would multiply.
	inner := *r.opts
	inner.nRetries = 0
	r.opts = &inner

	var link *Link

	attempt := func() error {
		link = nil

		raw, err := c.send(ctx, r)
		if err != nil {
			return err
		}

		// Body-less success (204): nothing ran asynchronously.
		if raw == nil {
			return nil
		}

		l, err := decodeLink(raw)
		if err != nil {
			return err
		}

		link = l

		if !c.isOperationLink(l.Href) {
			return nil
		}

		l.OperationID = l.Href[strings.LastIndex(l.Href, "/")+1:]

		if !outer.wait {
			return nil
		}

		if err := c.waitAfterRequest(ctx, l.Href, &outer); err != nil {
			return err
		}

		return nil
	}

	if err := autoRetry(ctx, outer.nRetries, outer.retryInterval, attempt); err != nil {
		return nil, err
	}

	return link, nil
}

// waitAfterRequest polls an operation on behalf of performAndWait. A failed
// operation stays retriable so the whole request restarts; any other
// retriable polling error is flagged DisableRetry because reissuing the
// original request cannot fix a broken status poll and might repeat a
// non-idempotent action.
func (c *Client) waitAfterRequest(ctx context.Context, href string, o *callOptions) error {
	waitOpts := []CallOption{
		WithTimeout(o.timeout),
		WithRetries(o.nRetries),
		WithRetryInterval(o.retryInterval),
		WithPollInterval(o.pollInterval),
	}
	if o.hasPollTimeout {
		waitOpts = append(waitOpts, WithPollTimeout(o.pollTimeout))
	}

	err := c.WaitForOperation(ctx, href, waitOpts...)
	if err == nil {
		return nil
	}

	if isRetriable(err) && !errors.Is(err, ErrOperationFailed) {
		return withRetryDisabled(err)
	}

	return err
}
