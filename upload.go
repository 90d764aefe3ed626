package yadisk

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/yadisk-unofficial/yadisk-go/transport"
)

// uploadChunkSize caps a single read from the source while streaming an
// upload, bounding memory use per transfer.
const uploadChunkSize = 64 * 1024

// transferContentType is the default body type for transfer links.
const transferContentType = "application/octet-stream"

// Upload stores the contents of src at dst, requesting a fresh upload link
// and streaming the bytes to it.
//
// When src supports seeking, the starting offset is recorded once and every
// retry re-seeks to it before resending, so the full retry budget applies
// to the byte transfer itself. A non-seekable src cannot replay consumed
// bytes: the transfer is attempted once and the retry budget shifts to the
// link acquisition instead.
func (c *Client) Upload(ctx context.Context, src io.Reader, dst string, opts ...CallOption) error {
	o := c.resolveUploadOptions(opts)

	c.logger.Info("uploading", slog.String("dst", dst))

	seeker, start, seekable := probeSeekable(src)

	next := func() (io.Reader, error) {
		if seekable {
			if _, err := seeker.Seek(start, io.SeekStart); err != nil {
				return nil, fmt.Errorf("yadisk: rewinding upload source: %w", err)
			}
		}

		return src, nil
	}

	return c.uploadWith(ctx, c.uploadLinkFunc(dst, o), next, seekable, o)
}

// UploadFile uploads a local file to dst. The file is opened (and closed)
// by the engine and is always retried from its beginning.
func (c *Client) UploadFile(ctx context.Context, localPath, dst string, opts ...CallOption) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("yadisk: opening %s: %w", localPath, err)
	}
	defer f.Close()

	return c.Upload(ctx, f, dst, opts...)
}

// UploadFrom uploads to dst from a factory producing a fresh byte stream
// per attempt. The engine invokes open once per transfer attempt and closes
// each returned reader; a partially consumed stream is never reused. This
// suits sources that cannot seek but can be restarted, like a pipeline
// stage or an encoder.
func (c *Client) UploadFrom(ctx context.Context, open func() (io.ReadCloser, error), dst string, opts ...CallOption) error {
	o := c.resolveUploadOptions(opts)

	c.logger.Info("uploading from factory", slog.String("dst", dst))

	var current io.ReadCloser

	next := func() (io.Reader, error) {
		if current != nil {
			current.Close()
			current = nil
		}

		rc, err := open()
		if err != nil {
			return nil, fmt.Errorf("yadisk: opening upload source: %w", err)
		}

		current = rc

		return rc, nil
	}

	defer func() {
		if current != nil {
			current.Close()
		}
	}()

	// A fresh stream per attempt is as replayable as a seekable handle.
	return c.uploadWith(ctx, c.uploadLinkFunc(dst, o), next, true, o)
}

// UploadByLink streams src to an already-obtained upload link. Since
// transfer links are single-use, a retriable failure needs a seekable src;
// otherwise the transfer is attempted exactly once.
func (c *Client) UploadByLink(ctx context.Context, src io.Reader, href string, opts ...CallOption) error {
	o := c.resolveUploadOptions(opts)

	seeker, start, seekable := probeSeekable(src)

	next := func() (io.Reader, error) {
		if seekable {
			if _, err := seeker.Seek(start, io.SeekStart); err != nil {
				return nil, fmt.Errorf("yadisk: rewinding upload source: %w", err)
			}
		}

		return src, nil
	}

	getLink := func(context.Context, int) (string, error) {
		return href, nil
	}

	return c.uploadWith(ctx, getLink, next, seekable, o)
}

// uploadWith is the upload engine core. getLink obtains a transfer link
// with the given retry budget; next yields the source for one attempt.
//
// Replayable sources get the full budget on the outer loop, with a fresh
// link and a rewound source per attempt and no inner retries. For a
// non-replayable source the loops swap budgets: the link acquisition may
// retry, the byte transfer happens at most once.
func (c *Client) uploadWith(ctx context.Context, getLink func(context.Context, int) (string, error), next func() (io.Reader, error), replayable bool, o *callOptions) error {
	outerRetries, linkRetries := o.nRetries, 0
	if !replayable {
		outerRetries, linkRetries = 0, o.nRetries
	}

	attempt := func() error {
		href, err := getLink(ctx, linkRetries)
		if err != nil {
			return err
		}

		body, err := next()
		if err != nil {
			return err
		}

		return c.uploadAttempt(ctx, href, body, o)
	}

	return autoRetry(ctx, outerRetries, o.retryInterval, attempt)
}

// uploadLinkFunc returns a link getter bound to dst and the resolved call
// options. The overwrite flag, timeout and headers of the original call
// carry over to the link request; the retry budget is whatever the engine
// assigns for the attempt, and link retries never sleep. The retry interval
// paces repeated byte transfers, not the cheap link exchange.
func (c *Client) uploadLinkFunc(dst string, o *callOptions) func(context.Context, int) (string, error) {
	return func(ctx context.Context, retries int) (string, error) {
		link, err := c.GetUploadLink(ctx, dst,
			WithRetries(retries),
			WithRetryInterval(0),
			WithTimeout(o.timeout),
			WithHeaders(o.headers),
			WithOverwrite(o.overwrite),
		)
		if err != nil {
			return "", err
		}

		return link.Href, nil
	}
}

// uploadAttempt performs one PUT against a transfer link. The transfer host
// is randomly assigned per link, so connections are not reused.
func (c *Client) uploadAttempt(ctx context.Context, href string, body io.Reader, o *callOptions) error {
	headers := map[string]string{
		"Connection":   "close",
		"Content-Type": transferContentType,
	}
	for k, v := range o.headers {
		headers[k] = v
	}

	resp, err := c.session.Send(ctx, &transport.Request{
		Method:  "PUT",
		URL:     href,
		Body:    &chunkedReader{r: body},
		Headers: headers,
		Timeout: o.timeout,
		Backend: o.backend,
	})
	if err != nil {
		return err
	}
	defer resp.Close()

	if resp.Status() != 201 {
		return errorFromResponse(resp)
	}

	return nil
}

// probeSeekable reports whether src can be rewound, recording its current
// offset. A handle that implements io.Seeker but fails the probe (a piped
// fd wrapped in os.File, say) counts as non-seekable.
func probeSeekable(src io.Reader) (io.Seeker, int64, bool) {
	seeker, ok := src.(io.Seeker)
	if !ok {
		return nil, 0, false
	}

	start, err := seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, false
	}

	return seeker, start, true
}

// chunkedReader caps each Read at uploadChunkSize so the transport streams
// the body in bounded pieces regardless of the buffer it offers.
type chunkedReader struct {
	r io.Reader
}

func (cr *chunkedReader) Read(p []byte) (int, error) {
	if len(p) > uploadChunkSize {
		p = p[:uploadChunkSize]
	}

	return cr.r.Read(p)
}
