package yadisk

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/yadisk-unofficial/yadisk-go/transport"
)

// Download fetches the file at src and writes it to dst, requesting a fresh
// download link and streaming the response body in bounded chunks.
//
// When dst supports seeking, its starting offset is recorded once and every
// retry re-seeks to it before rewriting, so partial output from a failed
// attempt is overwritten rather than appended. A non-seekable dst gets a
// single transfer attempt, with the retry budget shifted to the link
// acquisition. Supply a dst truncated before the call; the engine never
// truncates on its own.
func (c *Client) Download(ctx context.Context, src string, dst io.Writer, opts ...CallOption) error {
	o := c.resolveOptions(opts)

	c.logger.Info("downloading", slog.String("src", src))

	// Link retries never sleep; the retry interval paces repeated byte
	// transfers, not the cheap link exchange.
	getLink := func(ctx context.Context, retries int) (string, error) {
		link, err := c.GetDownloadLink(ctx, src,
			WithRetries(retries),
			WithRetryInterval(0),
			WithTimeout(o.timeout),
			WithHeaders(o.headers),
		)
		if err != nil {
			return "", err
		}

		return link.Href, nil
	}

	return c.downloadWith(ctx, getLink, dst, o)
}

// DownloadFile downloads the file at src into localPath, creating or
// truncating it. The engine owns the handle and closes it on every path.
func (c *Client) DownloadFile(ctx context.Context, src, localPath string, opts ...CallOption) error {
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("yadisk: creating %s: %w", localPath, err)
	}

	if err := c.Download(ctx, src, f, opts...); err != nil {
		f.Close()

		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("yadisk: closing %s: %w", localPath, err)
	}

	return nil
}

// DownloadByLink streams an already-obtained download link into dst. Since
// transfer links are single-use, a retriable failure needs a seekable dst;
// otherwise the transfer is attempted exactly once.
func (c *Client) DownloadByLink(ctx context.Context, href string, dst io.Writer, opts ...CallOption) error {
	o := c.resolveOptions(opts)

	getLink := func(context.Context, int) (string, error) {
		return href, nil
	}

	return c.downloadWith(ctx, getLink, dst, o)
}

// downloadWith is the download engine core, mirroring uploadWith: a
// rewindable destination gets the retry budget on the outer loop, a
// one-shot destination swaps it onto the link acquisition.
func (c *Client) downloadWith(ctx context.Context, getLink func(context.Context, int) (string, error), dst io.Writer, o *callOptions) error {
	seeker, start, seekable := probeWriteSeekable(dst)

	outerRetries, linkRetries := o.nRetries, 0
	if !seekable {
		outerRetries, linkRetries = 0, o.nRetries
	}

	attempt := func() error {
		href, err := getLink(ctx, linkRetries)
		if err != nil {
			return err
		}

		if seekable {
			if _, err := seeker.Seek(start, io.SeekStart); err != nil {
				return fmt.Errorf("yadisk: rewinding download destination: %w", err)
			}
		}

		return c.downloadAttempt(ctx, href, dst, o)
	}

	return autoRetry(ctx, outerRetries, o.retryInterval, attempt)
}

// downloadAttempt performs one streamed GET against a transfer link and
// pipes the body chunks into dst.
func (c *Client) downloadAttempt(ctx context.Context, href string, dst io.Writer, o *callOptions) error {
	headers := map[string]string{"Connection": "close"}
	for k, v := range o.headers {
		headers[k] = v
	}

	resp, err := c.session.Send(ctx, &transport.Request{
		Method:  "GET",
		URL:     href,
		Headers: headers,
		Timeout: o.timeout,
		Stream:  true,
		Backend: o.backend,
	})
	if err != nil {
		return err
	}
	defer resp.Close()

	if resp.Status() != 200 {
		return errorFromResponse(resp)
	}

	return resp.Download(func(chunk []byte) error {
		if _, err := dst.Write(chunk); err != nil {
			return fmt.Errorf("yadisk: writing download chunk: %w", err)
		}

		return nil
	})
}

// probeWriteSeekable is probeSeekable for destinations.
func probeWriteSeekable(dst io.Writer) (io.Seeker, int64, bool) {
	seeker, ok := dst.(io.Seeker)
	if !ok {
		return nil, 0, false
	}

	start, err := seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, false
	}

	return seeker, start, true
}
