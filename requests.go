package yadisk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"

	"github.com/yadisk-unofficial/yadisk-go/transport"
)

// defaultContentType matches what the REST API expects for parameter-only
// requests.
const defaultContentType = "application/x-www-form-urlencoded"

// apiRequest binds one endpoint invocation: method, URL, serialized
// parameters, the expected success statuses, and the resolved retry budget.
// Sending it performs exactly one network exchange per retry attempt.
type apiRequest struct {
	method       string
	path         string
	params       url.Values
	body         []byte
	contentType  string
	successCodes []int
	opts         *callOptions
}

// send runs the request through the retry engine: one prepare/send/classify
// cycle per attempt. A success response with no JSON body yields nil, which
// is valid for operations that return nothing (e.g. permanent delete).
func (c *Client) send(ctx context.Context, r *apiRequest) (json.RawMessage, error) {
	successCodes := r.successCodes
	if len(successCodes) == 0 {
		successCodes = []int{200}
	}

	contentType := r.contentType
	if contentType == "" {
		contentType = defaultContentType
	}

	fullURL := c.baseURL + r.path

	var raw json.RawMessage

	attempt := func() error {
		raw = nil

		headers := map[string]string{"Content-Type": contentType}
		for k, v := range r.opts.headers {
			headers[k] = v
		}

		var body *bytes.Reader
		req := &transport.Request{
			Method:  r.method,
			URL:     fullURL,
			Params:  r.params,
			Headers: headers,
			Timeout: r.opts.timeout,
			Backend: r.opts.backend,
		}

		if len(r.body) > 0 {
			body = bytes.NewReader(r.body)
			req.Body = body
		}

		resp, err := c.session.Send(ctx, req)
		if err != nil {
			return err
		}
		defer resp.Close()

		if !slices.Contains(successCodes, resp.Status()) {
			return errorFromResponse(resp)
		}

		if jsonErr := resp.JSON(&raw); jsonErr != nil {
			// No body on a success status is a valid outcome.
			raw = nil
		}

		return nil
	}

	err := autoRetry(ctx, r.opts.nRetries, r.opts.retryInterval, attempt)
	if err != nil {
		c.logger.Debug("request failed",
			slog.String("method", r.method),
			slog.String("path", r.path),
			slog.String("error", err.Error()),
		)

		return nil, err
	}

	return raw, nil
}

// errorFromResponse classifies a failed exchange. Reading the body here is
// the only I/O; classification itself is pure.
func errorFromResponse(resp transport.Response) error {
	var body json.RawMessage
	if err := resp.JSON(&body); err != nil {
		return classify(resp.Status(), nil)
	}

	return classify(resp.Status(), body)
}

// decodeStrict parses raw into v, rejecting unknown fields so shape drift
// surfaces at deserialization time rather than on field access.
func decodeStrict(raw json.RawMessage, v any) error {
	if raw == nil {
		return fmt.Errorf("%w: response has no body", ErrInvalidResponse)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	return nil
}

// fieldsParam joins the requested response keys for the fields parameter.
func fieldsParam(params url.Values, o *callOptions) {
	if len(o.fields) > 0 {
		params.Set("fields", strings.Join(o.fields, ","))
	}
}

// boolParam renders a boolean the way the API expects.
func boolParam(b bool) string {
	if b {
		return "true"
	}

	return "false"
}
