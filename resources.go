package yadisk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
)

// DiskInfo returns quota and user information for the disk.
func (c *Client) DiskInfo(ctx context.Context, opts ...CallOption) (*Disk, error) {
	o := c.resolveOptions(opts)

	params := url.Values{}
	fieldsParam(params, o)

	raw, err := c.send(ctx, &apiRequest{
		method: "GET",
		path:   "/v1/disk",
		params: params,
		opts:   o,
	})
	if err != nil {
		return nil, err
	}

	var disk Disk
	if err := decodeStrict(raw, &disk); err != nil {
		return nil, err
	}

	return &disk, nil
}

// Meta returns metadata for a file or directory. For directories the first
// page of children is included in Embedded; use WithLimit/WithOffset to
// page explicitly, or ListDir to enumerate everything.
func (c *Client) Meta(ctx context.Context, path string, opts ...CallOption) (*Resource, error) {
	o := c.resolveOptions(opts)

	c.logger.Debug("fetching metadata", slog.String("path", path))

	params := url.Values{}
	params.Set("path", normalizePath(path))
	fieldsParam(params, o)

	if o.hasLimit {
		params.Set("limit", fmt.Sprint(o.limit))
	}

	if o.offset > 0 {
		params.Set("offset", fmt.Sprint(o.offset))
	}

	if o.sort != "" {
		params.Set("sort", o.sort)
	}

	if o.previewSize != "" {
		params.Set("preview_size", o.previewSize)
	}

	if o.previewCrop {
		params.Set("preview_crop", "true")
	}

	raw, err := c.send(ctx, &apiRequest{
		method: "GET",
		path:   "/v1/disk/resources",
		params: params,
		opts:   o,
	})
	if err != nil {
		return nil, err
	}

	var res Resource
	if err := decodeStrict(raw, &res); err != nil {
		return nil, err
	}

	return &res, nil
}

// Exists reports whether a path exists on the disk.
func (c *Client) Exists(ctx context.Context, path string, opts ...CallOption) (bool, error) {
	opts = append(opts, WithFields("type"))

	_, err := c.Meta(ctx, path, opts...)
	if errors.Is(err, ErrPathNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

// ResourceType returns "file" or "dir" for the given path.
func (c *Client) ResourceType(ctx context.Context, path string, opts ...CallOption) (string, error) {
	opts = append(opts, WithFields("type"))

	res, err := c.Meta(ctx, path, opts...)
	if err != nil {
		return "", err
	}

	if res.Type == "" {
		return "", fmt.Errorf("%w: response did not contain the type field", ErrInvalidResponse)
	}

	return res.Type, nil
}

// IsFile reports whether path exists and is a file.
func (c *Client) IsFile(ctx context.Context, path string, opts ...CallOption) (bool, error) {
	t, err := c.ResourceType(ctx, path, opts...)
	if errors.Is(err, ErrPathNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return t == TypeFile, nil
}

// IsDir reports whether path exists and is a directory.
func (c *Client) IsDir(ctx context.Context, path string, opts ...CallOption) (bool, error) {
	t, err := c.ResourceType(ctx, path, opts...)
	if errors.Is(err, ErrPathNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return t == TypeDir, nil
}

// listDirPageSize is the default page size for ListDir requests.
const listDirPageSize = 500

// ListDir returns all children of a directory, handling pagination
// automatically. Listing a file returns ErrWrongResourceType.
func (c *Client) ListDir(ctx context.Context, path string, opts ...CallOption) ([]Resource, error) {
	c.logger.Info("listing directory", slog.String("path", path))

	var items []Resource

	offset := 0

	for {
		pageOpts := append([]CallOption{WithLimit(listDirPageSize)}, opts...)
		pageOpts = append(pageOpts, WithOffset(offset))

		res, err := c.Meta(ctx, path, pageOpts...)
		if err != nil {
			return nil, err
		}

		if res.Type == TypeFile {
			return nil, fmt.Errorf("%w: %q is a file, not a directory", ErrWrongResourceType, path)
		}

		if res.Embedded == nil {
			return nil, fmt.Errorf("%w: listing did not contain _embedded", ErrInvalidResponse)
		}

		items = append(items, res.Embedded.Items...)

		offset += len(res.Embedded.Items)
		if offset >= res.Embedded.Total || len(res.Embedded.Items) == 0 {
			break
		}
	}

	c.logger.Info("listed directory",
		slog.String("path", path),
		slog.Int("total_items", len(items)),
	)

	return items, nil
}

// Mkdir creates a directory. The parent must exist (ErrParentNotFound
// otherwise); an existing path yields ErrDirectoryExists or ErrPathExists.
func (c *Client) Mkdir(ctx context.Context, path string, opts ...CallOption) (*Link, error) {
	o := c.resolveOptions(opts)

	c.logger.Info("creating directory", slog.String("path", path))

	params := url.Values{}
	params.Set("path", normalizePath(path))
	fieldsParam(params, o)

	raw, err := c.send(ctx, &apiRequest{
		method:       "PUT",
		path:         "/v1/disk/resources",
		params:       params,
		successCodes: []int{201},
		opts:         o,
	})
	if err != nil {
		return nil, err
	}

	return decodeLink(raw)
}

// Copy copies a resource. Large copies run asynchronously on the server; by
// default the returned operation is polled to completion, so a nil error
// means the copy finished. Use WithoutWaiting to get the operation link
// back immediately instead.
func (c *Client) Copy(ctx context.Context, src, dst string, opts ...CallOption) (*Link, error) {
	o := c.resolveOptions(opts)

	c.logger.Info("copying resource",
		slog.String("src", src),
		slog.String("dst", dst),
	)

	params := url.Values{}
	params.Set("from", normalizePath(src))
	params.Set("path", normalizePath(dst))
	params.Set("overwrite", boolParam(o.overwrite))
	fieldsParam(params, o)

	if o.forceAsync {
		params.Set("force_async", "true")
	}

	return c.performAndWait(ctx, &apiRequest{
		method:       "POST",
		path:         "/v1/disk/resources/copy",
		params:       params,
		successCodes: []int{201, 202},
		opts:         o,
	})
}

// Move moves or renames a resource. Same asynchronous behavior as Copy.
func (c *Client) Move(ctx context.Context, src, dst string, opts ...CallOption) (*Link, error) {
	o := c.resolveOptions(opts)

	c.logger.Info("moving resource",
		slog.String("src", src),
		slog.String("dst", dst),
	)

	params := url.Values{}
	params.Set("from", normalizePath(src))
	params.Set("path", normalizePath(dst))
	params.Set("overwrite", boolParam(o.overwrite))
	fieldsParam(params, o)

	if o.forceAsync {
		params.Set("force_async", "true")
	}

	return c.performAndWait(ctx, &apiRequest{
		method:       "POST",
		path:         "/v1/disk/resources/move",
		params:       params,
		successCodes: []int{201, 202},
		opts:         o,
	})
}

// Remove moves a resource to the trash, or deletes it permanently with
// WithPermanently(true). Directory removal may run asynchronously; see Copy.
// A nil link with a nil error means the removal completed synchronously and
// there is no operation to poll.
func (c *Client) Remove(ctx context.Context, path string, opts ...CallOption) (*Link, error) {
	o := c.resolveOptions(opts)

	c.logger.Info("removing resource",
		slog.String("path", path),
		slog.Bool("permanently", o.permanently),
	)

	params := url.Values{}
	params.Set("path", normalizePath(path))
	params.Set("permanently", boolParam(o.permanently))
	fieldsParam(params, o)

	if o.md5 != "" {
		params.Set("md5", o.md5)
	}

	if o.forceAsync {
		params.Set("force_async", "true")
	}

	return c.performAndWait(ctx, &apiRequest{
		method:       "DELETE",
		path:         "/v1/disk/resources",
		params:       params,
		successCodes: []int{202, 204},
		opts:         o,
	})
}

// Publish makes a resource publicly accessible and returns the public link.
func (c *Client) Publish(ctx context.Context, path string, opts ...CallOption) (*Link, error) {
	o := c.resolveOptions(opts)

	c.logger.Info("publishing resource", slog.String("path", path))

	params := url.Values{}
	params.Set("path", normalizePath(path))
	fieldsParam(params, o)

	raw, err := c.send(ctx, &apiRequest{
		method: "PUT",
		path:   "/v1/disk/resources/publish",
		params: params,
		opts:   o,
	})
	if err != nil {
		return nil, err
	}

	return decodeLink(raw)
}

// Unpublish revokes public access to a resource.
func (c *Client) Unpublish(ctx context.Context, path string, opts ...CallOption) (*Link, error) {
	o := c.resolveOptions(opts)

	c.logger.Info("unpublishing resource", slog.String("path", path))

	params := url.Values{}
	params.Set("path", normalizePath(path))
	fieldsParam(params, o)

	raw, err := c.send(ctx, &apiRequest{
		method: "PUT",
		path:   "/v1/disk/resources/unpublish",
		params: params,
		opts:   o,
	})
	if err != nil {
		return nil, err
	}

	return decodeLink(raw)
}

// RestoreTrash restores a resource from the trash. May run asynchronously;
// see Copy for the waiting behavior.
func (c *Client) RestoreTrash(ctx context.Context, path string, opts ...CallOption) (*Link, error) {
	o := c.resolveOptions(opts)

	c.logger.Info("restoring from trash", slog.String("path", path))

	params := url.Values{}
	params.Set("path", normalizeTrashPath(path))
	params.Set("overwrite", boolParam(o.overwrite))
	fieldsParam(params, o)

	return c.performAndWait(ctx, &apiRequest{
		method:       "PUT",
		path:         "/v1/disk/trash/resources/restore",
		params:       params,
		successCodes: []int{201, 202},
		opts:         o,
	})
}

// EmptyTrash deletes a trash resource permanently, or the whole trash when
// path is empty. May run asynchronously; see Copy. A nil link with a nil
// error means the deletion completed synchronously.
func (c *Client) EmptyTrash(ctx context.Context, path string, opts ...CallOption) (*Link, error) {
	o := c.resolveOptions(opts)

	c.logger.Info("emptying trash", slog.String("path", path))

	params := url.Values{}
	if path != "" {
		params.Set("path", normalizeTrashPath(path))
	}

	fieldsParam(params, o)

	return c.performAndWait(ctx, &apiRequest{
		method:       "DELETE",
		path:         "/v1/disk/trash/resources",
		params:       params,
		successCodes: []int{202, 204},
		opts:         o,
	})
}

// GetUploadLink requests a short-lived, single-use upload link for path.
func (c *Client) GetUploadLink(ctx context.Context, path string, opts ...CallOption) (*Link, error) {
	o := c.resolveOptions(opts)

	params := url.Values{}
	params.Set("path", normalizePath(path))
	params.Set("overwrite", boolParam(o.overwrite))
	params.Set("fields", "href")

	raw, err := c.send(ctx, &apiRequest{
		method: "GET",
		path:   "/v1/disk/resources/upload",
		params: params,
		opts:   o,
	})
	if err != nil {
		return nil, err
	}

	return decodeLink(raw)
}

// GetDownloadLink requests a short-lived, single-use download link for path.
func (c *Client) GetDownloadLink(ctx context.Context, path string, opts ...CallOption) (*Link, error) {
	o := c.resolveOptions(opts)

	params := url.Values{}
	params.Set("path", normalizePath(path))
	params.Set("fields", "href")

	raw, err := c.send(ctx, &apiRequest{
		method: "GET",
		path:   "/v1/disk/resources/download",
		params: params,
		opts:   o,
	})
	if err != nil {
		return nil, err
	}

	return decodeLink(raw)
}

// decodeLink parses a Link response and validates that it actually carries
// a link.
func decodeLink(raw json.RawMessage) (*Link, error) {
	var link Link
	if err := decodeStrict(raw, &link); err != nil {
		return nil, err
	}

	if link.Href == "" {
		return nil, fmt.Errorf("%w: response did not contain the link", ErrInvalidResponse)
	}

	return &link, nil
}
