// Package yadisk is a client library for the Yandex.Disk REST API.
//
// A Client wraps a pluggable transport session and exposes typed operations
// for metadata, directory listings, uploads, downloads, trash management
// and sharing. Every operation takes a context.Context and a set of
// per-call options; retriable failures are retried automatically with a
// configurable budget and interval.
//
// Basic usage:
//
//	client, err := yadisk.New(token)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	if err := client.UploadFile(ctx, "report.pdf", "/reports/report.pdf"); err != nil {
//		return err
//	}
//
// Errors are classified into sentinel kinds (ErrPathNotFound, ErrPathExists,
// ErrResourceLocked and so on) that wrap broader categories, so both
// errors.Is(err, yadisk.ErrPathNotFound) and errors.Is(err, yadisk.ErrNotFound)
// match a missing path.
//
// Asynchronous server operations (large copies, moves, deletions) are polled
// to completion by default; WithoutWaiting returns the operation link
// immediately instead.
package yadisk
