package yadisk

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// knownSchemas are the path prefixes the API understands.
var knownSchemas = []string{"disk:", "trash:", "app:", "photounlim:"}

// normalizePath NFC-normalizes a path and ensures it carries a schema
// (disk:/ by default). Without a schema the API rejects filenames that
// contain the ':' character; NFC matters because macOS hands out NFD names.
func normalizePath(path string) string {
	return ensurePathSchema(norm.NFC.String(path), "disk")
}

// normalizeTrashPath is normalizePath for trash resources.
func normalizeTrashPath(path string) string {
	return ensurePathSchema(norm.NFC.String(path), "trash")
}

// ensurePathSchema prefixes path with defaultSchema unless it already has a
// known one.
func ensurePathSchema(path, defaultSchema string) string {
	for _, schema := range knownSchemas {
		if path == schema {
			return defaultSchema + ":/" + path
		}
	}

	if strings.HasPrefix(path, "/") {
		return defaultSchema + ":" + path
	}

	for _, schema := range knownSchemas {
		if strings.HasPrefix(path, schema+"/") {
			return path
		}
	}

	return defaultSchema + ":/" + path
}

// isOperationLink reports whether s is a full operation status URL rather
// than a bare operation id.
func (c *Client) isOperationLink(s string) bool {
	return strings.HasPrefix(s, c.baseURL+"/v1/disk/operations/")
}
