// Package fileid derives stable identities for project files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path/filepath"
	"strings"
)

// URI returns the file:// URI used as the index key for absolutePath.
// The same path always yields the same URI.
func URI(absolutePath string) string {
	p := filepath.ToSlash(filepath.Clean(absolutePath))
	if !strings.HasPrefix(p, "/") {
		// Windows drive paths: C:/x -> /C:/x
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}

// ContentHash returns a hex SHA-256 of contents, used to detect unchanged files.
func ContentHash(contents string) string {
	sum := sha256.Sum256([]byte(contents))
	return hex.EncodeToString(sum[:])
}
