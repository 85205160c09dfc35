package fetcher

import (
	"mime"
	"net/http"
	"path/filepath"
)

// sniffPrefixBytes bounds how much of a payload magic-number sniffing ever
// reads; it never scans the whole body.
const sniffPrefixBytes = 512

// resolveContentType implements the fallback order from the read path:
// store-provided, then the extension table, then magic-number sniffing over
// a bounded prefix, then application/octet-stream.
func resolveContentType(provided, path string, data []byte) string {
	if provided != "" {
		return provided
	}

	if ext := filepath.Ext(path); ext != "" {
		if guessed := mime.TypeByExtension(ext); guessed != "" {
			if essence, _, err := mime.ParseMediaType(guessed); err == nil {
				return essence
			}
			return guessed
		}
	}

	prefixLen := len(data)
	if prefixLen > sniffPrefixBytes {
		prefixLen = sniffPrefixBytes
	}
	return http.DetectContentType(data[:prefixLen])
}
