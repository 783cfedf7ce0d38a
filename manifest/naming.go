package manifest

import (
	"net/url"
	"path"

	"github.com/opencontainers/go-digest"
)

// maxExtensionLength bounds the extension copied from a url, dot included.
const maxExtensionLength = 10

// FileName returns the cache filename for an asset url: the hex sha256 of the
// url followed by the url's extension. The result depends only on the url.
//
// Example:
//
//	manifest.FileName("http://x/a.jpg") // "<64 hex chars>.jpg"
func FileName(rawURL string) string {
	return digest.FromString(rawURL).Encoded() + Extension(rawURL)
}

// Extension returns the file extension of the url path, including the dot.
// Query strings and fragments are ignored. Extensions that are empty, too
// long, or contain anything but ASCII letters and digits yield "".
func Extension(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}

	ext := path.Ext(p)
	if len(ext) < 2 || len(ext) > maxExtensionLength {
		return ""
	}
	for _, r := range ext[1:] {
		if !isAlphanumeric(r) {
			return ""
		}
	}
	return ext
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
