// Package manifest defines the asset manifest that tracks which catalog
// entries have been cached locally, and the store that persists it.
//
// A manifest is an ordered list of assets, unique by URL. Each asset records
// the deterministic cache filename derived from its URL and whether the file
// was written to the cache by a download.
//
// The persisted form is a pretty-printed JSON array:
//
//	[
//	  {
//	    "url": "http://x/a.jpg",
//	    "filename": "<sha256 of url>.jpg",
//	    "downloaded": true
//	  }
//	]
package manifest

// Asset is one catalog entry plus its local download state.
type Asset struct {
	// URL is the stable remote identifier of the asset.
	URL string `json:"url"`
	// Filename is the cache file name. Empty until the first download attempt.
	Filename string `json:"filename"`
	// Downloaded is true once the asset was written to the cache.
	Downloaded bool `json:"downloaded"`
}

// Manifest is an ordered collection of assets, unique by URL.
type Manifest []Asset

// Clone returns a copy of the manifest that shares no storage with m.
func (m Manifest) Clone() Manifest {
	out := make(Manifest, len(m))
	copy(out, m)
	return out
}

// Index returns the position of the asset with the given url, or -1.
func (m Manifest) Index(url string) int {
	for i := range m {
		if m[i].URL == url {
			return i
		}
	}
	return -1
}

// Contains reports whether an asset with the given url is present.
func (m Manifest) Contains(url string) bool {
	return m.Index(url) >= 0
}

// Filenames returns the set of non-empty filenames referenced by the manifest.
func (m Manifest) Filenames() map[string]struct{} {
	names := make(map[string]struct{}, len(m))
	for _, a := range m {
		if a.Filename != "" {
			names[a.Filename] = struct{}{}
		}
	}
	return names
}

// Pending returns the number of assets not yet downloaded.
func (m Manifest) Pending() int {
	n := 0
	for _, a := range m {
		if !a.Downloaded {
			n++
		}
	}
	return n
}

// Dedupe returns the manifest with empty urls dropped and only the first
// occurrence of each url kept. The result is never nil.
func (m Manifest) Dedupe() Manifest {
	out := make(Manifest, 0, len(m))
	seen := make(map[string]struct{}, len(m))
	for _, a := range m {
		if a.URL == "" {
			continue
		}
		if _, ok := seen[a.URL]; ok {
			continue
		}
		seen[a.URL] = struct{}{}
		out = append(out, a)
	}
	return out
}
