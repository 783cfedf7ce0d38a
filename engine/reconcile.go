package engine

import (
	"github.com/Nikhil-z/farnsworth/cachedir"
	"github.com/Nikhil-z/farnsworth/manifest"
	"github.com/Nikhil-z/farnsworth/remote"
)

// Reconciliation is the outcome of merging the catalog with local state.
type Reconciliation struct {
	// Manifest is the working manifest: retained assets in persisted order,
	// followed by new catalog entries in catalog order.
	Manifest manifest.Manifest
	// Orphans are on-disk files not referenced by Manifest, in lexical order.
	Orphans []string
	// Demoted lists urls that were marked downloaded but are not available.
	Demoted []string
	// Added lists urls that were not in the persisted manifest.
	Added []string
	// Removed lists persisted urls that are no longer in the catalog.
	Removed []string
}

// Reconcile merges the remote catalog, the persisted manifest and the set of
// files present on disk into a working manifest. It does no I/O.
//
// Running Reconcile again on its own output with the same catalog and disk
// state yields the same manifest.
func Reconcile(catalog []remote.Entry, persisted manifest.Manifest, onDisk cachedir.FileSet) Reconciliation {
	inCatalog := make(map[string]struct{}, len(catalog))
	for _, e := range catalog {
		if e.URL != "" {
			inCatalog[e.URL] = struct{}{}
		}
	}

	var r Reconciliation
	working := make(manifest.Manifest, 0, len(catalog))
	known := make(map[string]struct{}, len(persisted))

	for _, a := range persisted.Dedupe() {
		known[a.URL] = struct{}{}
		if _, ok := inCatalog[a.URL]; !ok {
			r.Removed = append(r.Removed, a.URL)
			continue
		}
		working = append(working, a)
	}

	for _, e := range catalog {
		if e.URL == "" {
			continue
		}
		if _, ok := known[e.URL]; ok {
			continue
		}
		known[e.URL] = struct{}{}
		working = append(working, manifest.Asset{URL: e.URL})
		r.Added = append(r.Added, e.URL)
	}

	r.Manifest, r.Demoted = Verify(working, onDisk)
	r.Orphans = cachedir.Orphans(r.Manifest, onDisk)
	return r
}

// Verify returns a copy of m in which every asset marked downloaded that is
// not available on disk is reset to pending, along with the affected urls.
// An asset whose filename is not the one derived from its url loses that
// filename so the stale file is treated as an orphan.
func Verify(m manifest.Manifest, onDisk cachedir.FileSet) (manifest.Manifest, []string) {
	out := m.Clone()
	var demoted []string
	for i := range out {
		a := &out[i]
		if a.Filename != "" && a.Filename != manifest.FileName(a.URL) {
			a.Filename = ""
			if a.Downloaded {
				a.Downloaded = false
				demoted = append(demoted, a.URL)
			}
			continue
		}
		if a.Downloaded && !onDisk.Has(a.Filename) {
			a.Downloaded = false
			demoted = append(demoted, a.URL)
		}
	}
	return out, demoted
}

// Available reports whether a can be served from the cache: it is marked
// downloaded and its file is in onDisk, the set of present and readable files.
func Available(a manifest.Asset, onDisk cachedir.FileSet) bool {
	return a.Downloaded && a.Filename != "" && onDisk.Has(a.Filename)
}

// FirstAvailable returns the first asset of m, in manifest order, that is
// available.
func FirstAvailable(m manifest.Manifest, onDisk cachedir.FileSet) (manifest.Asset, bool) {
	for _, a := range m {
		if Available(a, onDisk) {
			return a, true
		}
	}
	return manifest.Asset{}, false
}
