package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nikhil-z/farnsworth/cachedir"
	"github.com/Nikhil-z/farnsworth/manifest"
	"github.com/Nikhil-z/farnsworth/remote"
)

const (
	urlA = "http://x/a.jpg"
	urlB = "http://x/b.png"
	urlC = "http://x/c.gif"
)

func catalogOf(urls ...string) []remote.Entry {
	entries := make([]remote.Entry, len(urls))
	for i, u := range urls {
		entries[i] = remote.Entry{URL: u}
	}
	return entries
}

func downloaded(url string) manifest.Asset {
	return manifest.Asset{URL: url, Filename: manifest.FileName(url), Downloaded: true}
}

func urlsOf(m manifest.Manifest) []string {
	out := make([]string, len(m))
	for i, a := range m {
		out[i] = a.URL
	}
	return out
}

func TestReconcile_EmptyManifestNewCatalog(t *testing.T) {
	rec := Reconcile(catalogOf(urlA), nil, cachedir.NewFileSet())

	assert.Equal(t, manifest.Manifest{{URL: urlA}}, rec.Manifest)
	assert.Equal(t, []string{urlA}, rec.Added)
	assert.Empty(t, rec.Removed)
	assert.Empty(t, rec.Demoted)
	assert.Empty(t, rec.Orphans)
}

func TestReconcile_DemotesMissingFiles(t *testing.T) {
	persisted := manifest.Manifest{downloaded(urlA), downloaded(urlB)}
	onDisk := cachedir.NewFileSet(manifest.FileName(urlA))

	rec := Reconcile(catalogOf(urlA, urlB), persisted, onDisk)

	require.Len(t, rec.Manifest, 2)
	assert.Equal(t, downloaded(urlA), rec.Manifest[0])
	assert.Equal(t, manifest.Asset{URL: urlB, Filename: manifest.FileName(urlB)}, rec.Manifest[1])
	assert.Equal(t, []string{urlB}, rec.Demoted)
	assert.Empty(t, rec.Orphans)
}

func TestReconcile_DropsAssetsRemovedFromCatalog(t *testing.T) {
	persisted := manifest.Manifest{downloaded(urlA), {URL: urlB}}
	onDisk := cachedir.NewFileSet(manifest.FileName(urlA))

	rec := Reconcile(catalogOf(urlB), persisted, onDisk)

	assert.Equal(t, []string{urlB}, urlsOf(rec.Manifest))
	assert.Equal(t, []string{urlA}, rec.Removed)
	assert.Equal(t, []string{manifest.FileName(urlA)}, rec.Orphans)
}

func TestReconcile_Ordering(t *testing.T) {
	persisted := manifest.Manifest{{URL: urlC}, {URL: urlA}}

	rec := Reconcile(catalogOf(urlB, urlA, "http://x/d.jpg", urlC), persisted, nil)

	assert.Equal(t, []string{urlC, urlA, urlB, "http://x/d.jpg"}, urlsOf(rec.Manifest))
}

func TestReconcile_NoDuplicateURLs(t *testing.T) {
	persisted := manifest.Manifest{downloaded(urlA), {URL: urlA}, {URL: ""}}
	catalog := catalogOf(urlA, urlB, urlB, "", urlA)
	onDisk := cachedir.NewFileSet(manifest.FileName(urlA))

	rec := Reconcile(catalog, persisted, onDisk)

	assert.Equal(t, []string{urlA, urlB}, urlsOf(rec.Manifest))
	assert.True(t, rec.Manifest[0].Downloaded)
	assert.Equal(t, []string{urlB}, rec.Added)
}

func TestReconcile_Idempotent(t *testing.T) {
	persisted := manifest.Manifest{downloaded(urlA), downloaded(urlB), {URL: "http://x/gone.jpg"}}
	onDisk := cachedir.NewFileSet(manifest.FileName(urlA), "stale.jpg")
	catalog := catalogOf(urlA, urlB, urlC)

	first := Reconcile(catalog, persisted, onDisk)
	second := Reconcile(catalog, first.Manifest, onDisk)

	assert.Equal(t, first.Manifest, second.Manifest)
	assert.Equal(t, first.Orphans, second.Orphans)
	assert.Empty(t, second.Demoted)
	assert.Empty(t, second.Added)
	assert.Empty(t, second.Removed)
}

func TestReconcile_OrphansNeverReferenced(t *testing.T) {
	persisted := manifest.Manifest{downloaded(urlA), {URL: urlB, Filename: manifest.FileName(urlB)}}
	onDisk := cachedir.NewFileSet(manifest.FileName(urlA), manifest.FileName(urlB), "x.part", "old.jpg")

	rec := Reconcile(catalogOf(urlA, urlB), persisted, onDisk)

	assert.Equal(t, []string{"old.jpg", "x.part"}, rec.Orphans)
	names := rec.Manifest.Filenames()
	for _, o := range rec.Orphans {
		assert.NotContains(t, names, o)
	}
}

func TestVerify_FilenameMismatch(t *testing.T) {
	m := manifest.Manifest{
		{URL: urlA, Filename: "renamed.jpg", Downloaded: true},
		{URL: urlB, Filename: "other.png"},
	}

	verified, demoted := Verify(m, cachedir.NewFileSet("renamed.jpg", "other.png"))

	assert.Equal(t, manifest.Manifest{{URL: urlA}, {URL: urlB}}, verified)
	assert.Equal(t, []string{urlA}, demoted)
	assert.Equal(t, "renamed.jpg", m[0].Filename, "input must not be modified")
}

func TestVerify_DownloadedWithoutFilename(t *testing.T) {
	verified, demoted := Verify(manifest.Manifest{{URL: urlA, Downloaded: true}}, cachedir.NewFileSet())

	assert.False(t, verified[0].Downloaded)
	assert.Equal(t, []string{urlA}, demoted)
}

func TestFirstAvailable(t *testing.T) {
	m := manifest.Manifest{{URL: urlA}, downloaded(urlB), downloaded(urlC)}

	_, ok := FirstAvailable(m, cachedir.NewFileSet())
	assert.False(t, ok)

	a, ok := FirstAvailable(m, cachedir.NewFileSet(manifest.FileName(urlB), manifest.FileName(urlC)))
	require.True(t, ok)
	assert.Equal(t, urlB, a.URL)

	a, ok = FirstAvailable(m, cachedir.NewFileSet(manifest.FileName(urlC)))
	require.True(t, ok)
	assert.Equal(t, urlC, a.URL)
}
