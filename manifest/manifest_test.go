package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName_Deterministic(t *testing.T) {
	url := "http://x/a.jpg"

	first := FileName(url)
	second := FileName(url)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasSuffix(first, ".jpg"))
	assert.Len(t, strings.TrimSuffix(first, ".jpg"), 64)
	assert.NotEqual(t, first, FileName("http://x/b.jpg"))
}

func TestFileName_KnownDigest(t *testing.T) {
	assert.Equal(t,
		"6edf60c0faeee55c9e7b2fea94df9f7fbf4f70cdf1f04752325ba0576eb58ab4.jpg",
		FileName("http://x/a.jpg"))
	assert.Equal(t,
		"6edf60c0faeee55c9e7b2fea94df9f7fbf4f70cdf1f04752325ba0576eb58ab4",
		strings.TrimSuffix(FileName("http://x/a.jpg"), Extension("http://x/a.jpg")))
}

func TestExtension(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"simple", "http://x/a.jpg", ".jpg"},
		{"query ignored", "https://cdn.example.com/img/b.png?w=200&h=100", ".png"},
		{"fragment ignored", "https://example.com/c.webp#top", ".webp"},
		{"uppercase kept", "http://x/D.JPG", ".JPG"},
		{"no extension", "http://x/image", ""},
		{"trailing dot", "http://x/image.", ""},
		{"directory dot", "http://x.com/", ""},
		{"too long", "http://x/a.averyveryverylongext", ""},
		{"non alphanumeric", "http://x/a.j-g", ""},
		{"unparseable url", "http://x/%zz.gif", ".gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extension(tt.url))
		})
	}
}

func TestManifest_Dedupe(t *testing.T) {
	m := Manifest{
		{URL: "http://x/a.jpg", Filename: "first", Downloaded: true},
		{URL: ""},
		{URL: "http://x/b.jpg"},
		{URL: "http://x/a.jpg", Filename: "second"},
	}

	out := m.Dedupe()

	require.Len(t, out, 2)
	assert.Equal(t, "http://x/a.jpg", out[0].URL)
	assert.Equal(t, "first", out[0].Filename)
	assert.Equal(t, "http://x/b.jpg", out[1].URL)

	var empty Manifest
	assert.NotNil(t, empty.Dedupe())
}

func TestManifest_Helpers(t *testing.T) {
	m := Manifest{
		{URL: "http://x/a.jpg", Filename: "a", Downloaded: true},
		{URL: "http://x/b.jpg"},
		{URL: "http://x/c.jpg", Filename: "c"},
	}

	assert.Equal(t, 1, m.Index("http://x/b.jpg"))
	assert.Equal(t, -1, m.Index("http://x/z.jpg"))
	assert.True(t, m.Contains("http://x/c.jpg"))
	assert.Equal(t, 2, m.Pending())
	assert.Equal(t, map[string]struct{}{"a": {}, "c": {}}, m.Filenames())

	clone := m.Clone()
	clone[0].Downloaded = false
	assert.True(t, m[0].Downloaded, "clone must not alias the original")
}
