package cachedir

import (
	"context"
	stderrors "errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/billy"
	"github.com/jmgilman/go/fs/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nikhil-z/farnsworth/manifest"
)

// faultyFS wraps a core.FS and injects failures.
type faultyFS struct {
	core.FS
	readDirErr error
	removeErr  map[string]error
	openErr    map[string]error
}

func (f *faultyFS) Open(name string) (fs.File, error) {
	if err, ok := f.openErr[filepath.Base(name)]; ok {
		return nil, err
	}
	return f.FS.Open(name)
}

func (f *faultyFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if f.readDirErr != nil {
		return nil, f.readDirErr
	}
	return f.FS.ReadDir(name)
}

func (f *faultyFS) Remove(name string) error {
	if err, ok := f.removeErr[filepath.Base(name)]; ok {
		return err
	}
	return f.FS.Remove(name)
}

func writeFiles(t *testing.T, fsys core.FS, dir string, names ...string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(dir, 0o755))
	for _, name := range names {
		require.NoError(t, fsys.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
}

func TestInspector_MissingDirectoryIsEmpty(t *testing.T) {
	inspector := NewInspector(billy.NewMemory(), "/cache", nil)

	files, err := inspector.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestInspector_ListsRegularFiles(t *testing.T) {
	memfs := billy.NewMemory()
	writeFiles(t, memfs, "/cache", "a.jpg", "b.png", "manifest.json")
	require.NoError(t, memfs.MkdirAll("/cache/nested", 0o755))

	inspector := NewInspector(memfs, "/cache", nil, "manifest.json")
	files := inspector.List(context.Background())

	assert.Equal(t, []string{"a.jpg", "b.png"}, files.Names())
	assert.True(t, files.Has("a.jpg"))
	assert.False(t, files.Has("nested"))
	assert.False(t, files.Has("manifest.json"))
}

func TestInspector_UnreadableDirectory(t *testing.T) {
	memfs := billy.NewMemory()
	writeFiles(t, memfs, "/cache", "a.jpg")
	inspector := NewInspector(&faultyFS{FS: memfs, readDirErr: fs.ErrPermission}, "/cache", nil)

	_, err := inspector.Scan(context.Background())
	require.Error(t, err)
	assert.Equal(t, CodeDirectoryAccess, errors.GetCode(err))

	assert.Empty(t, inspector.List(context.Background()))
}

func TestInspector_Readable(t *testing.T) {
	fsys := &faultyFS{
		FS:      billy.NewMemory(),
		openErr: map[string]error{"b.png": stderrors.New("permission denied")},
	}
	writeFiles(t, fsys, "/cache", "a.jpg", "b.png", "c.gif")

	m := manifest.Manifest{
		{URL: "http://x/a", Filename: "a.jpg", Downloaded: true},
		{URL: "http://x/b", Filename: "b.png", Downloaded: true},
		{URL: "http://x/c", Filename: "c.gif"},
	}
	insp := NewInspector(fsys, "/cache", nil)
	listed := insp.List(context.Background())

	readable := insp.Readable(context.Background(), m, listed)
	assert.Equal(t, []string{"a.jpg", "c.gif"}, readable.Names())
	assert.Equal(t, []string{"a.jpg", "b.png", "c.gif"}, listed.Names())
}

func TestFileSet(t *testing.T) {
	s := NewFileSet("b", "a", "b")
	assert.Equal(t, []string{"a", "b"}, s.Names())
	assert.True(t, s.Has("a"))

	var empty FileSet
	assert.False(t, empty.Has("a"))
	assert.Empty(t, empty.Names())
}

func TestOrphans(t *testing.T) {
	m := manifest.Manifest{
		{URL: "http://x/a.jpg", Filename: "a.jpg", Downloaded: true},
		{URL: "http://x/b.jpg"},
	}

	orphans := Orphans(m, NewFileSet("a.jpg", "old.jpg", "b.jpg.part"))
	assert.Equal(t, []string{"b.jpg.part", "old.jpg"}, orphans)
}

func TestPruner_RemovesOnlyUnreferencedFiles(t *testing.T) {
	memfs := billy.NewMemory()
	writeFiles(t, memfs, "/cache", "keep.jpg", "pending.jpg", "stale.jpg", "other.png")

	inspector := NewInspector(memfs, "/cache", nil)
	pruner := NewPruner(memfs, inspector, nil)

	m := manifest.Manifest{
		{URL: "http://x/keep.jpg", Filename: "keep.jpg", Downloaded: true},
		{URL: "http://x/pending.jpg", Filename: "pending.jpg"},
	}

	result := pruner.PruneDir(context.Background(), m)

	assert.Equal(t, []string{"other.png", "stale.jpg"}, result.Removed)
	assert.Empty(t, result.Failed)
	assert.Equal(t, []string{"keep.jpg", "pending.jpg"}, inspector.List(context.Background()).Names())
}

func TestPruner_NeverDeletesReferencedFiles(t *testing.T) {
	memfs := billy.NewMemory()
	writeFiles(t, memfs, "/cache", "a.jpg", "b.jpg")

	inspector := NewInspector(memfs, "/cache", nil)
	pruner := NewPruner(memfs, inspector, nil)
	m := manifest.Manifest{
		{URL: "http://x/a.jpg", Filename: "a.jpg", Downloaded: true},
		{URL: "http://x/b.jpg", Filename: "b.jpg", Downloaded: true},
	}

	// A stale on-disk snapshot naming referenced files must not cause deletion.
	result := pruner.Prune(context.Background(), m, NewFileSet("a.jpg", "b.jpg"))
	assert.Empty(t, result.Removed)
	assert.Len(t, inspector.List(context.Background()), 2)
}

func TestPruner_ContinuesPastFailures(t *testing.T) {
	memfs := billy.NewMemory()
	writeFiles(t, memfs, "/cache", "locked.jpg", "stale.jpg")

	faulty := &faultyFS{
		FS:        memfs,
		removeErr: map[string]error{"locked.jpg": stderrors.New("device busy")},
	}
	inspector := NewInspector(faulty, "/cache", nil)
	pruner := NewPruner(faulty, inspector, nil)

	result := pruner.PruneDir(context.Background(), manifest.Manifest{})

	assert.Equal(t, []string{"stale.jpg"}, result.Removed)
	require.Contains(t, result.Failed, "locked.jpg")
	assert.EqualError(t, result.Failed["locked.jpg"], "device busy")
}

func TestPruner_AlreadyDeletedFileCountsAsRemoved(t *testing.T) {
	memfs := billy.NewMemory()
	require.NoError(t, memfs.MkdirAll("/cache", 0o755))

	pruner := NewPruner(memfs, NewInspector(memfs, "/cache", nil), nil)
	result := pruner.Prune(context.Background(), manifest.Manifest{}, NewFileSet("gone.jpg"))

	assert.Equal(t, []string{"gone.jpg"}, result.Removed)
	assert.Empty(t, result.Failed)
}
