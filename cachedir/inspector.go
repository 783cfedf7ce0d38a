// Package cachedir inspects and prunes the flat directory that holds cached
// asset files.
//
// The Inspector reports which files are actually present and readable, which
// is the only source of truth for asset availability. The Pruner removes files the current
// manifest no longer references. Both degrade failures to safe defaults: an
// unreadable directory lists as empty and a file that cannot be deleted is
// logged and skipped.
package cachedir

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/jmgilman/go/fs/core"

	"github.com/Nikhil-z/farnsworth/internal/logging"
	"github.com/Nikhil-z/farnsworth/manifest"
)

// FileSet is a set of filenames present in the cache directory.
type FileSet map[string]struct{}

// NewFileSet creates a set holding the given names.
func NewFileSet(names ...string) FileSet {
	s := make(FileSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set. A nil set is empty.
func (s FileSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the filenames in lexical order.
func (s FileSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Inspector lists the files present in a cache directory.
type Inspector struct {
	fs     core.ReadFS
	dir    string
	ignore map[string]struct{}
	logger *logging.Logger
}

// NewInspector creates an inspector for dir. Files whose base name appears in
// ignore are never reported, which keeps bookkeeping files that share the
// directory (manifest, lock file) out of availability and pruning decisions.
func NewInspector(fs core.ReadFS, dir string, logger *logging.Logger, ignore ...string) *Inspector {
	ig := make(map[string]struct{}, len(ignore))
	for _, name := range ignore {
		ig[name] = struct{}{}
	}
	return &Inspector{
		fs:     fs,
		dir:    dir,
		ignore: ig,
		logger: logger,
	}
}

// Dir returns the inspected directory.
func (i *Inspector) Dir() string {
	return i.dir
}

// Scan enumerates the regular files in the cache directory. A missing
// directory is an empty set. Other failures return CodeDirectoryAccess.
func (i *Inspector) Scan(ctx context.Context) (FileSet, error) {
	if err := ctx.Err(); err != nil {
		return FileSet{}, wrapDirectoryError(err, "context cancelled", i.dir)
	}

	exists, err := i.fs.Exists(i.dir)
	if err != nil {
		return FileSet{}, wrapDirectoryError(err, "failed to check cache directory", i.dir)
	}
	if !exists {
		return FileSet{}, nil
	}

	entries, err := i.fs.ReadDir(i.dir)
	if err != nil {
		return FileSet{}, wrapDirectoryError(err, "failed to read cache directory", i.dir)
	}

	files := make(FileSet, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if _, skip := i.ignore[entry.Name()]; skip {
			continue
		}
		files[entry.Name()] = struct{}{}
	}
	return files, nil
}

// List is Scan with failures degraded to an empty set. The failure is logged.
func (i *Inspector) List(ctx context.Context) FileSet {
	start := time.Now()
	files, err := i.Scan(ctx)
	logging.LogOperation(ctx, i.logger, logging.OpListCache, time.Since(start), err,
		"dir", i.dir, "files", len(files))
	if err != nil {
		return FileSet{}
	}
	return files
}

// Readable returns a copy of files without the files of downloaded assets in
// m that cannot be opened for reading. Each unreadable file is logged.
func (i *Inspector) Readable(ctx context.Context, m manifest.Manifest, files FileSet) FileSet {
	out := make(FileSet, len(files))
	for name := range files {
		out[name] = struct{}{}
	}

	for _, a := range m {
		if !a.Downloaded || !out.Has(a.Filename) {
			continue
		}
		if err := i.checkReadable(a.Filename); err != nil {
			i.logger.Warn(ctx, "cached file is not readable",
				"file", a.Filename,
				"url", a.URL,
				"error", err.Error())
			delete(out, a.Filename)
		}
	}
	return out
}

func (i *Inspector) checkReadable(name string) error {
	path := filepath.Join(i.dir, name)
	f, err := i.fs.Open(path)
	if err != nil {
		return wrapDirectoryError(err, "failed to open cached file", path)
	}
	if err := f.Close(); err != nil {
		return wrapDirectoryError(err, "failed to close cached file", path)
	}
	return nil
}
