package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jmgilman/go/fs/core"

	"github.com/Nikhil-z/farnsworth/internal/logging"
)

// tempSuffix is appended to the manifest path for atomic writes.
const tempSuffix = ".tmp"

// Store loads and saves the persisted manifest on a filesystem.
// A Store is not safe for concurrent Save calls; the engine is its only writer.
type Store struct {
	fs     core.FS
	path   string
	logger *logging.Logger
}

// NewStore creates a store for the manifest file at path.
// A nil logger discards log output.
func NewStore(fs core.FS, path string, logger *logging.Logger) *Store {
	return &Store{
		fs:     fs,
		path:   path,
		logger: logger,
	}
}

// Path returns the manifest file path.
func (s *Store) Path() string {
	return s.path
}

// TempPath returns the path used while a save is in progress.
func (s *Store) TempPath() string {
	return s.path + tempSuffix
}

// Read reads and parses the persisted manifest.
// A missing file yields an empty manifest and no error. Read and parse
// failures are returned with CodeReadFailed.
func (s *Store) Read(ctx context.Context) (Manifest, error) {
	if err := ctx.Err(); err != nil {
		return Manifest{}, wrapReadError(err, "context cancelled", s.path)
	}

	exists, err := s.fs.Exists(s.path)
	if err != nil {
		return Manifest{}, wrapReadError(err, "failed to check manifest file", s.path)
	}
	if !exists {
		return Manifest{}, nil
	}

	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		return Manifest{}, wrapReadError(err, "failed to read manifest file", s.path)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, wrapReadError(err, "failed to parse manifest file", s.path)
	}

	return m.Dedupe(), nil
}

// Load reads the persisted manifest, degrading any failure to an empty
// manifest. The failure is logged and never returned.
func (s *Store) Load(ctx context.Context) Manifest {
	start := time.Now()
	m, err := s.Read(ctx)
	logging.LogOperation(ctx, s.logger, logging.OpLoadManifest, time.Since(start), err,
		"path", s.path, "assets", len(m))
	if err != nil {
		return Manifest{}
	}
	return m
}

// Save serializes the manifest as indented JSON and replaces the persisted
// file atomically by writing a temporary file and renaming it into place.
func (s *Store) Save(ctx context.Context, m Manifest) error {
	start := time.Now()
	err := s.save(ctx, m)
	logging.LogOperation(ctx, s.logger, logging.OpSaveManifest, time.Since(start), err,
		"path", s.path, "assets", len(m))
	return err
}

func (s *Store) save(ctx context.Context, m Manifest) error {
	if err := ctx.Err(); err != nil {
		return wrapWriteError(err, "context cancelled", s.path)
	}

	if m == nil {
		m = Manifest{}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return wrapWriteError(err, "failed to marshal manifest", s.path)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return wrapWriteError(err, "failed to create manifest directory", s.path)
	}

	tmpPath := s.TempPath()
	tmpFile, err := s.fs.Create(tmpPath)
	if err != nil {
		return wrapWriteError(err, "failed to create temporary manifest file", s.path)
	}

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		_ = s.fs.Remove(tmpPath)
		return wrapWriteError(err, "failed to write temporary manifest file", s.path)
	}

	if err := tmpFile.Close(); err != nil {
		_ = s.fs.Remove(tmpPath)
		return wrapWriteError(err, "failed to close temporary manifest file", s.path)
	}

	if err := s.fs.Rename(tmpPath, s.path); err != nil {
		_ = s.fs.Remove(tmpPath)
		return wrapWriteError(err, fmt.Sprintf("failed to rename manifest file from %s", tmpPath), s.path)
	}

	return nil
}
