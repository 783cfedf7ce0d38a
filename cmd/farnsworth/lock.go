package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/core"
)

const (
	lockTimeout  = 30 * time.Second
	lockInterval = time.Second
)

// acquireLock takes the exclusive lock at path so that a single process owns
// the manifest and cache directory. The caller must Unlock it.
func acquireLock(ctx context.Context, fs core.FS, path string, timeout time.Duration) (*flock.Flock, error) {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInternal, "failed to create lock directory",
			map[string]interface{}{"path": path})
	}

	lock := flock.New(path)
	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := lock.TryLockContext(lockCtx, lockInterval)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeConflict, "failed to acquire lock, is another sync running?",
			map[string]interface{}{"path": path})
	}
	if !locked {
		return nil, errors.WithContext(errors.New(errors.CodeConflict, "lock is held by another process"), "path", path)
	}
	return lock, nil
}
