package cachedir

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/jmgilman/go/fs/core"

	"github.com/Nikhil-z/farnsworth/internal/logging"
	"github.com/Nikhil-z/farnsworth/manifest"
)

// PruneResult reports the outcome of a pruning pass.
type PruneResult struct {
	// Removed lists the deleted filenames in lexical order.
	Removed []string
	// Failed maps filenames that could not be deleted to the cause.
	Failed map[string]error
}

// Pruner deletes cache files that a manifest no longer references.
// Deletion is best-effort: individual failures are logged and recorded in
// the result, never returned as an error.
type Pruner struct {
	fs        core.FS
	inspector *Inspector
	logger    *logging.Logger
}

// NewPruner creates a pruner for the directory watched by inspector.
func NewPruner(fs core.FS, inspector *Inspector, logger *logging.Logger) *Pruner {
	return &Pruner{
		fs:        fs,
		inspector: inspector,
		logger:    logger,
	}
}

// Prune deletes every file in onDisk whose name is not the filename of an
// asset in m. Files referenced by m are never touched, whatever onDisk holds.
func (p *Pruner) Prune(ctx context.Context, m manifest.Manifest, onDisk FileSet) PruneResult {
	start := time.Now()
	result := PruneResult{Failed: map[string]error{}}

	for _, name := range Orphans(m, onDisk) {
		if ctx.Err() != nil {
			break
		}

		path := filepath.Join(p.inspector.Dir(), name)
		if err := p.fs.Remove(path); err != nil && !os.IsNotExist(err) {
			p.logger.Warn(ctx, "failed to remove orphaned cache file",
				"operation", string(logging.OpPrune),
				"path", path,
				"error", err.Error())
			result.Failed[name] = err
			continue
		}
		result.Removed = append(result.Removed, name)
	}

	logging.LogPrune(ctx, p.logger, len(result.Removed), len(result.Failed), time.Since(start))
	return result
}

// PruneDir lists the cache directory and prunes it against m.
func (p *Pruner) PruneDir(ctx context.Context, m manifest.Manifest) PruneResult {
	return p.Prune(ctx, m, p.inspector.List(ctx))
}

// Orphans returns the names in onDisk not referenced by m, in lexical order.
func Orphans(m manifest.Manifest, onDisk FileSet) []string {
	referenced := m.Filenames()
	var orphans []string
	for _, name := range onDisk.Names() {
		if _, ok := referenced[name]; !ok {
			orphans = append(orphans, name)
		}
	}
	return orphans
}
