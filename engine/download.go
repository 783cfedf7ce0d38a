package engine

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/jmgilman/go/fs/core"

	"github.com/Nikhil-z/farnsworth/cachedir"
	"github.com/Nikhil-z/farnsworth/events"
	"github.com/Nikhil-z/farnsworth/internal/logging"
	"github.com/Nikhil-z/farnsworth/manifest"
)

// partSuffix marks a download in progress. Leftover part files are not
// referenced by any asset, so the pruner removes them.
const partSuffix = ".part"

// Downloader streams one asset into w.
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// BatchResult reports the outcome of one download pass.
type BatchResult struct {
	// Manifest is the working manifest after the pass.
	Manifest manifest.Manifest
	// Downloaded lists the urls fetched in this pass.
	Downloaded []string
	// Failed lists the urls whose download failed.
	Failed []string
	// Notified is true once an asset-available event was sent this run.
	Notified bool
	// Completed is false when the pass stopped early because ctx was done.
	Completed bool
	// Pruned is the result of the closing prune. Zero when not completed.
	Pruned cachedir.PruneResult
}

// Orchestrator downloads the pending assets of a working manifest one at a
// time, persisting the manifest after every successful download.
type Orchestrator struct {
	fs         core.FS
	dir        string
	downloader Downloader
	store      *manifest.Store
	pruner     *cachedir.Pruner
	sink       events.Sink
	logger     *logging.Logger
	metrics    *Metrics
}

// Process downloads every asset of m not yet marked downloaded, in manifest
// order. A failed download is reported as an error event and the pass moves
// on. When every asset was attempted it emits batch-complete and prunes the
// cache against the final manifest.
//
// notified tells whether an asset-available event was already sent this run;
// if not, the first successful download sends one. m is not modified.
func (o *Orchestrator) Process(ctx context.Context, m manifest.Manifest, notified bool) BatchResult {
	result := BatchResult{Manifest: m.Clone(), Notified: notified}
	working := result.Manifest

	for i := range working {
		if ctx.Err() != nil {
			return result
		}
		if working[i].Downloaded {
			continue
		}

		url := working[i].URL
		working[i].Filename = manifest.FileName(url)

		err := o.fetch(ctx, url, working[i].Filename)
		o.metrics.observeDownload(err)
		if err != nil {
			if ctx.Err() != nil {
				return result
			}
			result.Failed = append(result.Failed, url)
			o.sink.Emit(ctx, events.NewError(fmt.Sprintf("failed to download %s", url), err))
			continue
		}

		working[i].Downloaded = true
		result.Downloaded = append(result.Downloaded, url)

		if !result.Notified {
			o.sink.Emit(ctx, events.NewAssetAvailable(working[i]))
			result.Notified = true
		}
		o.sink.Emit(ctx, events.NewDataAvailable(working))
		o.save(ctx, working)
	}

	result.Completed = true
	o.sink.Emit(ctx, events.NewBatchComplete())

	result.Pruned = o.pruner.PruneDir(ctx, working)
	o.metrics.observePrune(len(result.Pruned.Removed))
	return result
}

// fetch downloads url into a part file and renames it to filename.
func (o *Orchestrator) fetch(ctx context.Context, url, filename string) error {
	start := time.Now()
	logger := o.logger.WithURL(url)

	final := filepath.Join(o.dir, filename)
	err := o.fetchTo(ctx, url, final)
	logging.LogOperation(ctx, logger, logging.OpDownloadAsset, time.Since(start), err, "path", final)
	return err
}

func (o *Orchestrator) fetchTo(ctx context.Context, url, final string) error {
	if err := o.fs.MkdirAll(o.dir, 0o755); err != nil {
		return wrapAssetError(err, "failed to create cache directory", url, o.dir)
	}

	part := final + partSuffix
	f, err := o.fs.Create(part)
	if err != nil {
		return wrapAssetError(err, "failed to create part file", url, part)
	}

	if _, err := o.downloader.Download(ctx, url, f); err != nil {
		f.Close()
		_ = o.fs.Remove(part)
		return wrapAssetError(err, "failed to download asset", url, part)
	}

	if err := f.Close(); err != nil {
		_ = o.fs.Remove(part)
		return wrapAssetError(err, "failed to close part file", url, part)
	}

	if err := o.fs.Rename(part, final); err != nil {
		_ = o.fs.Remove(part)
		return wrapAssetError(err, "failed to move part file into place", url, final)
	}
	return nil
}

// save persists m. A failure is reported and otherwise ignored.
func (o *Orchestrator) save(ctx context.Context, m manifest.Manifest) {
	err := o.store.Save(ctx, m)
	o.metrics.observeSave(err)
	if err != nil {
		o.sink.Emit(ctx, events.NewError("failed to save manifest", err))
	}
}
