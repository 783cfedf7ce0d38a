package engine

import (
	"context"
	"path/filepath"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/billy"
	"github.com/jmgilman/go/fs/core"
	"golang.org/x/sync/errgroup"

	"github.com/Nikhil-z/farnsworth/cachedir"
	"github.com/Nikhil-z/farnsworth/events"
	"github.com/Nikhil-z/farnsworth/internal/logging"
	"github.com/Nikhil-z/farnsworth/manifest"
	"github.com/Nikhil-z/farnsworth/remote"
)

// Config locates the catalog and the local cache.
type Config struct {
	// CatalogURL is the remote catalog endpoint. It is only needed by Run.
	CatalogURL string
	// ManifestPath is the persisted manifest file.
	ManifestPath string
	// CacheDir is the flat directory holding asset files.
	CacheDir string
}

// Validate checks that the local paths are set.
func (c Config) Validate() error {
	missing := ""
	switch {
	case c.ManifestPath == "":
		missing = "manifest path"
	case c.CacheDir == "":
		missing = "cache directory"
	}
	if missing != "" {
		return errors.Newf(errors.CodeInvalidConfig, "%s is required", missing)
	}
	return nil
}

// Fetcher retrieves the remote catalog.
type Fetcher interface {
	FetchCatalog(ctx context.Context, url string) ([]remote.Entry, error)
}

// Report summarizes a sync run.
type Report struct {
	// Manifest is the working manifest at the end of the run.
	Manifest manifest.Manifest
	// RemoteOK is false when the catalog could not be fetched; Manifest is
	// then the verified local manifest.
	RemoteOK bool
	// CatalogSize is the number of entries in the fetched catalog.
	CatalogSize int
	// Demoted lists urls that were marked downloaded but missing on disk.
	Demoted []string
	// Downloaded lists urls fetched during the run.
	Downloaded []string
	// Failed lists urls whose download failed.
	Failed []string
	// Pruned is the number of orphaned files removed.
	Pruned int
	// Completed is true when the download batch ran to the end.
	Completed bool
}

// Engine keeps a local asset cache in sync with a remote catalog.
type Engine struct {
	cfg        Config
	fs         core.FS
	fetcher    Fetcher
	downloader Downloader
	sink       events.Sink
	logger     *logging.Logger
	metrics    *Metrics
	ignore     []string

	store        *manifest.Store
	inspector    *cachedir.Inspector
	pruner       *cachedir.Pruner
	orchestrator *Orchestrator
}

// New creates an engine for cfg.
//
// When the manifest lives inside the cache directory, the manifest file and
// its temporary file are never listed as cache files.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}

	if e.fs == nil {
		e.fs = billy.NewLocal()
	}
	if e.fetcher == nil || e.downloader == nil {
		client := remote.NewClient()
		if e.fetcher == nil {
			e.fetcher = client
		}
		if e.downloader == nil {
			e.downloader = client
		}
	}
	if e.sink == nil {
		e.sink = events.Discard
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}

	e.store = manifest.NewStore(e.fs, cfg.ManifestPath, e.logger)

	ignore := append([]string(nil), e.ignore...)
	if filepath.Clean(filepath.Dir(cfg.ManifestPath)) == filepath.Clean(cfg.CacheDir) {
		ignore = append(ignore,
			filepath.Base(e.store.Path()),
			filepath.Base(e.store.TempPath()))
	}
	e.inspector = cachedir.NewInspector(e.fs, cfg.CacheDir, e.logger, ignore...)
	e.pruner = cachedir.NewPruner(e.fs, e.inspector, e.logger)
	e.orchestrator = &Orchestrator{
		fs:         e.fs,
		dir:        cfg.CacheDir,
		downloader: e.downloader,
		store:      e.store,
		pruner:     e.pruner,
		sink:       e.sink,
		logger:     e.logger,
		metrics:    e.metrics,
	}

	return e, nil
}

// localState is what the cache-serving flow hands to the sync flow.
type localState struct {
	persisted manifest.Manifest
	onDisk    cachedir.FileSet
	verified  manifest.Manifest
}

// Run performs one sync.
//
// Two flows start together. The first loads the persisted manifest, checks
// it against the cache directory and announces whatever is already
// available. The second fetches the remote catalog, waits for the first to
// finish, then reconciles, prunes and downloads every pending asset.
//
// A catalog fetch failure is reported as an error event and leaves the local
// cache untouched. Run only returns an error when no catalog url is
// configured or when ctx is done before the batch completes.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	if e.cfg.CatalogURL == "" {
		return Report{}, errors.New(errors.CodeInvalidConfig, "catalog url is required")
	}

	start := time.Now()

	var (
		local     localState
		report    Report
		localDone = make(chan struct{})
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(localDone)
		local = e.serveLocal(gctx)
		return nil
	})

	g.Go(func() error {
		entries, fetchErr := e.fetchCatalog(gctx)

		select {
		case <-localDone:
		case <-gctx.Done():
			return gctx.Err()
		}

		if fetchErr != nil {
			report.Manifest = local.verified
			if gctx.Err() != nil {
				return gctx.Err()
			}
			e.sink.Emit(gctx, events.NewError("failed to fetch remote catalog", fetchErr))
			return nil
		}

		report = e.sync(gctx, entries, local)
		return nil
	})

	err := g.Wait()
	if err == nil && !report.Completed && ctx.Err() != nil {
		err = ctx.Err()
	}

	e.metrics.observeSync(time.Since(start), report.RemoteOK)
	e.logger.Info(ctx, "sync finished",
		"remote_ok", report.RemoteOK,
		"assets", len(report.Manifest),
		"downloaded", len(report.Downloaded),
		"failed", len(report.Failed),
		"pruned", report.Pruned,
		"duration_ms", time.Since(start).Milliseconds())

	return report, err
}

// RunWhenReady waits for ready to be closed or receive a value, then runs a
// sync.
func (e *Engine) RunWhenReady(ctx context.Context, ready <-chan struct{}) (Report, error) {
	select {
	case <-ready:
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
	return e.Run(ctx)
}

// serveLocal announces the cached state before any network result is known.
func (e *Engine) serveLocal(ctx context.Context) localState {
	st := localState{persisted: e.store.Load(ctx)}
	st.onDisk = e.localFiles(ctx, st.persisted)
	st.verified, _ = Verify(st.persisted, st.onDisk)

	if len(st.verified) > 0 {
		e.sink.Emit(ctx, events.NewDataAvailable(st.verified))
	}
	if a, ok := FirstAvailable(st.verified, st.onDisk); ok {
		e.sink.Emit(ctx, events.NewAssetAvailable(a))
	}
	return st
}

// localFiles lists the cache directory. Files of downloaded assets that
// cannot be read are left out, so those assets are demoted.
func (e *Engine) localFiles(ctx context.Context, persisted manifest.Manifest) cachedir.FileSet {
	return e.inspector.Readable(ctx, persisted, e.inspector.List(ctx))
}

func (e *Engine) fetchCatalog(ctx context.Context) ([]remote.Entry, error) {
	start := time.Now()
	entries, err := e.fetcher.FetchCatalog(ctx, e.cfg.CatalogURL)
	e.metrics.observeFetch(err)
	logging.LogOperation(ctx, e.logger, logging.OpFetchCatalog, time.Since(start), err,
		"url", e.cfg.CatalogURL, "entries", len(entries))
	return entries, err
}

// sync reconciles the catalog with local state and runs the download batch.
func (e *Engine) sync(ctx context.Context, entries []remote.Entry, local localState) Report {
	start := time.Now()
	rec := Reconcile(entries, local.persisted, local.onDisk)
	logging.LogOperation(ctx, e.logger, logging.OpReconcile, time.Since(start), nil,
		"assets", len(rec.Manifest),
		"added", len(rec.Added),
		"removed", len(rec.Removed),
		"demoted", len(rec.Demoted),
		"orphans", len(rec.Orphans))

	e.sink.Emit(ctx, events.NewDataAvailable(rec.Manifest))

	// The announced asset is re-derived from the reconciled state. It is only
	// sent again when it differs from what the local flow announced.
	notified := false
	if a, ok := FirstAvailable(rec.Manifest, local.onDisk); ok {
		notified = true
		prev, had := FirstAvailable(local.verified, local.onDisk)
		if !had || prev.URL != a.URL {
			e.sink.Emit(ctx, events.NewAssetAvailable(a))
		}
	}

	e.orchestrator.save(ctx, rec.Manifest)

	pruned := e.pruner.Prune(ctx, rec.Manifest, local.onDisk)
	e.metrics.observePrune(len(pruned.Removed))

	batch := e.orchestrator.Process(ctx, rec.Manifest, notified)

	return Report{
		Manifest:    batch.Manifest,
		RemoteOK:    true,
		CatalogSize: len(entries),
		Demoted:     rec.Demoted,
		Downloaded:  batch.Downloaded,
		Failed:      batch.Failed,
		Pruned:      len(pruned.Removed) + len(batch.Pruned.Removed),
		Completed:   batch.Completed,
	}
}

// AssetStatus is the local state of one asset.
type AssetStatus struct {
	manifest.Asset
	// Available is true when the asset can be served from the cache.
	Available bool
}

// Status reports the persisted manifest checked against the cache directory.
// It never touches the network.
func (e *Engine) Status(ctx context.Context) []AssetStatus {
	persisted := e.store.Load(ctx)
	onDisk := e.localFiles(ctx, persisted)
	verified, _ := Verify(persisted, onDisk)

	out := make([]AssetStatus, 0, len(verified))
	for _, a := range verified {
		out = append(out, AssetStatus{Asset: a, Available: Available(a, onDisk)})
	}
	return out
}

// Prune removes cache files the persisted manifest does not reference. It
// never touches the network.
func (e *Engine) Prune(ctx context.Context) cachedir.PruneResult {
	persisted := e.store.Load(ctx)
	onDisk := e.localFiles(ctx, persisted)
	verified, _ := Verify(persisted, onDisk)

	result := e.pruner.Prune(ctx, verified, onDisk)
	e.metrics.observePrune(len(result.Removed))
	return result
}
