// Package engine reconciles a remote asset catalog with the local cache and
// downloads what is missing.
//
// A run has three stages:
//
//  1. Reconcile merges the catalog, the persisted manifest and the files
//     present on disk into a working manifest. Assets no longer in the
//     catalog are dropped, new catalog entries are appended as pending and
//     any asset marked downloaded whose file is missing is demoted back to
//     pending. Files nothing references are orphans.
//  2. Orphans from the last known disk state are pruned.
//  3. The Orchestrator downloads the pending assets one at a time, saving
//     the manifest after each success, then prunes once more.
//
// Progress is reported through an events.Sink:
//
//	rec := &events.Recorder{}
//	e, err := engine.New(engine.Config{
//	    CatalogURL:   "https://example.com/catalog.json",
//	    ManifestPath: "/var/cache/assets/manifest.json",
//	    CacheDir:     "/var/cache/assets",
//	}, engine.WithSink(rec))
//	if err != nil {
//	    return err
//	}
//	report, err := e.Run(ctx)
//
// No failure inside a run is fatal. Local read failures degrade to an empty
// manifest or file list, and remote and per-asset failures are reported as
// error events while the cached data stays usable.
package engine
