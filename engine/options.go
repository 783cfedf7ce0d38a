package engine

import (
	"github.com/jmgilman/go/fs/core"

	"github.com/Nikhil-z/farnsworth/events"
	"github.com/Nikhil-z/farnsworth/internal/logging"
)

// Option configures an Engine.
type Option func(*Engine)

// WithFilesystem sets the filesystem holding the manifest and cache
// directory. Defaults to the local filesystem.
//
// Example:
//
//	e, _ := engine.New(cfg, engine.WithFilesystem(billy.NewMemory()))
func WithFilesystem(fs core.FS) Option {
	return func(e *Engine) {
		e.fs = fs
	}
}

// WithFetcher sets the source of the remote catalog.
func WithFetcher(f Fetcher) Option {
	return func(e *Engine) {
		e.fetcher = f
	}
}

// WithDownloader sets the asset download primitive.
func WithDownloader(d Downloader) Option {
	return func(e *Engine) {
		e.downloader = d
	}
}

// WithSink sets the receiver of engine events. Defaults to events.Discard.
func WithSink(s events.Sink) Option {
	return func(e *Engine) {
		e.sink = s
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMetrics enables metrics collection.
//
// Example:
//
//	metrics := engine.NewMetrics(prometheus.DefaultRegisterer)
//	e, _ := engine.New(cfg, engine.WithMetrics(metrics))
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithIgnore names extra files in the cache directory that are neither
// assets nor orphans, such as a lock file.
func WithIgnore(names ...string) Option {
	return func(e *Engine) {
		e.ignore = append(e.ignore, names...)
	}
}
