package main

import (
	"bufio"
	"context"
	"fmt"

	"github.com/jmgilman/go/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Nikhil-z/farnsworth/engine"
	"github.com/Nikhil-z/farnsworth/events"
)

type syncOpts struct {
	*rootOpts
	awaitReady bool
	strict     bool
}

func newSync(parent *rootOpts) *syncOpts {
	return &syncOpts{rootOpts: parent}
}

func (opts *syncOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch the catalog, reconcile the cache and download missing assets",
		Long: `Fetch the remote catalog, reconcile it with the local manifest and cache
directory, download every missing asset and prune files nothing references.

Events are written to stdout as newline-delimited JSON.`,
		Example: "  farnsworth sync --catalog-url https://example.com/catalog.json --cache-dir ./cache",
		Args:    cobra.NoArgs,
		RunE:    opts.RunE,
	}
	cmd.Flags().BoolVar(&opts.awaitReady, "await-ready", false, "wait for a line on stdin before starting")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit non-zero when the catalog fetch or any download fails")
	return cmd
}

func (opts *syncOpts) RunE(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if opts.cfg.CatalogURL == "" {
		return errors.New(errors.CodeInvalidConfig, "sync requires a catalog url (--catalog-url or catalog_url)")
	}

	lock, err := acquireLock(ctx, opts.fs, opts.cfg.LockPath(), lockTimeout)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	reg := prometheus.NewRegistry()
	sink := events.NewJSONSink(cmd.OutOrStdout())

	e, err := opts.newEngine(
		engine.WithSink(sink),
		engine.WithMetrics(engine.NewMetrics(reg)),
	)
	if err != nil {
		return err
	}

	var report engine.Report
	if opts.awaitReady {
		report, err = e.RunWhenReady(ctx, opts.readySignal(ctx))
	} else {
		report, err = e.Run(ctx)
	}

	if opts.cfg.MetricsFile != "" {
		if werr := prometheus.WriteToTextfile(opts.cfg.MetricsFile, reg); werr != nil {
			opts.logger.Warn(ctx, "failed to write metrics file",
				"path", opts.cfg.MetricsFile,
				"error", werr.Error())
		}
	}

	if err != nil {
		return err
	}
	if err := sink.Err(); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to write events")
	}
	if opts.strict {
		return strictError(report)
	}
	return nil
}

// readySignal closes the returned channel once a line is read from stdin.
//
// The reading goroutine cannot be interrupted: when ctx is cancelled while
// stdin stays open it remains blocked in Scan until the process exits.
func (opts *syncOpts) readySignal(ctx context.Context) <-chan struct{} {
	ready := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(opts.stdin)
		if scanner.Scan() {
			close(ready)
		}
	}()
	opts.logger.Info(ctx, "waiting for ready signal on stdin")
	return ready
}

func strictError(report engine.Report) error {
	if !report.RemoteOK {
		return errors.New(errors.CodeUnavailable, "remote catalog could not be fetched")
	}
	if len(report.Failed) > 0 {
		return errors.WithContext(
			errors.New(errors.CodeUnavailable, fmt.Sprintf("%d asset(s) failed to download", len(report.Failed))),
			"urls", report.Failed)
	}
	return nil
}
