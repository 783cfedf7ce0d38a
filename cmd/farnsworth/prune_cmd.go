package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Nikhil-z/farnsworth/cachedir"
)

type pruneOpts struct {
	*rootOpts
}

func newPrune(parent *rootOpts) *pruneOpts {
	return &pruneOpts{rootOpts: parent}
}

func (opts *pruneOpts) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove cache files the manifest does not reference",
		Long: `Remove every file in the cache directory that no asset of the persisted
manifest references. The remote catalog is not consulted.`,
		Example: "  farnsworth prune --cache-dir ./cache",
		Args:    cobra.NoArgs,
		RunE:    opts.RunE,
	}
}

func (opts *pruneOpts) RunE(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	lock, err := acquireLock(ctx, opts.fs, opts.cfg.LockPath(), lockTimeout)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	e, err := opts.newEngine()
	if err != nil {
		return err
	}

	writePruneResult(cmd.OutOrStdout(), e.Prune(ctx))
	return nil
}

// writePruneResult prints removed files, then failures in lexical order.
func writePruneResult(out io.Writer, result cachedir.PruneResult) {
	for _, name := range result.Removed {
		fmt.Fprintf(out, "removed %s\n", name)
	}

	failed := make([]string, 0, len(result.Failed))
	for name := range result.Failed {
		failed = append(failed, name)
	}
	sort.Strings(failed)
	for _, name := range failed {
		fmt.Fprintf(out, "failed %s: %v\n", name, result.Failed[name])
	}
	fmt.Fprintf(out, "%d removed, %d failed\n", len(result.Removed), len(result.Failed))
}
