package main

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/Nikhil-z/farnsworth/engine"
)

type statusOpts struct {
	*rootOpts
	json bool
}

func newStatus(parent *rootOpts) *statusOpts {
	return &statusOpts{rootOpts: parent}
}

func (opts *statusOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show the cached assets and whether each is available offline",
		Example: "  farnsworth status --cache-dir ./cache",
		Args:    cobra.NoArgs,
		RunE:    opts.RunE,
	}
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON instead of a table")
	return cmd
}

func (opts *statusOpts) RunE(cmd *cobra.Command, _ []string) error {
	e, err := opts.newEngine()
	if err != nil {
		return err
	}

	status := e.Status(cmd.Context())
	if opts.json {
		return writeStatusJSON(cmd.OutOrStdout(), status)
	}
	return writeStatusTable(cmd.OutOrStdout(), status)
}

func writeStatusTable(out io.Writer, status []engine.AssetStatus) error {
	table := uitable.New()
	table.MaxColWidth = 80
	table.AddRow("URL", "FILENAME", "AVAILABLE")
	for _, s := range status {
		table.AddRow(s.URL, s.Filename, strconv.FormatBool(s.Available))
	}
	_, err := out.Write(append(table.Bytes(), '\n'))
	return err
}

type statusEntry struct {
	URL       string `json:"url"`
	Filename  string `json:"filename"`
	Available bool   `json:"available"`
}

func writeStatusJSON(out io.Writer, status []engine.AssetStatus) error {
	entries := make([]statusEntry, 0, len(status))
	for _, s := range status {
		entries = append(entries, statusEntry{URL: s.URL, Filename: s.Filename, Available: s.Available})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
