package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmgilman/go/fs/billy"
	"github.com/jmgilman/go/fs/core"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Nikhil-z/farnsworth/config"
	"github.com/Nikhil-z/farnsworth/engine"
	"github.com/Nikhil-z/farnsworth/internal/logging"
	"github.com/Nikhil-z/farnsworth/remote"
)

// EnvVariableConfig names the config file when --config is not given.
const EnvVariableConfig = "FARNSWORTH_CONFIG"

type rootOpts struct {
	configFile  string
	catalogURL  string
	manifest    string
	cacheDir    string
	logLevel    string
	userAgent   string
	lockFile    string
	metricsFile string

	stdin  io.Reader
	fs     core.FS
	cfg    *config.Config
	logger *logging.Logger
}

func newRoot(stdin io.Reader) *rootOpts {
	return &rootOpts{stdin: stdin}
}

var rootLongHelp = strings.TrimSpace(`
farnsworth keeps a local cache of catalogued assets in sync with a remote
catalog, so they can be served without network access.

Workflow:
  farnsworth sync --catalog-url https://example.com/catalog.json --cache-dir ./cache
  farnsworth status --cache-dir ./cache   # What is cached and available?
  farnsworth prune --cache-dir ./cache    # Remove files no asset references.
`)

func (opts *rootOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "farnsworth",
		Short:             "Synchronize a local asset cache with a remote catalog",
		Long:              rootLongHelp,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: opts.PersistentPreRunE,
	}
	opts.addFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newSync(opts).Command(),
		newStatus(opts).Command(),
		newPrune(opts).Command(),
		newVersionCommand(),
	)
	return cmd
}

func (opts *rootOpts) addFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&opts.configFile, "config", "c", "",
		"config file (YAML, JSON or CUE); you can also set the environment variable "+EnvVariableConfig)
	fs.StringVar(&opts.catalogURL, "catalog-url", "", "remote catalog URL")
	fs.StringVar(&opts.manifest, "manifest", "", "manifest file path (default <cache-dir>/"+config.DefaultManifestFile+")")
	fs.StringVar(&opts.cacheDir, "cache-dir", "", "cache directory")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&opts.userAgent, "user-agent", "", "User-Agent header for remote requests")
	fs.StringVar(&opts.lockFile, "lock-file", "", "lock file path (default <cache-dir>/"+config.DefaultLockFile+")")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "write prometheus metrics to this file after a sync")
}

// PersistentPreRunE loads the configuration and sets up logging.
func (opts *rootOpts) PersistentPreRunE(cmd *cobra.Command, _ []string) error {
	configFile := opts.configFile
	if !cmd.Flags().Changed("config") && configFile == "" {
		configFile = os.Getenv(EnvVariableConfig)
	}

	var err error
	if configFile, err = absPath(configFile); err != nil {
		return err
	}

	if opts.fs == nil {
		opts.fs = billy.NewLocal()
	}

	cfg, err := config.Load(cmd.Context(), opts.fs, configFile, map[string]string{
		config.FieldCatalogURL:   opts.catalogURL,
		config.FieldManifestPath: opts.manifest,
		config.FieldCacheDir:     opts.cacheDir,
		config.FieldLogLevel:     opts.logLevel,
		config.FieldUserAgent:    opts.userAgent,
		config.FieldLockFile:     opts.lockFile,
		config.FieldMetricsFile:  opts.metricsFile,
	})
	if err != nil {
		return err
	}

	// The local filesystem is rooted at "/", so every path must be absolute.
	for _, p := range []*string{&cfg.ManifestPath, &cfg.CacheDir, &cfg.LockFile, &cfg.MetricsFile} {
		if *p, err = absPath(*p); err != nil {
			return err
		}
	}
	opts.cfg = cfg

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	opts.logger = logging.New(logging.Config{
		Level:  level,
		Output: cmd.ErrOrStderr(),
	})
	return nil
}

// newEngine creates an engine for the loaded configuration.
func (opts *rootOpts) newEngine(extra ...engine.Option) (*engine.Engine, error) {
	client := remote.NewClient(remote.WithUserAgent(opts.cfg.UserAgent))

	engineOpts := []engine.Option{
		engine.WithFilesystem(opts.fs),
		engine.WithFetcher(client),
		engine.WithDownloader(client),
		engine.WithLogger(opts.logger),
	}

	lockPath := opts.cfg.LockPath()
	if filepath.Dir(lockPath) == filepath.Clean(opts.cfg.CacheDir) {
		engineOpts = append(engineOpts, engine.WithIgnore(filepath.Base(lockPath)))
	}

	return engine.New(opts.cfg.Engine(), append(engineOpts, extra...)...)
}

func absPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	return filepath.Abs(p)
}
