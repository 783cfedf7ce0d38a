// Package config loads the farnsworth configuration.
//
// Configuration comes from an optional YAML, JSON or CUE file and from flag
// overrides. The merged values are unified with an embedded CUE schema that
// supplies defaults and rejects unknown or malformed fields, then decoded
// into a Config.
package config

import (
	"context"
	_ "embed"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/jmgilman/go/fs/core"
	"gopkg.in/yaml.v3"

	"github.com/Nikhil-z/farnsworth/engine"
)

//go:embed schema.cue
var schemaSource []byte

// Field names as they appear in configuration files.
const (
	FieldCatalogURL   = "catalog_url"
	FieldManifestPath = "manifest_path"
	FieldCacheDir     = "cache_dir"
	FieldLogLevel     = "log_level"
	FieldUserAgent    = "user_agent"
	FieldLockFile     = "lock_file"
	FieldMetricsFile  = "metrics_file"
)

// DefaultManifestFile is the manifest file name used when no manifest path
// is configured. It is created inside the cache directory.
const DefaultManifestFile = "manifest.json"

// DefaultLockFile is the lock file name used when none is configured. It is
// created inside the cache directory.
const DefaultLockFile = ".farnsworth.lock"

// Config is the validated configuration.
type Config struct {
	CatalogURL   string `json:"catalog_url"`
	ManifestPath string `json:"manifest_path,omitempty"`
	CacheDir     string `json:"cache_dir"`
	LogLevel     string `json:"log_level"`
	UserAgent    string `json:"user_agent"`
	LockFile     string `json:"lock_file,omitempty"`
	MetricsFile  string `json:"metrics_file,omitempty"`
}

// Engine returns the engine configuration.
func (c *Config) Engine() engine.Config {
	return engine.Config{
		CatalogURL:   c.CatalogURL,
		ManifestPath: c.ManifestPath,
		CacheDir:     c.CacheDir,
	}
}

// LockPath returns the lock file path, defaulting to DefaultLockFile in the
// cache directory.
func (c *Config) LockPath() string {
	if c.LockFile != "" {
		return c.LockFile
	}
	return filepath.Join(c.CacheDir, DefaultLockFile)
}

// Load reads the file at path, applies overrides and validates the result.
// An empty path skips the file. Empty override values are ignored.
//
// Returns errors.CodeInvalidConfig for unreadable files and invalid values.
func Load(ctx context.Context, fs core.ReadFS, path string, overrides map[string]string) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapConfigError(err, "context cancelled", path)
	}

	cueCtx := cuecontext.New()

	values := map[string]interface{}{}
	if path != "" {
		fileValues, err := readFile(cueCtx, fs, path)
		if err != nil {
			return nil, err
		}
		values = fileValues
	}

	for key, value := range overrides {
		if value != "" {
			values[key] = value
		}
	}

	return validate(cueCtx, values, path)
}

func readFile(cueCtx *cue.Context, fs core.ReadFS, path string) (map[string]interface{}, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, wrapConfigError(err, "failed to read config file", path)
	}

	values := map[string]interface{}{}
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		v := cueCtx.CompileBytes(data, cue.Filename(path))
		if err := v.Err(); err != nil {
			return nil, wrapConfigErrorWithDetails(err, "failed to compile config file", path)
		}
		if err := v.Decode(&values); err != nil {
			return nil, wrapConfigErrorWithDetails(err, "failed to evaluate config file", path)
		}
		return values, nil
	}

	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, wrapConfigError(err, "failed to parse config file", path)
	}
	if values == nil {
		values = map[string]interface{}{}
	}
	return values, nil
}

func validate(cueCtx *cue.Context, values map[string]interface{}, path string) (*Config, error) {
	schema := cueCtx.CompileBytes(schemaSource, cue.Filename("schema.cue")).
		LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return nil, wrapConfigErrorWithDetails(err, "invalid config schema", path)
	}

	data := cueCtx.Encode(values)
	if err := data.Err(); err != nil {
		return nil, wrapConfigErrorWithDetails(err, "failed to encode config values", path)
	}

	unified := schema.Unify(data)
	if err := unified.Validate(cue.Concrete(true), cue.Final(), cue.All()); err != nil {
		return nil, wrapConfigErrorWithDetails(err, "config validation failed", path)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, wrapConfigErrorWithDetails(err, "failed to decode config", path)
	}
	if cfg.ManifestPath == "" {
		cfg.ManifestPath = filepath.Join(cfg.CacheDir, DefaultManifestFile)
	}
	return &cfg, nil
}

// details renders every CUE error in err, one per line.
func details(err error) string {
	return strings.TrimSpace(cueerrors.Details(err, nil))
}
