package config

import (
	"os"

	"github.com/arthur-debert/nixroots/pkg/errors"
	"github.com/arthur-debert/nixroots/pkg/paths"
	"github.com/arthur-debert/nixroots/pkg/roots"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Config is the effective nixroots configuration
type Config struct {
	Collector CollectorConfig `koanf:"collector" toml:"collector"`
	Project   ProjectConfig   `koanf:"project" toml:"project"`
}

// CollectorConfig locates the collector's per-user roots directory
type CollectorConfig struct {
	StateDir string `koanf:"state_dir" toml:"state_dir"`
	User     string `koanf:"user" toml:"user"`
}

// ProjectConfig controls where project root directories live
type ProjectConfig struct {
	CacheDir string `koanf:"cache_dir" toml:"cache_dir"`
	File     string `koanf:"file" toml:"file"`
}

// envKeys maps the environment variables nixroots reads to config keys.
// Anything else in the environment is ignored.
var envKeys = map[string]string{
	paths.EnvNixStateDir: "collector.state_dir",
	paths.EnvUser:        "collector.user",
	paths.EnvCacheDir:    "project.cache_dir",
}

// Load builds the configuration.
//
// Precedence (highest to lowest):
//  1. Environment variables (NIX_STATE_DIR, USER, NIXROOTS_CACHE_DIR)
//  2. The config file: configPath if given, otherwise
//     $XDG_CONFIG_HOME/nixroots/config.toml when it exists
//  3. Embedded defaults
//
// An explicitly requested config file that does not exist is an error.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultConfig), toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	path := configPath
	if path == "" {
		path = paths.ConfigFilePath()
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load config from %s", path).
				WithDetail("path", path)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment variables")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to decode configuration")
	}

	cfg.Collector.StateDir = paths.ExpandHome(cfg.Collector.StateDir)
	cfg.Project.CacheDir = paths.ExpandHome(cfg.Project.CacheDir)
	if cfg.Project.CacheDir == "" {
		cfg.Project.CacheDir = paths.CacheDir()
	}
	if cfg.Project.File == "" {
		cfg.Project.File = paths.DefaultProjectFile
	}

	return &cfg, nil
}

// Environment returns the collector settings the registrar needs
func (c *Config) Environment() roots.Environment {
	return roots.Environment{
		StateDir: c.Collector.StateDir,
		User:     c.Collector.User,
	}
}
