package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Environment variable names
const (
	// EnvNixStateDir overrides the collector state directory
	EnvNixStateDir = "NIX_STATE_DIR"

	// EnvUser names the user owning the per-user roots directory
	EnvUser = "USER"

	// EnvCacheDir overrides the XDG cache directory for nixroots
	EnvCacheDir = "NIXROOTS_CACHE_DIR"

	// EnvConfigDir overrides the XDG config directory for nixroots
	EnvConfigDir = "NIXROOTS_CONFIG_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Collector layout. These names are dictated by the collector and must not
// be made configurable.
const (
	// DefaultStateDir is used when no state directory override is set
	DefaultStateDir = "/nix/var/nix/"

	// GCRootsDir is the collector's roots directory under the state dir
	GCRootsDir = "gcroots"

	// PerUserDir holds one roots directory per user
	PerUserDir = "per-user"
)

// nixroots layout
const (
	// AppDirName is the directory name for nixroots-specific files
	AppDirName = "nixroots"

	// ProjectRootsDir holds one directory per project under the cache dir
	ProjectRootsDir = "gc_roots"

	// ProjectRootDirName is the leaf directory holding a project's links
	ProjectRootDirName = "gc_root"

	// ConfigFileName is the name of the user configuration file
	ConfigFileName = "config.toml"

	// LogFileName is the name of the log file
	LogFileName = "nixroots.log"

	// DefaultProjectFile is the project file looked up in the working directory
	DefaultProjectFile = "shell.nix"
)

// StateDirOrDefault returns stateDir, or DefaultStateDir when it is empty.
func StateDirOrDefault(stateDir string) string {
	if stateDir == "" {
		return DefaultStateDir
	}
	return stateDir
}

// PerUserRootsDir returns <stateDir>/gcroots/per-user/<user>.
func PerUserRootsDir(stateDir, user string) string {
	return filepath.Join(stateDir, GCRootsDir, PerUserDir, user)
}

// CollectorLinkName returns the name of a root inside the per-user
// directory. The project id namespaces roots of different checkouts.
func CollectorLinkName(projectID, name string) string {
	return projectID + "-" + name
}

// ProjectRootDir returns the directory holding the project-local links
// of the project identified by projectID.
func ProjectRootDir(cacheDir, projectID string) string {
	return filepath.Join(cacheDir, ProjectRootsDir, projectID, ProjectRootDirName)
}

// CacheDir returns the nixroots cache directory, honouring EnvCacheDir.
func CacheDir() string {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		return ExpandHome(dir)
	}
	return filepath.Join(xdg.CacheHome, AppDirName)
}

// ConfigDir returns the nixroots config directory, honouring EnvConfigDir.
func ConfigDir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return ExpandHome(dir)
	}
	return filepath.Join(xdg.ConfigHome, AppDirName)
}

// ConfigFilePath returns the default location of the user config file
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), ConfigFileName)
}

// LogFilePath returns the path to the log file.
// It respects XDG_STATE_HOME if set at call time.
func LogFilePath() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		stateHome = xdg.StateHome
	}
	return filepath.Join(stateHome, AppDirName, LogFileName)
}

// ExpandHome expands a leading ~ to the home directory
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to HOME env var
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			// Can't expand, return as-is
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}

	// Handle both ~/ and ~
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}

	// ~something (not the user's home)
	return path
}
