// Package paths provides centralized path handling for nixroots.
//
// It owns two layouts:
//
//   - The collector layout, rooted at the collector state directory
//     (default /nix/var/nix/). Per-user roots live in
//     <state_dir>/gcroots/per-user/<user>/ and each registered root appears
//     there as <project_id>-<name>.
//   - The nixroots layout, following the XDG Base Directory specification.
//     Project root directories live under the cache directory as
//     <cache_dir>/gc_roots/<project_id>/gc_root; configuration lives in
//     $XDG_CONFIG_HOME/nixroots/config.toml and the log file in
//     $XDG_STATE_HOME/nixroots/nixroots.log.
//
// # Environment Variables
//
//   - NIX_STATE_DIR: collector state directory override
//   - USER: the user whose per-user roots directory is used
//   - NIXROOTS_CACHE_DIR: override the cache directory
//   - NIXROOTS_CONFIG_DIR: override the config directory
//
// # Usage
//
//	dir := paths.PerUserRootsDir(paths.StateDirOrDefault(""), "alice")
//	// /nix/var/nix/gcroots/per-user/alice
//	link := filepath.Join(dir, paths.CollectorLinkName("3f2a...", "shell"))
package paths
