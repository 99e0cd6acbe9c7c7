package nixroots

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Protect build outputs from garbage collection"
	MsgRootLong        = `nixroots registers garbage collection roots for store paths.

Each root is a symlink in the project's own root directory, reachable by the
collector through a second symlink in the per-user gcroots directory. Roots
survive collection for as long as the project checkout keeps them.`
	MsgAddShort        = "Register or replace a root for a store path"
	MsgRemoveShort     = "Remove a root"
	MsgStatusShort     = "Show the state of one root"
	MsgListShort       = "List the roots of the project"
	MsgConfigShort     = "Print the effective configuration"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	// Flags
	MsgFlagVerbose  = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig   = "Config file (default $XDG_CONFIG_HOME/nixroots/config.toml)"
	MsgFlagProject  = "Project file identifying the checkout (default shell.nix)"
	MsgFlagRootDir  = "Use this existing directory for project-local links instead of the project's"
	MsgFlagID       = "Project identifier to use with --root-dir"
	MsgFlagOutput   = "Output format: text, json or yaml"
	MsgFlagDefaults = "Print the built-in defaults instead of the effective configuration"

	// Status messages
	MsgRootRemoved = "Removed root '%s'\n"
	MsgNoRoots     = "No roots registered."
	MsgVersion     = "nixroots version %s\n  commit: %s\n  built:  %s\n"

	// Error messages
	MsgErrLoadConfig    = "failed to load configuration: %w"
	MsgErrOpenProject   = "failed to open project: %w"
	MsgErrRootDirNeedID = "--root-dir and --id must be given together"
	MsgErrAddRoot       = "failed to add root '%s': %w"
	MsgErrRemoveRoot    = "failed to remove root '%s': %w"
	MsgErrListRoots     = "failed to list roots: %w"
	MsgErrOutputFormat  = "unknown output format %q (want text, json or yaml)"
)

// Embedded message files
var (
	//go:embed add-long.txt
	msgAddLongRaw string
	MsgAddLong    = strings.TrimSpace(msgAddLongRaw)

	//go:embed add-example.txt
	msgAddExampleRaw string
	MsgAddExample    = strings.TrimRight(msgAddExampleRaw, "\n")
)
