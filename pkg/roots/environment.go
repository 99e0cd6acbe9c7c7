package roots

import (
	"fmt"

	"github.com/arthur-debert/nixroots/pkg/paths"
)

// Environment carries the process-wide settings the registrar depends on.
// They are passed in rather than read from the process so callers and
// tests control them.
type Environment struct {
	// StateDir is the collector state directory. Empty selects
	// paths.DefaultStateDir.
	StateDir string

	// User owns the per-user roots directory. Empty means the user could
	// not be determined.
	User string
}

// stateDir returns the configured state directory or the default
func (e Environment) stateDir() string {
	return paths.StateDirOrDefault(e.StateDir)
}

// perUserDir returns the collector-visible directory for e.User. It
// panics when the user is unknown.
func (e Environment) perUserDir() string {
	if e.User == "" {
		panic(&MisconfigurationError{
			Reason: "current user is unknown; set USER or collector.user",
		})
	}
	return paths.PerUserRootsDir(e.stateDir(), e.User)
}

// MisconfigurationError reports an environment in which no root can ever
// be registered. It is raised with panic, never returned.
type MisconfigurationError struct {
	Reason string
	Path   string
	Err    error
}

func (e *MisconfigurationError) Error() string {
	msg := "misconfigured collector environment: " + e.Reason
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *MisconfigurationError) Unwrap() error {
	return e.Err
}
