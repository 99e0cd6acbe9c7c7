package roots

import (
	stderrors "errors"
	"io/fs"
	"path/filepath"

	"github.com/arthur-debert/nixroots/pkg/errors"
	"github.com/arthur-debert/nixroots/pkg/logging"
	"github.com/arthur-debert/nixroots/pkg/paths"
	"github.com/arthur-debert/nixroots/pkg/types"
)

// Status reports the state of the root called name without modifying
// anything.
func (r *Roots) Status(name string) (types.Root, error) {
	if err := r.validate(name); err != nil {
		return types.Root{}, err
	}

	path := filepath.Join(r.rootDir, name)
	target, err := r.fs.Readlink(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return types.Root{}, errors.Newf(errors.ErrNotFound, "no root named %q", name).
				WithDetail("path", path)
		}
		return types.Root{}, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", path).
			WithDetail("path", path)
	}

	root := types.Root{
		Name:          name,
		Path:          path,
		StorePath:     target,
		CollectorLink: filepath.Join(r.env.perUserDir(), paths.CollectorLinkName(r.id, name)),
	}

	if collectorTarget, err := r.fs.Readlink(root.CollectorLink); err == nil {
		root.CollectorTarget = collectorTarget
	}
	if _, err := r.fs.Stat(target); err == nil {
		root.StoreExists = true
	}

	switch {
	case root.CollectorTarget != path:
		root.State = types.RootStateUnregistered
	case !root.StoreExists:
		root.State = types.RootStateDangling
	default:
		root.State = types.RootStateRegistered
	}

	return root, nil
}

// List returns the status of every root in the project root directory,
// ordered by name. Entries that are not symlinks, or whose names could not
// have been registered, are skipped.
func (r *Roots) List() ([]types.Root, error) {
	if err := paths.ValidateSegment("project id", r.id); err != nil {
		return nil, err
	}

	// ReadDir returns entries sorted by filename
	entries, err := r.fs.ReadDir(r.rootDir)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return []types.Root{}, nil
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read root directory %s", r.rootDir).
			WithDetail("path", r.rootDir)
	}

	logger := logging.GetLogger("roots")
	result := make([]types.Root, 0, len(entries))
	for _, entry := range entries {
		if entry.Type()&fs.ModeSymlink == 0 {
			continue
		}
		root, err := r.Status(entry.Name())
		if errors.IsErrorCode(err, errors.ErrInvalidInput) {
			logger.Warn().Err(err).Str("entry", entry.Name()).Msg("Skipping foreign entry in root directory")
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, root)
	}
	return result, nil
}
