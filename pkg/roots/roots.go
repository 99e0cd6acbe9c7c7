package roots

import (
	stderrors "errors"
	"io/fs"
	"path/filepath"

	"github.com/arthur-debert/nixroots/pkg/errors"
	"github.com/arthur-debert/nixroots/pkg/logging"
	"github.com/arthur-debert/nixroots/pkg/paths"
	"github.com/arthur-debert/nixroots/pkg/project"
	"github.com/arthur-debert/nixroots/pkg/types"
)

// Roots manages the named roots of one project
type Roots struct {
	rootDir string
	id      string
	env     Environment
	fs      types.FS
}

// New creates a Roots managing roots within rootDir. rootDir must already
// exist. projectID is a unique identifier for the project's checkout and
// namespaces the collector-visible links.
func New(rootDir, projectID string, env Environment, fs types.FS) *Roots {
	return &Roots{
		rootDir: rootDir,
		id:      projectID,
		env:     env,
		fs:      fs,
	}
}

// FromProject creates a Roots for the project's root directory and ID,
// creating the directory if needed.
func FromProject(p *project.Project, env Environment, fs types.FS) (*Roots, error) {
	dir, err := p.GCRootPath()
	if err != nil {
		return nil, err
	}
	return New(dir, p.ID(), env, fs), nil
}

// ID returns the project identifier
func (r *Roots) ID() string {
	return r.id
}

// Add stores a new root under name, replacing any previous root of that
// name, and returns the project-local link path.
//
// The project-local link <root_dir>/<name> is pointed at storePath, then
// the collector-visible link is pointed at the project-local link. Each
// existing entry is removed before its replacement is created. Nothing is
// rolled back when a later step fails.
func (r *Roots) Add(name, storePath string) (string, error) {
	if err := r.validate(name); err != nil {
		return "", err
	}
	if err := paths.ValidateAbsolute("store path", storePath); err != nil {
		return "", err
	}

	logger := logging.GetLogger("roots")
	path := filepath.Join(r.rootDir, name)

	logger.Debug().Str("from", storePath).Str("to", path).Msg("Adding root")
	if err := r.removeIfExists(path); err != nil {
		return "", err
	}
	if err := r.symlink(storePath, path); err != nil {
		return "", err
	}

	userDir := r.env.perUserDir()
	r.ensureDir(userDir)
	root := filepath.Join(userDir, paths.CollectorLinkName(r.id, name))

	logger.Debug().Str("from", path).Str("to", root).Msg("Connecting root")
	if err := r.removeIfExists(root); err != nil {
		return "", err
	}
	if err := r.symlink(path, root); err != nil {
		return "", err
	}

	logger.Info().Str("name", name).Str("store_path", storePath).Msg("Root registered")
	return path, nil
}

// Remove deletes both links of the root called name. Missing links are
// not an error. The collector-visible link goes first so the collector
// never follows it into a removed project-local link.
func (r *Roots) Remove(name string) error {
	if err := r.validate(name); err != nil {
		return err
	}

	path := filepath.Join(r.rootDir, name)
	root := filepath.Join(r.env.perUserDir(), paths.CollectorLinkName(r.id, name))

	logger := logging.GetLogger("roots")
	logger.Debug().Str("path", path).Str("root", root).Msg("Removing root")
	if err := r.removeIfExists(root); err != nil {
		return err
	}
	return r.removeIfExists(path)
}

func (r *Roots) validate(name string) error {
	if err := paths.ValidateSegment("root name", name); err != nil {
		return err
	}
	return paths.ValidateSegment("project id", r.id)
}

// removeIfExists removes path. An already absent entry counts as success.
func (r *Roots) removeIfExists(path string) error {
	err := r.fs.Remove(path)
	if err == nil || stderrors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return errors.Wrapf(err, errors.ErrRootRemove, "failed to remove %s", path).
		WithDetail("path", path)
}

func (r *Roots) symlink(from, to string) error {
	if err := r.fs.Symlink(from, to); err != nil {
		return errors.Wrapf(err, errors.ErrRootSymlink, "failed to link %s -> %s", to, from).
			WithDetail("from", from).
			WithDetail("to", to)
	}
	return nil
}

// ensureDir creates dir (non-recursively) when it is missing. Anything
// other than a directory at dir, or a failure to create it, means the
// collector's state layout is unusable and panics.
func (r *Roots) ensureDir(dir string) {
	info, err := r.fs.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			panic(&MisconfigurationError{Reason: "per-user roots path is not a directory", Path: dir})
		}
		return
	case !stderrors.Is(err, fs.ErrNotExist):
		panic(&MisconfigurationError{Reason: "cannot inspect per-user roots directory", Path: dir, Err: err})
	}

	logger := logging.GetLogger("roots")
	logger.Info().Str("path", dir).Msg("Creating per-user roots directory")
	if err := r.fs.Mkdir(dir, 0755); err != nil {
		// Another registration may have created it first
		if stderrors.Is(err, fs.ErrExist) {
			if info, statErr := r.fs.Stat(dir); statErr == nil && info.IsDir() {
				return
			}
		}
		panic(&MisconfigurationError{Reason: "cannot create per-user roots directory", Path: dir, Err: err})
	}
}
