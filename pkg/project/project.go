// Package project describes a project checkout: the file that defines it,
// a stable identifier, and the directory holding its root links.
package project

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"

	"github.com/arthur-debert/nixroots/pkg/errors"
	"github.com/arthur-debert/nixroots/pkg/paths"
	"github.com/arthur-debert/nixroots/pkg/types"
)

// Project is one checkout of a project, identified by its project file
type Project struct {
	file     string
	cacheDir string
	fs       types.FS
}

// New creates a Project for projectFile. The file is made absolute and
// must exist as a regular file. Root directories are kept under cacheDir,
// which is also made absolute.
func New(projectFile, cacheDir string, fs types.FS) (*Project, error) {
	abs, err := filepath.Abs(projectFile)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to get absolute path for %s", projectFile)
	}

	info, err := fs.Stat(abs)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrProjectInvalid, "project file %s is not accessible", abs).
			WithDetail("path", abs)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.Newf(errors.ErrProjectInvalid, "project file %s is not a regular file", abs).
			WithDetail("path", abs)
	}

	// Root links are targeted by absolute path from the collector side
	absCache, err := filepath.Abs(cacheDir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to get absolute path for %s", cacheDir)
	}

	return &Project{file: abs, cacheDir: absCache, fs: fs}, nil
}

// File returns the absolute path of the project file
func (p *Project) File() string {
	return p.file
}

// ID returns an identifier that is stable for this checkout and differs
// between checkouts. It is hex encoded and never contains separators.
func (p *Project) ID() string {
	sum := sha256.Sum256([]byte(p.file))
	return hex.EncodeToString(sum[:])
}

// RootDir returns the directory holding this project's root links. It
// may not exist yet.
func (p *Project) RootDir() string {
	return paths.ProjectRootDir(p.cacheDir, p.ID())
}

// GCRootPath returns the directory holding this project's root links,
// creating it when missing.
func (p *Project) GCRootPath() (string, error) {
	dir := p.RootDir()
	if err := p.fs.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, errors.ErrDirCreate, "failed to create root directory %s", dir).
			WithDetail("path", dir)
	}
	return dir, nil
}
