package types

import (
	"io/fs"
)

// FS is the filesystem interface required for root registration
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)

	// Directory operations. Mkdir is non-recursive and fails when the
	// parent does not exist.
	Mkdir(path string, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Symlink operations
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)

	// Remove deletes a file, symlink or empty directory. It never
	// recurses.
	Remove(name string) error
}
