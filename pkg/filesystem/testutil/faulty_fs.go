// Package testutil provides filesystem doubles for tests.
package testutil

import (
	"io/fs"

	"github.com/arthur-debert/nixroots/pkg/types"
)

// Filesystem operations that can be intercepted
const (
	OpStat     = "stat"
	OpLstat    = "lstat"
	OpMkdir    = "mkdir"
	OpReadDir  = "readdir"
	OpSymlink  = "symlink"
	OpReadlink = "readlink"
	OpRemove   = "remove"
)

// FaultyFS wraps a real types.FS and lets tests inject failures or run a
// hook right before a given operation on a given path. Symlink is keyed on
// the link being created, not its target.
type FaultyFS struct {
	types.FS

	errors map[string]error
	before map[string]func()
	calls  []string
}

// NewFaultyFS wraps base
func NewFaultyFS(base types.FS) *FaultyFS {
	return &FaultyFS{
		FS:     base,
		errors: make(map[string]error),
		before: make(map[string]func()),
	}
}

// FailOn makes op on path return err without reaching the wrapped FS
func (f *FaultyFS) FailOn(op, path string, err error) *FaultyFS {
	f.errors[key(op, path)] = err
	return f
}

// Before runs fn right before op on path reaches the wrapped FS. It is
// used to simulate another process changing the filesystem between two
// calls.
func (f *FaultyFS) Before(op, path string, fn func()) *FaultyFS {
	f.before[key(op, path)] = fn
	return f
}

// Calls returns every intercepted call as "op:path", in order
func (f *FaultyFS) Calls() []string {
	return f.calls
}

func key(op, path string) string {
	return op + ":" + path
}

func (f *FaultyFS) intercept(op, path string) error {
	k := key(op, path)
	f.calls = append(f.calls, k)
	if fn, ok := f.before[k]; ok {
		fn()
	}
	return f.errors[k]
}

func (f *FaultyFS) Stat(name string) (fs.FileInfo, error) {
	if err := f.intercept(OpStat, name); err != nil {
		return nil, err
	}
	return f.FS.Stat(name)
}

func (f *FaultyFS) Lstat(name string) (fs.FileInfo, error) {
	if err := f.intercept(OpLstat, name); err != nil {
		return nil, err
	}
	return f.FS.Lstat(name)
}

func (f *FaultyFS) Mkdir(path string, perm fs.FileMode) error {
	if err := f.intercept(OpMkdir, path); err != nil {
		return err
	}
	return f.FS.Mkdir(path, perm)
}

func (f *FaultyFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if err := f.intercept(OpReadDir, name); err != nil {
		return nil, err
	}
	return f.FS.ReadDir(name)
}

func (f *FaultyFS) Symlink(oldname, newname string) error {
	if err := f.intercept(OpSymlink, newname); err != nil {
		return err
	}
	return f.FS.Symlink(oldname, newname)
}

func (f *FaultyFS) Readlink(name string) (string, error) {
	if err := f.intercept(OpReadlink, name); err != nil {
		return "", err
	}
	return f.FS.Readlink(name)
}

func (f *FaultyFS) Remove(name string) error {
	if err := f.intercept(OpRemove, name); err != nil {
		return err
	}
	return f.FS.Remove(name)
}
