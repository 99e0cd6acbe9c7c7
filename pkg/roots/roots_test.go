// pkg/roots/roots_test.go
// TEST TYPE: Registrar Tests
// DEPENDENCIES: Real filesystem (ALLOWED for roots package)
// PURPOSE: Test root registration, replacement and the failure taxonomy

package roots_test

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/nixroots/pkg/errors"
	"github.com/arthur-debert/nixroots/pkg/filesystem"
	"github.com/arthur-debert/nixroots/pkg/filesystem/testutil"
	"github.com/arthur-debert/nixroots/pkg/project"
	"github.com/arthur-debert/nixroots/pkg/roots"
	"github.com/arthur-debert/nixroots/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUser = "tester"
	testID   = "P123"
)

// testEnv is a throwaway project root directory plus a collector state
// directory whose gcroots/per-user parent exists but whose per-user
// directory does not.
type testEnv struct {
	rootDir  string
	stateDir string
	env      roots.Environment
}

func (e testEnv) perUserDir() string {
	return filepath.Join(e.stateDir, "gcroots", "per-user", testUser)
}

func (e testEnv) collectorLink(name string) string {
	return filepath.Join(e.perUserDir(), testID+"-"+name)
}

func setupTestEnvironment(t *testing.T) testEnv {
	t.Helper()

	tempDir := t.TempDir()
	rootDir := filepath.Join(tempDir, "project", "gc_root")
	stateDir := filepath.Join(tempDir, "state")

	require.NoError(t, os.MkdirAll(rootDir, 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(stateDir, "gcroots", "per-user"), 0755))

	return testEnv{
		rootDir:  rootDir,
		stateDir: stateDir,
		env:      roots.Environment{StateDir: stateDir, User: testUser},
	}
}

func readlink(t *testing.T, path string) string {
	t.Helper()
	target, err := os.Readlink(path)
	require.NoError(t, err)
	return target
}

// recoverMisconfiguration runs fn and returns the MisconfigurationError it
// panicked with, failing the test if it did not panic that way.
func recoverMisconfiguration(t *testing.T, fn func()) (merr *roots.MisconfigurationError) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		var ok bool
		merr, ok = r.(*roots.MisconfigurationError)
		require.True(t, ok, "panic value %#v is not a MisconfigurationError", r)
	}()
	fn()
	return nil
}

func TestAdd_TwoHopResolution(t *testing.T) {
	te := setupTestEnvironment(t)
	r := roots.New(te.rootDir, testID, te.env, filesystem.NewOS())

	path, err := r.Add("out", "/store/abc")
	require.NoError(t, err)

	local := filepath.Join(te.rootDir, "out")
	assert.Equal(t, local, path)
	assert.Equal(t, "/store/abc", readlink(t, local))
	assert.Equal(t, local, readlink(t, te.collectorLink("out")))

	// The missing per-user directory was created on the way
	info, err := os.Stat(te.perUserDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestAdd_ExistingPerUserDirectory(t *testing.T) {
	te := setupTestEnvironment(t)
	require.NoError(t, os.Mkdir(te.perUserDir(), 0755))
	before, err := os.Stat(te.perUserDir())
	require.NoError(t, err)

	ffs := testutil.NewFaultyFS(filesystem.NewOS())
	r := roots.New(te.rootDir, testID, te.env, ffs)

	path, err := r.Add("dev", "/store/xyz")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(te.rootDir, "dev"), path)
	assert.Equal(t, "/store/xyz", readlink(t, path))
	assert.Equal(t, path, readlink(t, te.collectorLink("dev")))

	after, err := os.Stat(te.perUserDir())
	require.NoError(t, err)
	assert.True(t, os.SameFile(before, after))
	assert.NotContains(t, ffs.Calls(), testutil.OpMkdir+":"+te.perUserDir())
}

func TestAdd_Idempotent(t *testing.T) {
	te := setupTestEnvironment(t)
	r := roots.New(te.rootDir, testID, te.env, filesystem.NewOS())

	first, err := r.Add("shell", "/store/abc")
	require.NoError(t, err)
	second, err := r.Add("shell", "/store/abc")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "/store/abc", readlink(t, first))
	assert.Equal(t, first, readlink(t, te.collectorLink("shell")))

	entries, err := os.ReadDir(te.perUserDir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAdd_Replacement(t *testing.T) {
	te := setupTestEnvironment(t)
	r := roots.New(te.rootDir, testID, te.env, filesystem.NewOS())

	path, err := r.Add("shell", "/store/old")
	require.NoError(t, err)
	replaced, err := r.Add("shell", "/store/new")
	require.NoError(t, err)

	assert.Equal(t, path, replaced)
	assert.Equal(t, "/store/new", readlink(t, path))
	assert.Equal(t, path, readlink(t, te.collectorLink("shell")))
}

func TestAdd_ReplacesExistingEntries(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, te testEnv)
	}{
		{
			name: "plain_file_at_project_link",
			setup: func(t *testing.T, te testEnv) {
				require.NoError(t, os.WriteFile(filepath.Join(te.rootDir, "out"), []byte("stale"), 0644))
			},
		},
		{
			name: "plain_file_at_collector_link",
			setup: func(t *testing.T, te testEnv) {
				require.NoError(t, os.Mkdir(te.perUserDir(), 0755))
				require.NoError(t, os.WriteFile(te.collectorLink("out"), []byte("stale"), 0644))
			},
		},
		{
			name: "empty_directory_at_project_link",
			setup: func(t *testing.T, te testEnv) {
				require.NoError(t, os.Mkdir(filepath.Join(te.rootDir, "out"), 0755))
			},
		},
		{
			name: "dangling_symlinks_at_both",
			setup: func(t *testing.T, te testEnv) {
				require.NoError(t, os.Mkdir(te.perUserDir(), 0755))
				require.NoError(t, os.Symlink("/nowhere", filepath.Join(te.rootDir, "out")))
				require.NoError(t, os.Symlink("/nowhere", te.collectorLink("out")))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := setupTestEnvironment(t)
			tt.setup(t, te)
			r := roots.New(te.rootDir, testID, te.env, filesystem.NewOS())

			path, err := r.Add("out", "/store/abc")
			require.NoError(t, err)

			assert.Equal(t, "/store/abc", readlink(t, path))
			assert.Equal(t, path, readlink(t, te.collectorLink("out")))
		})
	}
}

func TestAdd_NonEmptyDirectory(t *testing.T) {
	t.Run("at_project_link", func(t *testing.T) {
		te := setupTestEnvironment(t)
		blocked := filepath.Join(te.rootDir, "out")
		require.NoError(t, os.MkdirAll(filepath.Join(blocked, "child"), 0755))
		r := roots.New(te.rootDir, testID, te.env, filesystem.NewOS())

		_, err := r.Add("out", "/store/abc")
		require.Error(t, err)

		assert.True(t, errors.IsErrorCode(err, errors.ErrRootRemove))
		assert.True(t, errors.IsAddRootError(err))
		assert.Equal(t, blocked, errors.GetErrorDetails(err)["path"])
		assert.Contains(t, err.Error(), blocked)

		// Nothing beyond the failure point happened
		_, statErr := os.Lstat(te.perUserDir())
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("at_collector_link", func(t *testing.T) {
		te := setupTestEnvironment(t)
		blocked := te.collectorLink("out")
		require.NoError(t, os.MkdirAll(filepath.Join(blocked, "child"), 0755))
		r := roots.New(te.rootDir, testID, te.env, filesystem.NewOS())

		_, err := r.Add("out", "/store/abc")
		require.Error(t, err)

		assert.True(t, errors.IsErrorCode(err, errors.ErrRootRemove))
		assert.Equal(t, blocked, errors.GetErrorDetails(err)["path"])

		// The first hop was already in place and is not rolled back
		assert.Equal(t, "/store/abc", readlink(t, filepath.Join(te.rootDir, "out")))
	})
}

func TestAdd_RemovalFailure(t *testing.T) {
	te := setupTestEnvironment(t)
	local := filepath.Join(te.rootDir, "out")
	ffs := testutil.NewFaultyFS(filesystem.NewOS()).
		FailOn(testutil.OpRemove, local, &fs.PathError{Op: "remove", Path: local, Err: fs.ErrPermission})
	r := roots.New(te.rootDir, testID, te.env, ffs)

	_, err := r.Add("out", "/store/abc")
	require.Error(t, err)

	assert.True(t, errors.IsErrorCode(err, errors.ErrRootRemove))
	assert.True(t, stderrors.Is(err, fs.ErrPermission))
	assert.Equal(t, local, errors.GetErrorDetails(err)["path"])
}

func TestAdd_SymlinkRace(t *testing.T) {
	te := setupTestEnvironment(t)
	local := filepath.Join(te.rootDir, "out")

	// Another process recreates the path between removal and linking
	ffs := testutil.NewFaultyFS(filesystem.NewOS()).
		Before(testutil.OpSymlink, local, func() {
			require.NoError(t, os.Symlink("/store/other", local))
		})
	r := roots.New(te.rootDir, testID, te.env, ffs)

	_, err := r.Add("out", "/store/abc")
	require.Error(t, err)

	assert.True(t, errors.IsErrorCode(err, errors.ErrRootSymlink))
	assert.True(t, errors.IsAddRootError(err))
	assert.True(t, stderrors.Is(err, fs.ErrExist))

	details := errors.GetErrorDetails(err)
	assert.Equal(t, "/store/abc", details["from"])
	assert.Equal(t, local, details["to"])
	assert.Contains(t, err.Error(), "/store/abc")
	assert.Contains(t, err.Error(), local)

	// No retry: the competing link is left alone
	assert.Equal(t, "/store/other", readlink(t, local))
}

func TestAdd_CollectorSymlinkFailure(t *testing.T) {
	te := setupTestEnvironment(t)
	collector := te.collectorLink("out")
	ffs := testutil.NewFaultyFS(filesystem.NewOS()).
		FailOn(testutil.OpSymlink, collector, &fs.PathError{Op: "symlink", Path: collector, Err: fs.ErrPermission})
	r := roots.New(te.rootDir, testID, te.env, ffs)

	_, err := r.Add("out", "/store/abc")
	require.Error(t, err)

	assert.True(t, errors.IsErrorCode(err, errors.ErrRootSymlink))
	details := errors.GetErrorDetails(err)
	assert.Equal(t, filepath.Join(te.rootDir, "out"), details["from"])
	assert.Equal(t, collector, details["to"])
}

func TestAdd_ConcurrentPerUserDirectoryCreation(t *testing.T) {
	te := setupTestEnvironment(t)

	// Another registration creates the directory first
	ffs := testutil.NewFaultyFS(filesystem.NewOS()).
		Before(testutil.OpMkdir, te.perUserDir(), func() {
			require.NoError(t, os.Mkdir(te.perUserDir(), 0755))
		})
	r := roots.New(te.rootDir, testID, te.env, ffs)

	path, err := r.Add("out", "/store/abc")
	require.NoError(t, err)
	assert.Equal(t, path, readlink(t, te.collectorLink("out")))
}

func TestAdd_InvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		root      string
		storePath string
	}{
		{"empty_name", testID, "", "/store/abc"},
		{"name_with_separator", testID, "a/b", "/store/abc"},
		{"dot_name", testID, ".", "/store/abc"},
		{"dotdot_name", testID, "..", "/store/abc"},
		{"relative_store_path", testID, "out", "store/abc"},
		{"empty_store_path", testID, "out", ""},
		{"id_with_separator", "a/b", "out", "/store/abc"},
		{"empty_id", "", "out", "/store/abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := setupTestEnvironment(t)
			r := roots.New(te.rootDir, tt.id, te.env, filesystem.NewOS())

			_, err := r.Add(tt.root, tt.storePath)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
			assert.True(t, errors.IsAddRootError(err))

			entries, err := os.ReadDir(te.rootDir)
			require.NoError(t, err)
			assert.Empty(t, entries, "rejected input must not touch the filesystem")
		})
	}
}

func TestAdd_BackslashIsOrdinaryCharacter(t *testing.T) {
	if os.PathSeparator == '\\' {
		t.Skip("backslash separates paths on this platform")
	}

	te := setupTestEnvironment(t)
	r := roots.New(te.rootDir, testID, te.env, filesystem.NewOS())

	path, err := r.Add(`a\b`, "/store/abc")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(te.rootDir, `a\b`), path)
	assert.Equal(t, "/store/abc", readlink(t, path))
	assert.Equal(t, path, readlink(t, te.collectorLink(`a\b`)))

	root, err := r.Status(`a\b`)
	require.NoError(t, err)
	assert.Equal(t, path, root.CollectorTarget)
	assert.Equal(t, types.RootStateDangling, root.State)
}

func TestAdd_Misconfiguration(t *testing.T) {
	t.Run("user_unknown", func(t *testing.T) {
		te := setupTestEnvironment(t)
		env := roots.Environment{StateDir: te.stateDir}
		r := roots.New(te.rootDir, testID, env, filesystem.NewOS())

		merr := recoverMisconfiguration(t, func() {
			_, _ = r.Add("out", "/store/abc")
		})
		assert.Contains(t, merr.Error(), "USER")

		// The first hop is created before the user is looked up
		assert.Equal(t, "/store/abc", readlink(t, filepath.Join(te.rootDir, "out")))
	})

	t.Run("per_user_path_is_a_file", func(t *testing.T) {
		te := setupTestEnvironment(t)
		require.NoError(t, os.WriteFile(te.perUserDir(), nil, 0644))
		r := roots.New(te.rootDir, testID, te.env, filesystem.NewOS())

		merr := recoverMisconfiguration(t, func() {
			_, _ = r.Add("out", "/store/abc")
		})
		assert.Equal(t, te.perUserDir(), merr.Path)
		assert.Nil(t, merr.Err)
	})

	t.Run("per_user_parent_missing", func(t *testing.T) {
		te := setupTestEnvironment(t)
		env := roots.Environment{StateDir: filepath.Join(te.stateDir, "missing"), User: testUser}
		r := roots.New(te.rootDir, testID, env, filesystem.NewOS())

		merr := recoverMisconfiguration(t, func() {
			_, _ = r.Add("out", "/store/abc")
		})
		assert.True(t, stderrors.Is(merr, fs.ErrNotExist))
	})

	t.Run("inspection_failure_uses_default_state_dir", func(t *testing.T) {
		te := setupTestEnvironment(t)
		perUser := "/nix/var/nix/gcroots/per-user/" + testUser
		ffs := testutil.NewFaultyFS(filesystem.NewOS()).
			FailOn(testutil.OpStat, perUser, fs.ErrPermission)
		r := roots.New(te.rootDir, testID, roots.Environment{User: testUser}, ffs)

		merr := recoverMisconfiguration(t, func() {
			_, _ = r.Add("out", "/store/abc")
		})
		assert.Equal(t, perUser, merr.Path)
		assert.True(t, stderrors.Is(merr, fs.ErrPermission))
	})
}

func TestRemove(t *testing.T) {
	te := setupTestEnvironment(t)
	r := roots.New(te.rootDir, testID, te.env, filesystem.NewOS())

	path, err := r.Add("out", "/store/abc")
	require.NoError(t, err)

	require.NoError(t, r.Remove("out"))

	_, err = os.Lstat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Lstat(te.collectorLink("out"))
	assert.True(t, os.IsNotExist(err))

	// Removing again, or removing a root that never existed, is fine
	assert.NoError(t, r.Remove("out"))
	assert.NoError(t, r.Remove("never-added"))
}

func TestRemove_CollectorLinkFirst(t *testing.T) {
	te := setupTestEnvironment(t)
	ffs := testutil.NewFaultyFS(filesystem.NewOS())
	r := roots.New(te.rootDir, testID, te.env, ffs)

	_, err := r.Add("out", "/store/abc")
	require.NoError(t, err)
	ffs.FailOn(testutil.OpRemove, te.collectorLink("out"), fs.ErrPermission)

	err = r.Remove("out")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrRootRemove))

	// The project-local link survives so the chain stays intact
	assert.Equal(t, "/store/abc", readlink(t, filepath.Join(te.rootDir, "out")))
}

func TestFromProject(t *testing.T) {
	te := setupTestEnvironment(t)
	dir := t.TempDir()
	projectFile := filepath.Join(dir, "shell.nix")
	require.NoError(t, os.WriteFile(projectFile, []byte("{}"), 0644))

	osfs := filesystem.NewOS()
	p, err := project.New(projectFile, filepath.Join(dir, "cache"), osfs)
	require.NoError(t, err)

	r, err := roots.FromProject(p, te.env, osfs)
	require.NoError(t, err)
	assert.Equal(t, p.ID(), r.ID())

	rootDir, err := p.GCRootPath()
	require.NoError(t, err)

	path, err := r.Add("shell", "/store/abc")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(rootDir, "shell"), path)

	collector := filepath.Join(te.perUserDir(), p.ID()+"-shell")
	assert.Equal(t, path, readlink(t, collector))
}

func TestStatusAndList(t *testing.T) {
	te := setupTestEnvironment(t)
	r := roots.New(te.rootDir, testID, te.env, filesystem.NewOS())

	storeDir := t.TempDir()
	present := filepath.Join(storeDir, "abc-present")
	require.NoError(t, os.WriteFile(present, nil, 0644))

	_, err := r.Add("b-live", present)
	require.NoError(t, err)
	_, err = r.Add("a-dangling", filepath.Join(storeDir, "gone"))
	require.NoError(t, err)
	_, err = r.Add("c-orphan", present)
	require.NoError(t, err)

	// Point c-orphan's collector link somewhere else
	require.NoError(t, os.Remove(te.collectorLink("c-orphan")))
	require.NoError(t, os.Symlink("/elsewhere", te.collectorLink("c-orphan")))

	// Regular files in the root directory are not roots
	require.NoError(t, os.WriteFile(filepath.Join(te.rootDir, "notes.txt"), nil, 0644))

	t.Run("status", func(t *testing.T) {
		root, err := r.Status("b-live")
		require.NoError(t, err)

		assert.Equal(t, types.RootStateRegistered, root.State)
		assert.True(t, root.Registered())
		assert.True(t, root.StoreExists)
		assert.Equal(t, present, root.StorePath)
		assert.Equal(t, te.collectorLink("b-live"), root.CollectorLink)
		assert.Equal(t, root.Path, root.CollectorTarget)
	})

	t.Run("status_missing_root", func(t *testing.T) {
		_, err := r.Status("missing")
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
	})

	t.Run("list", func(t *testing.T) {
		list, err := r.List()
		require.NoError(t, err)
		require.Len(t, list, 3)

		assert.Equal(t, "a-dangling", list[0].Name)
		assert.Equal(t, types.RootStateDangling, list[0].State)
		assert.True(t, list[0].Registered())

		assert.Equal(t, "b-live", list[1].Name)
		assert.Equal(t, types.RootStateRegistered, list[1].State)

		assert.Equal(t, "c-orphan", list[2].Name)
		assert.Equal(t, types.RootStateUnregistered, list[2].State)
		assert.Equal(t, "/elsewhere", list[2].CollectorTarget)
		assert.False(t, list[2].Registered())
	})
}

func TestList_MissingRootDirectory(t *testing.T) {
	te := setupTestEnvironment(t)
	r := roots.New(filepath.Join(te.rootDir, "absent"), testID, te.env, filesystem.NewOS())

	list, err := r.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestList_ForeignEntries(t *testing.T) {
	t.Run("backslash_name_is_listed", func(t *testing.T) {
		if os.PathSeparator == '\\' {
			t.Skip("backslash separates paths on this platform")
		}

		te := setupTestEnvironment(t)
		r := roots.New(te.rootDir, testID, te.env, filesystem.NewOS())

		_, err := r.Add("out", "/store/abc")
		require.NoError(t, err)
		require.NoError(t, os.Symlink("/store/def", filepath.Join(te.rootDir, `x\y`)))

		list, err := r.List()
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "out", list[0].Name)
		assert.Equal(t, `x\y`, list[1].Name)
		assert.Equal(t, types.RootStateUnregistered, list[1].State)
	})

	t.Run("unregistrable_name_is_skipped", func(t *testing.T) {
		te := setupTestEnvironment(t)
		base := filesystem.NewOS()
		r := roots.New(te.rootDir, testID, te.env, base)
		_, err := r.Add("out", "/store/abc")
		require.NoError(t, err)

		listing := &extraEntryFS{FS: base, dir: te.rootDir, extra: symlinkEntry("a/b")}
		list, err := roots.New(te.rootDir, testID, te.env, listing).List()
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "out", list[0].Name)
	})
}

// extraEntryFS reports one additional entry when listing dir
type extraEntryFS struct {
	types.FS
	dir   string
	extra fs.DirEntry
}

func (e *extraEntryFS) ReadDir(name string) ([]fs.DirEntry, error) {
	entries, err := e.FS.ReadDir(name)
	if err != nil || name != e.dir {
		return entries, err
	}
	return append(entries, e.extra), nil
}

type symlinkEntry string

func (s symlinkEntry) Name() string               { return string(s) }
func (s symlinkEntry) IsDir() bool                { return false }
func (s symlinkEntry) Type() fs.FileMode          { return fs.ModeSymlink }
func (s symlinkEntry) Info() (fs.FileInfo, error) { return nil, fs.ErrNotExist }

func TestList_InvalidProjectID(t *testing.T) {
	te := setupTestEnvironment(t)
	r := roots.New(te.rootDir, "a/b", te.env, filesystem.NewOS())

	_, err := r.List()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}
