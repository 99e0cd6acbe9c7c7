package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOS(t *testing.T) {
	fs := NewOS()
	assert.NotNil(t, fs)

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")

	require.NoError(t, os.WriteFile(testFile, []byte("hello world"), 0644))

	info, err := fs.Stat(testFile)
	require.NoError(t, err)
	assert.Equal(t, "test.txt", info.Name())

	// Symlinks are reported as such by Lstat and followed by Stat
	link := filepath.Join(tmpDir, "link")
	require.NoError(t, fs.Symlink(testFile, link))

	linfo, err := fs.Lstat(link)
	require.NoError(t, err)
	assert.True(t, linfo.Mode()&os.ModeSymlink != 0)

	sinfo, err := fs.Stat(link)
	require.NoError(t, err)
	assert.True(t, sinfo.Mode().IsRegular())

	target, err := fs.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, testFile, target)

	// Mkdir does not create parents, MkdirAll does
	nested := filepath.Join(tmpDir, "a", "b")
	assert.True(t, os.IsNotExist(fs.Mkdir(nested, 0755)))
	require.NoError(t, fs.MkdirAll(nested, 0755))

	entries, err := fs.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Len(t, entries, 3) // test.txt, link and a/

	// Remove does not recurse into non-empty directories
	assert.Error(t, fs.Remove(filepath.Join(tmpDir, "a")))

	require.NoError(t, fs.Remove(link))
	_, err = fs.Lstat(link)
	assert.True(t, os.IsNotExist(err))

	// The link target is untouched
	_, err = fs.Stat(testFile)
	assert.NoError(t, err)
}
