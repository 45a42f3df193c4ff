package fileset

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/assembly/internal/testutil"
)

func TestArchiveFileSetPrefixClosure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.CreateFiles(t, dir, map[string]string{
		"a/b/c/d/e/f/file.txt": "deep",
	})

	a := NewArchive(dir, NewOverrides(WithPrefix("/usr/local/inversoft/main/")))
	listing, err := a.List()
	require.NoError(t, err)

	assert.Equal(t, []string{"usr/local/inversoft/main/a/b/c/d/e/f/file.txt"}, relatives(listing.Files))
	assert.Equal(t, []string{
		"usr",
		"usr/local",
		"usr/local/inversoft",
		"usr/local/inversoft/main",
		"usr/local/inversoft/main/a",
		"usr/local/inversoft/main/a/b",
		"usr/local/inversoft/main/a/b/c",
		"usr/local/inversoft/main/a/b/c/d",
		"usr/local/inversoft/main/a/b/c/d/e",
		"usr/local/inversoft/main/a/b/c/d/e/f",
	}, names(listing.Directories))
}

func TestArchiveFileSetPrefixLevelsUseRootMetadata(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.CreateFiles(t, dir, map[string]string{"sub/file.txt": "x"})
	testutil.Chmod(t, dir, ".", 0o711)
	testutil.Chmod(t, dir, "sub", 0o750)
	t.Cleanup(func() { testutil.Chmod(t, dir, ".", 0o755) })

	dirs, err := NewArchive(dir, NewOverrides(WithPrefix("opt/app"))).ListDirectories()
	require.NoError(t, err)
	require.Equal(t, []string{"opt", "opt/app", "opt/app/sub"}, names(dirs))
	assert.Equal(t, fs.FileMode(0o711), dirs[0].Mode)
	assert.Equal(t, fs.FileMode(0o711), dirs[1].Mode)
	assert.Equal(t, fs.FileMode(0o750), dirs[2].Mode)
}

func TestArchiveFileSetOverridesAreIndependent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.CreateFiles(t, dir, map[string]string{"bin/tool": "#!/bin/sh"})
	testutil.Chmod(t, dir, "bin/tool", 0o644)
	testutil.Chmod(t, dir, "bin", 0o700)

	t.Run("file mode only", func(t *testing.T) {
		t.Parallel()
		listing, err := NewArchive(dir, NewOverrides(WithMode(0o755))).List()
		require.NoError(t, err)
		assert.Equal(t, fs.FileMode(0o755), listing.Files[0].Mode)
		assert.Equal(t, fs.FileMode(0o700), listing.Directories[0].Mode)
	})

	t.Run("dir mode only", func(t *testing.T) {
		t.Parallel()
		listing, err := NewArchive(dir, NewOverrides(WithDirMode(0o755))).List()
		require.NoError(t, err)
		assert.Equal(t, fs.FileMode(0o644), listing.Files[0].Mode)
		assert.Equal(t, fs.FileMode(0o755), listing.Directories[0].Mode)
	})

	t.Run("names", func(t *testing.T) {
		t.Parallel()
		o := NewOverrides(WithUserName("app"), WithDirGroupName("staff"))
		listing, err := NewArchive(dir, o).List()
		require.NoError(t, err)

		f := listing.Files[0]
		assert.Equal(t, "app", f.UserName)
		assert.Zero(t, f.UID)

		d := listing.Directories[0]
		assert.Equal(t, "staff", d.GroupName)
		assert.Zero(t, d.GID)
		assert.NotEqual(t, "app", d.UserName)
	})
}

func TestOverridesArePure(t *testing.T) {
	t.Parallel()

	files := []FileInfo{{Relative: "a.txt", Mode: 0o600, UserName: "me"}}
	dirs := []Directory{{Name: "a", Mode: 0o700}}
	o := NewOverrides(WithPrefix("p"), WithMode(0o644), WithUserName("root"), WithDirMode(0o755))

	gotFiles := o.ApplyFiles(files)
	gotDirs := o.ApplyDirectories(dirs)

	assert.Equal(t, "p/a.txt", gotFiles[0].Relative)
	assert.Equal(t, fs.FileMode(0o644), gotFiles[0].Mode)
	assert.Equal(t, "root", gotFiles[0].UserName)
	assert.Equal(t, fs.FileMode(0o755), gotDirs[0].Mode)

	assert.Equal(t, "a.txt", files[0].Relative)
	assert.Equal(t, fs.FileMode(0o600), files[0].Mode)
	assert.Equal(t, "me", files[0].UserName)
	assert.Equal(t, fs.FileMode(0o700), dirs[0].Mode)
}

func TestOverridesZeroModeIsDistinctFromUnset(t *testing.T) {
	t.Parallel()

	files := []FileInfo{{Relative: "a", Mode: 0o644}}

	assert.Equal(t, fs.FileMode(0o644), Overrides{}.ApplyFiles(files)[0].Mode)
	assert.Equal(t, fs.FileMode(0), NewOverrides(WithMode(0)).ApplyFiles(files)[0].Mode)

	mode, ok := NewOverrides(WithMode(0)).Mode()
	assert.True(t, ok)
	assert.Zero(t, mode)
	_, ok = Overrides{}.DirMode()
	assert.False(t, ok)
}

func TestArchiveFileSetWithoutPrefixMatchesBase(t *testing.T) {
	t.Parallel()

	dir := sourceTree(t)
	base, err := New(dir).List()
	require.NoError(t, err)
	archive, err := NewArchive(dir, Overrides{}).List()
	require.NoError(t, err)

	assert.Equal(t, relatives(base.Files), relatives(archive.Files))
	assert.Equal(t, names(base.Directories), names(archive.Directories))
}
