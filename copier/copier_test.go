package copier

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/assembly/fileset"
	"github.com/meigma/assembly/internal/testutil"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCopyPlain(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	testutil.CreateFiles(t, src, map[string]string{
		"a.txt":       "alpha",
		"sub/b.txt":   "bravo",
		"sub/x/c.txt": "charlie",
	})
	testutil.Chmod(t, src, "sub/b.txt", 0o600)

	dest := filepath.Join(t.TempDir(), "out")
	c := New(dest, WithWorkers(2))
	require.NoError(t, c.AddFileSet(fileset.New(src)))

	stats, err := c.Copy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Files)
	assert.Equal(t, uint64(len("alpha")+len("bravo")+len("charlie")), stats.Bytes)

	assert.Equal(t, "alpha", readFile(t, filepath.Join(dest, "a.txt")))
	assert.Equal(t, "charlie", readFile(t, filepath.Join(dest, "sub", "x", "c.txt")))

	info, err := os.Stat(filepath.Join(dest, "sub", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o600), info.Mode().Perm())
}

func TestCopyFilters(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	testutil.CreateFiles(t, src, map[string]string{
		"org/savantbuild/io/Copier.java":     "public class %TOKEN1% {\n  @Token5(x)\n}\n",
		"org/savantbuild/io/FileSet.java":    "class FileSet {}",
		"org/savantbuild/dep/Dependency.txt": "%TOKEN1%",
	})

	includes, err := fileset.CompilePatterns(`.*/io/.*`)
	require.NoError(t, err)
	excludes, err := fileset.CompilePatterns(`.*FileSet.*`)
	require.NoError(t, err)

	dest := t.TempDir()
	c := New(dest)
	require.NoError(t, c.AddFileSet(fileset.New(src,
		fileset.WithIncludePatterns(includes...),
		fileset.WithExcludePatterns(excludes...),
	)))
	c.AddToken("%TOKEN1%", "token1")
	c.AddPattern(regexp.MustCompile(`\n.*@Token5\(\w*\)\n`), " and ")

	stats, err := c.Copy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Files)

	assert.Equal(t, "public class token1 { and }\n",
		readFile(t, filepath.Join(dest, "org", "savantbuild", "io", "Copier.java")))
	assert.NoFileExists(t, filepath.Join(dest, "org", "savantbuild", "io", "FileSet.java"))
	assert.NoFileExists(t, filepath.Join(dest, "org", "savantbuild", "dep", "Dependency.txt"))
}

func TestCopyPatternSubmatches(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	testutil.CreateFiles(t, src, map[string]string{"v.properties": "version=1.2.3\nname=app\n"})

	dest := t.TempDir()
	c := New(dest)
	require.NoError(t, c.AddFileSet(fileset.New(src)))
	c.AddPattern(regexp.MustCompile(`version=(\d+)\.(\d+)\.\d+`), "version=$1.$2.0")

	_, err := c.Copy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "version=1.2.0\nname=app\n", readFile(t, filepath.Join(dest, "v.properties")))
}

func TestCopyFirstFileSetWins(t *testing.T) {
	t.Parallel()

	first, second := t.TempDir(), t.TempDir()
	testutil.CreateFiles(t, first, map[string]string{"same.txt": "first"})
	testutil.CreateFiles(t, second, map[string]string{"same.txt": "second", "only.txt": "only"})

	dest := t.TempDir()
	c := New(dest)
	require.NoError(t, c.AddFileSet(fileset.New(first)))
	require.NoError(t, c.AddFileSet(fileset.New(second)))

	stats, err := c.Copy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, "first", readFile(t, filepath.Join(dest, "same.txt")))
	assert.Equal(t, "only", readFile(t, filepath.Join(dest, "only.txt")))
}

func TestCopyArchiveFileSetUsesPrefixAndMode(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	testutil.CreateFiles(t, src, map[string]string{"bin/run": "#!/bin/sh\n"})

	dest := t.TempDir()
	c := New(dest)
	overrides := fileset.NewOverrides(fileset.WithPrefix("opt/app"), fileset.WithMode(0o755))
	require.NoError(t, c.AddFileSet(fileset.NewArchive(src, overrides)))

	_, err := c.Copy(context.Background())
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dest, "opt", "app", "bin", "run"))
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o755), info.Mode().Perm())
}

func TestCopyRejectsMissingFileSet(t *testing.T) {
	t.Parallel()

	c := New(t.TempDir())
	err := c.AddFileSet(fileset.New(filepath.Join(t.TempDir(), "missing")))
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestCopyCanceled(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	testutil.CreateFiles(t, src, map[string]string{"a.txt": "a"})

	c := New(t.TempDir())
	require.NoError(t, c.AddFileSet(fileset.New(src)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Copy(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCopyManyFilesSucceeds(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	files := make(map[string]string)
	for i := range 32 {
		files[filepath.Join("d", strconv.Itoa(i%4), strconv.Itoa(i)+".txt")] = strconv.Itoa(i)
	}
	testutil.CreateFiles(t, src, files)

	for _, workers := range []int{1, 4} {
		dest := t.TempDir()
		c := New(dest, WithWorkers(workers))
		require.NoError(t, c.AddFileSet(fileset.New(src)))

		stats, err := c.Copy(context.Background())
		require.NoError(t, err, "workers=%d", workers)
		assert.Equal(t, len(files), stats.Files)
		for rel, content := range files {
			assert.Equal(t, content, readFile(t, filepath.Join(dest, rel)))
		}
	}
}
