package platform

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTimesModified(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	mtime := time.Date(2020, 5, 17, 10, 30, 0, 0, time.UTC)
	atime := time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, atime, mtime))

	info, err := os.Lstat(path)
	require.NoError(t, err)

	times, err := FileTimes(path, info)
	require.NoError(t, err)
	assert.True(t, times.Modified.Equal(mtime), "modified %v", times.Modified)
	assert.False(t, times.Created.IsZero())
	if runtime.GOOS == "linux" {
		assert.True(t, times.Accessed.Equal(atime), "accessed %v", times.Accessed)
	}
}

func TestFileTimesMissing(t *testing.T) {
	t.Parallel()
	if runtime.GOOS != "linux" {
		t.Skip("statx is linux only")
	}

	dir := t.TempDir()
	info, err := os.Lstat(dir)
	require.NoError(t, err)

	_, err = FileTimes(filepath.Join(dir, "missing"), info)
	require.Error(t, err)
}

func TestNameResolverCurrentUser(t *testing.T) {
	t.Parallel()
	if !supportsOwners() {
		t.Skip("owners not supported")
	}

	cur, err := user.Current()
	require.NoError(t, err)
	uid, err := strconv.ParseUint(cur.Uid, 10, 32)
	require.NoError(t, err)

	r := NewNameResolver(4)
	assert.Equal(t, cur.Username, r.UserName(uint32(uid)))
	// Second call is served from the cache.
	assert.Equal(t, cur.Username, r.UserName(uint32(uid)))
	assert.Equal(t, 1, r.users.Len())
}

func TestNameResolverUnknownID(t *testing.T) {
	t.Parallel()
	if !supportsOwners() {
		t.Skip("owners not supported")
	}

	r := NewNameResolver(0)
	assert.Equal(t, "4000000001", r.UserName(4000000001))
	assert.Equal(t, "4000000002", r.GroupName(4000000002))
}

func TestFileOwnerMatchesProcess(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("no owners on windows")
	}

	path := filepath.Join(t.TempDir(), "owned")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	info, err := os.Lstat(path)
	require.NoError(t, err)

	uid, _ := FileOwner(info)
	assert.Equal(t, uint32(os.Getuid()), uid) //nolint:gosec // uid is non-negative on unix
}

func TestNameResolverIDs(t *testing.T) {
	t.Parallel()
	if !supportsOwners() {
		t.Skip("owners not supported")
	}

	cur, err := user.Current()
	require.NoError(t, err)
	uid, err := strconv.ParseUint(cur.Uid, 10, 32)
	require.NoError(t, err)

	r := NewNameResolver(0)
	got, ok := r.UserID(cur.Username)
	require.True(t, ok)
	assert.Equal(t, uint32(uid), got)

	got, ok = r.UserID("4000000001")
	require.True(t, ok)
	assert.Equal(t, uint32(4000000001), got)

	_, ok = r.UserID("no-such-user-for-assembly")
	assert.False(t, ok)
	_, ok = r.GroupID("no-such-group-for-assembly")
	assert.False(t, ok)
	_, ok = r.UserID("")
	assert.False(t, ok)
}
