//go:build linux

package platform

import (
	"errors"
	"io/fs"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// FileTimes reads the creation, access and modification times of path.
//
// Creation time comes from statx(2) when the filesystem records a birth time
// and falls back to the inode change time otherwise. Kernels without statx
// fall back to the stat data already carried by info.
func FileTimes(path string, info fs.FileInfo) (Times, error) {
	var stx unix.Statx_t
	mask := unix.STATX_ATIME | unix.STATX_MTIME | unix.STATX_CTIME | unix.STATX_BTIME
	err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, mask, &stx)
	if errors.Is(err, unix.ENOSYS) {
		return statTimes(info), nil
	}
	if err != nil {
		return Times{}, &fs.PathError{Op: "statx", Path: path, Err: err}
	}

	t := Times{
		Accessed: statxTime(stx.Atime),
		Modified: statxTime(stx.Mtime),
		Created:  statxTime(stx.Ctime),
	}
	if stx.Mask&unix.STATX_BTIME != 0 {
		t.Created = statxTime(stx.Btime)
	}
	return t, nil
}

func statxTime(ts unix.StatxTimestamp) time.Time {
	return time.Unix(ts.Sec, int64(ts.Nsec))
}

func statTimes(info fs.FileInfo) Times {
	t := Times{Created: info.ModTime(), Accessed: info.ModTime(), Modified: info.ModTime()}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		t.Accessed = time.Unix(st.Atim.Unix())
		t.Created = time.Unix(st.Ctim.Unix())
	}
	return t
}
