// Package testutil provides helpers for building directory trees and reading
// archives back in tests.
package testutil

import (
	"archive/tar"
	"encoding/binary"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

// CreateFiles writes files under dir, creating parent directories with mode
// 0755. Files are written with mode 0644.
func CreateFiles(tb testing.TB, dir string, files map[string]string) {
	tb.Helper()
	for path, content := range files {
		fullPath := filepath.Join(dir, filepath.FromSlash(path))
		require.NoError(tb, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(tb, os.WriteFile(fullPath, []byte(content), 0o644))
	}
}

// Chmod sets the mode of dir/path.
func Chmod(tb testing.TB, dir, path string, mode fs.FileMode) {
	tb.Helper()
	require.NoError(tb, os.Chmod(filepath.Join(dir, filepath.FromSlash(path)), mode))
}

// Entry is one archive member as read back from disk.
type Entry struct {
	Name    string
	Dir     bool
	Mode    fs.FileMode
	UID     int
	GID     int
	Uname   string
	Gname   string
	ModTime time.Time
	Content string

	// HasOwner reports whether a zip entry carries the Info-ZIP Unix
	// uid/gid field. Tar entries always carry ids.
	HasOwner bool
}

// Archive is the decoded contents of an archive.
type Archive struct {
	Entries []Entry

	// Comment is the zip archive comment.
	Comment string

	// GlobalPAX holds the records of a tar global header.
	GlobalPAX map[string]string
}

// Names returns the entry names in archive order.
func (a Archive) Names() []string {
	names := make([]string, len(a.Entries))
	for i, e := range a.Entries {
		names[i] = e.Name
	}
	return names
}

// Find returns the entry named name.
func (a Archive) Find(name string) (Entry, bool) {
	for _, e := range a.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// ReadZip decodes a zip or jar archive.
func ReadZip(tb testing.TB, path string) Archive {
	tb.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(tb, err)
	defer r.Close()

	out := Archive{Comment: r.Comment}
	for _, f := range r.File {
		e := Entry{
			Name:    f.Name,
			Dir:     strings.HasSuffix(f.Name, "/"),
			Mode:    f.Mode().Perm(),
			ModTime: f.Modified,
		}
		e.UID, e.GID, e.HasOwner = zipOwner(f.Extra)
		if !e.Dir {
			rc, err := f.Open()
			require.NoError(tb, err)
			data, err := io.ReadAll(rc)
			require.NoError(tb, err)
			require.NoError(tb, rc.Close())
			e.Content = string(data)
		}
		out.Entries = append(out.Entries, e)
	}
	return out
}

// zipOwner extracts uid and gid from the Info-ZIP new Unix extra field
// (0x7875).
func zipOwner(extra []byte) (uid, gid int, ok bool) {
	for len(extra) >= 4 {
		id := binary.LittleEndian.Uint16(extra)
		size := int(binary.LittleEndian.Uint16(extra[2:]))
		extra = extra[4:]
		if size > len(extra) {
			return 0, 0, false
		}
		payload := extra[:size]
		extra = extra[size:]
		if id != 0x7875 || len(payload) < 2 {
			continue
		}
		payload = payload[1:] // version
		u, rest, okU := readZipID(payload)
		g, _, okG := readZipID(rest)
		return u, g, okU && okG
	}
	return 0, 0, false
}

func readZipID(b []byte) (int, []byte, bool) {
	if len(b) < 1 {
		return 0, nil, false
	}
	n := int(b[0])
	b = b[1:]
	if n > len(b) || n > 8 {
		return 0, nil, false
	}
	var buf [8]byte
	copy(buf[:], b[:n])
	return int(binary.LittleEndian.Uint64(buf[:])), b[n:], true //nolint:gosec // ids are 32-bit
}

// ReadTar decodes a tar archive, decompressing by file extension
// (.tar.gz, .tgz, .tar.zst).
func ReadTar(tb testing.TB, path string) Archive {
	tb.Helper()
	f, err := os.Open(path)
	require.NoError(tb, err)
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"), strings.HasSuffix(path, ".tgz"):
		zr, err := gzip.NewReader(f)
		require.NoError(tb, err)
		defer zr.Close()
		r = zr
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		require.NoError(tb, err)
		defer zr.Close()
		r = zr
	}

	var out Archive
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(tb, err)
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			out.GlobalPAX = hdr.PAXRecords
			continue
		}
		e := Entry{
			Name:    hdr.Name,
			Dir:     hdr.Typeflag == tar.TypeDir,
			Mode:    fs.FileMode(hdr.Mode).Perm(), //nolint:gosec // tar modes fit in 32 bits
			UID:     hdr.Uid,
			GID:     hdr.Gid,
			Uname:   hdr.Uname,
			Gname:   hdr.Gname,
			ModTime: hdr.ModTime,
		}
		if !e.Dir {
			data, err := io.ReadAll(tr)
			require.NoError(tb, err)
			e.Content = string(data)
		}
		out.Entries = append(out.Entries, e)
	}
	return out
}
