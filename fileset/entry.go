package fileset

import (
	"io/fs"
	"strings"
	"time"

	"github.com/meigma/assembly/internal/pathutil"
)

// FileInfo describes one regular file destined for an archive.
type FileInfo struct {
	// Origin is the absolute path of the file on disk. Content and
	// filesystem metadata are read from here.
	Origin string

	// Relative is the slash-separated path of the entry inside the archive.
	// It never starts with the fileset root segment.
	Relative string

	// Mode holds the POSIX permission bits (fs.ModePerm only).
	Mode fs.FileMode

	UserName  string
	GroupName string
	UID       uint32
	GID       uint32

	// Size is the file length in bytes at traversal time.
	Size int64

	CreationTime time.Time
	AccessTime   time.Time
	ModTime      time.Time
}

// Directory describes one directory entry destined for an archive.
//
// Identity is the normalized name alone: two Directory values with the same
// [Directory.Key] are the same archive entry regardless of their metadata.
type Directory struct {
	// Name is the slash-separated archive path. A trailing slash is optional;
	// writers always emit exactly one.
	Name string

	// Mode holds the POSIX permission bits (fs.ModePerm only).
	Mode fs.FileMode

	UserName  string
	GroupName string
	UID       uint32
	GID       uint32

	ModTime time.Time
}

// Key returns the normalized entry name: the cleaned path with exactly one
// trailing slash, so "foo" and "foo/" share a key.
func (d Directory) Key() string {
	return pathutil.DirName(d.Name)
}

// CompareFiles orders files by relative path. This is the canonical file
// entry order of every archive format.
func CompareFiles(a, b FileInfo) int {
	return strings.Compare(a.Relative, b.Relative)
}

// CompareDirectories orders directories by normalized name.
func CompareDirectories(a, b Directory) int {
	return strings.Compare(a.Key(), b.Key())
}

// Listing is the result of one traversal: the retained files in canonical
// order and their directory closure in canonical order.
type Listing struct {
	Files       []FileInfo
	Directories []Directory
}

// Source is anything that can contribute files and directories to an
// archive. [FileSet] and [ArchiveFileSet] implement it.
type Source interface {
	// Root returns the directory the source walks.
	Root() string

	// Check verifies the root exists and is a directory.
	Check() error

	// List traverses the root once and returns files and directory closure.
	List() (Listing, error)
}
