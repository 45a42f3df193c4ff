package fileset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/meigma/assembly/internal/platform"
)

// FileSet selects the regular files under a root directory.
//
// A FileSet is immutable after construction and holds no traversal state;
// every listing walks the filesystem afresh.
type FileSet struct {
	dir    string
	filter filter
	names  *platform.NameResolver
}

// Option configures a FileSet.
type Option func(*FileSet)

// WithIncludePatterns adds include patterns. Each pattern must match the
// whole relative path.
func WithIncludePatterns(res ...*regexp.Regexp) Option {
	return func(s *FileSet) {
		s.filter.includes = append(s.filter.includes, anchorAll(res)...)
	}
}

// WithExcludePatterns adds exclude patterns. Each pattern must match the
// whole relative path.
func WithExcludePatterns(res ...*regexp.Regexp) Option {
	return func(s *FileSet) {
		s.filter.excludes = append(s.filter.excludes, anchorAll(res)...)
	}
}

// New creates a FileSet rooted at dir. A relative dir is resolved against
// the working directory. The root is not checked until it is listed.
func New(dir string, opts ...Option) *FileSet {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	s := &FileSet{
		dir:   filepath.Clean(dir),
		names: platform.DefaultNameResolver(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the absolute root directory.
func (s *FileSet) Root() string {
	return s.dir
}

// Includes returns the include patterns.
func (s *FileSet) Includes() []*regexp.Regexp {
	return slices.Clone(s.filter.includes)
}

// Excludes returns the exclude patterns.
func (s *FileSet) Excludes() []*regexp.Regexp {
	return slices.Clone(s.filter.excludes)
}

// Check verifies the root exists and is a directory. A missing root yields
// an error matching fs.ErrNotExist; any other non-directory yields
// ErrNotDirectory. Both are *fs.PathError values carrying the root.
func (s *FileSet) Check() error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &fs.PathError{Op: "fileset", Path: s.dir, Err: ErrNotDirectory}
	}
	return nil
}

// List walks the root once and returns the retained files and their
// directory closure, both in canonical order.
func (s *FileSet) List() (Listing, error) {
	files, err := s.ListFiles()
	if err != nil {
		return Listing{}, err
	}
	dirs, err := s.closure(files)
	if err != nil {
		return Listing{}, err
	}
	return Listing{Files: files, Directories: dirs}, nil
}

// ListFiles returns every regular file under the root whose relative path
// passes the filter, sorted by relative path. Symlinks and special files are
// skipped.
func (s *FileSet) ListFiles() ([]FileInfo, error) {
	if err := s.Check(); err != nil {
		return nil, err
	}

	root, err := os.OpenRoot(s.dir)
	if err != nil {
		return nil, err
	}
	defer root.Close()

	var files []FileInfo
	err = fs.WalkDir(root.FS(), ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() || !s.filter.match(path) {
			return nil
		}
		fi, err := s.fileInfo(path, d)
		if err != nil {
			return err
		}
		files = append(files, fi)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}

	slices.SortFunc(files, CompareFiles)
	return files, nil
}

// ListDirectories returns the directory closure of ListFiles.
func (s *FileSet) ListDirectories() ([]Directory, error) {
	listing, err := s.List()
	if err != nil {
		return nil, err
	}
	return listing.Directories, nil
}

// closure derives the directories files need. Files may carry relocated
// relative paths; see closure.
func (s *FileSet) closure(files []FileInfo) ([]Directory, error) {
	return buildClosure(s.dir, files, s.names)
}

func (s *FileSet) fileInfo(rel string, d fs.DirEntry) (FileInfo, error) {
	info, err := d.Info()
	if err != nil {
		return FileInfo{}, err
	}
	origin := filepath.Join(s.dir, filepath.FromSlash(rel))
	times, err := platform.FileTimes(origin, info)
	if err != nil {
		return FileInfo{}, err
	}
	uid, gid := platform.FileOwner(info)
	return FileInfo{
		Origin:       origin,
		Relative:     rel,
		Mode:         info.Mode().Perm(),
		UserName:     s.names.UserName(uid),
		GroupName:    s.names.GroupName(gid),
		UID:          uid,
		GID:          gid,
		Size:         info.Size(),
		CreationTime: times.Created,
		AccessTime:   times.Accessed,
		ModTime:      info.ModTime(),
	}, nil
}
