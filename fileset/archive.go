package fileset

import "slices"

// ArchiveFileSet is a FileSet whose files are relocated and re-owned on
// their way into an archive.
type ArchiveFileSet struct {
	Base      *FileSet
	Overrides Overrides
}

// NewArchive creates an ArchiveFileSet rooted at dir.
func NewArchive(dir string, overrides Overrides, opts ...Option) *ArchiveFileSet {
	return &ArchiveFileSet{Base: New(dir, opts...), Overrides: overrides}
}

// Root returns the absolute root directory of the base FileSet.
func (a *ArchiveFileSet) Root() string {
	return a.Base.Root()
}

// Check verifies the root exists and is a directory.
func (a *ArchiveFileSet) Check() error {
	return a.Base.Check()
}

// List walks the root once and returns the transformed files and the
// directory closure of the transformed paths.
func (a *ArchiveFileSet) List() (Listing, error) {
	files, err := a.ListFiles()
	if err != nil {
		return Listing{}, err
	}
	dirs, err := a.Base.closure(files)
	if err != nil {
		return Listing{}, err
	}
	return Listing{Files: files, Directories: a.Overrides.ApplyDirectories(dirs)}, nil
}

// ListFiles returns the base files with the overrides applied.
func (a *ArchiveFileSet) ListFiles() ([]FileInfo, error) {
	files, err := a.Base.ListFiles()
	if err != nil {
		return nil, err
	}
	files = a.Overrides.ApplyFiles(files)
	slices.SortFunc(files, CompareFiles)
	return files, nil
}

// ListDirectories returns the directory closure of ListFiles with the
// directory overrides applied. Prefix levels carry the metadata of the root.
func (a *ArchiveFileSet) ListDirectories() ([]Directory, error) {
	listing, err := a.List()
	if err != nil {
		return nil, err
	}
	return listing.Directories, nil
}
