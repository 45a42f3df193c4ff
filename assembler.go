package assembly

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/scylladb/go-set/strset"

	"github.com/meigma/assembly/fileset"
	"github.com/meigma/assembly/internal/file"
	"github.com/meigma/assembly/internal/platform"
)

// Assembler collects filesets, directories and header attributes and
// writes them into one archive.
//
// An Assembler is not safe for concurrent use. Build may be called more
// than once; every call lists the filesets again and rewrites the output.
type Assembler struct {
	output string
	format Format

	sources     []fileset.Source
	directories []fileset.Directory
	header      Manifest

	// err is the first registration failure. Build returns it without
	// touching the output.
	err error

	logger   *slog.Logger
	progress ProgressFunc
	level    int
	levelSet bool
	modTime  time.Time
}

// Result describes a finished build.
type Result struct {
	// Entries is the number of directory and file entries written. Entries
	// the format generates itself, such as a JAR manifest, are not counted.
	Entries int

	// Descriptor records the media type, digest and size of the output.
	Descriptor ocispec.Descriptor
}

// New creates an Assembler that writes format to output.
func New(output string, format Format, opts ...Option) *Assembler {
	a := &Assembler{output: output, format: format}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Output returns the output path.
func (a *Assembler) Output() string { return a.output }

// Format returns the output format.
func (a *Assembler) Format() Format { return a.format }

// Header returns the header attributes. Changes to the returned manifest
// affect the next Build.
func (a *Assembler) Header() *Manifest { return &a.header }

// Err returns the first registration failure, if any.
func (a *Assembler) Err() error { return a.err }

// AddFileSet registers a fileset whose root must exist and be a directory.
func (a *Assembler) AddFileSet(s fileset.Source) error {
	if err := s.Check(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = &fs.PathError{Op: "add fileset", Path: s.Root(), Err: ErrMissingFileSet}
		}
		return a.fail(err)
	}
	a.sources = append(a.sources, s)
	return nil
}

// AddOptionalFileSet registers a fileset whose root may be missing. A
// missing root is skipped; a root that is not a directory is an error.
func (a *Assembler) AddOptionalFileSet(s fileset.Source) error {
	if err := s.Check(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			a.log().Debug("skipping missing optional fileset", "path", s.Root())
			return nil
		}
		return a.fail(err)
	}
	a.sources = append(a.sources, s)
	return nil
}

// AddDirectory registers an explicit directory entry. Explicit directories
// take precedence over directories derived from filesets.
func (a *Assembler) AddDirectory(d fileset.Directory) {
	a.directories = append(a.directories, d)
}

// SetHeader sets a header attribute, replacing any existing value.
func (a *Assembler) SetHeader(key, value string) error {
	return a.fail(a.header.Set(key, value))
}

// SetHeaderDefault sets a header attribute only if it is absent.
func (a *Assembler) SetHeaderDefault(key, value string) error {
	_, err := a.header.SetDefault(key, value)
	return a.fail(err)
}

// MergeHeader sets every attribute in attrs. Values are rendered with
// fmt.Sprint. Keys are applied in sorted order so the header is stable.
func (a *Assembler) MergeHeader(attrs map[string]any) error {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var errs []error
	for _, k := range keys {
		if err := a.header.Set(k, manifestValue(attrs[k])); err != nil {
			errs = append(errs, err)
		}
	}
	return a.fail(errors.Join(errs...))
}

// ReadHeaderFile parses a serialized manifest and merges it into the header.
func (a *Assembler) ReadHeaderFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return a.fail(err)
	}
	defer f.Close()

	m, err := ParseManifest(f)
	if err != nil {
		return a.fail(fmt.Errorf("parse %s: %w", path, err))
	}
	a.header.Merge(m)
	return nil
}

// EnsureVendor sets Manifest-Version and the implementation and
// specification vendor and version attributes, each only if absent.
func (a *Assembler) EnsureVendor(vendor, version string) error {
	defaults := []ManifestAttribute{
		{Name: ManifestVersion, Value: DefaultManifestVersion},
		{Name: ImplementationVendor, Value: vendor},
		{Name: ImplementationVersion, Value: version},
		{Name: SpecificationVendor, Value: vendor},
		{Name: SpecificationVersion, Value: version},
	}
	for _, d := range defaults {
		if _, err := a.header.SetDefault(d.Name, d.Value); err != nil {
			return a.fail(err)
		}
	}
	return nil
}

// fail records err as the sticky registration error and returns it.
func (a *Assembler) fail(err error) error {
	if err != nil && a.err == nil {
		a.err = err
	}
	return err
}

// Build writes the archive. Any existing output file is replaced. The
// context is checked between entries and during content copies.
//
// On failure the output may be left partially written.
func (a *Assembler) Build(ctx context.Context) (res Result, err error) {
	if a.err != nil {
		return Result{}, a.err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if err := os.Remove(a.output); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Result{}, fmt.Errorf("remove existing output: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(a.output), 0o755); err != nil {
		return Result{}, fmt.Errorf("create output directory: %w", err)
	}

	modTime := a.modTime
	if modTime.IsZero() {
		modTime = time.Now()
	}

	a.reportProgress(StageListing, "", 0, 0, 0, 0)
	dirs, files, err := a.collect(modTime)
	if err != nil {
		return Result{}, err
	}

	a.log().Info("building archive",
		"path", a.output,
		"format", a.format.String(),
		"directories", len(dirs),
		"files", len(files))

	f, err := os.Create(a.output)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	digester := digest.Canonical.Digester()
	counter := &file.CountingWriter{W: io.MultiWriter(f, digester.Hash())}
	bw := bufio.NewWriterSize(counter, 64*1024)

	if err := a.writeEntries(ctx, bw, modTime, dirs, files); err != nil {
		return Result{}, err
	}
	if err := bw.Flush(); err != nil {
		return Result{}, fmt.Errorf("flush %s: %w", a.output, err)
	}

	res = Result{
		Entries: len(dirs) + len(files),
		Descriptor: ocispec.Descriptor{
			MediaType: a.format.MediaType(),
			Digest:    digester.Digest(),
			Size:      int64(counter.N), //nolint:gosec // archive sizes fit in int64
		},
	}
	a.log().Info("archive built",
		"path", a.output,
		"entries", res.Entries,
		"size", res.Descriptor.Size,
		"digest", res.Descriptor.Digest.String())
	return res, nil
}

// writeEntries opens the format writer and emits directories then files.
// The format writer is closed on every path.
func (a *Assembler) writeEntries(ctx context.Context, w io.Writer, modTime time.Time, dirs []fileset.Directory, files []fileset.FileInfo) (err error) {
	ew, err := newEntryWriter(a.format, w, writerConfig{
		header:   &a.header,
		level:    a.level,
		levelSet: a.levelSet,
		modTime:  modTime,
		buf:      make([]byte, file.DefaultBufferSize),
		names:    platform.DefaultNameResolver(),
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ew.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close %s: %w", a.format, cerr))
		}
	}()

	for i, d := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ew.writeDirectory(d); err != nil {
			return err
		}
		a.reportProgress(StageDirectories, d.Key(), 0, 0, i+1, len(dirs))
	}

	var bytesTotal, bytesDone uint64
	for i := range files {
		bytesTotal += uint64(files[i].Size) //nolint:gosec // sizes come from stat and are non-negative
	}
	for i, fi := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.writeFile(ctx, ew, fi); err != nil {
			return err
		}
		bytesDone += uint64(fi.Size) //nolint:gosec // sizes come from stat and are non-negative
		a.reportProgress(StageFiles, fi.Relative, bytesDone, bytesTotal, i+1, len(files))
	}
	return nil
}

func (a *Assembler) writeFile(ctx context.Context, ew entryWriter, fi fileset.FileInfo) error {
	src, err := os.Open(fi.Origin)
	if err != nil {
		return err
	}
	defer src.Close()
	return ew.writeFile(ctx, fi, src)
}

// collect lists every registered source and merges the results.
//
// Directories are keyed by normalized name and files by relative path; the
// first registration of a key wins. Explicit directories are registered
// before any fileset directory.
func (a *Assembler) collect(modTime time.Time) ([]fileset.Directory, []fileset.FileInfo, error) {
	dirSeen := strset.New()
	var dirs []fileset.Directory
	addDir := func(d fileset.Directory) {
		key := d.Key()
		if key == "" || dirSeen.Has(key) {
			return
		}
		d.Name = key
		dirSeen.Add(key)
		dirs = append(dirs, d)
	}

	for _, d := range a.directories {
		addDir(d)
	}

	seen := strset.New()
	var files []fileset.FileInfo
	for _, s := range a.sources {
		listing, err := s.List()
		if err != nil {
			return nil, nil, fmt.Errorf("list fileset %s: %w", s.Root(), err)
		}
		for _, d := range listing.Directories {
			addDir(d)
		}
		for _, fi := range listing.Files {
			if seen.Has(fi.Relative) {
				a.log().Debug("skipping duplicate file", "path", fi.Relative, "origin", fi.Origin)
				continue
			}
			seen.Add(fi.Relative)
			files = append(files, fi)
		}
	}

	reserved := reservedEntries(a.format)
	for _, name := range reserved.files {
		if seen.Has(name) {
			return nil, nil, fmt.Errorf("%w: %s", ErrReservedEntry, name)
		}
	}
	for _, name := range reserved.dirs {
		addDir(fileset.Directory{Name: name, Mode: 0o755, ModTime: modTime})
	}

	slices.SortFunc(dirs, fileset.CompareDirectories)
	slices.SortFunc(files, fileset.CompareFiles)
	return dirs, files, nil
}

// reportProgress sends a progress event if a callback is configured.
func (a *Assembler) reportProgress(stage ProgressStage, path string, bytesDone, bytesTotal uint64, filesDone, filesTotal int) {
	if a.progress == nil {
		return
	}
	a.progress(ProgressEvent{
		Stage:      stage,
		Path:       path,
		BytesDone:  bytesDone,
		BytesTotal: bytesTotal,
		FilesDone:  filesDone,
		FilesTotal: filesTotal,
	})
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Assembler) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}
