// Package copier copies fileset contents into a directory, optionally
// rewriting tokens and patterns in the copied bytes.
package copier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sync/atomic"

	"github.com/icholy/replace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/transform"

	"github.com/meigma/assembly/fileset"
	"github.com/meigma/assembly/internal/file"
	"github.com/meigma/assembly/internal/pathutil"
)

// ErrUnsafePath is returned when a relative path would escape the
// destination directory.
var ErrUnsafePath = errors.New("path escapes destination")

// Stats summarizes a copy.
type Stats struct {
	// Files is the number of files written.
	Files int

	// Bytes is the number of bytes written after substitution.
	Bytes uint64
}

// substitution is one rewrite rule, applied in registration order.
type substitution struct {
	token       string
	re          *regexp.Regexp
	replacement string
}

func (s substitution) transformer() transform.Transformer {
	if s.re == nil {
		return replace.String(s.token, s.replacement)
	}
	re, tmpl := s.re, s.replacement
	return replace.RegexpStringFunc(re, func(match string) string {
		idx := re.FindStringSubmatchIndex(match)
		if idx == nil {
			return match
		}
		return string(re.ExpandString(nil, tmpl, match, idx))
	})
}

// Copier copies the files of its filesets under a destination directory,
// keeping each file's relative path and permission bits.
type Copier struct {
	dest    string
	sources []fileset.Source
	subs    []substitution
	workers int
	logger  *slog.Logger
}

// Option configures a Copier.
type Option func(*Copier)

// WithWorkers sets the number of files copied concurrently.
// Zero or negative uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *Copier) {
		c.workers = n
	}
}

// WithLogger sets the logger for copy operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Copier) {
		c.logger = logger
	}
}

// New creates a Copier writing under dest.
func New(dest string, opts ...Option) *Copier {
	c := &Copier{dest: dest}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddFileSet registers a source whose root must exist and be a directory.
func (c *Copier) AddFileSet(s fileset.Source) error {
	if err := s.Check(); err != nil {
		return err
	}
	c.sources = append(c.sources, s)
	return nil
}

// AddToken replaces every occurrence of token with replacement.
func (c *Copier) AddToken(token, replacement string) {
	if token == "" {
		return
	}
	c.subs = append(c.subs, substitution{token: token, replacement: replacement})
}

// AddPattern replaces every match of re with replacement. The replacement
// may reference submatches as in regexp.Regexp.Expand, e.g. "$1".
func (c *Copier) AddPattern(re *regexp.Regexp, replacement string) {
	c.subs = append(c.subs, substitution{re: re, replacement: replacement})
}

// Copy lists every fileset and copies its files. Files whose relative path
// was already copied by an earlier fileset are skipped.
func (c *Copier) Copy(ctx context.Context) (Stats, error) {
	var jobs []fileset.FileInfo
	seen := make(map[string]struct{})
	for _, s := range c.sources {
		files, err := listFiles(s)
		if err != nil {
			return Stats{}, fmt.Errorf("list fileset %s: %w", s.Root(), err)
		}
		for _, f := range files {
			if _, ok := seen[f.Relative]; ok {
				c.log().Debug("skipping duplicate file", "path", f.Relative)
				continue
			}
			seen[f.Relative] = struct{}{}
			jobs = append(jobs, f)
		}
	}

	workers := c.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	c.log().Info("copying files", "dest", c.dest, "files", len(jobs), "workers", workers)

	var files, written atomic.Uint64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, f := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			n, err := c.copyFile(gctx, f)
			if err != nil {
				return err
			}
			files.Add(1)
			written.Add(n)
			return nil
		})
	}
	err := g.Wait()
	stats := Stats{Files: int(files.Load()), Bytes: written.Load()} //nolint:gosec // bounded by len(jobs)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return stats, err
	}
	c.log().Info("copied files", "dest", c.dest, "files", stats.Files, "bytes", stats.Bytes)
	return stats, nil
}

// listFiles returns only the files; directories are created on demand.
func listFiles(s fileset.Source) ([]fileset.FileInfo, error) {
	listing, err := s.List()
	if err != nil {
		return nil, err
	}
	return listing.Files, nil
}

func (c *Copier) copyFile(ctx context.Context, f fileset.FileInfo) (n uint64, err error) {
	rel := pathutil.Normalize(f.Relative)
	if rel == "" || pathutil.HasDotDot(rel) {
		return 0, &fs.PathError{Op: "copy", Path: f.Relative, Err: ErrUnsafePath}
	}
	target := filepath.Join(c.dest, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, err
	}

	src, err := os.Open(f.Origin)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode.Perm())
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var r io.Reader = src
	if len(c.subs) > 0 {
		tt := make([]transform.Transformer, len(c.subs))
		for i, s := range c.subs {
			tt[i] = s.transformer()
		}
		r = replace.Chain(src, tt...)
	}

	n, err = file.CopyWithContext(ctx, dst, r, nil)
	if err != nil {
		return n, fmt.Errorf("copy %s: %w", f.Relative, err)
	}
	// OpenFile applies the umask; set the exact bits.
	if err := dst.Chmod(f.Mode.Perm()); err != nil {
		return n, err
	}
	c.log().Debug("copied file", "path", rel, "bytes", n)
	return n, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Copier) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}
