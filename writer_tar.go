package assembly

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/meigma/assembly/fileset"
	"github.com/meigma/assembly/internal/file"
)

const (
	paxGlobalHeaderName = "pax_global_header"
	paxCreationTime     = "LIBARCHIVE.creationtime"
)

type tarWriter struct {
	tw  *tar.Writer
	enc io.WriteCloser // compression stream; nil for plain tar
	cfg writerConfig
}

// newTarWriter opens a tar stream, compressed for the gzip and zstd
// formats. A non-empty header becomes a PAX global header record.
func newTarWriter(w io.Writer, format Format, cfg writerConfig) (*tarWriter, error) {
	t := &tarWriter{cfg: cfg}
	switch format {
	case FormatTarGzip:
		level := gzip.DefaultCompression
		if cfg.levelSet {
			level = cfg.level
		}
		gw, err := gzip.NewWriterLevel(w, level)
		if err != nil {
			return nil, fmt.Errorf("create gzip writer: %w", err)
		}
		t.enc = gw
		w = gw
	case FormatTarZstd:
		opts := []zstd.EOption{zstd.WithEncoderConcurrency(1)}
		if cfg.levelSet {
			opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(cfg.level)))
		}
		zw, err := zstd.NewWriter(w, opts...)
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		t.enc = zw
		w = zw
	}
	t.tw = tar.NewWriter(w)

	if h := cfg.header; h != nil && h.Len() > 0 {
		records := make(map[string]string, h.Len())
		for _, a := range h.Attributes() {
			records[a.Name] = a.Value
		}
		hdr := &tar.Header{
			Typeflag:   tar.TypeXGlobalHeader,
			Name:       paxGlobalHeaderName,
			PAXRecords: records,
			Format:     tar.FormatPAX,
		}
		if err := t.tw.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf("write global header: %w", err)
		}
	}
	return t, nil
}

func (t *tarWriter) writeDirectory(d fileset.Directory) error {
	uid, gid, _ := t.cfg.ownerIDs(d.UserName, d.UID, d.GroupName, d.GID)
	hdr := &tar.Header{
		Typeflag: tar.TypeDir,
		Name:     d.Key(),
		Mode:     int64(d.Mode.Perm()),
		Uid:      int(uid),
		Gid:      int(gid),
		Uname:    d.UserName,
		Gname:    d.GroupName,
		ModTime:  d.ModTime,
		Format:   tar.FormatPAX,
	}
	if err := t.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write directory %s: %w", d.Key(), err)
	}
	return nil
}

func (t *tarWriter) writeFile(ctx context.Context, f fileset.FileInfo, r io.Reader) error {
	// Tar carries the names too; extractors prefer them over the ids.
	uid, gid, _ := t.cfg.ownerIDs(f.UserName, f.UID, f.GroupName, f.GID)
	hdr := &tar.Header{
		Typeflag:   tar.TypeReg,
		Name:       f.Relative,
		Mode:       int64(f.Mode.Perm()),
		Uid:        int(uid),
		Gid:        int(gid),
		Uname:      f.UserName,
		Gname:      f.GroupName,
		Size:       f.Size,
		ModTime:    f.ModTime,
		AccessTime: f.AccessTime,
		Format:     tar.FormatPAX,
	}
	if !f.CreationTime.IsZero() {
		hdr.PAXRecords = map[string]string{paxCreationTime: formatPAXTime(f.CreationTime)}
	}
	if err := t.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write %s: %w", f.Relative, err)
	}
	if err := file.CopyExact(ctx, t.tw, r, f.Size, t.cfg.buf); err != nil {
		return fmt.Errorf("write %s: %w", f.Relative, err)
	}
	return nil
}

// Close finishes the tar stream and then the compression stream.
func (t *tarWriter) Close() error {
	err := t.tw.Close()
	if t.enc != nil {
		if cerr := t.enc.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// formatPAXTime renders t as decimal seconds with nanosecond precision.
func formatPAXTime(t time.Time) string {
	sec, nsec := t.Unix(), t.Nanosecond()
	if nsec == 0 {
		return fmt.Sprintf("%d", sec)
	}
	if sec < 0 && nsec > 0 {
		// Negative times count fractions toward zero.
		return fmt.Sprintf("-%d.%09d", -(sec + 1), int(time.Second)-nsec)
	}
	return fmt.Sprintf("%d.%09d", sec, nsec)
}
