package assembly

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/meigma/assembly/fileset"
	"github.com/meigma/assembly/internal/file"
)

const (
	jarMetaDir      = "META-INF/"
	jarManifestName = "META-INF/MANIFEST.MF"

	// Info-ZIP extra field ids.
	extTimeExtraID = 0x5455
	unixExtraID    = 0x7875
)

type zipWriter struct {
	zw  *zip.Writer
	cfg writerConfig
}

// newZipWriter opens a zip stream. A jar starts with its manifest; a plain
// zip carries a non-empty header as the archive comment.
func newZipWriter(w io.Writer, jar bool, cfg writerConfig) (*zipWriter, error) {
	zw := zip.NewWriter(w)
	level := flate.DefaultCompression
	if cfg.levelSet {
		level = cfg.level
	}
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	z := &zipWriter{zw: zw, cfg: cfg}
	switch {
	case jar:
		if err := z.writeManifest(); err != nil {
			return nil, err
		}
	case cfg.header != nil && cfg.header.Len() > 0:
		if err := zw.SetComment(string(cfg.header.Bytes())); err != nil {
			return nil, fmt.Errorf("set zip comment: %w", err)
		}
	}
	return z, nil
}

func (z *zipWriter) writeManifest() error {
	header := z.cfg.header
	if header == nil {
		header = &Manifest{}
	}
	data := header.Bytes()
	fh := &zip.FileHeader{Name: jarManifestName, Method: zip.Deflate}
	fh.SetMode(0o644)
	setZipTimes(fh, z.cfg.modTime, z.cfg.modTime, z.cfg.modTime)
	w, err := z.zw.CreateHeader(fh)
	if err != nil {
		return fmt.Errorf("write %s: %w", jarManifestName, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", jarManifestName, err)
	}
	return nil
}

func (z *zipWriter) writeDirectory(d fileset.Directory) error {
	fh := &zip.FileHeader{Name: d.Key(), Method: zip.Store}
	fh.SetMode(fs.ModeDir | d.Mode.Perm())
	setZipTimes(fh, d.ModTime, time.Time{}, time.Time{})
	if uid, gid, ok := z.cfg.ownerIDs(d.UserName, d.UID, d.GroupName, d.GID); ok {
		fh.Extra = append(fh.Extra, unixOwnerExtra(uid, gid)...)
	}
	if _, err := z.zw.CreateHeader(fh); err != nil {
		return fmt.Errorf("write directory %s: %w", d.Key(), err)
	}
	return nil
}

func (z *zipWriter) writeFile(ctx context.Context, f fileset.FileInfo, r io.Reader) error {
	fh := &zip.FileHeader{Name: f.Relative, Method: zip.Deflate}
	fh.SetMode(f.Mode.Perm())
	fh.UncompressedSize64 = uint64(f.Size) //nolint:gosec // sizes come from stat and are non-negative
	setZipTimes(fh, f.ModTime, f.AccessTime, f.CreationTime)
	// Zip has no owner names; an unresolvable name leaves ownership unset.
	if uid, gid, ok := z.cfg.ownerIDs(f.UserName, f.UID, f.GroupName, f.GID); ok {
		fh.Extra = append(fh.Extra, unixOwnerExtra(uid, gid)...)
	}

	w, err := z.zw.CreateHeader(fh)
	if err != nil {
		return fmt.Errorf("write %s: %w", f.Relative, err)
	}
	if err := file.CopyExact(ctx, w, r, f.Size, z.cfg.buf); err != nil {
		return fmt.Errorf("write %s: %w", f.Relative, err)
	}
	return nil
}

func (z *zipWriter) Close() error {
	return z.zw.Close()
}

// setZipTimes records mtime in the MS-DOS header fields and all three times
// in an extended timestamp extra field. FileHeader.Modified stays zero so
// the zip writer does not add a second, mtime-only, timestamp field.
func setZipTimes(fh *zip.FileHeader, mtime, atime, ctime time.Time) {
	if mtime.IsZero() {
		return
	}
	fh.ModifiedDate, fh.ModifiedTime = msDosTime(mtime)

	var flags byte = 1
	payload := binary.LittleEndian.AppendUint32(nil, unixSeconds(mtime))
	if !atime.IsZero() {
		flags |= 2
		payload = binary.LittleEndian.AppendUint32(payload, unixSeconds(atime))
	}
	if !ctime.IsZero() {
		flags |= 4
		payload = binary.LittleEndian.AppendUint32(payload, unixSeconds(ctime))
	}
	fh.Extra = appendExtra(fh.Extra, extTimeExtraID, append([]byte{flags}, payload...))
}

// unixOwnerExtra encodes uid and gid in the Info-ZIP new Unix extra field.
func unixOwnerExtra(uid, gid uint32) []byte {
	payload := []byte{1, 4}
	payload = binary.LittleEndian.AppendUint32(payload, uid)
	payload = append(payload, 4)
	payload = binary.LittleEndian.AppendUint32(payload, gid)
	return appendExtra(nil, unixExtraID, payload)
}

func appendExtra(extra []byte, id uint16, payload []byte) []byte {
	extra = binary.LittleEndian.AppendUint16(extra, id)
	extra = binary.LittleEndian.AppendUint16(extra, uint16(len(payload))) //nolint:gosec // payloads are a few bytes
	return append(extra, payload...)
}

func unixSeconds(t time.Time) uint32 {
	s := t.Unix()
	if s < 0 {
		return 0
	}
	return uint32(s) //nolint:gosec // Info-ZIP timestamps are 32-bit
}

// msDosTime converts t to MS-DOS date and time in t's location, clamped to
// the representable range.
func msDosTime(t time.Time) (date, clock uint16) {
	if t.Year() < 1980 {
		t = time.Date(1980, 1, 1, 0, 0, 0, 0, t.Location())
	} else if t.Year() > 2107 {
		t = time.Date(2107, 12, 31, 23, 59, 58, 0, t.Location())
	}
	//nolint:gosec // fields are range-limited above
	date = uint16(t.Day() + int(t.Month())<<5 + (t.Year()-1980)<<9)
	//nolint:gosec // fields are range-limited above
	clock = uint16(t.Second()/2 + t.Minute()<<5 + t.Hour()<<11)
	return date, clock
}
