package assembly

import (
	"context"
	"io"
	"time"

	"github.com/meigma/assembly/fileset"
	"github.com/meigma/assembly/internal/platform"
)

// entryWriter emits archive entries in the order they are given.
type entryWriter interface {
	// writeDirectory writes a directory entry. The name is already
	// normalized with one trailing slash.
	writeDirectory(d fileset.Directory) error

	// writeFile writes a file entry with content read from r. The stream
	// must hold exactly f.Size bytes.
	writeFile(ctx context.Context, f fileset.FileInfo, r io.Reader) error

	// Close finishes the archive and any compression stream. It does not
	// close the underlying writer.
	Close() error
}

// writerConfig carries the settings every format writer may need.
type writerConfig struct {
	header   *Manifest
	level    int
	levelSet bool
	modTime  time.Time
	buf      []byte
	names    *platform.NameResolver
}

// ownerIDs returns the numeric ids recorded for an entry. A non-empty name
// takes precedence over the id it was paired with. ok is false when a name
// does not resolve.
func (c writerConfig) ownerIDs(userName string, uid uint32, groupName string, gid uint32) (u, g uint32, ok bool) {
	u, g, ok = uid, gid, true
	if c.names == nil {
		return u, g, ok
	}
	if userName != "" {
		id, found := c.names.UserID(userName)
		if !found {
			return uid, gid, false
		}
		u = id
	}
	if groupName != "" {
		id, found := c.names.GroupID(groupName)
		if !found {
			return uid, gid, false
		}
		g = id
	}
	return u, g, ok
}

// newEntryWriter opens the format writer over w and writes any header the
// format carries before its entries.
func newEntryWriter(format Format, w io.Writer, cfg writerConfig) (entryWriter, error) {
	switch format {
	case FormatZip, FormatJar:
		return newZipWriter(w, format == FormatJar, cfg)
	case FormatTar, FormatTarGzip, FormatTarZstd:
		return newTarWriter(w, format, cfg)
	default:
		return nil, ErrUnknownFormat
	}
}

// reserved lists the entries a format generates itself.
type reserved struct {
	dirs  []string
	files []string
}

func reservedEntries(format Format) reserved {
	if format == FormatJar {
		return reserved{
			dirs:  []string{jarMetaDir},
			files: []string{jarManifestName},
		}
	}
	return reserved{}
}
