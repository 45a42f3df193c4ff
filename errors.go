package assembly

import (
	"errors"

	"github.com/meigma/assembly/fileset"
)

var (
	// ErrMissingFileSet is returned when a required fileset root does not exist.
	ErrMissingFileSet = errors.New("fileset root does not exist")

	// ErrNotDirectory is returned when a fileset root exists but is not a directory.
	ErrNotDirectory = fileset.ErrNotDirectory

	// ErrReservedEntry is returned when a file collides with an entry the
	// archive format generates itself, such as a JAR manifest.
	ErrReservedEntry = errors.New("entry is reserved by the archive format")

	// ErrUnknownFormat is returned when a format name or file extension is
	// not recognized.
	ErrUnknownFormat = errors.New("unknown archive format")

	// ErrInvalidManifest is returned when a manifest attribute or document is
	// malformed.
	ErrInvalidManifest = errors.New("invalid manifest")
)
