package assembly

import (
	"fmt"
	"strings"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Format identifies an archive output format.
type Format uint8

const (
	FormatZip Format = iota
	FormatJar
	FormatTar
	FormatTarGzip
	FormatTarZstd
)

// Media types for formats without an OCI layer media type.
const (
	MediaTypeZip = "application/zip"
	MediaTypeJar = "application/java-archive"
)

func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatJar:
		return "jar"
	case FormatTar:
		return "tar"
	case FormatTarGzip:
		return "tar.gz"
	case FormatTarZstd:
		return "tar.zst"
	default:
		return "unknown"
	}
}

// MediaType returns the media type recorded in build descriptors. Tar
// formats use the OCI image layer media types.
func (f Format) MediaType() string {
	switch f {
	case FormatZip:
		return MediaTypeZip
	case FormatJar:
		return MediaTypeJar
	case FormatTar:
		return ocispec.MediaTypeImageLayer
	case FormatTarGzip:
		return ocispec.MediaTypeImageLayerGzip
	case FormatTarZstd:
		return ocispec.MediaTypeImageLayerZstd
	default:
		return ""
	}
}

// Extension returns the conventional file extension, with a leading dot.
func (f Format) Extension() string {
	return "." + f.String()
}

// isTar reports whether f writes a tar stream.
func (f Format) isTar() bool {
	return f == FormatTar || f == FormatTarGzip || f == FormatTarZstd
}

// ParseFormat maps a format name to a Format. Names are case-insensitive and
// accept the common aliases "tgz", "gzip", "zst" and "zstd".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "zip":
		return FormatZip, nil
	case "jar", "war", "ear":
		return FormatJar, nil
	case "tar":
		return FormatTar, nil
	case "tar.gz", "tgz", "gzip", "gz":
		return FormatTarGzip, nil
	case "tar.zst", "tzst", "zst", "zstd", "tar.zstd":
		return FormatTarZstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// FormatFromPath infers the format from the file name of path.
func FormatFromPath(path string) (Format, error) {
	lower := strings.ToLower(path)
	for _, ext := range []string{".tar.gz", ".tar.zst", ".tar.zstd"} {
		if strings.HasSuffix(lower, ext) {
			return ParseFormat(ext)
		}
	}
	i := strings.LastIndexByte(lower, '.')
	if i < 0 || strings.ContainsAny(lower[i:], `/\`) {
		return 0, fmt.Errorf("%w: %q has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(lower[i:])
}
