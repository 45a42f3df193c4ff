package assembly

import (
	"testing"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Format
	}{
		{"zip", FormatZip},
		{"JAR", FormatJar},
		{"war", FormatJar},
		{".tar", FormatTar},
		{"tgz", FormatTarGzip},
		{"tar.gz", FormatTarGzip},
		{"zstd", FormatTarZstd},
		{"tar.zst", FormatTarZstd},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFormat("rar")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	tests := map[string]Format{
		"build/app.jar":        FormatJar,
		"dist/site.ZIP":        FormatZip,
		"layer.tar":            FormatTar,
		"/tmp/layer.tar.gz":    FormatTarGzip,
		"layer.tgz":            FormatTarGzip,
		"out/layer.tar.zst":    FormatTarZstd,
		"out.d/layer.tar.zstd": FormatTarZstd,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	for _, path := range []string{"noext", "dir.d/noext", "file.7z"} {
		_, err := FormatFromPath(path)
		require.ErrorIs(t, err, ErrUnknownFormat, path)
	}
}

func TestFormatMediaTypes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ocispec.MediaTypeImageLayerGzip, FormatTarGzip.MediaType())
	assert.Equal(t, ocispec.MediaTypeImageLayerZstd, FormatTarZstd.MediaType())
	assert.Equal(t, "application/java-archive", FormatJar.MediaType())
	assert.Equal(t, ".tar.gz", FormatTarGzip.Extension())
	assert.Equal(t, "unknown", Format(99).String())
}
