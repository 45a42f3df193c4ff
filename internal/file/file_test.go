package file

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyWithContext(t *testing.T) {
	t.Parallel()

	var dst bytes.Buffer
	n, err := CopyWithContext(context.Background(), &dst, strings.NewReader("hello world"), make([]byte, 3))
	require.NoError(t, err)
	assert.Equal(t, uint64(11), n)
	assert.Equal(t, "hello world", dst.String())
}

func TestCopyWithContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var dst bytes.Buffer
	n, err := CopyWithContext(ctx, &dst, strings.NewReader("data"), nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	assert.Zero(t, dst.Len())
}

func TestCopyExact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		size    int64
		wantErr bool
	}{
		{name: "exact", src: "abcd", size: 4},
		{name: "empty", src: "", size: 0},
		{name: "short", src: "abc", size: 4, wantErr: true},
		{name: "long", src: "abcde", size: 4, wantErr: true},
		{name: "negative", src: "", size: -1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var dst bytes.Buffer
			err := CopyExact(context.Background(), &dst, strings.NewReader(tt.src), tt.size, nil)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrSizeMismatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.src, dst.String())
		})
	}
}

func TestCountingWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cw := &CountingWriter{W: &buf}
	_, err := cw.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = cw.Write([]byte("de"))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), cw.N)
	assert.Equal(t, "abcde", buf.String())
}
