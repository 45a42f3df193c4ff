package fileset

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionRoundTrip(t *testing.T) {
	t.Parallel()

	for m := fs.FileMode(0); m <= fs.ModePerm; m++ {
		perms := PermissionsFromMode(m)
		require.Equal(t, m, ModeFromPermissions(perms), "mode %#o", m)
		require.Equal(t, perms, PermissionsFromMode(ModeFromPermissions(perms)), "mode %#o", m)
	}
}

func TestPermissionsFromMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []Permission{OwnerRead, OwnerWrite, OwnerExecute, GroupRead, GroupExecute, OthersRead, OthersExecute},
		PermissionsFromMode(0o755))
	assert.Empty(t, PermissionsFromMode(0))
	assert.Equal(t, []Permission{OwnerRead}, PermissionsFromMode(fs.ModeDir|0o400))
	assert.Equal(t, fs.FileMode(0o600), ModeFromPermissions([]Permission{OwnerWrite, OwnerRead, OwnerRead}))
	assert.Equal(t, "GroupWrite", GroupWrite.String())
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    fs.FileMode
		wantErr bool
	}{
		{in: "755", want: 0o755},
		{in: "0755", want: 0o755},
		{in: "0o644", want: 0o644},
		{in: "0", want: 0},
		{in: "rwxr-xr-x", want: 0o755},
		{in: "rw-r-----", want: 0o640},
		{in: "---------", want: 0},
		{in: "", wantErr: true},
		{in: "0o", wantErr: true},
		{in: "888", wantErr: true},
		{in: "1777", wantErr: true},
		{in: "rwxrwxrwz", wantErr: true},
		{in: "xwrr-xr-x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "rwxr-xr-x", FormatMode(0o755))
	assert.Equal(t, "rw-------", FormatMode(fs.ModeDir|0o600))
	for m := fs.FileMode(0); m <= fs.ModePerm; m++ {
		got, err := ParseMode(FormatMode(m))
		require.NoError(t, err)
		require.Equal(t, m, got)
	}
}

func TestModeFromValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      any
		want    fs.FileMode
		wantErr bool
	}{
		{name: "int", in: 0o755, want: 0o755},
		{name: "int64", in: int64(0o644), want: 0o644},
		{name: "uint32", in: uint32(0o600), want: 0o600},
		{name: "filemode", in: fs.FileMode(0o700), want: 0o700},
		{name: "float", in: float64(493), want: 0o755},
		{name: "string", in: "0755", want: 0o755},
		{name: "fractional", in: 1.5, wantErr: true},
		{name: "negative", in: -1, wantErr: true},
		{name: "too large", in: 0o1000, wantErr: true},
		{name: "bool", in: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := modeFromValue(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
