package fileset

import (
	"fmt"
	"io/fs"
	"math"
	"strconv"
	"strings"
)

// Permission is a single POSIX permission bit.
type Permission fs.FileMode

// POSIX permission bits, owner first.
const (
	OwnerRead     Permission = 0o400
	OwnerWrite    Permission = 0o200
	OwnerExecute  Permission = 0o100
	GroupRead     Permission = 0o040
	GroupWrite    Permission = 0o020
	GroupExecute  Permission = 0o010
	OthersRead    Permission = 0o004
	OthersWrite   Permission = 0o002
	OthersExecute Permission = 0o001
)

// allPermissions lists the permission bits from most to least significant.
var allPermissions = [...]Permission{
	OwnerRead, OwnerWrite, OwnerExecute,
	GroupRead, GroupWrite, GroupExecute,
	OthersRead, OthersWrite, OthersExecute,
}

// String returns the constant name, e.g. "OwnerRead".
func (p Permission) String() string {
	switch p {
	case OwnerRead:
		return "OwnerRead"
	case OwnerWrite:
		return "OwnerWrite"
	case OwnerExecute:
		return "OwnerExecute"
	case GroupRead:
		return "GroupRead"
	case GroupWrite:
		return "GroupWrite"
	case GroupExecute:
		return "GroupExecute"
	case OthersRead:
		return "OthersRead"
	case OthersWrite:
		return "OthersWrite"
	case OthersExecute:
		return "OthersExecute"
	default:
		return fmt.Sprintf("Permission(%#o)", uint32(p))
	}
}

// PermissionsFromMode returns the permission bits set in mode, most
// significant first. Bits outside fs.ModePerm are ignored.
func PermissionsFromMode(mode fs.FileMode) []Permission {
	perms := make([]Permission, 0, len(allPermissions))
	for _, p := range allPermissions {
		if mode&fs.FileMode(p) != 0 {
			perms = append(perms, p)
		}
	}
	return perms
}

// ModeFromPermissions returns the mode holding exactly the given bits.
// Duplicates are harmless.
func ModeFromPermissions(perms []Permission) fs.FileMode {
	var mode fs.FileMode
	for _, p := range perms {
		mode |= fs.FileMode(p)
	}
	return mode & fs.ModePerm
}

// ParseMode parses an octal ("755", "0755", "0o755") or symbolic
// ("rwxr-xr-x") permission mode.
func ParseMode(s string) (fs.FileMode, error) {
	s = strings.TrimSpace(s)
	if len(s) == 9 && strings.Trim(s, "rwx-") == "" {
		return parseSymbolic(s)
	}

	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0o"), "0O")
	if digits == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	v, err := strconv.ParseUint(digits, 8, 32)
	if err != nil || v > uint64(fs.ModePerm) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return fs.FileMode(v), nil
}

func parseSymbolic(s string) (fs.FileMode, error) {
	const letters = "rwxrwxrwx"
	var mode fs.FileMode
	for i := range len(letters) {
		switch s[i] {
		case letters[i]:
			mode |= fs.FileMode(allPermissions[i])
		case '-':
		default:
			return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
		}
	}
	return mode, nil
}

// FormatMode renders the permission bits of mode symbolically, e.g. "rwxr-xr-x".
func FormatMode(mode fs.FileMode) string {
	return mode.Perm().String()[1:]
}

// modeFromValue converts a configuration value into a permission mode.
// Integers must be in range, floats must be integral (YAML and JSON
// decoders produce them) and strings go through ParseMode.
func modeFromValue(v any) (fs.FileMode, error) {
	var n int64
	switch x := v.(type) {
	case fs.FileMode:
		n = int64(x)
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %v", ErrInvalidMode, v)
		}
		n = int64(x)
	case uint16:
		n = int64(x)
	case uint32:
		n = int64(x)
	case float64:
		if x != math.Trunc(x) || x < 0 || x > float64(fs.ModePerm) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidMode, v)
		}
		n = int64(x)
	case string:
		return ParseMode(x)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidMode, v)
	}
	if n < 0 || n > int64(fs.ModePerm) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidMode, v)
	}
	return fs.FileMode(n), nil
}
