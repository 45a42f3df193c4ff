package fileset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotDirectory is returned when a fileset root exists but is not a directory.
	ErrNotDirectory = errors.New("fileset root is not a directory")

	// ErrInvalidMode is returned when a mode string or value cannot be used
	// as a POSIX permission mode.
	ErrInvalidMode = errors.New("invalid permission mode")
)

// AttributeError reports every problem found while validating a
// configuration map. A nil *AttributeError means the attributes are valid.
type AttributeError struct {
	// Entity names the configured type, such as "FileSet".
	Entity string

	// Problems holds one human-readable line per problem, in detection order.
	Problems []string
}

// Error joins all problems, one per line.
func (e *AttributeError) Error() string {
	return strings.Join(e.Problems, "\n")
}

func (e *AttributeError) addf(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// err returns e as an error, or nil when no problem was recorded.
func (e *AttributeError) err() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}
