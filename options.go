package assembly

import (
	"log/slog"
	"time"
)

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger for build operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// WithProgress sets a callback to receive progress updates during Build.
// The callback receives events for listing, directory and file stages.
func WithProgress(fn ProgressFunc) Option {
	return func(a *Assembler) {
		a.progress = fn
	}
}

// WithCompressionLevel sets the codec level. For zip, jar and tar.gz it is a
// deflate level (-2 to 9, where -1 is the default). For tar.zst it is a zstd
// level (1 to 22). Plain tar ignores it.
func WithCompressionLevel(level int) Option {
	return func(a *Assembler) {
		a.level = level
		a.levelSet = true
	}
}

// WithModTime sets the modification time of entries the format generates
// itself, such as the JAR manifest and META-INF directory. The zero value
// uses the time Build starts.
func WithModTime(t time.Time) Option {
	return func(a *Assembler) {
		a.modTime = t
	}
}
