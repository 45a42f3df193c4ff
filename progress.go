package assembly

// ProgressEvent represents a progress update during Build.
type ProgressEvent struct {
	// Stage identifies the current phase of the build.
	Stage ProgressStage

	// Path is the entry currently being written, if applicable.
	Path string

	// BytesDone is the number of file bytes written so far.
	BytesDone uint64

	// BytesTotal is the total number of file bytes to write.
	// Zero indicates the total is unknown (e.g., during listing).
	BytesTotal uint64

	// FilesDone is the number of entries written in the current stage.
	FilesDone int

	// FilesTotal is the number of entries the current stage will write.
	FilesTotal int
}

// ProgressStage identifies the current phase of a build.
type ProgressStage uint8

// Build stages, in order.
const (
	// StageListing indicates filesets are being traversed and merged.
	StageListing ProgressStage = iota

	// StageDirectories indicates directory entries are being written.
	StageDirectories

	// StageFiles indicates file entries are being written.
	StageFiles
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageListing:
		return "listing"
	case StageDirectories:
		return "directories"
	case StageFiles:
		return "files"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during Build. It is called on the
// goroutine running Build.
type ProgressFunc func(ProgressEvent)
