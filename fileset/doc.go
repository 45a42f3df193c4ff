// Package fileset enumerates the files of a directory tree for packaging.
//
// A [FileSet] walks a root directory, keeps the regular files whose
// slash-separated relative path passes its include and exclude patterns, and
// derives the directory closure those files need: every ancestor directory
// between a file and the root, each described by the metadata of the
// directory it came from.
//
// An [ArchiveFileSet] composes a FileSet with [Overrides] that relocate files
// under a prefix and replace their mode and ownership. Overrides are applied
// as a pure transform, and the directory closure is always derived from the
// transformed files so directory names match the relocated paths.
//
// Entries have a canonical order: files by relative path ([CompareFiles]) and
// directories by normalized name ([CompareDirectories]). Archive writers emit
// entries in this order so the same inputs always produce the same stream.
package fileset
