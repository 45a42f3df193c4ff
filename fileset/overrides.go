package fileset

import (
	"io/fs"

	"github.com/meigma/assembly/internal/pathutil"
)

// Overrides relocates files under a prefix and replaces file and directory
// metadata. The zero value changes nothing.
//
// File and directory settings are independent: a file mode never affects
// directories and a directory mode never affects files.
type Overrides struct {
	prefix string

	mode    fs.FileMode
	modeSet bool

	userName  string
	groupName string

	dirMode    fs.FileMode
	dirModeSet bool

	dirUserName  string
	dirGroupName string
}

// OverrideOption configures Overrides.
type OverrideOption func(*Overrides)

// WithPrefix places every file under prefix. The prefix is normalized, so
// "/usr/local/" and "usr/local" are equivalent.
func WithPrefix(prefix string) OverrideOption {
	return func(o *Overrides) {
		o.prefix = pathutil.Normalize(prefix)
	}
}

// WithMode replaces the permission bits of every file.
func WithMode(mode fs.FileMode) OverrideOption {
	return func(o *Overrides) {
		o.mode = mode.Perm()
		o.modeSet = true
	}
}

// WithUserName replaces the owner name of every file.
func WithUserName(name string) OverrideOption {
	return func(o *Overrides) {
		o.userName = name
	}
}

// WithGroupName replaces the group name of every file.
func WithGroupName(name string) OverrideOption {
	return func(o *Overrides) {
		o.groupName = name
	}
}

// WithDirMode replaces the permission bits of every directory.
func WithDirMode(mode fs.FileMode) OverrideOption {
	return func(o *Overrides) {
		o.dirMode = mode.Perm()
		o.dirModeSet = true
	}
}

// WithDirUserName replaces the owner name of every directory.
func WithDirUserName(name string) OverrideOption {
	return func(o *Overrides) {
		o.dirUserName = name
	}
}

// WithDirGroupName replaces the group name of every directory.
func WithDirGroupName(name string) OverrideOption {
	return func(o *Overrides) {
		o.dirGroupName = name
	}
}

// NewOverrides builds Overrides from options.
func NewOverrides(opts ...OverrideOption) Overrides {
	var o Overrides
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Prefix returns the normalized prefix, or "" when none is set.
func (o Overrides) Prefix() string { return o.prefix }

// Mode returns the file mode override and whether it is set.
func (o Overrides) Mode() (fs.FileMode, bool) { return o.mode, o.modeSet }

// DirMode returns the directory mode override and whether it is set.
func (o Overrides) DirMode() (fs.FileMode, bool) { return o.dirMode, o.dirModeSet }

// UserName returns the file owner override, or "".
func (o Overrides) UserName() string { return o.userName }

// GroupName returns the file group override, or "".
func (o Overrides) GroupName() string { return o.groupName }

// DirUserName returns the directory owner override, or "".
func (o Overrides) DirUserName() string { return o.dirUserName }

// DirGroupName returns the directory group override, or "".
func (o Overrides) DirGroupName() string { return o.dirGroupName }

// ApplyFiles returns copies of files with the prefix and file overrides
// applied. The input is not modified. Overriding a name clears the numeric
// id it came with.
func (o Overrides) ApplyFiles(files []FileInfo) []FileInfo {
	out := make([]FileInfo, len(files))
	for i, f := range files {
		f.Relative = pathutil.Join(o.prefix, f.Relative)
		if o.modeSet {
			f.Mode = o.mode
		}
		if o.userName != "" {
			f.UserName = o.userName
			f.UID = 0
		}
		if o.groupName != "" {
			f.GroupName = o.groupName
			f.GID = 0
		}
		out[i] = f
	}
	return out
}

// ApplyDirectories returns copies of dirs with the directory overrides
// applied. Names are left alone; the prefix is already part of the names of
// a closure derived from ApplyFiles output.
func (o Overrides) ApplyDirectories(dirs []Directory) []Directory {
	out := make([]Directory, len(dirs))
	for i, d := range dirs {
		if o.dirModeSet {
			d.Mode = o.dirMode
		}
		if o.dirUserName != "" {
			d.UserName = o.dirUserName
			d.UID = 0
		}
		if o.dirGroupName != "" {
			d.GroupName = o.dirGroupName
			d.GID = 0
		}
		out[i] = d
	}
	return out
}
