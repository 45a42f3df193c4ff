package fileset

import (
	"fmt"
	"path/filepath"
	"slices"
)

// Schema describes the attributes accepted when a fileset is configured from
// an untyped map, such as a decoded YAML document.
type Schema struct {
	// Entity names the configured type in error messages.
	Entity string

	// Required lists the attributes that must be present.
	Required []string

	// Valid lists every accepted attribute, required ones included.
	Valid []string
}

var fileSetSchema = Schema{
	Entity:   "FileSet",
	Required: []string{"dir"},
	Valid:    []string{"dir", "excludePatterns", "includePatterns"},
}

var archiveFileSetSchema = Schema{
	Entity:   "ArchiveFileSet",
	Required: []string{"dir"},
	Valid: []string{
		"dir", "dirGroupName", "dirMode", "dirUserName", "excludePatterns",
		"groupName", "includePatterns", "mode", "prefix", "userName",
	},
}

// FileSetSchema returns the attribute schema of a FileSet.
func FileSetSchema() Schema {
	return fileSetSchema.clone()
}

// ArchiveFileSetSchema returns the attribute schema of an ArchiveFileSet.
func ArchiveFileSetSchema() Schema {
	return archiveFileSetSchema.clone()
}

func (s Schema) clone() Schema {
	return Schema{
		Entity:   s.Entity,
		Required: slices.Clone(s.Required),
		Valid:    slices.Clone(s.Valid),
	}
}

// Validate checks attrs against the schema and returns an *AttributeError
// listing every problem, or nil when attrs are valid.
func (s Schema) Validate(attrs map[string]any) error {
	e := &AttributeError{Entity: s.Entity}
	s.validate(attrs, e)
	return e.err()
}

func (s Schema) validate(attrs map[string]any, e *AttributeError) {
	var missing []string
	for _, key := range s.Required {
		if _, ok := attrs[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		e.addf("missing required attributes %v for %s", missing, s.article())
	}

	var unknown []string
	for key := range attrs {
		if !slices.Contains(s.Valid, key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		e.addf("invalid attributes %v for %s", unknown, s.article())
	}

	for _, key := range s.Valid {
		v, ok := attrs[key]
		if !ok {
			continue
		}
		switch key {
		case "includePatterns", "excludePatterns":
			if _, ok := stringList(v); !ok {
				e.addf("the [%s] attribute for %s must be a list of strings", key, s.article())
			}
		case "mode", "dirMode":
			if _, err := modeFromValue(v); err != nil {
				e.addf("the [%s] attribute for %s must be a permission mode: %v", key, s.article(), err)
			}
		default:
			str, ok := v.(string)
			if !ok {
				e.addf("the [%s] attribute for %s must be a string", key, s.article())
			} else if key == "dir" && str == "" {
				e.addf("the [dir] attribute for %s must not be empty", s.article())
			}
		}
	}
}

func (s Schema) article() string {
	switch s.Entity {
	case "":
		return "a fileset"
	case "ArchiveFileSet":
		return "an " + s.Entity
	default:
		return "a " + s.Entity
	}
}

// FileSetFromAttributes validates attrs and builds a FileSet. A relative
// dir attribute is resolved against base.
func FileSetFromAttributes(base string, attrs map[string]any) (*FileSet, error) {
	e := &AttributeError{Entity: fileSetSchema.Entity}
	fileSetSchema.validate(attrs, e)
	opts := patternOptions(attrs, e)
	if err := e.err(); err != nil {
		return nil, err
	}
	return New(resolveDir(base, attrs["dir"].(string)), opts...), nil
}

// ArchiveFileSetFromAttributes validates attrs and builds an ArchiveFileSet.
// A relative dir attribute is resolved against base.
func ArchiveFileSetFromAttributes(base string, attrs map[string]any) (*ArchiveFileSet, error) {
	e := &AttributeError{Entity: archiveFileSetSchema.Entity}
	archiveFileSetSchema.validate(attrs, e)
	opts := patternOptions(attrs, e)
	if err := e.err(); err != nil {
		return nil, err
	}

	var overrides []OverrideOption
	if v, ok := attrs["prefix"].(string); ok {
		overrides = append(overrides, WithPrefix(v))
	}
	if v, ok := attrs["mode"]; ok {
		mode, _ := modeFromValue(v) //nolint:errcheck // validated above
		overrides = append(overrides, WithMode(mode))
	}
	if v, ok := attrs["dirMode"]; ok {
		mode, _ := modeFromValue(v) //nolint:errcheck // validated above
		overrides = append(overrides, WithDirMode(mode))
	}
	if v, ok := attrs["userName"].(string); ok {
		overrides = append(overrides, WithUserName(v))
	}
	if v, ok := attrs["groupName"].(string); ok {
		overrides = append(overrides, WithGroupName(v))
	}
	if v, ok := attrs["dirUserName"].(string); ok {
		overrides = append(overrides, WithDirUserName(v))
	}
	if v, ok := attrs["dirGroupName"].(string); ok {
		overrides = append(overrides, WithDirGroupName(v))
	}

	dir := resolveDir(base, attrs["dir"].(string))
	return NewArchive(dir, NewOverrides(overrides...), opts...), nil
}

// patternOptions compiles the pattern attributes, recording compile errors
// on e. Type errors were already recorded by validate.
func patternOptions(attrs map[string]any, e *AttributeError) []Option {
	var opts []Option
	for _, key := range []string{"includePatterns", "excludePatterns"} {
		srcs, ok := stringList(attrs[key])
		if !ok || len(srcs) == 0 {
			continue
		}
		res, err := CompilePatterns(srcs...)
		if err != nil {
			e.addf("the [%s] attribute for %s has invalid patterns: %v", key, e.article(), err)
			continue
		}
		if key == "includePatterns" {
			opts = append(opts, WithIncludePatterns(res...))
		} else {
			opts = append(opts, WithExcludePatterns(res...))
		}
	}
	return opts
}

func (e *AttributeError) article() string {
	return Schema{Entity: e.Entity}.article()
}

// stringList accepts []string and []any holding only strings. A nil value
// is an empty list.
func stringList(v any) ([]string, bool) {
	switch x := v.(type) {
	case nil:
		return nil, true
	case []string:
		return x, true
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func resolveDir(base, dir string) string {
	if filepath.IsAbs(dir) || base == "" {
		return dir
	}
	return filepath.Join(base, dir)
}

// String renders the schema for diagnostics.
func (s Schema) String() string {
	return fmt.Sprintf("%s(required=%v, valid=%v)", s.Entity, s.Required, s.Valid)
}
