package assembly

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Well-known main attributes.
const (
	ManifestVersion       = "Manifest-Version"
	ImplementationVendor  = "Implementation-Vendor"
	ImplementationVersion = "Implementation-Version"
	SpecificationVendor   = "Specification-Vendor"
	SpecificationVersion  = "Specification-Version"

	// DefaultManifestVersion is written when no Manifest-Version is set.
	DefaultManifestVersion = "1.0"
)

// maxLineBytes is the longest manifest line, excluding the line break.
const maxLineBytes = 72

// ManifestAttribute is one name/value pair.
type ManifestAttribute struct {
	Name  string
	Value string
}

// ManifestSection is a named per-entry section.
type ManifestSection struct {
	Name       string
	Attributes []ManifestAttribute
}

// Manifest is an archive header in JAR manifest form: an ordered set of
// main attributes with case-insensitive names, plus optional named sections.
//
// The zero value is an empty manifest ready to use.
type Manifest struct {
	main     []ManifestAttribute
	sections []ManifestSection
}

// Len returns the number of main attributes.
func (m *Manifest) Len() int {
	return len(m.main)
}

// Attributes returns a copy of the main attributes in insertion order.
func (m *Manifest) Attributes() []ManifestAttribute {
	return append([]ManifestAttribute(nil), m.main...)
}

// Sections returns a copy of the named sections in order.
func (m *Manifest) Sections() []ManifestSection {
	out := make([]ManifestSection, len(m.sections))
	for i, s := range m.sections {
		out[i] = ManifestSection{Name: s.Name, Attributes: append([]ManifestAttribute(nil), s.Attributes...)}
	}
	return out
}

// Get returns the value of a main attribute.
func (m *Manifest) Get(name string) (string, bool) {
	if i := indexAttr(m.main, name); i >= 0 {
		return m.main[i].Value, true
	}
	return "", false
}

// Set sets a main attribute, replacing any value under the same name
// regardless of case. The original position and spelling are kept.
func (m *Manifest) Set(name, value string) error {
	if err := validAttrName(name); err != nil {
		return err
	}
	if strings.ContainsAny(value, "\r\n\x00") {
		return fmt.Errorf("%w: value of %q contains a line break or NUL", ErrInvalidManifest, name)
	}
	m.main = setAttr(m.main, name, value)
	return nil
}

// SetDefault sets a main attribute only if it is absent. It reports
// whether the value was stored.
func (m *Manifest) SetDefault(name, value string) (bool, error) {
	if _, ok := m.Get(name); ok {
		return false, nil
	}
	if err := m.Set(name, value); err != nil {
		return false, err
	}
	return true, nil
}

// Merge copies every main attribute and section of other into m. Values
// from other replace existing ones; sections with the same name are merged.
func (m *Manifest) Merge(other *Manifest) {
	for _, a := range other.main {
		m.main = setAttr(m.main, a.Name, a.Value)
	}
	for _, s := range other.sections {
		i := -1
		for j := range m.sections {
			if m.sections[j].Name == s.Name {
				i = j
				break
			}
		}
		if i < 0 {
			m.sections = append(m.sections, ManifestSection{Name: s.Name})
			i = len(m.sections) - 1
		}
		for _, a := range s.Attributes {
			m.sections[i].Attributes = setAttr(m.sections[i].Attributes, a.Name, a.Value)
		}
	}
}

// WriteTo serializes the manifest with CRLF line breaks and 72-byte line
// wrapping. Manifest-Version always comes first.
func (m *Manifest) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	version, ok := m.Get(ManifestVersion)
	if !ok {
		version = DefaultManifestVersion
	}
	writeLine(&buf, ManifestVersion, version)
	for _, a := range m.main {
		if strings.EqualFold(a.Name, ManifestVersion) {
			continue
		}
		writeLine(&buf, a.Name, a.Value)
	}
	buf.WriteString("\r\n")

	for _, s := range m.sections {
		writeLine(&buf, "Name", s.Name)
		for _, a := range s.Attributes {
			writeLine(&buf, a.Name, a.Value)
		}
		buf.WriteString("\r\n")
	}
	return buf.WriteTo(w)
}

// Bytes returns the serialized manifest.
func (m *Manifest) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = m.WriteTo(&buf) //nolint:errcheck // bytes.Buffer writes do not fail
	return buf.Bytes()
}

// ParseManifest reads a serialized manifest. Continuation lines, any line
// break style and named sections are accepted.
func ParseManifest(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	var (
		attrs   []ManifestAttribute
		section = -1 // -1 is the main section
		lineNo  int
	)

	flush := func() {
		if section < 0 {
			m.main = attrs
		} else if len(attrs) > 0 {
			m.sections[section].Attributes = attrs
		}
		attrs = nil
	}

	sc := bufio.NewScanner(r)
	sc.Split(scanManifestLines)
	started := false
	inName := false
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		switch {
		case line == "":
			if started {
				flush()
				started = false
				inName = false
				section = len(m.sections) // next non-empty line opens a section
			}
			continue
		case line[0] == ' ' && inName:
			m.sections[len(m.sections)-1].Name += line[1:]
			continue
		case line[0] == ' ':
			if len(attrs) == 0 {
				return nil, fmt.Errorf("%w: line %d: continuation without attribute", ErrInvalidManifest, lineNo)
			}
			attrs[len(attrs)-1].Value += line[1:]
			continue
		}

		name, value, ok := strings.Cut(line, ": ")
		if !ok {
			if n, found := strings.CutSuffix(line, ":"); found {
				name, value, ok = n, "", true
			}
		}
		if !ok {
			return nil, fmt.Errorf("%w: line %d: missing separator", ErrInvalidManifest, lineNo)
		}
		if err := validAttrName(name); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		if !started && section >= 0 {
			if !strings.EqualFold(name, "Name") {
				return nil, fmt.Errorf("%w: line %d: section must start with Name", ErrInvalidManifest, lineNo)
			}
			m.sections = append(m.sections, ManifestSection{Name: value})
			started = true
			inName = true
			continue
		}
		started = true
		inName = false
		attrs = append(attrs, ManifestAttribute{Name: name, Value: value})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if started {
		flush()
	}
	return m, nil
}

// scanManifestLines splits on CRLF, LF or a lone CR.
func scanManifestLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// writeLine writes "name: value" wrapped at maxLineBytes. Continuation lines
// start with a single space and never split a UTF-8 sequence.
func writeLine(buf *bytes.Buffer, name, value string) {
	line := name + ": " + value
	limit := maxLineBytes
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		buf.WriteString(line[:cut])
		buf.WriteString("\r\n ")
		line = line[cut:]
		limit = maxLineBytes - 1
	}
	buf.WriteString(line)
	buf.WriteString("\r\n")
}

func indexAttr(attrs []ManifestAttribute, name string) int {
	for i, a := range attrs {
		if strings.EqualFold(a.Name, name) {
			return i
		}
	}
	return -1
}

func setAttr(attrs []ManifestAttribute, name, value string) []ManifestAttribute {
	if i := indexAttr(attrs, name); i >= 0 {
		attrs[i].Value = value
		return attrs
	}
	return append(attrs, ManifestAttribute{Name: name, Value: value})
}

// validAttrName accepts 1 to 70 characters of [A-Za-z0-9_-].
func validAttrName(name string) error {
	if name == "" || len(name) > 70 {
		return fmt.Errorf("%w: attribute name %q must be 1 to 70 characters", ErrInvalidManifest, name)
	}
	for _, c := range []byte(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return fmt.Errorf("%w: attribute name %q contains %q", ErrInvalidManifest, name, c)
		}
	}
	return nil
}

// manifestValue renders a configuration value as an attribute value.
func manifestValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}
