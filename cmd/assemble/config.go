package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/meigma/assembly"
	"github.com/meigma/assembly/fileset"
)

// buildConfig is the YAML description of one archive.
type buildConfig struct {
	Output           string           `yaml:"output"`
	Format           string           `yaml:"format"`
	Manifest         map[string]any   `yaml:"manifest"`
	ManifestFile     string           `yaml:"manifestFile"`
	Vendor           string           `yaml:"vendor"`
	Version          string           `yaml:"version"`
	CompressionLevel *int             `yaml:"compressionLevel"`
	FileSets         []map[string]any `yaml:"filesets"`
	Directories      []directoryEntry `yaml:"directories"`

	// base is the directory relative paths are resolved against.
	base string
}

// directoryEntry is an explicit directory to add to the archive.
type directoryEntry struct {
	Name      string `yaml:"name"`
	Mode      string `yaml:"mode"`
	UserName  string `yaml:"userName"`
	GroupName string `yaml:"groupName"`
}

// loadConfig reads a build file. Relative paths inside it are resolved
// against the file's directory.
func loadConfig(path string) (*buildConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg buildConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Output == "" {
		return nil, fmt.Errorf("%s: output is required", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg.base = filepath.Dir(abs)
	return &cfg, nil
}

func (c *buildConfig) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.base, filepath.FromSlash(p))
}

// format returns the configured format, or the one implied by the output
// extension.
func (c *buildConfig) format() (assembly.Format, error) {
	if c.Format != "" {
		return assembly.ParseFormat(c.Format)
	}
	return assembly.FormatFromPath(c.Output)
}

// configure registers everything the build file describes on a. Every
// problem is reported, not only the first.
func (c *buildConfig) configure(a *assembly.Assembler) error {
	var errs []error
	if c.ManifestFile != "" {
		if err := a.ReadHeaderFile(c.resolve(c.ManifestFile)); err != nil {
			errs = append(errs, err)
		}
	}
	if len(c.Manifest) > 0 {
		if err := a.MergeHeader(c.Manifest); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Vendor != "" || c.Version != "" {
		if err := a.EnsureVendor(c.Vendor, c.Version); err != nil {
			errs = append(errs, err)
		}
	}

	for i, attrs := range c.FileSets {
		if err := c.addFileSet(a, attrs); err != nil {
			errs = append(errs, fmt.Errorf("filesets[%d]: %w", i, err))
		}
	}
	for i, d := range c.Directories {
		dir, err := d.directory()
		if err != nil {
			errs = append(errs, fmt.Errorf("directories[%d]: %w", i, err))
			continue
		}
		a.AddDirectory(dir)
	}
	return errors.Join(errs...)
}

func (c *buildConfig) addFileSet(a *assembly.Assembler, attrs map[string]any) error {
	optional := false
	if v, ok := attrs["optional"]; ok {
		b, ok := v.(bool)
		if !ok {
			return errors.New("the [optional] attribute must be a boolean")
		}
		optional = b
		attrs = withoutKey(attrs, "optional")
	}
	s, err := fileset.ArchiveFileSetFromAttributes(c.base, attrs)
	if err != nil {
		return err
	}
	if optional {
		return a.AddOptionalFileSet(s)
	}
	return a.AddFileSet(s)
}

func (d directoryEntry) directory() (fileset.Directory, error) {
	dir := fileset.Directory{
		Name:      d.Name,
		Mode:      0o755,
		UserName:  d.UserName,
		GroupName: d.GroupName,
	}
	if d.Name == "" {
		return dir, errors.New("name is required")
	}
	if d.Mode != "" {
		mode, err := fileset.ParseMode(d.Mode)
		if err != nil {
			return dir, err
		}
		dir.Mode = mode
	}
	return dir, nil
}

func withoutKey(m map[string]any, key string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k != key {
			out[k] = v
		}
	}
	return out
}
