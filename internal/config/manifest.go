package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/Norgate-AV/lessbuild/internal/compiler"
	"github.com/Norgate-AV/lessbuild/internal/resource"
	"github.com/Norgate-AV/lessbuild/internal/unit"
	"github.com/Norgate-AV/lessbuild/internal/utils"
)

// ErrInvalidManifest is returned for manifests that cannot be decoded.
var ErrInvalidManifest = zerr.New("invalid units manifest")

// Manifest lists the units compiled by one invocation.
type Manifest struct {
	Units []UnitSpec `yaml:"units"`

	dir string
}

// UnitSpec describes one unit. Relative paths are resolved against the
// manifest's directory, or the working directory for units given on the
// command line. Empty fields fall back to the configuration.
type UnitSpec struct {
	Source       string           `yaml:"source"`
	Destination  string           `yaml:"destination"`
	Encoding     string           `yaml:"encoding,omitempty"`
	IncludePaths []string         `yaml:"include_paths,omitempty"`
	Options      *OptionOverrides `yaml:"options,omitempty"`
}

// OptionOverrides replaces individual compiler options for a unit.
type OptionOverrides struct {
	Compress          *bool             `yaml:"compress"`
	Minify            *bool             `yaml:"minify"`
	OptimizationLevel *int              `yaml:"optimization_level"`
	StrictImports     *bool             `yaml:"strict_imports"`
	StrictMath        *bool             `yaml:"strict_math"`
	StrictUnits       *bool             `yaml:"strict_units"`
	RootPath          *string           `yaml:"rootpath"`
	RelativeURLs      *bool             `yaml:"relative_urls"`
	LineNumbers       *string           `yaml:"line_numbers"`
	GlobalVars        map[string]string `yaml:"global_vars"`
	ModifyVars        map[string]string `yaml:"modify_vars"`
}

// LoadManifest reads the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "invalid manifest path"), "path", path)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read manifest"), "path", abs)
	}

	m, err := ParseManifest(data)
	if err != nil {
		return nil, zerr.With(err, "path", abs)
	}

	m.dir = filepath.Dir(abs)

	return m, nil
}

// ParseManifest decodes a manifest. Unknown fields are rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrInvalidManifest, err)
	}

	for i, spec := range m.Units {
		if spec.Source == "" || spec.Destination == "" {
			return nil, zerr.With(errors.Join(ErrInvalidManifest, zerr.New("unit needs a source and a destination")), "index", i)
		}
	}

	return &m, nil
}

// Build turns every manifest entry into a unit configured by c.
func (m *Manifest) Build(c *Config) ([]*unit.Unit, error) {
	units := make([]*unit.Unit, 0, len(m.Units))

	for _, spec := range m.Units {
		u, err := c.buildUnit(spec, m.dir)
		if err != nil {
			return nil, err
		}

		units = append(units, u)
	}

	return units, nil
}

// Unit builds a single unit from spec, resolving relative paths against the
// working directory.
func (c *Config) Unit(spec UnitSpec) (*unit.Unit, error) {
	return c.buildUnit(spec, "")
}

// Resolver returns the resolver for a source file. Imports are looked up
// next to the source first, then in includePaths, both read in encoding. The
// configured include paths come last and are read in the configured encoding.
func (c *Config) Resolver(source, encoding string, includePaths ...string) (resource.Resolver, error) {
	if encoding == "" {
		encoding = c.Encoding
	}

	dirs := append([]string{filepath.Dir(source)}, includePaths...)

	local, err := resource.NewFileSystem(encoding, dirs...)
	if err != nil {
		return nil, err
	}

	if len(c.IncludePaths) == 0 {
		return local, nil
	}

	shared, err := resource.NewFileSystem(c.Encoding, c.IncludePaths...)
	if err != nil {
		return nil, err
	}

	combined, err := resource.NewCombining(local, shared)
	if err != nil {
		return nil, err
	}

	return combined, nil
}

func (c *Config) buildUnit(spec UnitSpec, base string) (*unit.Unit, error) {
	source := resolvePath(base, spec.Source)
	destination := resolvePath(base, spec.Destination)

	includePaths := make([]string, 0, len(spec.IncludePaths))
	for _, p := range utils.ParseIncludePaths(spec.IncludePaths...) {
		includePaths = append(includePaths, resolvePath(base, p))
	}

	encoding := spec.Encoding
	if encoding == "" {
		encoding = c.Encoding
	}

	r, err := c.Resolver(source, encoding, includePaths...)
	if err != nil {
		return nil, err
	}

	opts, err := spec.Options.Apply(c.Options)
	if err != nil {
		return nil, zerr.With(err, "source", spec.Source)
	}

	return unit.New(filepath.Base(source), destination, opts, r, encoding)
}

// Apply returns base with the overrides applied. A nil receiver returns a
// copy of base.
func (o *OptionOverrides) Apply(base compiler.Options) (compiler.Options, error) {
	opts := base.Clone()
	if o == nil {
		return opts, nil
	}

	setBool(&opts.Compress, o.Compress)
	setBool(&opts.Minify, o.Minify)
	setBool(&opts.StrictImports, o.StrictImports)
	setBool(&opts.StrictMath, o.StrictMath)
	setBool(&opts.StrictUnits, o.StrictUnits)
	setBool(&opts.RelativeURLs, o.RelativeURLs)

	if o.OptimizationLevel != nil {
		opts.OptimizationLevel = *o.OptimizationLevel
	}

	if o.RootPath != nil {
		opts.RootPath = *o.RootPath
	}

	if o.LineNumbers != nil {
		mode, err := compiler.ParseLineNumbers(*o.LineNumbers)
		if err != nil {
			return compiler.Options{}, err
		}

		opts.LineNumbers = mode
	}

	opts.GlobalVars = mergeVars(opts.GlobalVars, o.GlobalVars)
	opts.ModifyVars = mergeVars(opts.ModifyVars, o.ModifyVars)

	return opts, nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func mergeVars(base, overrides map[string]string) map[string]string {
	if len(overrides) == 0 {
		return base
	}

	if base == nil {
		base = make(map[string]string, len(overrides))
	}

	for k, v := range overrides {
		base[k] = v
	}

	return base
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) || base == "" {
		return p
	}

	return filepath.Join(base, p)
}
