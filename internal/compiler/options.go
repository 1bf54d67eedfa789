package compiler

import (
	"fmt"
	"maps"
	"strings"
)

// LineNumbers selects how source line information is emitted into the output.
type LineNumbers string

const (
	LineNumbersNone       LineNumbers = ""
	LineNumbersComments   LineNumbers = "comments"
	LineNumbersMediaQuery LineNumbers = "mediaquery"
	LineNumbersAll        LineNumbers = "all"
)

// ParseLineNumbers converts a flag or config value into a LineNumbers mode.
func ParseLineNumbers(s string) (LineNumbers, error) {
	switch mode := LineNumbers(strings.ToLower(strings.TrimSpace(s))); mode {
	case "none", LineNumbersNone:
		return LineNumbersNone, nil
	case LineNumbersComments, LineNumbersMediaQuery, LineNumbersAll:
		return mode, nil
	default:
		return LineNumbersNone, fmt.Errorf("invalid line numbers mode: %s", s)
	}
}

// Options controls a single compilation. Options is a value type: two
// compilations with equal options produce the same output.
type Options struct {
	Compress          bool              `json:"compress"`
	Minify            bool              `json:"minify"`
	OptimizationLevel int               `json:"optimization_level"`
	StrictImports     bool              `json:"strict_imports"`
	StrictMath        bool              `json:"strict_math"`
	StrictUnits       bool              `json:"strict_units"`
	RootPath          string            `json:"rootpath"`
	RelativeURLs      bool              `json:"relative_urls"`
	LineNumbers       LineNumbers       `json:"line_numbers"`
	GlobalVars        map[string]string `json:"global_vars,omitempty"`
	ModifyVars        map[string]string `json:"modify_vars,omitempty"`

	// DependenciesOnly asks the engine to resolve imports without producing
	// output.
	DependenciesOnly bool `json:"dependencies_only"`
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		OptimizationLevel: 1,
		RelativeURLs:      true,
	}
}

// Clone returns a deep copy of o.
func (o Options) Clone() Options {
	c := o
	c.GlobalVars = maps.Clone(o.GlobalVars)
	c.ModifyVars = maps.Clone(o.ModifyVars)

	return c
}

// WithDependenciesOnly returns a copy of o that only resolves imports.
func (o Options) WithDependenciesOnly() Options {
	c := o.Clone()
	c.DependenciesOnly = true

	return c
}

// Equal reports whether o and other request the same compilation. A nil and
// an empty variable map are equal.
func (o Options) Equal(other Options) bool {
	return o.Compress == other.Compress &&
		o.Minify == other.Minify &&
		o.OptimizationLevel == other.OptimizationLevel &&
		o.StrictImports == other.StrictImports &&
		o.StrictMath == other.StrictMath &&
		o.StrictUnits == other.StrictUnits &&
		o.RootPath == other.RootPath &&
		o.RelativeURLs == other.RelativeURLs &&
		o.LineNumbers == other.LineNumbers &&
		o.DependenciesOnly == other.DependenciesOnly &&
		maps.Equal(o.GlobalVars, other.GlobalVars) &&
		maps.Equal(o.ModifyVars, other.ModifyVars)
}
