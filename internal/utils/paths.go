package utils

import (
	"path/filepath"
	"strings"
)

// ParseIncludePaths splits each value on the OS path list separator and
// drops empty entries. Values may already be split, as with repeated flags.
func ParseIncludePaths(values ...string) []string {
	paths := make([]string, 0)

	for _, value := range values {
		for _, p := range filepath.SplitList(value) {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
	}

	return paths
}

// AbsPaths resolves every path to an absolute one.
func AbsPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}

		out = append(out, abs)
	}

	return out, nil
}
