package resource

import (
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// FileSystem resolves locations against a list of base directories, then as
// a path on its own. Content is decoded from the configured encoding.
type FileSystem struct {
	baseDirs []string
	encoding string
}

// NewFileSystem returns a resolver searching baseDirs in order. Relative base
// directories are made absolute.
func NewFileSystem(encoding string, baseDirs ...string) (*FileSystem, error) {
	if err := ValidateEncoding(encoding); err != nil {
		return nil, err
	}

	dirs := make([]string, 0, len(baseDirs))
	for _, dir := range baseDirs {
		if dir == "" {
			continue
		}

		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid base directory"), "dir", dir)
		}

		dirs = append(dirs, abs)
	}

	return &FileSystem{baseDirs: dirs, encoding: encoding}, nil
}

// IncludePaths returns the base directories in search order.
func (f *FileSystem) IncludePaths() []string {
	return append([]string(nil), f.baseDirs...)
}

// Encoding returns the character set used to decode content.
func (f *FileSystem) Encoding() string {
	return f.encoding
}

func (f *FileSystem) CanRead(location string) bool {
	_, ok := f.resolve(location)
	return ok
}

func (f *FileSystem) Read(location string) (string, error) {
	path, ok := f.resolve(location)
	if !ok {
		return "", notFound(location)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to read resource"), "path", path)
	}

	return Decode(data, f.encoding)
}

func (f *FileSystem) LastModified(location string) int64 {
	path, ok := f.resolve(location)
	if !ok {
		return Unresolvable
	}

	info, err := os.Stat(path)
	if err != nil {
		return Unresolvable
	}

	return info.ModTime().UnixMilli()
}

func (f *FileSystem) Identity() string {
	return "fs:" + f.encoding + ":" + strings.Join(f.baseDirs, string(filepath.ListSeparator))
}

// resolve returns the first regular file location names.
func (f *FileSystem) resolve(location string) (string, bool) {
	if location == "" {
		return "", false
	}

	local := filepath.FromSlash(location)
	candidates := make([]string, 0, len(f.baseDirs)+1)
	if !filepath.IsAbs(local) {
		for _, dir := range f.baseDirs {
			candidates = append(candidates, filepath.Join(dir, local))
		}
	}

	candidates = append(candidates, local)

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}

	return "", false
}
