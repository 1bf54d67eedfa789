package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIncludePaths(t *testing.T) {
	sep := string(filepath.ListSeparator)

	tests := []struct {
		input    []string
		expected []string
	}{
		{[]string{"styles"}, []string{"styles"}},
		{[]string{"styles" + sep + "vendor"}, []string{"styles", "vendor"}},
		{[]string{"a", "b" + sep + "c"}, []string{"a", "b", "c"}},
		{[]string{"a" + sep + sep + " b "}, []string{"a", "b"}},
		{[]string{""}, []string{}},
		{nil, []string{}},
	}

	for _, test := range tests {
		result := ParseIncludePaths(test.input...)
		assert.Equal(t, test.expected, result, "ParseIncludePaths(%q)", strings.Join(test.input, ","))
	}
}

func TestAbsPaths(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	got, err := AbsPaths([]string{"styles", cwd})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(cwd, "styles"), cwd}, got)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.css")

	require.NoError(t, WriteFileAtomic(path, []byte("a{}"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a{}", string(data))

	require.NoError(t, WriteFileAtomic(path, []byte("b{}"), 0o644))

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "b{}", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestWriteFileAtomic_UnwritableParent(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := WriteFileAtomic(filepath.Join(blocker, "out.css"), []byte("a{}"), 0o644)
	assert.Error(t, err)
}
