package serialize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteModule(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out", "B1.lua")

	require.NoError(t, WriteModule(path, "{1,2}"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "return {1,2}\n", string(data))
}

func TestWriteModuleOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "W1.lua")
	require.NoError(t, os.WriteFile(path, []byte("old content that is long"), 0o644))

	require.NoError(t, WriteModule(path, "{}"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "return {}\n", string(data))
}

func TestWriteModuleBadDirectory(t *testing.T) {
	// A regular file cannot be used as a parent directory
	parent := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(parent, nil, 0o644))

	err := WriteModule(filepath.Join(parent, "W1.lua"), "{}")
	assert.Error(t, err)
}
