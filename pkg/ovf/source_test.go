package ovf

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOVFNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		isOVF   bool
		trimmed string
	}{
		{"m000000.ovf", true, "m000000.ovf"},
		{"m000000.OVF", true, "m000000.OVF"},
		{"m000000.ovf.gz", true, "m000000.ovf"},
		{"m000000.ovf.zst", true, "m000000.ovf"},
		{"m000000.ovf.lz4", true, "m000000.ovf"},
		{"m000000.ovf.sz", true, "m000000.ovf"},
		{"m000000.ovf.xz", false, "m000000.ovf.xz"},
		{"table.txt", false, "table.txt"},
		{"archive.gz", false, "archive"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.isOVF, IsOVFName(tt.name), tt.name)
		assert.Equal(t, tt.trimmed, TrimCompressedSuffix(tt.name), tt.name)
	}
	assert.Equal(t, []string{".gz", ".zst", ".lz4", ".sz"}, CompressedSuffixes())
}

func TestOpenEmptyFileFallsBack(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.ovf")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	rc, err := Open(path, true)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Empty(t, data)
	require.NoError(t, rc.Close())
	require.NoError(t, rc.Close())
}

func TestOpenBadCompressedStream(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "m000000.ovf.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip"), 0o644))

	_, err := Open(path, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
