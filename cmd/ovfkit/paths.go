package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samcharles93/ovfkit/internal/series"
	"github.com/samcharles93/ovfkit/pkg/ovf"
)

const envDataDir = "OVFKIT_DATA_DIR"

// resolveDataDir picks the serve root: the flag, then $OVFKIT_DATA_DIR, then
// the working directory.
func resolveDataDir(flag string) (string, error) {
	dir := strings.TrimSpace(flag)
	if dir == "" {
		dir = strings.TrimSpace(os.Getenv(envDataDir))
	}
	if dir == "" {
		dir = "."
	}
	st, err := os.Stat(dir)
	if err != nil {
		return "", err
	}
	if !st.IsDir() {
		return "", fmt.Errorf("data dir is not a directory: %s", dir)
	}
	return filepath.Abs(dir)
}

// defaultOutPath derives an output name in the working directory from
// the input's base name, e.g. "run.out/m000010.ovf.gz" -> "m000010.npy".
func defaultOutPath(input, ext string) string {
	base := filepath.Base(ovf.TrimCompressedSuffix(input))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "field"
	}
	return base + ext
}

// seriesOutPath names the stacked array of a loaded group after its
// directory and the prefix discovery resolved, e.g. "run.out" -> "run_m.npy".
func seriesOutPath(s *series.Series) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = series.DefaultPrefix
	}
	base := filepath.Base(filepath.Clean(s.Dir))
	base = strings.TrimSuffix(base, ".out")
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "series"
	}
	return base + "_" + prefix + ".npy"
}

// createOutput opens path for writing, or returns stdout for "-". The
// returned close function must be called.
func createOutput(path string) (*os.File, func() error, error) {
	if path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
