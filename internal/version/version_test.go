package version

import (
	"runtime/debug"
	"testing"
)

func TestResolveFromBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		GoVersion: "go1.26.0",
		Main:      debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	info := resolve(func() (*debug.BuildInfo, bool) { return bi, true })

	if info.Version != "v0.3.1" {
		t.Fatalf("version: got %q", info.Version)
	}
	if info.BuildTime != "2026-01-02T03:04:05Z" {
		t.Fatalf("build time: got %q", info.BuildTime)
	}
	if got, want := info.String(), "v0.3.1 (0123456789ab+dirty)"; got != want {
		t.Fatalf("String: got %q want %q", got, want)
	}
}

func TestResolveWithoutBuildInfo(t *testing.T) {
	info := resolve(func() (*debug.BuildInfo, bool) { return nil, false })
	if info.Version != "dev" {
		t.Fatalf("version: got %q", info.Version)
	}
	if info.String() != "dev" {
		t.Fatalf("String: got %q", info.String())
	}
}

func TestDevelVersionIgnored(t *testing.T) {
	bi := &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}
	info := resolve(func() (*debug.BuildInfo, bool) { return bi, true })
	if info.Version != "dev" {
		t.Fatalf("version: got %q", info.Version)
	}
}
