package cli

import (
	"io"
	"path/filepath"
	"testing"
)

func TestRootCommandStructure(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	if root.Use != "verscout" {
		t.Errorf("Use = %q, want verscout", root.Use)
	}

	want := map[string]bool{
		"detect":     false,
		"cache":      false,
		"strategies": false,
		"completion": false,
	}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestDetectCommandRequiresTarget(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"detect"})

	if err := root.Execute(); err == nil {
		t.Error("detect without a name or watchlist should fail")
	}
}

func TestCacheDirHonorsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)

	got, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir error: %v", err)
	}
	if got != filepath.Join(dir, "verscout") {
		t.Errorf("cacheDir = %q, want under XDG_CACHE_HOME", got)
	}
}

func TestSetLogLevel(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.SetLogLevel(LogDebug)
	if c.Logger.GetLevel() != LogDebug {
		t.Error("SetLogLevel should update the logger")
	}
}
