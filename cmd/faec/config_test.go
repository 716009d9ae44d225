package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadServeConfigCreatesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "faec.json")

	cfg, err := LoadServeConfig(path)
	if err != nil {
		t.Fatalf("LoadServeConfig failed: %v", err)
	}

	want := DefaultServeConfig()
	if *cfg != *want {
		t.Errorf("LoadServeConfig(missing) = %+v, want %+v", cfg, want)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config file to be written to %s: %v", path, err)
	}
}

func TestLoadServeConfigReadsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "faec.json")
	content := `{"addr": ":9090", "recursive": false, "log_level": "debug"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadServeConfig(path)
	if err != nil {
		t.Fatalf("LoadServeConfig failed: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":9090")
	}
	if cfg.Recursive {
		t.Error("Recursive = true, want false")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}
