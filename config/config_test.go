package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.Index.Includes) != 1 || cfg.Index.Includes[0] != "**/*.tokens.json" {
		t.Errorf("expected token dump include pattern, got %v", cfg.Index.Includes)
	}
	if cfg.Runner.DebounceMs != 2000 {
		t.Errorf("expected DebounceMs=2000, got %d", cfg.Runner.DebounceMs)
	}
	if cfg.Runner.PollMs != 500 {
		t.Errorf("expected PollMs=500, got %d", cfg.Runner.PollMs)
	}
	if cfg.Search.K1 != 1.2 {
		t.Errorf("expected K1=1.2, got %f", cfg.Search.K1)
	}
	if cfg.Runner.TestSubdirectory != "tests" {
		t.Errorf("expected TestSubdirectory=tests, got %s", cfg.Runner.TestSubdirectory)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "phptdd.yaml")

	content := `
index:
  workers: 2
  respect_gitignore: false
runner:
  test_subdirectory: unit
  commands:
    run_unit_test: phpunit --filter __FUNCTION__
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Index.Workers != 2 {
		t.Errorf("expected Workers=2, got %d", cfg.Index.Workers)
	}
	if cfg.Index.RespectGitignore != false {
		t.Errorf("expected RespectGitignore=false, got %v", cfg.Index.RespectGitignore)
	}
	if cfg.Runner.TestSubdirectory != "unit" {
		t.Errorf("expected TestSubdirectory=unit, got %s", cfg.Runner.TestSubdirectory)
	}
	if cfg.Runner.Commands.RunUnitTest != "phpunit --filter __FUNCTION__" {
		t.Errorf("unexpected RunUnitTest %q", cfg.Runner.Commands.RunUnitTest)
	}
	// Unset fields keep their defaults.
	if cfg.Runner.DebounceMs != 2000 {
		t.Errorf("expected DebounceMs=2000, got %d", cfg.Runner.DebounceMs)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "phptdd.yaml")
	if err := os.WriteFile(configPath, []byte("index: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := EnsureDataDir(tmpDir); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, DataDir, "config.yaml")

	content := `
cache:
  size: 8
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Cache.Size != 8 {
		t.Errorf("expected Size=8, got %d", cfg.Cache.Size)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phptdd.yaml")
	cfg := DefaultConfig()
	cfg.Runner.EnableAutoRun = false

	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Runner.EnableAutoRun {
		t.Error("expected EnableAutoRun=false after reload")
	}
}

func TestIndexDBPath(t *testing.T) {
	path := IndexDBPath("/home/user/project")
	expected := filepath.Join("/home/user/project", ".phptdd", "index.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}
}

func TestVerbosity(t *testing.T) {
	tests := map[string]int{
		"quiet":   -4,
		"error":   -2,
		"warning": -1,
		"notice":  0,
		"info":    1,
		"debug":   2,
		"":        -1,
	}
	for level, want := range tests {
		if got := (LoggingConfig{Level: level}).Verbosity(); got != want {
			t.Errorf("Verbosity(%q) = %d, want %d", level, got, want)
		}
	}
}

func TestPollInterval(t *testing.T) {
	tests := map[int]time.Duration{
		250: 250 * time.Millisecond,
		0:   500 * time.Millisecond,
		-10: 500 * time.Millisecond,
	}
	for ms, want := range tests {
		if got := (RunnerConfig{PollMs: ms}).PollInterval(); got != want {
			t.Errorf("PollInterval(%d) = %v, want %v", ms, got, want)
		}
	}
}

func TestLoad_ZeroPollFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("runner:\n  poll_ms: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Runner.PollInterval(); got != 500*time.Millisecond {
		t.Errorf("expected default poll interval, got %v", got)
	}
}
