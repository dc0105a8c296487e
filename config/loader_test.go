package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func quietLoader() *Loader {
	return NewLoader(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// isolate points HOME and the working directory at fresh temp dirs and
// clears the SEMCUBE_* variables.
func isolate(t *testing.T) (home, work string) {
	t.Helper()
	home = t.TempDir()
	work = t.TempDir()
	t.Setenv("HOME", home)
	for _, name := range []string{EnvNATSURL, EnvIndexFolder, EnvLogLevel, EnvProfile} {
		t.Setenv(name, "")
	}
	t.Chdir(work)
	return home, work
}

func TestLoader_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := quietLoader().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Index.Folder != "indexes" {
		t.Errorf("expected default index folder, got %s", cfg.Index.Folder)
	}
}

func TestLoader_Layers(t *testing.T) {
	home, work := isolate(t)

	writeConfig(t, filepath.Join(home, UserConfigDir, UserConfigFile), `
profile: user-profile.yaml
log_level: warn
nats:
  url: nats://user:4222
`)
	// Project config in a parent of the working directory
	writeConfig(t, filepath.Join(work, ProjectConfigFile), `
profile: project-profile.yaml
`)
	sub := filepath.Join(work, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Chdir(sub)
	t.Setenv(EnvNATSURL, "nats://env:4222")

	cfg, err := quietLoader().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Profile != "project-profile.yaml" {
		t.Errorf("project config should override user config, got profile %s", cfg.Profile)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("user log level should survive, got %s", cfg.LogLevel)
	}
	if cfg.NATS.URL != "nats://env:4222" {
		t.Errorf("environment should override files, got %s", cfg.NATS.URL)
	}
}

func TestLoader_ExplicitFile(t *testing.T) {
	_, work := isolate(t)

	writeConfig(t, filepath.Join(work, ProjectConfigFile), "profile: project.yaml\n")
	explicit := filepath.Join(t.TempDir(), "custom.yaml")
	writeConfig(t, explicit, "profile: custom.yaml\n")

	cfg, err := quietLoader().LoadWithFile(explicit)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v", err)
	}
	if cfg.Profile != "custom.yaml" {
		t.Errorf("explicit file should replace project config, got %s", cfg.Profile)
	}

	if _, err := quietLoader().LoadWithFile(filepath.Join(work, "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit file")
	}
}

func TestLoader_InvalidResult(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "chatty")

	if _, err := quietLoader().Load(); err == nil {
		t.Error("expected validation error for unknown log level")
	}
}

func TestLoader_EnsureUserConfig(t *testing.T) {
	home, _ := isolate(t)

	if err := quietLoader().EnsureUserConfig(); err != nil {
		t.Fatalf("EnsureUserConfig() error = %v", err)
	}
	path := filepath.Join(home, UserConfigDir, UserConfigFile)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("user config not created: %v", err)
	}

	// A second call leaves the file alone
	writeConfig(t, path, "profile: mine.yaml\n")
	if err := quietLoader().EnsureUserConfig(); err != nil {
		t.Fatalf("EnsureUserConfig() error = %v", err)
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Profile != "mine.yaml" {
		t.Errorf("existing user config was overwritten")
	}
}
