package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/c360studio/semcube/convert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Conversion.JSONType != convert.TypeAll {
		t.Errorf("expected default json_type all, got %s", cfg.Conversion.JSONType)
	}
	if cfg.Conversion.ModelType != convert.ModelAll {
		t.Errorf("expected default model_type all, got %s", cfg.Conversion.ModelType)
	}
	if cfg.Index.Folder != "indexes" {
		t.Errorf("expected default index folder indexes, got %s", cfg.Index.Folder)
	}
	if cfg.Index.DebounceDelay != 500*time.Millisecond {
		t.Errorf("expected default debounce 500ms, got %v", cfg.Index.DebounceDelay)
	}
	if cfg.UseKV() {
		t.Error("expected memory sink without NATS")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing model type",
			modify:  func(c *Config) { c.Conversion.ModelType = "" },
			wantErr: true,
		},
		{
			name: "no type output",
			modify: func(c *Config) {
				c.Conversion.JSONType = convert.TypeDisabled
				c.Conversion.JSONRootType = convert.RootTypeDisabled
			},
			wantErr: true,
		},
		{
			name:    "unknown sink",
			modify:  func(c *Config) { c.Index.Sink = "elastic" },
			wantErr: true,
		},
		{
			name:    "kv sink without nats",
			modify:  func(c *Config) { c.Index.Sink = SinkKV },
			wantErr: true,
		},
		{
			name: "kv sink with nats",
			modify: func(c *Config) {
				c.Index.Sink = SinkKV
				c.NATS.URL = "nats://localhost:4222"
			},
			wantErr: false,
		},
		{
			name:    "negative debounce",
			modify:  func(c *Config) { c.Index.DebounceDelay = -time.Second },
			wantErr: true,
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.LogLevel = "chatty" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUseKV(t *testing.T) {
	tests := []struct {
		sink string
		url  string
		want bool
	}{
		{SinkAuto, "", false},
		{SinkAuto, "nats://localhost:4222", true},
		{SinkMemory, "nats://localhost:4222", false},
		{SinkKV, "nats://localhost:4222", true},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Index.Sink = tt.sink
		cfg.NATS.URL = tt.url
		if got := cfg.UseKV(); got != tt.want {
			t.Errorf("UseKV() with sink %q and url %q = %v, want %v", tt.sink, tt.url, got, tt.want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
conversion:
  json_root_type: enabled
  model_type: profile
  ignored_properties: [internalNote]
  log_issues: true
profile: "/test/profile.yaml"
index:
  folder: "/test/indexes"
  sink: kv
  watch: true
  debounce_delay: 2s
nats:
  url: "nats://test:4222"
metrics:
  address: ":9191"
log_level: debug
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Conversion.JSONRootType != convert.RootTypeEnabled {
		t.Errorf("expected json_root_type enabled, got %s", cfg.Conversion.JSONRootType)
	}
	if cfg.Conversion.JSONType != convert.TypeAll {
		t.Errorf("expected json_type to keep default all, got %s", cfg.Conversion.JSONType)
	}
	if cfg.Conversion.ModelType != convert.ModelProfile {
		t.Errorf("expected model_type profile, got %s", cfg.Conversion.ModelType)
	}
	if len(cfg.Conversion.IgnoredProperties) != 1 || !cfg.Conversion.LogIssues {
		t.Errorf("unexpected conversion settings: %+v", cfg.Conversion)
	}
	if cfg.Profile != "/test/profile.yaml" {
		t.Errorf("expected profile /test/profile.yaml, got %s", cfg.Profile)
	}
	if cfg.Index.Folder != "/test/indexes" || cfg.Index.Sink != SinkKV || !cfg.Index.Watch {
		t.Errorf("unexpected index settings: %+v", cfg.Index)
	}
	if cfg.Index.DebounceDelay != 2*time.Second {
		t.Errorf("expected debounce 2s, got %v", cfg.Index.DebounceDelay)
	}
	if cfg.NATS.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.NATS.URL)
	}
	if cfg.Metrics.Address != ":9191" {
		t.Errorf("expected metrics address :9191, got %s", cfg.Metrics.Address)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should be valid: %v", err)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Conversion: convert.Configuration{
			ModelType: convert.ModelRoot,
		},
		Index: IndexConfig{
			Folder: "/override/indexes",
		},
	}

	base.Merge(override)

	if base.Conversion.ModelType != convert.ModelRoot {
		t.Errorf("expected model_type root, got %s", base.Conversion.ModelType)
	}
	// JSON type should remain from base since override didn't set it
	if base.Conversion.JSONType != convert.TypeAll {
		t.Errorf("expected json_type to remain default, got %s", base.Conversion.JSONType)
	}
	if base.Index.Folder != "/override/indexes" {
		t.Errorf("expected index folder /override/indexes, got %s", base.Index.Folder)
	}
	if base.Index.DebounceDelay != 500*time.Millisecond {
		t.Errorf("expected debounce to remain default, got %v", base.Index.DebounceDelay)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Profile = "saved-profile.yaml"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Profile != "saved-profile.yaml" {
		t.Errorf("expected profile saved-profile.yaml, got %s", loaded.Profile)
	}
	if loaded.Conversion.ModelType != convert.ModelAll {
		t.Errorf("expected model_type all, got %s", loaded.Conversion.ModelType)
	}
}
