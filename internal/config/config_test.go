package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.Model != "gemini-1.5-pro-latest" {
		t.Errorf("LLM.Model = %q, want default", cfg.LLM.Model)
	}
	if cfg.Calendar.DatabasePath != "data/ava.db" {
		t.Errorf("Calendar.DatabasePath = %q, want default", cfg.Calendar.DatabasePath)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  model: gemini-1.5-flash
  timeout: 30s
assistant:
  user_name: Rajee
  timezone: Asia/Kathmandu
calendar:
  database_path: /tmp/cal.db
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.Model != "gemini-1.5-flash" {
		t.Errorf("LLM.Model = %q", cfg.LLM.Model)
	}
	if cfg.Assistant.UserName != "Rajee" {
		t.Errorf("Assistant.UserName = %q", cfg.Assistant.UserName)
	}
	if got := cfg.LLMTimeout(); got != 30*time.Second {
		t.Errorf("LLMTimeout() = %v", got)
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.String() != "Asia/Kathmandu" {
		t.Errorf("Location() = %v", loc)
	}
	// Unset fields keep their defaults.
	if cfg.Assistant.Language != "English" {
		t.Errorf("Assistant.Language = %q, want default", cfg.Assistant.Language)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("AVA_USER_NAME", "boss")
	t.Setenv("AVA_DB_PATH", "/tmp/override.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Errorf("LLM.APIKey = %q", cfg.LLM.APIKey)
	}
	if cfg.Assistant.UserName != "boss" {
		t.Errorf("Assistant.UserName = %q", cfg.Assistant.UserName)
	}
	if cfg.Calendar.DatabasePath != "/tmp/override.db" {
		t.Errorf("Calendar.DatabasePath = %q", cfg.Calendar.DatabasePath)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Assistant.UserName = "sir"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Assistant.UserName != "sir" {
		t.Errorf("round-trip UserName = %q", loaded.Assistant.UserName)
	}
}

func TestLLMTimeoutBadInput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Timeout = "not a duration"
	if got := cfg.LLMTimeout(); got != 60*time.Second {
		t.Errorf("LLMTimeout() = %v, want fallback", got)
	}
}

func TestLocationInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Assistant.Timezone = "Mars/Olympus"
	if _, err := cfg.Location(); err == nil {
		t.Error("Location() expected error for unknown zone")
	}
}
