package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HOST", "PORT", "MODEL_ROOT", "OUTPUT_DIR", "FETCH_TIMEOUT",
		"REQUEST_TIMEOUT", "MAX_REQUEST_BODY_SIZE", "CONFIG_FILE",
		"AZURE_STORAGE_ACCOUNT", "AZURE_STORAGE_KEY", "AZURE_ARTIFACT_CONTAINER",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.ModelRoot != "models" {
		t.Errorf("ModelRoot = %q, want models", cfg.ModelRoot)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Errorf("FetchTimeout = %s, want 30s", cfg.FetchTimeout)
	}
	if cfg.ArtifactUploadEnabled() {
		t.Error("ArtifactUploadEnabled() = true without Azure settings")
	}
}

func TestLoadFromEnv_InvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-port")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error for invalid PORT")
	}
}

func TestLoadFromEnv_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODEL_ROOT", "/opt/models")
	t.Setenv("FETCH_TIMEOUT", "5s")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error: %v", err)
	}
	if cfg.ModelRoot != "/opt/models" {
		t.Errorf("ModelRoot = %q, want /opt/models", cfg.ModelRoot)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("FetchTimeout = %s, want 5s", cfg.FetchTimeout)
	}
}

func TestLoadFromEnv_FileOverlay(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "model_root: /srv/models\nport: \"9090\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	// Env still wins over the file.
	t.Setenv("PORT", "7070")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error: %v", err)
	}
	if cfg.ModelRoot != "/srv/models" {
		t.Errorf("ModelRoot = %q, want /srv/models", cfg.ModelRoot)
	}
	if cfg.Port != "7070" {
		t.Errorf("Port = %q, want 7070 (env wins)", cfg.Port)
	}
}
