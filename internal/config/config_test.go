package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SESSION_SECRET", "0123456789abcdef-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_TIMEOUT", "2s")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.StoreTimeout != 2*time.Second {
		t.Fatalf("store timeout = %v", cfg.Database.StoreTimeout)
	}
	if cfg.Session.TTL != 7*24*time.Hour {
		t.Fatalf("ttl default = %v", cfg.Session.TTL)
	}
	if cfg.Clinic.Timezone != "America/Santiago" {
		t.Fatalf("timezone default = %q", cfg.Clinic.Timezone)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !cfg.DevMode() {
		t.Fatalf("development env must be dev mode")
	}
	if cfg.Server.TrustProxy {
		t.Fatalf("proxy headers must not be trusted by default")
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	yml := "clinic:\n  timezone: America/Lima\nserver:\n  port: 7000\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Clinic.Timezone != "America/Lima" || cfg.Server.Port != 7000 {
		t.Fatalf("yaml not applied: %+v", cfg)
	}
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := &Config{
		App:      AppConfig{Env: "production"},
		Server:   ServerConfig{Port: 0, LoginRatePerMinute: 10},
		Database: DatabaseConfig{StoreTimeout: time.Second},
		Session:  SessionConfig{Secret: "short", TTL: time.Hour},
		Clinic:   ClinicConfig{Timezone: "Mars/Olympus"},
		Logging:  LoggingConfig{Format: "text"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"port", "secret", "clinic", "odin"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q should mention %q", err, want)
		}
	}
}
