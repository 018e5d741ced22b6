package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SPLITPOT_JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("listen addr = %s, want :8080", cfg.ListenAddr)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Errorf("jwt ttl = %s, want 24h", cfg.JWTTTL)
	}
	if cfg.Tolerance != "0.01" {
		t.Errorf("tolerance = %s, want 0.01", cfg.Tolerance)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SPLITPOT_JWT_SECRET", "test-secret")
	t.Setenv("SPLITPOT_LISTEN_ADDR", ":9999")
	t.Setenv("SPLITPOT_JWT_TTL", "1h")
	t.Setenv("SPLITPOT_TOLERANCE", "0.05")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("listen addr = %s, want :9999", cfg.ListenAddr)
	}
	if cfg.JWTTTL != time.Hour {
		t.Errorf("jwt ttl = %s, want 1h", cfg.JWTTTL)
	}
	if cfg.Tolerance != "0.05" {
		t.Errorf("tolerance = %s, want 0.05", cfg.Tolerance)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("SPLITPOT_JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail without SPLITPOT_JWT_SECRET")
	}
}
