package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("SETTLE_MAX_ATTEMPTS", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.Store != StoreMemory {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SettleMaxAttempts != 5 || cfg.SettleBackoff != 5*time.Millisecond {
		t.Fatalf("unexpected settle defaults: %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("SETTLE_MAX_ATTEMPTS", "9")
	t.Setenv("SHUTDOWN_TIMEOUT", "3")
	t.Setenv("STORE", "memory")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9999" || cfg.SettleMaxAttempts != 9 || cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadReadsDotEnvFile(t *testing.T) {
	t.Setenv("STORE", "")
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TOKEN_PREFIX=test_\nBCRYPT_COST=4\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override variables that already exist.
	os.Unsetenv("TOKEN_PREFIX")
	os.Unsetenv("BCRYPT_COST")
	t.Cleanup(func() {
		os.Unsetenv("TOKEN_PREFIX")
		os.Unsetenv("BCRYPT_COST")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TokenPrefix != "test_" || cfg.BcryptCost != 4 {
		t.Fatalf("dotenv not applied: %+v", cfg)
	}
}

func TestLoadPostgresRequiresDSN(t *testing.T) {
	t.Setenv("STORE", "postgres")
	t.Setenv("DATABASE_DSN", "")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error without DSN")
	}
}

func TestLoadInvalidIntFallsBack(t *testing.T) {
	t.Setenv("STORE", "")
	t.Setenv("SETTLE_MAX_ATTEMPTS", "abc")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SettleMaxAttempts != 5 {
		t.Fatalf("expected fallback, got %d", cfg.SettleMaxAttempts)
	}
}
