// Package config provides runtime configuration values for the service.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds configuration knobs for the HTTP server, persistence and settlement.
type Config struct {
	ServiceName     string
	Env             string
	LogLevel        string
	LogFile         string
	HTTPAddr        string
	ShutdownTimeout time.Duration

	Store       string
	DatabaseDSN string

	SettleMaxAttempts int
	SettleBackoff     time.Duration
	PublishTimeout    time.Duration

	BcryptCost  int
	TokenPrefix string
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, defMs int) time.Duration {
	ms := atoienv(key, defMs)
	return time.Duration(ms) * time.Millisecond
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

// Load reads an optional .env file, then collects configuration from the environment with defaults.
// Variables already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	cfg := Config{
		ServiceName:       getenv("SERVICE_NAME", "vending"),
		Env:               getenv("ENV", "dev"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		LogFile:           getenv("LOG_FILE", ""),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout:   durenvs("SHUTDOWN_TIMEOUT", 10),
		Store:             strings.ToLower(getenv("STORE", StoreMemory)),
		DatabaseDSN:       getenv("DATABASE_DSN", ""),
		SettleMaxAttempts: atoienv("SETTLE_MAX_ATTEMPTS", 5),
		SettleBackoff:     durenvms("SETTLE_BACKOFF_MS", 5),
		PublishTimeout:    durenvms("PUBLISH_TIMEOUT_MS", 300),
		BcryptCost:        atoienv("BCRYPT_COST", 10),
		TokenPrefix:       getenv("TOKEN_PREFIX", "vm_live_"),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseDSN == "" {
			return errors.New("config: DATABASE_DSN is required when STORE=postgres")
		}
	default:
		return errors.New("config: STORE must be memory or postgres")
	}
	if c.SettleMaxAttempts < 1 {
		return errors.New("config: SETTLE_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}
