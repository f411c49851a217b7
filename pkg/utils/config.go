package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig is everything the api-server needs. Values come from an
// optional YAML file (BOOKHUB_CONFIG) with env vars taking precedence.
type ServerConfig struct {
	ListenAddr  string `yaml:"listen_addr"`
	SyncAddr    string `yaml:"sync_addr"`
	DBPath      string `yaml:"db_path"`
	Passphrase  string `yaml:"passphrase"`
	JWTSecret   string `yaml:"jwt_secret"`
	JWTIssuer   string `yaml:"jwt_issuer"`
	JWTTTLHours int    `yaml:"jwt_ttl_hours"`
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:  ":8080",
		SyncAddr:    ":7070",
		JWTSecret:   "dev-secret-change-me",
		JWTIssuer:   "bookhub",
		JWTTTLHours: 24,
	}
}

// LoadServerConfig never fails: a missing file means defaults, a
// malformed file is reported so a typo does not silently fall back.
func LoadServerConfig() (ServerConfig, error) {
	cfg := defaultServerConfig()

	if path := os.Getenv("BOOKHUB_CONFIG"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("BOOKHUB_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("BOOKHUB_SYNC_ADDR"); v != "" {
		cfg.SyncAddr = v
	}
	if v := os.Getenv("BOOKHUB_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("BOOKHUB_PASSPHRASE"); v != "" {
		cfg.Passphrase = v
	}
	if v := os.Getenv("BOOKHUB_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("BOOKHUB_JWT_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.JWTTTLHours = n
		}
	}

	return cfg, nil
}

func (c ServerConfig) JWTDuration() time.Duration {
	if c.JWTTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.JWTTTLHours) * time.Hour
}
