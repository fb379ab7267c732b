package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/partsinventory/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk layout of the config file. Durations accept
// strings such as "720h" or integer nanoseconds. Absent keys keep the
// value they had before the file was read.
type FileConfig struct {
	HTTPAddr           string          `json:"http_addr" yaml:"http_addr"`
	GRPCAddr           string          `json:"grpc_addr" yaml:"grpc_addr"`
	DatabaseDSN        string          `json:"database_dsn" yaml:"database_dsn"`
	SessionSecret      string          `json:"session_secret" yaml:"session_secret"`
	SessionTTL         *timex.Duration `json:"session_ttl" yaml:"session_ttl"`
	SessionCookieName  string          `json:"session_cookie_name" yaml:"session_cookie_name"`
	CookieSecure       *bool           `json:"cookie_secure" yaml:"cookie_secure"`
	SessionStore       string          `json:"session_store" yaml:"session_store"`
	RedisURL           string          `json:"redis_url" yaml:"redis_url"`
	LogLevel           string          `json:"log_level" yaml:"log_level"`
	PersistenceTimeout *timex.Duration `json:"persistence_timeout" yaml:"persistence_timeout"`
	ShutdownTimeout    *timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	MigrateOnStart     *bool           `json:"migrate_on_start" yaml:"migrate_on_start"`
}

// parseFile reads path as YAML when the extension is .yaml or .yml and as
// JSON otherwise, then overlays the keys it sets onto cfg.
func parseFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.HTTPAddr, fc.HTTPAddr)
	setString(&cfg.GRPCAddr, fc.GRPCAddr)
	setString(&cfg.DatabaseDSN, fc.DatabaseDSN)
	setString(&cfg.SessionSecret, fc.SessionSecret)
	setString(&cfg.SessionCookieName, fc.SessionCookieName)
	setString(&cfg.SessionStore, fc.SessionStore)
	setString(&cfg.RedisURL, fc.RedisURL)
	setString(&cfg.LogLevel, fc.LogLevel)

	if fc.SessionTTL != nil {
		cfg.SessionTTL = fc.SessionTTL.Duration
	}
	if fc.PersistenceTimeout != nil {
		cfg.PersistenceTimeout = fc.PersistenceTimeout.Duration
	}
	if fc.ShutdownTimeout != nil {
		cfg.ShutdownTimeout = fc.ShutdownTimeout.Duration
	}
	if fc.CookieSecure != nil {
		cfg.CookieSecure = *fc.CookieSecure
	}
	if fc.MigrateOnStart != nil {
		cfg.MigrateOnStart = *fc.MigrateOnStart
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
