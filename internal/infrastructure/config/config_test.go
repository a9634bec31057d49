package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validJWTSecret = "test-secret-key-at-least-32-chars!"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
site:
  id: "plant-7"
database:
  path: "/tmp/test.db"
mqtt:
  broker:
    host: "broker.local"
    port: 1883
  topic_prefix: "plant7"
api:
  port: 9090
catalogue:
  seed_defaults: false
  default_locale: "zh-CN"
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
  admins:
    - username: "operator"
      password_hash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "plant-7" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "plant-7")
	}
	if cfg.MQTT.Broker.Host != "broker.local" || cfg.MQTT.TopicPrefix != "plant7" {
		t.Errorf("MQTT = %+v", cfg.MQTT)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	if cfg.Catalogue.SeedDefaults || cfg.Catalogue.DefaultLocale != "zh-CN" {
		t.Errorf("Catalogue = %+v", cfg.Catalogue)
	}
	if len(cfg.Security.Admins) != 1 || cfg.Security.Admins[0].Username != "operator" {
		t.Errorf("Security.Admins = %+v", cfg.Security.Admins)
	}
	// Defaults survive for keys the file leaves out.
	if cfg.MQTT.QoS != 1 || !cfg.Database.WALMode || cfg.Security.JWT.AccessTokenTTL != 60 {
		t.Errorf("defaults lost: qos=%d wal=%v ttl=%d", cfg.MQTT.QoS, cfg.Database.WALMode, cfg.Security.JWT.AccessTokenTTL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
security:
  jwt:
    secret: "short"
`)
	t.Setenv("SENSORADMIN_JWT_SECRET", validJWTSecret)
	t.Setenv("SENSORADMIN_DATABASE_PATH", "/var/lib/sensoradmin.db")
	t.Setenv("SENSORADMIN_API_PORT", "8181")
	t.Setenv("SENSORADMIN_MQTT_ENABLED", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Security.JWT.Secret != validJWTSecret {
		t.Error("JWT secret not overridden from environment")
	}
	if cfg.Database.Path != "/var/lib/sensoradmin.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.API.Port != 8181 {
		t.Errorf("API.Port = %d, want 8181", cfg.API.Port)
	}
	if cfg.MQTT.Enabled {
		t.Error("MQTT.Enabled = true, want false from environment")
	}
}

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWT.Secret = validJWTSecret
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid defaults with secret", mutate: func(*Config) {}},
		{name: "missing site ID", mutate: func(c *Config) { c.Site.ID = "" }, wantErr: "site.id"},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "database.path"},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: "mqtt.qos"},
		{name: "wildcard topic prefix", mutate: func(c *Config) { c.MQTT.TopicPrefix = "a/#" }, wantErr: "wildcards"},
		{name: "empty prefix with mqtt on", mutate: func(c *Config) { c.MQTT.TopicPrefix = "" }, wantErr: "topic_prefix"},
		{name: "empty prefix with mqtt off", mutate: func(c *Config) { c.MQTT.Enabled = false; c.MQTT.TopicPrefix = "" }},
		{name: "port out of range", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: "api.port"},
		{name: "negative login burst", mutate: func(c *Config) { c.API.LoginRateLimit.Burst = -1 }, wantErr: "api.login_rate_limit"},
		{name: "influx without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: "influxdb"},
		{name: "missing JWT secret", mutate: func(c *Config) { c.Security.JWT.Secret = "" }, wantErr: "SENSORADMIN_JWT_SECRET"},
		{name: "short JWT secret", mutate: func(c *Config) { c.Security.JWT.Secret = "short" }, wantErr: "32 characters"},
		{name: "negative stale_after", mutate: func(c *Config) { c.Telemetry.StaleAfter = -1 }, wantErr: "telemetry.stale_after"},
		{name: "non-positive TTL", mutate: func(c *Config) { c.Security.JWT.AccessTokenTTL = 0 }, wantErr: "access_token_ttl"},
		{
			name: "plain-text admin password",
			mutate: func(c *Config) {
				c.Security.Admins = []AdminEntry{{Username: "op", PasswordHash: "hunter2"}}
			},
			wantErr: "argon2id",
		},
		{
			name: "duplicate admin",
			mutate: func(c *Config) {
				c.Security.Admins = []AdminEntry{
					{Username: "op", PasswordHash: "$argon2id$x"},
					{Username: "op", PasswordHash: "$argon2id$y"},
				}
			},
			wantErr: "duplicated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateReportsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Site.ID = ""
	cfg.API.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil")
	}
	if !strings.Contains(err.Error(), "site.id") || !strings.Contains(err.Error(), "api.port") {
		t.Errorf("Validate() error = %v, want both problems", err)
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := defaultConfig()
	if cfg.GetReadTimeout() != 30*time.Second {
		t.Errorf("GetReadTimeout() = %v", cfg.GetReadTimeout())
	}
	if cfg.GetWriteTimeout() != 30*time.Second {
		t.Errorf("GetWriteTimeout() = %v", cfg.GetWriteTimeout())
	}
	if cfg.GetIdleTimeout() != 60*time.Second {
		t.Errorf("GetIdleTimeout() = %v", cfg.GetIdleTimeout())
	}
	if cfg.GetAccessTokenTTL() != time.Hour {
		t.Errorf("GetAccessTokenTTL() = %v", cfg.GetAccessTokenTTL())
	}
	if cfg.GetStaleAfter() != 5*time.Minute {
		t.Errorf("GetStaleAfter() = %v", cfg.GetStaleAfter())
	}
}
