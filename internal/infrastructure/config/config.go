package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config mirrors config.yaml. Secrets are normally supplied through
// SENSORADMIN_* environment variables rather than the file.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Catalogue CatalogueConfig `yaml:"catalogue"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Security  SecurityConfig  `yaml:"security"`
}

// SiteConfig identifies the installation this instance administers.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DatabaseConfig locates the SQLite catalogue, inventory and audit store.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig controls retained config publication and SVID ingest.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig holds reconnect backoff bounds in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`

	LoginRateLimit LoginRateLimitConfig `yaml:"login_rate_limit"`
}

// LoginRateLimitConfig throttles POST /auth/login per client address.
// Zero values fall back to 10 attempts per minute with a burst of 10.
type LoginRateLimitConfig struct {
	AttemptsPerMinute int `yaml:"attempts_per_minute"`
	Burst             int `yaml:"burst"`
}

type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig is in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig lists browser origins allowed to call the API. Empty allows any.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig sets event stream keepalive (seconds) and frame limits.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig enables SVID history and change records. FlushInterval
// is in seconds.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// CatalogueConfig controls the sensor type catalogue.
type CatalogueConfig struct {
	// SeedDefaults loads the built-in sensor types (Temperature, Humidity,
	// Pressure, Flow, Level, Vibration) into an empty catalogue on startup.
	SeedDefaults bool `yaml:"seed_defaults"`

	// DefaultLocale selects display labels when a request names none.
	DefaultLocale string `yaml:"default_locale"`
}

// TelemetryConfig controls the in-memory SVID reading store.
type TelemetryConfig struct {
	// StaleAfter is how long (seconds) a reading stays current. Zero keeps
	// readings until a newer one arrives.
	StaleAfter int `yaml:"stale_after"`
}

// SecurityConfig holds the token signing key and the admin accounts.
type SecurityConfig struct {
	JWT    JWTConfig    `yaml:"jwt"`
	Admins []AdminEntry `yaml:"admins"`
}

type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"` // minutes
}

// AdminEntry is one operator allowed to log in. PasswordHash is an
// Argon2id PHC string (see `sensoradmin hash-password`).
type AdminEntry struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

// EnvPrefix starts every environment override, e.g. SENSORADMIN_API_PORT.
const EnvPrefix = "SENSORADMIN_"

const minJWTSecretLength = 32

// Load builds the configuration from defaults, then the YAML file at path,
// then SENSORADMIN_* environment variables, and validates the result.
//
// Parameters:
//   - path: YAML file; keys it omits keep their defaults
//
// Returns:
//   - the merged configuration
//   - an error if the file cannot be read or parsed, or the joined list of
//     every validation failure
//
// Example:
//
//	cfg, err := config.Load(getConfigPath(flagPath))
//	// SENSORADMIN_JWT_SECRET and SENSORADMIN_MQTT_PASSWORD override the file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Site:     SiteConfig{ID: "site-001", Name: "Sensor Admin"},
		Database: DatabaseConfig{Path: "./data/sensoradmin.db", WALMode: true, BusyTimeout: 5},
		MQTT: MQTTConfig{
			Enabled:     true,
			Broker:      MQTTBrokerConfig{Host: "localhost", Port: 1883, ClientID: "sensoradmin"},
			QoS:         1,
			TopicPrefix: "sensoradmin",
			Reconnect:   MQTTReconnectConfig{InitialDelay: 1, MaxDelay: 60},
		},
		API: APIConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			Timeouts:       APITimeoutConfig{Read: 30, Write: 30, Idle: 60},
			LoginRateLimit: LoginRateLimitConfig{AttemptsPerMinute: 10, Burst: 10},
		},
		WebSocket: WebSocketConfig{Path: "/ws", MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10},
		InfluxDB:  InfluxDBConfig{BatchSize: 100, FlushInterval: 10},
		Logging:   LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		Catalogue: CatalogueConfig{SeedDefaults: true, DefaultLocale: "en"},
		Telemetry: TelemetryConfig{StaleAfter: 300},
		Security:  SecurityConfig{JWT: JWTConfig{AccessTokenTTL: 60}},
	}
}

// applyEnv copies set environment variables over file values. Numbers and
// booleans that fail to parse are ignored.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(dst *string) func(string) {
		return func(v string) { *dst = v }
	}
	num := func(dst *int) func(string) {
		return func(v string) {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	flag := func(dst *bool) func(string) {
		return func(v string) {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	overrides := map[string]func(string){
		"DATABASE_PATH":    str(&c.Database.Path),
		"MQTT_ENABLED":     flag(&c.MQTT.Enabled),
		"MQTT_HOST":        str(&c.MQTT.Broker.Host),
		"MQTT_PORT":        num(&c.MQTT.Broker.Port),
		"MQTT_USERNAME":    str(&c.MQTT.Auth.Username),
		"MQTT_PASSWORD":    str(&c.MQTT.Auth.Password),
		"API_HOST":         str(&c.API.Host),
		"API_PORT":         num(&c.API.Port),
		"INFLUXDB_ENABLED": flag(&c.InfluxDB.Enabled),
		"INFLUXDB_URL":     str(&c.InfluxDB.URL),
		"INFLUXDB_TOKEN":   str(&c.InfluxDB.Token),
		"LOG_LEVEL":        str(&c.Logging.Level),
		"JWT_SECRET":       str(&c.Security.JWT.Secret),
	}
	for name, apply := range overrides {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			apply(v)
		}
	}
}

// Validate reports every problem in the configuration, not just the first.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Site.ID == "" {
		fail("site.id is required")
	}
	if c.Database.Path == "" {
		fail("database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		fail("mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && strings.TrimSpace(c.MQTT.TopicPrefix) == "" {
		fail("mqtt.topic_prefix is required when mqtt is enabled")
	}
	if strings.ContainsAny(c.MQTT.TopicPrefix, "+#") {
		fail("mqtt.topic_prefix must not contain wildcards")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		fail("api.port must be between 1 and 65535")
	}
	if rl := c.API.LoginRateLimit; rl.AttemptsPerMinute < 0 || rl.Burst < 0 {
		fail("api.login_rate_limit values must not be negative")
	}
	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		fail("influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}
	if c.Telemetry.StaleAfter < 0 {
		fail("telemetry.stale_after must not be negative")
	}

	switch jwt := c.Security.JWT; {
	case jwt.Secret == "":
		fail("security.jwt.secret is required (set %sJWT_SECRET)", EnvPrefix)
	case len(jwt.Secret) < minJWTSecretLength:
		fail("security.jwt.secret must be at least %d characters", minJWTSecretLength)
	}
	if c.Security.JWT.AccessTokenTTL <= 0 {
		fail("security.jwt.access_token_ttl must be positive")
	}

	seen := make(map[string]struct{}, len(c.Security.Admins))
	for i, a := range c.Security.Admins {
		if a.Username == "" {
			fail("security.admins[%d].username is required", i)
		} else if _, dup := seen[a.Username]; dup {
			fail("security.admins[%d].username %q is duplicated", i, a.Username)
		}
		seen[a.Username] = struct{}{}
		if !strings.HasPrefix(a.PasswordHash, "$argon2id$") {
			fail("security.admins[%d].password_hash must be an argon2id hash", i)
		}
	}

	return errors.Join(errs...)
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func (c *Config) GetReadTimeout() time.Duration  { return seconds(c.API.Timeouts.Read) }
func (c *Config) GetWriteTimeout() time.Duration { return seconds(c.API.Timeouts.Write) }
func (c *Config) GetIdleTimeout() time.Duration  { return seconds(c.API.Timeouts.Idle) }

// GetStaleAfter is how long an SVID reading counts as current.
func (c *Config) GetStaleAfter() time.Duration { return seconds(c.Telemetry.StaleAfter) }

// GetAccessTokenTTL converts the configured minutes.
func (c *Config) GetAccessTokenTTL() time.Duration {
	return time.Duration(c.Security.JWT.AccessTokenTTL) * time.Minute
}
