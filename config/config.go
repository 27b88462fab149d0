// Package config loads the process configuration of the todo panel from the
// environment. The resulting Config is built once at startup and handed to
// every component that needs it.
package config

import (
	_ "embed"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

// TokenTTL is the fixed validity window of an issued bearer token.
const TokenTTL = 24 * time.Hour

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

// Config is the complete runtime configuration.
type Config struct {
	Debug     bool
	LogLevel  LogLevel
	LogFolder string

	Listen string
	Port   int

	Database DatabaseConfig

	JWTSecret string

	Admin AdminConfig

	// AuditRetentionDays is how long audit entries are kept. 0 disables pruning.
	AuditRetentionDays int

	// LoginRatePerMinute limits auth requests per client IP. 0 disables limiting.
	LoginRatePerMinute int
	LoginBurst         int

	// CORSOrigins lists the browser origins allowed to call the API. "*"
	// allows any origin; an empty list disables CORS headers.
	CORSOrigins []string

	// TrustedProxies are the IPs or CIDRs whose X-Forwarded-For is believed.
	// Empty means the client IP is always the socket peer.
	TrustedProxies []string
}

// AdminConfig seeds the first administrator when the users table is empty.
type AdminConfig struct {
	Email    string
	Username string
	Password string
}

// Enabled reports whether all seed fields are present.
func (a AdminConfig) Enabled() bool {
	return a.Email != "" && a.Username != "" && a.Password != ""
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	debug := getEnv("TODO_DEBUG", "") == "true"

	logLevel := LogLevel(getEnv("TODO_LOG_LEVEL", string(Info)))
	if debug {
		logLevel = Debug
	}

	port, err := getEnvAsInt("TODO_PORT", 3000)
	if err != nil {
		return nil, err
	}
	retention, err := getEnvAsInt("TODO_AUDIT_RETENTION_DAYS", 90)
	if err != nil {
		return nil, err
	}
	rate, err := getEnvAsInt("TODO_LOGIN_RATE", 20)
	if err != nil {
		return nil, err
	}
	burst, err := getEnvAsInt("TODO_LOGIN_BURST", 5)
	if err != nil {
		return nil, err
	}

	db, err := loadDatabaseConfig(debug)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Debug:     debug,
		LogLevel:  logLevel,
		LogFolder: getEnv("TODO_LOG_FOLDER", defaultLogFolder(debug)),
		Listen:    getEnv("TODO_LISTEN", ""),
		Port:      port,
		Database:  *db,
		JWTSecret: getEnv("TODO_JWT_SECRET", ""),
		Admin: AdminConfig{
			Email:    strings.ToLower(strings.TrimSpace(getEnv("TODO_ADMIN_EMAIL", ""))),
			Username: strings.TrimSpace(getEnv("TODO_ADMIN_USERNAME", "")),
			Password: getEnv("TODO_ADMIN_PASSWORD", ""),
		},
		AuditRetentionDays: retention,
		LoginRatePerMinute: rate,
		LoginBurst:         burst,
		CORSOrigins:        getEnvAsList("TODO_CORS_ORIGINS", "*"),
		TrustedProxies:     getEnvAsList("TODO_TRUSTED_PROXIES", ""),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case Debug, Info, Notice, Warn, Error:
	default:
		return fmt.Errorf("unknown log level: %s", c.LogLevel)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.AuditRetentionDays < 0 {
		return fmt.Errorf("audit retention days cannot be negative")
	}
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			if len(c.CORSOrigins) > 1 {
				return fmt.Errorf("cors origin * cannot be combined with other origins")
			}
			continue
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("cors origin must start with http:// or https://, got %q", origin)
		}
	}
	for _, proxy := range c.TrustedProxies {
		if net.ParseIP(proxy) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(proxy); err != nil {
			return fmt.Errorf("trusted proxy must be an IP or CIDR, got %q", proxy)
		}
	}
	return c.Database.ValidateConfig()
}

func defaultLogFolder(debug bool) string {
	if debug {
		return "log"
	}
	return "/var/log"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(strValue)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}

// getEnvAsList splits a comma-separated value, dropping blank entries.
func getEnvAsList(key, defaultValue string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, defaultValue), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
