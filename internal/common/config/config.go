// Package config loads dbchat settings from defaults, an optional
// config.yaml and DBCHAT_* environment variables, in that order of
// precedence (lowest first). Flags bound to the viper instance win over all.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kandev/dbchat/internal/common/logger"
)

const envPrefix = "DBCHAT"

type Config struct {
	Server   ServerConfig         `mapstructure:"server"`
	Database DatabaseConfig       `mapstructure:"database"`
	NATS     NATSConfig           `mapstructure:"nats"`
	Chat     ChatConfig           `mapstructure:"chat"`
	Logging  logger.LoggingConfig `mapstructure:"logging"`
	Tracing  TracingConfig        `mapstructure:"tracing"`
}

// ServerConfig is the HTTP listener that carries the WebSocket gateway.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig tunes the shared gateway. Host, user and password come
// from the /connect conversation, never from here.
type DatabaseConfig struct {
	Driver         string        `mapstructure:"driver"`
	SSLMode        string        `mapstructure:"sslMode"`
	ConnectTimeout time.Duration `mapstructure:"connectTimeout"`
	MaxConns       int           `mapstructure:"maxConns"`
	MinConns       int           `mapstructure:"minConns"`
}

// NATSConfig selects the external bus. An empty URL keeps events in process.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	ClientID      string `mapstructure:"clientId"`
	MaxReconnects int    `mapstructure:"maxReconnects"`
}

type ChatConfig struct {
	CommandPrefix string `mapstructure:"commandPrefix"`
	BotName       string `mapstructure:"botName"`
	InboxSize     int    `mapstructure:"inboxSize"`
}

// TracingConfig points at an OTLP/HTTP collector; empty disables export.
type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"serviceName"`
}

var defaults = map[string]any{
	"server.host":            "0.0.0.0",
	"server.port":            8080,
	"server.readTimeout":     30 * time.Second,
	"server.writeTimeout":    30 * time.Second,
	"server.shutdownTimeout": 10 * time.Second,

	"database.driver":         "postgres",
	"database.sslMode":        "disable",
	"database.connectTimeout": 10 * time.Second,
	"database.maxConns":       5,
	"database.minConns":       1,

	"nats.url":           "",
	"nats.clientId":      "dbchat",
	"nats.maxReconnects": 10,

	"chat.commandPrefix": "/",
	"chat.botName":       "",
	"chat.inboxSize":     256,

	"logging.level":      "info",
	"logging.outputPath": "stdout",

	"tracing.endpoint":    "",
	"tracing.serviceName": "dbchat",
}

// camelCase keys that AutomaticEnv cannot derive a variable name for.
var envAliases = map[string][]string{
	"server.readTimeout":      {"DBCHAT_SERVER_READ_TIMEOUT"},
	"server.writeTimeout":     {"DBCHAT_SERVER_WRITE_TIMEOUT"},
	"server.shutdownTimeout":  {"DBCHAT_SERVER_SHUTDOWN_TIMEOUT"},
	"database.sslMode":        {"DBCHAT_DATABASE_SSL_MODE"},
	"database.connectTimeout": {"DBCHAT_DATABASE_CONNECT_TIMEOUT"},
	"chat.commandPrefix":      {"DBCHAT_CHAT_COMMAND_PREFIX"},
	"chat.botName":            {"DBCHAT_CHAT_BOT_NAME"},
	"logging.outputPath":      {"DBCHAT_LOGGING_OUTPUT_PATH"},
	"tracing.endpoint":        {"DBCHAT_TRACING_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"},
}

// New returns a viper instance with defaults and environment bindings.
// Bind command-line flags to it, then pass it to LoadFrom.
func New() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetDefault("logging.format", logger.DetectFormat())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		_ = v.BindEnv(append([]string{key}, names...)...)
	}
	return v
}

// LoadFrom reads config.yaml and decodes the result. configPath may be a
// .yaml/.yml file or a directory to search before ./ and /etc/dbchat/. A
// missing file is not an error.
func LoadFrom(v *viper.Viper, configPath string) (*Config, error) {
	switch {
	case strings.HasSuffix(configPath, ".yaml"), strings.HasSuffix(configPath, ".yml"):
		v.SetConfigFile(configPath)
	default:
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, dir := range []string{configPath, ".", "/etc/dbchat/"} {
			if dir != "" {
				v.AddConfigPath(dir)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
}

var (
	drivers    = []string{"postgres", "postgresql", "pgx", "mysql", "sqlite", "sqlite3"}
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "text", "console"}
)

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Server.Port > 0 && c.Server.Port <= 65535, "server.port %d out of range", c.Server.Port)
	check(c.Server.ShutdownTimeout > 0, "server.shutdownTimeout must be positive")

	check(slices.Contains(drivers, c.Database.Driver), "database.driver %q is not one of %v", c.Database.Driver, drivers)
	check(c.Database.ConnectTimeout > 0, "database.connectTimeout must be positive")
	check(c.Database.MaxConns > 0, "database.maxConns must be positive")

	check(strings.TrimSpace(c.Chat.CommandPrefix) != "", "chat.commandPrefix is required")
	check(c.Chat.InboxSize > 0, "chat.inboxSize must be positive")

	check(slices.Contains(logLevels, c.Logging.Level), "logging.level %q is not one of %v", c.Logging.Level, logLevels)
	check(slices.Contains(logFormats, c.Logging.Format), "logging.format %q is not one of %v", c.Logging.Format, logFormats)

	return errors.Join(errs...)
}
