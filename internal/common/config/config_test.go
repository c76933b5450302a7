package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, dir string) (*Config, error) {
	t.Helper()
	return LoadFrom(New(), dir)
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := load(t, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 10*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, "/", cfg.Chat.CommandPrefix)
	assert.Equal(t, 256, cfg.Chat.InboxSize)
	assert.Empty(t, cfg.NATS.URL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "stdout", cfg.Logging.OutputPath)
}

func TestLoadFrom_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
server:
  port: 9090
  readTimeout: 5s
database:
  driver: SQLite
chat:
  commandPrefix: "!"
  botName: dbchat_bot
logging:
  level: DEBUG
  format: json
  outputPath: stderr
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))

	cfg, err := load(t, dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "!", cfg.Chat.CommandPrefix)
	assert.Equal(t, "dbchat_bot", cfg.Chat.BotName)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.OutputPath)
}

func TestLoadFrom_ExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dbchat.yml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9191\n"), 0o644))

	cfg, err := load(t, path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	t.Setenv("DBCHAT_SERVER_PORT", "7000")
	t.Setenv("DBCHAT_DATABASE_DRIVER", "mysql")
	t.Setenv("DBCHAT_DATABASE_CONNECT_TIMEOUT", "3s")
	t.Setenv("DBCHAT_CHAT_COMMAND_PREFIX", ".")

	cfg, err := load(t, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, ".", cfg.Chat.CommandPrefix)
}

func TestLoadFrom_OTLPEndpointFallback(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318")

	cfg, err := load(t, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "http://collector:4318", cfg.Tracing.Endpoint)
}

func TestLoadFrom_ValidationErrors(t *testing.T) {
	t.Setenv("DBCHAT_DATABASE_DRIVER", "oracle")
	t.Setenv("DBCHAT_LOGGING_LEVEL", "verbose")

	_, err := load(t, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.driver")
	assert.Contains(t, err.Error(), "logging.level")
}

func TestLoadFrom_FlagOverride(t *testing.T) {
	v := New()
	v.Set("logging.level", "warn")

	cfg, err := LoadFrom(v, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	cfg, err := load(t, t.TempDir())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	cfg.Server.Port = 70000
	cfg.Chat.InboxSize = 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port 70000 out of range")
	assert.Contains(t, err.Error(), "chat.inboxSize")
}

func TestServerConfig_Addr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8081}
	assert.Equal(t, "127.0.0.1:8081", s.Addr())
}
