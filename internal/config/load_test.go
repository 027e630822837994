package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger returns a debug-level logger so config debug output appears
// in test output.
func testLogger(t *testing.T) *slog.Logger {
	t.Helper()

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)

	return path
}

func TestLoad_ValidFullConfig(t *testing.T) {
	path := writeTestConfig(t, `
disable_on_lock = true
stay_awake = true

poll_interval = "10s"
collaborator_timeout = "3s"

adb_port = 5037
su_command = "/system/xbin/su"
wifi_interface = "wlan1"
wake_lock_dir = "/tmp/power"
wake_lock_name = "wirebug-test"

event_listen_addr = "127.0.0.1:9000"
state_db = "/data/local/tmp/state.db"

log_level = "debug"
log_file = "/data/local/tmp/wirebug.log"
log_format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.DisableOnLock)
	assert.True(t, cfg.StayAwake)
	assert.Equal(t, "10s", cfg.PollInterval)
	assert.Equal(t, "3s", cfg.CollaboratorTimeout)
	assert.Equal(t, 5037, cfg.ADBPort)
	assert.Equal(t, "/system/xbin/su", cfg.SuCommand)
	assert.Equal(t, "wlan1", cfg.WifiInterface)
	assert.Equal(t, "/tmp/power", cfg.WakeLockDir)
	assert.Equal(t, "wirebug-test", cfg.WakeLockName)
	assert.Equal(t, "127.0.0.1:9000", cfg.EventListenAddr)
	assert.Equal(t, "/data/local/tmp/state.db", cfg.StateDB)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/data/local/tmp/wirebug.log", cfg.LogFile)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_PartialConfigKeepsDefaults(t *testing.T) {
	path := writeTestConfig(t, "stay_awake = true\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.StayAwake)
	assert.False(t, cfg.DisableOnLock)
	assert.Equal(t, "5s", cfg.PollInterval)
	assert.Equal(t, 5555, cfg.ADBPort)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeTestConfig(t, "this is not [valid toml")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoad_ValidationErrorsAccumulate(t *testing.T) {
	path := writeTestConfig(t, `
poll_interval = "10ms"
adb_port = 0
log_level = "verbose"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_interval")
	assert.Contains(t, err.Error(), "adb_port")
	assert.Contains(t, err.Error(), "log_level")
}

func TestLoad_WrongType(t *testing.T) {
	path := writeTestConfig(t, `stay_awake = "yes"`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestResolve_PrecedenceAndOverrides(t *testing.T) {
	envPath := writeTestConfig(t, `poll_interval = "20s"`)
	cliPath := writeTestConfig(t, `poll_interval = "30s"`)

	cfg, path, err := Resolve(EnvOverrides{ConfigPath: envPath}, CLIOverrides{})
	require.NoError(t, err)
	assert.Equal(t, envPath, path)
	assert.Equal(t, "20s", cfg.PollInterval)

	cfg, path, err = Resolve(EnvOverrides{ConfigPath: envPath}, CLIOverrides{ConfigPath: cliPath})
	require.NoError(t, err)
	assert.Equal(t, cliPath, path)
	assert.Equal(t, "30s", cfg.PollInterval)

	interval := "7s"
	cfg, _, err = Resolve(
		EnvOverrides{ConfigPath: envPath, StateDB: "/tmp/x.db"},
		CLIOverrides{PollInterval: &interval},
	)
	require.NoError(t, err)
	assert.Equal(t, "7s", cfg.PollInterval)
	assert.Equal(t, "/tmp/x.db", cfg.StateDB)
}

func TestResolve_InvalidOverrideRejected(t *testing.T) {
	path := writeTestConfig(t, "")
	bad := "0s"

	_, _, err := Resolve(EnvOverrides{}, CLIOverrides{ConfigPath: path, PollInterval: &bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_interval")
}

func TestResolveConfigPath_Default(t *testing.T) {
	assert.Equal(t, DefaultConfigPath(), ResolveConfigPath(EnvOverrides{}, CLIOverrides{}))
}
