// Package config implements TOML configuration loading, validation, and
// path resolution for wirebug. Values resolve through a four-layer chain
// (defaults -> config file -> environment -> CLI flags). The file is flat:
// every key lives at the top level.
package config

import (
	"path/filepath"
	"time"

	"github.com/tonimelisma/wirebug-go/internal/monitor"
)

// Config is the top-level configuration structure parsed from a TOML file.
// Sub-structs are embedded so their fields decode as flat top-level keys.
type Config struct {
	OptionsConfig
	MonitorConfig
	PlatformConfig
	EventsConfig
	LoggingConfig
}

// OptionsConfig holds the user-facing boolean preferences the reconciler
// reads on every tick.
type OptionsConfig struct {
	DisableOnLock bool `toml:"disable_on_lock" json:"disable_on_lock"`
	StayAwake     bool `toml:"stay_awake" json:"stay_awake"`
}

// MonitorConfig controls loop timing.
type MonitorConfig struct {
	PollInterval        string `toml:"poll_interval" json:"poll_interval"`
	CollaboratorTimeout string `toml:"collaborator_timeout" json:"collaborator_timeout"`
}

// PlatformConfig describes how the daemon reaches the device: the ADB
// port to publish, the privilege helper, the Wi-Fi interface, and the
// kernel wake-lock interface.
type PlatformConfig struct {
	ADBPort       int    `toml:"adb_port" json:"adb_port"`
	SuCommand     string `toml:"su_command" json:"su_command"`
	WifiInterface string `toml:"wifi_interface" json:"wifi_interface"`
	WakeLockDir   string `toml:"wake_lock_dir" json:"wake_lock_dir"`
	WakeLockName  string `toml:"wake_lock_name" json:"wake_lock_name"`
}

// EventsConfig controls the status-change event endpoint and the state
// database the daemon shares with CLI commands.
type EventsConfig struct {
	EventListenAddr string `toml:"event_listen_addr" json:"event_listen_addr"`
	StateDB         string `toml:"state_db" json:"state_db"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level" json:"log_level"`
	LogFile   string `toml:"log_file" json:"log_file"`
	LogFormat string `toml:"log_format" json:"log_format"`
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings. Pointer fields distinguish "not specified" (nil)
// from "explicitly set".
type CLIOverrides struct {
	ConfigPath   string  // --config flag (empty = use default)
	PollInterval *string // --interval flag on run
}

// Option returns the named boolean preference and whether the key is known.
func (c *Config) Option(key string) (value, ok bool) {
	switch key {
	case monitor.OptionDisableOnLock:
		return c.DisableOnLock, true
	case monitor.OptionStayAwake:
		return c.StayAwake, true
	default:
		return false, false
	}
}

// Interval returns poll_interval as a duration. Validated configs always
// parse; an unparsable value falls back to the default cadence.
func (c *Config) Interval() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return monitor.DefaultInterval
	}

	return d
}

// Timeout returns collaborator_timeout as a duration; zero disables.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.CollaboratorTimeout)
	if err != nil {
		return 0
	}

	return d
}

// StatePath returns the state database path, defaulting to the data dir.
func (c *Config) StatePath() string {
	if c.StateDB != "" {
		return expandTilde(c.StateDB)
	}

	return DefaultStatePath()
}

// LogPath returns the log file path with ~ expanded, or "" for stderr only.
func (c *Config) LogPath() string {
	if c.LogFile == "" {
		return ""
	}

	return filepath.Clean(expandTilde(c.LogFile))
}
