package config

import (
	"github.com/tonimelisma/wirebug-go/internal/platform"
)

// Default values for configuration options. These are layer 0 of the
// override chain and work without any config file.
const (
	defaultPollInterval        = "5s"
	defaultCollaboratorTimeout = "0"
	defaultSuCommand           = "su"
	defaultWakeLockName        = "wirebug"
	defaultEventListenAddr     = "127.0.0.1:8765"
	defaultLogLevel            = "info"
	defaultLogFormat           = "auto"
)

// DefaultConfig returns a Config populated with all default values. It is
// the starting point for TOML decoding, so unset keys keep their defaults.
func DefaultConfig() *Config {
	return &Config{
		OptionsConfig:  OptionsConfig{},
		MonitorConfig:  defaultMonitorConfig(),
		PlatformConfig: defaultPlatformConfig(),
		EventsConfig:   EventsConfig{EventListenAddr: defaultEventListenAddr},
		LoggingConfig:  defaultLoggingConfig(),
	}
}

func defaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PollInterval:        defaultPollInterval,
		CollaboratorTimeout: defaultCollaboratorTimeout,
	}
}

func defaultPlatformConfig() PlatformConfig {
	return PlatformConfig{
		ADBPort:       platform.DefaultADBPort,
		SuCommand:     defaultSuCommand,
		WifiInterface: platform.DefaultWifiInterface,
		WakeLockDir:   platform.DefaultWakeLockDir,
		WakeLockName:  defaultWakeLockName,
	}
}

func defaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}
}
