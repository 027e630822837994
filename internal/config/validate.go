package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Validation range constants.
const (
	minPollInterval = 1 * time.Second
	maxPollInterval = 24 * time.Hour
	minPort         = 1
	maxPort         = 65535
)

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so users
// see a complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateMonitor(&cfg.MonitorConfig)...)
	errs = append(errs, validatePlatform(&cfg.PlatformConfig)...)
	errs = append(errs, validateEvents(&cfg.EventsConfig)...)
	errs = append(errs, validateLogging(&cfg.LoggingConfig)...)

	return errors.Join(errs...)
}

func validateMonitor(m *MonitorConfig) []error {
	var errs []error

	if err := validateDuration("poll_interval", m.PollInterval, minPollInterval); err != nil {
		errs = append(errs, err)
	} else if d, _ := time.ParseDuration(m.PollInterval); d > maxPollInterval {
		errs = append(errs, fmt.Errorf("poll_interval: must be <= %s, got %s", maxPollInterval, d))
	}

	errs = append(errs, validateDurationNonNeg("collaborator_timeout", m.CollaboratorTimeout)...)

	return errs
}

func validatePlatform(p *PlatformConfig) []error {
	var errs []error

	if p.ADBPort < minPort || p.ADBPort > maxPort {
		errs = append(errs, fmt.Errorf("adb_port: must be between %d and %d, got %d",
			minPort, maxPort, p.ADBPort))
	}

	if strings.TrimSpace(p.SuCommand) == "" {
		errs = append(errs, errors.New("su_command: must not be empty"))
	}

	if p.WifiInterface == "" {
		errs = append(errs, errors.New("wifi_interface: must not be empty"))
	}

	if p.WakeLockDir == "" {
		errs = append(errs, errors.New("wake_lock_dir: must not be empty"))
	}

	if p.WakeLockName == "" || strings.ContainsAny(p.WakeLockName, " \t\n") {
		errs = append(errs, fmt.Errorf("wake_lock_name: must be a single non-empty word, got %q", p.WakeLockName))
	}

	return errs
}

func validateEvents(e *EventsConfig) []error {
	if e.EventListenAddr == "" {
		return nil
	}

	if _, _, err := net.SplitHostPort(e.EventListenAddr); err != nil {
		return []error{fmt.Errorf("event_listen_addr: %w", err)}
	}

	return nil
}

// validateDuration checks that a duration string is valid and meets a minimum.
func validateDuration(field, value string, minimum time.Duration) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, value, err)
	}

	if d < minimum {
		return fmt.Errorf("%s: must be >= %s, got %s", field, minimum, d)
	}

	return nil
}

func validateDurationNonNeg(field, value string) []error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return []error{fmt.Errorf("%s: invalid duration %q: %w", field, value, err)}
	}

	if d < 0 {
		return []error{fmt.Errorf("%s: must be >= 0, got %s", field, d)}
	}

	return nil
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	errs = append(errs, validateLogLevel(l.LogLevel)...)
	errs = append(errs, validateLogFormat(l.LogFormat)...)

	return errs
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func validateLogLevel(level string) []error {
	if !validLogLevels[level] {
		return []error{fmt.Errorf("log_level: must be one of debug, info, warn, error; got %q", level)}
	}

	return nil
}

var validLogFormats = map[string]bool{
	"auto": true,
	"text": true,
	"json": true,
}

func validateLogFormat(format string) []error {
	if !validLogFormats[format] {
		return []error{fmt.Errorf("log_format: must be one of auto, text, json; got %q", format)}
	}

	return nil
}
