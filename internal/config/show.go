package config

import (
	"fmt"
	"io"
)

// RenderEffective writes the resolved configuration as an annotated TOML
// summary to w. This powers `config show`, giving users the effective
// values after defaults, file, env, and CLI layers have been applied.
func RenderEffective(cfg *Config, path string, w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("# Effective configuration (file: %s)\n\n", path)

	ew.printf("# options\n")
	ew.printf("disable_on_lock      = %t\n", cfg.DisableOnLock)
	ew.printf("stay_awake           = %t\n", cfg.StayAwake)
	ew.printf("\n")

	ew.printf("# monitor\n")
	ew.printf("poll_interval        = %q\n", cfg.PollInterval)
	ew.printf("collaborator_timeout = %q\n", cfg.CollaboratorTimeout)
	ew.printf("\n")

	ew.printf("# platform\n")
	ew.printf("adb_port             = %d\n", cfg.ADBPort)
	ew.printf("su_command           = %q\n", cfg.SuCommand)
	ew.printf("wifi_interface       = %q\n", cfg.WifiInterface)
	ew.printf("wake_lock_dir        = %q\n", cfg.WakeLockDir)
	ew.printf("wake_lock_name       = %q\n", cfg.WakeLockName)
	ew.printf("\n")

	ew.printf("# events\n")
	ew.printf("event_listen_addr    = %q\n", cfg.EventListenAddr)
	ew.printf("state_db             = %q\n", cfg.StatePath())
	ew.printf("\n")

	ew.printf("# logging\n")
	ew.printf("log_level            = %q\n", cfg.LogLevel)
	ew.printf("log_format           = %q\n", cfg.LogFormat)

	if cfg.LogFile != "" {
		ew.printf("log_file             = %q\n", cfg.LogFile)
	}

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops, so callers can chain
// printf calls without checking each one individually.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
