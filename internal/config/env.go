package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig  = "WIREBUG_CONFIG"
	EnvStateDB = "WIREBUG_STATE_DB"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath string // WIREBUG_CONFIG: override config file path
	StateDB    string // WIREBUG_STATE_DB: override state database path
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
// This does not modify the Config; callers apply the relevant fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		StateDB:    os.Getenv(EnvStateDB),
	}
}
