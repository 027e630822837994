package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadEnvOverrides_AllSet(t *testing.T) {
	t.Setenv("WIREBUG_CONFIG", "/custom/config.toml")
	t.Setenv("WIREBUG_STATE_DB", "/custom/state.db")

	overrides := ReadEnvOverrides()
	assert.Equal(t, "/custom/config.toml", overrides.ConfigPath)
	assert.Equal(t, "/custom/state.db", overrides.StateDB)
}

func TestReadEnvOverrides_NoneSet(t *testing.T) {
	t.Setenv("WIREBUG_CONFIG", "")
	t.Setenv("WIREBUG_STATE_DB", "")

	overrides := ReadEnvOverrides()
	assert.Empty(t, overrides.ConfigPath)
	assert.Empty(t, overrides.StateDB)
}

func TestEnvVarConstants(t *testing.T) {
	assert.Equal(t, "WIREBUG_CONFIG", EnvConfig)
	assert.Equal(t, "WIREBUG_STATE_DB", EnvStateDB)
}
