package config

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/wirebug-go/internal/monitor"
)

func TestNewHolder(t *testing.T) {
	cfg := DefaultConfig()
	h := NewHolder(cfg, "/etc/wirebug/config.toml")

	require.NotNil(t, h)
	assert.Equal(t, cfg, h.Config())
	assert.Equal(t, "/etc/wirebug/config.toml", h.Path())
}

func TestHolder_Update(t *testing.T) {
	cfg1 := DefaultConfig()
	h := NewHolder(cfg1, "/tmp/config.toml")

	cfg2 := DefaultConfig()
	cfg2.PollInterval = "10s"

	h.Update(cfg2)

	got := h.Config()
	assert.Equal(t, cfg2, got)
	assert.NotEqual(t, cfg1, got)
}

func TestHolder_BoolReadsCurrentSnapshot(t *testing.T) {
	h := NewHolder(DefaultConfig(), "/tmp/config.toml")

	assert.False(t, h.Bool(monitor.OptionDisableOnLock, true))

	cfg := DefaultConfig()
	cfg.DisableOnLock = true
	h.Update(cfg)

	assert.True(t, h.Bool(monitor.OptionDisableOnLock, false))
}

func TestHolder_BoolUnknownKeyReturnsDefault(t *testing.T) {
	h := NewHolder(DefaultConfig(), "/tmp/config.toml")

	assert.True(t, h.Bool("nope", true))
	assert.False(t, h.Bool("nope", false))
}

func TestHolder_ConcurrentReadWrite(t *testing.T) {
	h := NewHolder(DefaultConfig(), "/tmp/config.toml")

	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 100 {
				assert.NotNil(t, h.Config())
				_ = h.Bool(monitor.OptionStayAwake, false)
			}
		}()
	}

	for range 5 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 100 {
				cfg := DefaultConfig()
				cfg.StayAwake = true
				h.Update(cfg)
			}
		}()
	}

	wg.Wait()

	assert.True(t, h.Bool(monitor.OptionStayAwake, false))
}
