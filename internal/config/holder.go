package config

import (
	"sync"

	"github.com/tonimelisma/wirebug-go/internal/monitor"
)

// Holder provides thread-safe access to a mutable *Config and an immutable
// config file path. The reconciler reads preferences through it while the
// file watcher swaps in reloaded configs, so a reload updates every reader
// at once.
type Holder struct {
	mu   sync.RWMutex
	cfg  *Config
	path string // immutable after construction
}

// Holder is the daemon's live preference source.
var _ monitor.Preferences = (*Holder)(nil)

// NewHolder creates a Holder with the initial config and config file path.
func NewHolder(cfg *Config, path string) *Holder {
	return &Holder{
		cfg:  cfg,
		path: path,
	}
}

// Config returns the current config snapshot. Thread-safe (read lock).
func (h *Holder) Config() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.cfg
}

// Path returns the config file path. Thread-safe without locking because
// the path is immutable after construction.
func (h *Holder) Path() string {
	return h.path
}

// Update replaces the config. Thread-safe (write lock).
func (h *Holder) Update(cfg *Config) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.cfg = cfg
}

// Bool returns the named boolean option from the current snapshot, or def
// when the key is unknown.
func (h *Holder) Bool(key string, def bool) bool {
	v, ok := h.Config().Option(key)
	if !ok {
		return def
	}

	return v
}
