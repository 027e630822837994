// Package monitor implements the wireless-debugging status loop: a
// self-rearming scheduler drives a reconciler that probes the ADB-over-TCP
// toggle, emits an edge-triggered change event, and keeps the status
// notification and the optional wake lock in line with the probed state.
//
// Every platform capability the loop touches is reached through an
// interface declared here. Production implementations live in
// internal/platform (toggle, keyguard, Wi-Fi, wake lock) and internal/store
// (notification board, session health); tests use in-memory fakes.
package monitor

import (
	"context"
	"time"
)

// Preference keys read by the reconciler on every tick.
const (
	OptionDisableOnLock = "disable_on_lock"
	OptionStayAwake     = "stay_awake"
)

// DefaultInterval is the cadence between two ticks.
const DefaultInterval = 5000 * time.Millisecond

// FeatureToggle is the opaque debugging-enable capability being monitored.
type FeatureToggle interface {
	Enabled(ctx context.Context) (bool, error)
	SetEnabled(ctx context.Context, enabled bool) error
}

// LockDetector reports whether the device is in a locked, restricted-input
// state.
type LockDetector interface {
	Locked(ctx context.Context) (bool, error)
}

// NetworkInfoProvider resolves the current connectivity.
type NetworkInfoProvider interface {
	Connectivity(ctx context.Context) (ConnectivityInfo, error)
}

// Preferences is a read-only view of the user's named boolean options.
// Implementations return def when the key is unknown or unreadable.
type Preferences interface {
	Bool(key string, def bool) bool
}

// WakeLock is the platform primitive behind WakeLockGuard. Calls are not
// required to be idempotent; the guard tracks held state.
type WakeLock interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// Notifier is the platform notification primitive. Post replaces any
// notification already shown under id; Cancel removes it and succeeds when
// nothing is shown.
type Notifier interface {
	Post(ctx context.Context, id int, n Notification) error
	Cancel(ctx context.Context, id int) error
}

// Emitter publishes status changes to whoever is listening right now.
type Emitter interface {
	Emit(ev StatusChangedEvent)
}

// ConnectivityInfo is either Connected{Address, Label} or NotConnected.
// Label is the network name (SSID) and Address the device's IPv4 address.
type ConnectivityInfo struct {
	Connected bool
	Address   string
	Label     string
}

// Connected builds a connected ConnectivityInfo.
func Connected(address, label string) ConnectivityInfo {
	return ConnectivityInfo{Connected: true, Address: address, Label: label}
}

// NotConnected builds the not-connected variant.
func NotConnected() ConnectivityInfo {
	return ConnectivityInfo{}
}

// HealthRecorder receives session lifecycle updates from the Scheduler so
// that observers outside the daemon process (the status command) can see
// whether the loop is alive. Implemented by *store.Store.
type HealthRecorder interface {
	SessionStarted(ctx context.Context, sessionID string, at time.Time) error
	TickCompleted(ctx context.Context, sessionID string, report *TickReport) error
	SessionFailed(ctx context.Context, sessionID string, at time.Time, cause error) error
}
