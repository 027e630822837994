package monitor

import (
	"context"
	"fmt"
	"log/slog"
)

// WakeLockGuard owns the held/released state of a single wake lock. Acquire
// while held and Release while released are no-ops. Only the scheduler's
// tick goroutine and the daemon teardown touch it, so it carries no mutex.
type WakeLockGuard struct {
	lock   WakeLock
	held   bool
	logger *slog.Logger
}

// NewWakeLockGuard wraps lock in a guard that starts released.
func NewWakeLockGuard(lock WakeLock, logger *slog.Logger) *WakeLockGuard {
	return &WakeLockGuard{lock: lock, logger: logger}
}

// Acquire takes the wake lock unless it is already held. A failed acquire
// leaves the guard released so the next tick tries again.
func (g *WakeLockGuard) Acquire(ctx context.Context) error {
	if g.held {
		return nil
	}

	g.logger.Info("acquiring wake lock because stay_awake is true")

	if err := g.lock.Acquire(ctx); err != nil {
		return fmt.Errorf("monitor: acquiring wake lock: %w", err)
	}

	g.held = true

	return nil
}

// Release drops the wake lock if it is held. A failed release keeps the
// guard in the held state.
func (g *WakeLockGuard) Release(ctx context.Context) error {
	if !g.held {
		return nil
	}

	g.logger.Info("releasing wake lock")

	if err := g.lock.Release(ctx); err != nil {
		return fmt.Errorf("monitor: releasing wake lock: %w", err)
	}

	g.held = false

	return nil
}

// IsHeld reports whether the guard believes the lock is held.
func (g *WakeLockGuard) IsHeld() bool {
	return g.held
}

// Shutdown releases the underlying lock whatever the guard's state is, so a
// lock taken by a crashed predecessor under the same tag does not outlive
// this process. Errors are logged, not returned.
func (g *WakeLockGuard) Shutdown(ctx context.Context) {
	if err := g.lock.Release(ctx); err != nil && g.held {
		g.logger.Warn("wake lock release on shutdown failed",
			slog.String("error", err.Error()),
		)
	}

	g.held = false
}
