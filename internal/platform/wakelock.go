package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// DefaultWakeLockDir is where the kernel exposes the userspace wake lock
// interface.
const DefaultWakeLockDir = "/sys/power"

// SysfsWakeLock holds a named kernel wake lock by writing its name to
// wake_lock and drops it by writing the name to wake_unlock.
type SysfsWakeLock struct {
	dir  string
	name string
}

// NewSysfsWakeLock creates a wake lock named name under dir.
func NewSysfsWakeLock(dir, name string) (*SysfsWakeLock, error) {
	if name == "" || strings.ContainsAny(name, " \t\n") {
		return nil, fmt.Errorf("platform: invalid wake lock name %q", name)
	}

	return &SysfsWakeLock{dir: dir, name: name}, nil
}

// Acquire takes the wake lock.
func (w *SysfsWakeLock) Acquire(_ context.Context) error {
	return w.write("wake_lock")
}

// Release drops the wake lock. The kernel rejects unlocking an unknown
// name; that case is reported as success since the lock is not held.
func (w *SysfsWakeLock) Release(_ context.Context) error {
	err := w.write("wake_unlock")
	if errors.Is(err, syscall.EINVAL) {
		return nil
	}

	return err
}

func (w *SysfsWakeLock) write(file string) error {
	path := filepath.Join(w.dir, file)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("platform: opening %s: %w", path, err)
	}

	if _, err := f.WriteString(w.name); err != nil {
		f.Close()

		return fmt.Errorf("platform: writing %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("platform: closing %s: %w", path, err)
	}

	return nil
}
