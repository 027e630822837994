package platform

import (
	"context"
	"fmt"
	"strings"
)

// keyguardMarkers are the window-manager dump lines that mean the keyguard
// is showing. Different Android releases print different ones.
var keyguardMarkers = []string{
	"mShowingLockscreen=true",
	"mDreamingLockscreen=true",
	"isStatusBarKeyguard=true",
	"mIsShowing=true",
}

// KeyguardDetector reports the lock state from the window manager dump.
type KeyguardDetector struct {
	runner Runner
}

// NewKeyguardDetector creates a detector that shells out through runner.
func NewKeyguardDetector(runner Runner) *KeyguardDetector {
	return &KeyguardDetector{runner: runner}
}

// Locked reports whether the device is in restricted-input (keyguard) mode.
func (d *KeyguardDetector) Locked(ctx context.Context) (bool, error) {
	out, err := d.runner.Run(ctx, "dumpsys", "window", "policy")
	if err != nil {
		return false, fmt.Errorf("platform: reading window policy: %w", err)
	}

	return containsKeyguardMarker(string(out)), nil
}

func containsKeyguardMarker(dump string) bool {
	for _, line := range strings.Split(dump, "\n") {
		for _, field := range strings.Fields(line) {
			for _, marker := range keyguardMarkers {
				if field == marker {
					return true
				}
			}
		}
	}

	return false
}
