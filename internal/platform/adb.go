package platform

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// adbPortProperty is the system property adbd reads its TCP port from.
// A positive value means adbd listens on TCP; -1 or unset means USB only.
const adbPortProperty = "service.adb.tcp.port"

// DefaultADBPort is the conventional ADB-over-TCP port.
const DefaultADBPort = 5555

// ADBToggle reads and flips ADB-over-TCP through system properties.
// Reading needs no privileges; writing goes through the su helper because
// setprop and restarting adbd require root.
type ADBToggle struct {
	runner Runner
	port   int
	su     string
}

// NewADBToggle creates a toggle that enables TCP debugging on port using su
// as the privilege helper.
func NewADBToggle(runner Runner, port int, su string) *ADBToggle {
	return &ADBToggle{runner: runner, port: port, su: su}
}

// Enabled reports whether adbd is configured to listen on TCP.
func (t *ADBToggle) Enabled(ctx context.Context) (bool, error) {
	out, err := t.runner.Run(ctx, "getprop", adbPortProperty)
	if err != nil {
		return false, fmt.Errorf("platform: reading %s: %w", adbPortProperty, err)
	}

	value := strings.TrimSpace(string(out))
	if value == "" {
		return false, nil
	}

	port, err := strconv.Atoi(value)
	if err != nil {
		return false, fmt.Errorf("platform: unexpected %s value %q", adbPortProperty, value)
	}

	return port > 0, nil
}

// SetEnabled sets the TCP port property and restarts adbd so it takes effect.
func (t *ADBToggle) SetEnabled(ctx context.Context, enabled bool) error {
	port := -1
	if enabled {
		port = t.port
	}

	script := fmt.Sprintf("setprop %s %d; stop adbd; start adbd", adbPortProperty, port)

	if _, err := t.runner.Run(ctx, t.su, "-c", script); err != nil {
		return fmt.Errorf("platform: setting %s to %d: %w", adbPortProperty, port, err)
	}

	return nil
}
