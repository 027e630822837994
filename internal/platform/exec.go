package platform

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes an external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec. The command is killed when ctx ends.
type ExecRunner struct{}

// Run executes name with args and returns stdout. On failure the error
// includes trimmed stderr, which is where toolbox commands explain themselves.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return out, fmt.Errorf("platform: running %s: %w: %s", name, err, msg)
		}

		return out, fmt.Errorf("platform: running %s: %w", name, err)
	}

	return out, nil
}
