package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/wirebug-go/internal/config"
	"github.com/tonimelisma/wirebug-go/internal/monitor"
)

func newEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable",
		Short: "Turn wireless debugging on",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			return setDebugging(cmd.Context(), cc, newToggle(cc.Cfg), true, config.PIDFilePath())
		},
	}
}

func newDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Turn wireless debugging off",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			return setDebugging(cmd.Context(), cc, newToggle(cc.Cfg), false, config.PIDFilePath())
		},
	}
}

// setDebugging flips the toggle, then nudges the daemon so listeners and
// the notification catch up without waiting for the next poll. A missing
// daemon is not an error.
func setDebugging(ctx context.Context, cc *CLIContext, toggle monitor.FeatureToggle, enabled bool, pidPath string) error {
	if err := toggle.SetEnabled(ctx, enabled); err != nil {
		return fmt.Errorf("%s wireless debugging: %w", enableVerb(enabled), err)
	}

	cc.Statusf("Wireless debugging %s.\n", enabledWord(enabled))

	if err := sendSIGHUP(pidPath); err != nil {
		cc.Logger.Debug("daemon not notified", slog.String("error", err.Error()))
		cc.Statusf("Monitor is not running; start it with 'wirebug run'.\n")
	}

	return nil
}

func enableVerb(enabled bool) string {
	if enabled {
		return "enabling"
	}

	return "disabling"
}

func enabledWord(enabled bool) string {
	if enabled {
		return "enabled"
	}

	return "disabled"
}
