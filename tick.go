package main

import (
	"github.com/spf13/cobra"

	"github.com/tonimelisma/wirebug-go/internal/config"
)

func newTickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Ask the running daemon to check the debugging state now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			if err := sendSIGHUP(config.PIDFilePath()); err != nil {
				return err
			}

			cc.Statusf("Status check requested.\n")

			return nil
		},
	}
}
