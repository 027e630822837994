package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/wirebug-go/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration after all overrides",
		RunE:  runConfigShow,
	}
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	if cc.Flags.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(cc.Cfg)
	}

	return config.RenderEffective(cc.Cfg, cc.CfgPath, os.Stdout)
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config key in the config file",
		Long: `Set a single top-level key in the config file, creating the file from a
commented template if needed. The result is validated before it is written.
A running daemon picks up the change automatically.`,
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			path, err := configPathOrError(cc.CfgPath)
			if err != nil {
				return err
			}

			if err := config.SetKey(path, args[0], args[1]); err != nil {
				return err
			}

			cc.Statusf("Set %s in %s\n", args[0], path)

			return nil
		},
	}
}

// configPathOrError guards commands that need a resolvable config path.
func configPathOrError(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("cannot determine config path; pass --config or set %s", config.EnvConfig)
	}

	return path, nil
}
