// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"

	"github.com/ManuGH/motioncam/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration, reporting every problem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.path()
			if path == "" {
				return errors.New("--config or $" + EnvConfigPath + " is required")
			}
			_, cfg, err := opts.load()
			if err != nil {
				if errors.Is(err, config.ErrUnknownConfigField) {
					return fmt.Errorf("%s: %w (check spelling against the documented keys)", path, err)
				}
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %s (%d cameras)\n", path, len(cfg.Cameras))
			return nil
		},
	})
	return cmd
}
