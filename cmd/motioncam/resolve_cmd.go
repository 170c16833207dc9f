// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"

	"github.com/ManuGH/motioncam/internal/resolver"
	"github.com/spf13/cobra"
)

func newResolveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <mac>",
		Short: "Look up the addresses of a hardware address using the configured resolvers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := opts.load()
			if err != nil {
				return err
			}
			chain, err := resolver.New(cmd.Context(), cfg.Resolver)
			if err != nil {
				return err
			}
			defer func() { _ = chain.Close() }()

			mac := resolver.NormalizeMAC(args[0])
			addrs, err := chain.Resolve(cmd.Context(), mac)
			if err != nil {
				return fmt.Errorf("%s via %s: %w", mac, chain.Name(), err)
			}
			out := cmd.OutOrStdout()
			for _, a := range addrs {
				fmt.Fprintln(out, a)
			}
			return nil
		},
	}
}
