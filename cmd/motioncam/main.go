// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ManuGH/motioncam/internal/config"
	"github.com/ManuGH/motioncam/internal/daemon"
	"github.com/ManuGH/motioncam/internal/health"
	"github.com/ManuGH/motioncam/internal/log"
	"github.com/ManuGH/motioncam/internal/version"
	"github.com/spf13/cobra"
)

// EnvConfigPath names the config file when --config is not given.
const EnvConfigPath = "MOTIONCAM_CONFIG"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

// path returns the explicit --config value or the environment fallback.
func (o *rootOptions) path() string {
	if p := strings.TrimSpace(o.configPath); p != "" {
		return p
	}
	return strings.TrimSpace(config.ParseString(EnvConfigPath, ""))
}

// load reads the effective configuration: ENV > file > defaults.
func (o *rootOptions) load() (*config.Loader, config.AppConfig, error) {
	loader := config.NewLoader(o.path(), version.Version)
	cfg, err := loader.Load()
	if err != nil {
		return nil, cfg, err
	}
	return loader, cfg, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "motioncam",
		Short:         "Record person-triggered segments from network cameras",
		Long:          "motioncam watches a set of RTSP cameras, writes fixed-length video segments\nand keeps only the segments in which a person was detected.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (YAML), default $"+EnvConfigPath)

	root.AddCommand(
		newVersionCmd(),
		newConfigCmd(opts),
		newSegmentsCmd(opts),
		newResolveCmd(opts),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func runDaemon(parent context.Context, opts *rootOptions) error {
	// Safe defaults until the config is loaded.
	log.Configure(log.Config{Level: "info", Service: "motioncam", Version: version.Version})
	logger := log.WithComponent("main")

	loader, cfg, err := opts.load()
	if err != nil {
		logger.Error().Err(err).
			Str(log.FieldEvent, "config.load_failed").
			Str(log.FieldPath, opts.path()).
			Msg("failed to load configuration")
		return err
	}

	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Service: "motioncam",
		Version: version.Version,
		Console: cfg.LogFormat == config.LogFormatConsole,
	})
	logger = log.WithComponent("main")
	if p := opts.path(); p != "" {
		logger.Info().Str(log.FieldEvent, "config.loaded").Str("source", "file").Str(log.FieldPath, p).Int("cameras", len(cfg.Cameras)).Msg("loaded configuration from file")
	} else {
		logger.Info().Str(log.FieldEvent, "config.loaded").Str("source", "env+defaults").Msg("loaded configuration from environment and defaults")
	}

	ctx, stop := daemon.SignalContext(parent)
	defer stop()

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Error().Err(err).
			Str(log.FieldEvent, "startup.check_failed").
			Msg("startup checks failed, verify configuration and permissions")
		return err
	}

	var holder *config.Holder
	if p := opts.path(); p != "" {
		holder = config.NewHolder(cfg, loader, p)
		defer holder.Stop()
	}

	app, err := daemon.Build(ctx, daemon.Options{
		Config:  cfg,
		Holder:  holder,
		Version: version.Version,
	})
	if err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "daemon.build_failed").Msg("failed to assemble recorder")
		return err
	}

	logger.Info().Str(log.FieldEvent, "daemon.start").Str("version", version.Version).Msg("starting motioncam")
	if err := app.Run(ctx); !daemon.IsShutdown(err) {
		logger.Error().Err(err).Str(log.FieldEvent, "daemon.failed").Msg("recorder stopped with error")
		return err
	}
	logger.Info().Str(log.FieldEvent, "daemon.stopped").Msg("recorder stopped")
	return nil
}
