// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"

	"github.com/ManuGH/motioncam/internal/config"
	"github.com/ManuGH/motioncam/internal/log"
	"github.com/rs/zerolog"
)

// LookPath resolves executables; tests replace it.
var LookPath = exec.LookPath

// PerformStartupChecks validates the environment before any camera is started.
func PerformStartupChecks(_ context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	for _, cam := range cfg.Cameras {
		if err := os.MkdirAll(cam.Folder, 0o750); err != nil {
			return fmt.Errorf("camera %s: create folder: %w", cam.Name, err)
		}
		if err := checkWritable(cam.Folder); err != nil {
			return fmt.Errorf("camera %s: %w", cam.Name, err)
		}
		logger.Info().Str(log.FieldCamera, cam.Name).Str(log.FieldPath, cam.Folder).Msg("recording folder is writable")
	}

	if err := checkListen(logger, cfg.Listen); err != nil {
		return err
	}

	if needsFFmpeg(cfg) {
		for _, bin := range []string{cfg.FFmpeg.Bin, cfg.FFmpeg.ProbeBin} {
			if _, err := LookPath(bin); err != nil {
				return fmt.Errorf("binary not found (%s): %w", bin, err)
			}
		}
		logger.Info().Str("ffmpeg", cfg.FFmpeg.Bin).Msg("ffmpeg binaries available")
	}

	if cfg.Classifier.Backend == config.BackendGoCV {
		for _, p := range []string{cfg.Classifier.Model, cfg.Classifier.ModelConfig} {
			if err := checkFileReadable(p); err != nil {
				return fmt.Errorf("classifier model: %w", err)
			}
		}
	}
	if cfg.Classifier.Backend != config.BackendNone && cfg.Classifier.Labels != "" {
		if err := checkFileReadable(cfg.Classifier.Labels); err != nil {
			return fmt.Errorf("classifier labels: %w", err)
		}
	}

	logger.Info().Msg("all startup checks passed")
	return nil
}

// needsFFmpeg is false only when there is nothing to decode.
func needsFFmpeg(cfg config.AppConfig) bool {
	return len(cfg.Cameras) > 0
}

func checkListen(logger zerolog.Logger, addr string) error {
	if addr == "" {
		return nil
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid listen port %q in %q", port, addr)
	}
	logger.Info().Str("addr", addr).Msg("listen address is valid")
	return nil
}

func checkFileReadable(path string) error {
	f, err := os.Open(path) // #nosec G304 -- path comes from operator config
	if err != nil {
		return err
	}
	return f.Close()
}
