// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults
// and validates the merged result.
func (l *Loader) Load() (AppConfig, error) {
	fileCfg := defaultFileConfig()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &fileCfg); err != nil {
			return AppConfig{}, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&fileCfg)

	cfg := build(fileCfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes the YAML file on top of the defaults already held in dst.
// Unknown fields cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string, dst *FileConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrMultipleDocuments
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *FileConfig) {
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)
	cfg.LogFormat = l.envString(EnvLogFormat, cfg.LogFormat)
	cfg.Listen = l.envString(EnvListen, cfg.Listen)
	cfg.Display = l.envBool(EnvDisplay, cfg.Display)
	cfg.CatalogPath = l.envString(EnvCatalogPath, cfg.CatalogPath)
	cfg.Classifier.Endpoint = l.envString(EnvClassifierEndpoint, cfg.Classifier.Endpoint)
	cfg.Classifier.Backend = l.envString(EnvClassifierBackend, cfg.Classifier.Backend)
	cfg.Resolver.Redis.Addr = l.envString(EnvRedisAddr, cfg.Resolver.Redis.Addr)
	cfg.Resolver.Redis.Password = l.envString(EnvRedisPassword, cfg.Resolver.Redis.Password)
	cfg.Defaults.SegmentSize = l.envDuration(EnvSegmentSize, cfg.Defaults.SegmentSize)
	cfg.FFmpeg.Bin = l.envString(EnvFFmpegBin, cfg.FFmpeg.Bin)
	cfg.Telemetry.Endpoint = l.envString(EnvOTelEndpoint, cfg.Telemetry.Endpoint)
}

// build turns the file layout into the runtime config, merging every camera
// with the defaults.
func build(f FileConfig) AppConfig {
	cfg := AppConfig{
		LogLevel:    f.LogLevel,
		LogFormat:   f.LogFormat,
		Listen:      f.Listen,
		Display:     f.Display,
		CatalogPath: expandHome(f.CatalogPath),
		IdleSleep:   f.IdleSleep,
		Defaults:    f.Defaults,
		Classifier:  f.Classifier,
		Resolver:    f.Resolver,
		FFmpeg:      f.FFmpeg,
		Telemetry:   f.Telemetry,
	}
	cfg.Resolver.LeasesPath = expandHome(cfg.Resolver.LeasesPath)

	cfg.Cameras = make([]CameraConfig, 0, len(f.Cameras))
	for _, cf := range f.Cameras {
		cfg.Cameras = append(cfg.Cameras, CameraConfig{
			Name:     strings.TrimSpace(cf.Name),
			MAC:      strings.ToLower(strings.TrimSpace(cf.MAC)),
			Password: cf.Password,
			Folder:   expandHome(cf.Folder),
			Settings: cf.SettingsOverride.apply(f.Defaults),
		})
	}

	static := make(map[string][]string, len(cfg.Resolver.Static))
	for mac, addrs := range cfg.Resolver.Static {
		static[strings.ToLower(mac)] = addrs
	}
	cfg.Resolver.Static = static

	return cfg
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
