// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"strings"

	"github.com/ManuGH/motioncam/internal/validate"
	"github.com/rs/zerolog"
)

// Classifier backends.
const (
	BackendHTTP = "http"
	BackendGoCV = "gocv"
	BackendNone = "none"
)

// Log output formats.
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// Resolver backends, in the spelling used by `resolver.order`.
const (
	ResolverStatic = "static"
	ResolverLeases = "leases"
	ResolverARP    = "arp"
	ResolverRedis  = "redis"
)

// Validate checks the merged configuration and reports every problem at once.
func Validate(cfg AppConfig) error {
	v := validate.New()

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		v.AddError("log_level", err.Error(), cfg.LogLevel)
	}
	v.OneOf("log_format", cfg.LogFormat, []string{LogFormatJSON, LogFormatConsole})
	v.ListenAddr("listen", cfg.Listen)
	if cfg.IdleSleep < 0 {
		v.AddError("idle_sleep", "duration cannot be negative", cfg.IdleSleep)
	}

	if len(cfg.Cameras) == 0 {
		v.AddError("cameras", "at least one camera must be configured", nil)
	}
	seen := make(map[string]struct{}, len(cfg.Cameras))
	for i, cam := range cfg.Cameras {
		validateCamera(v, fmt.Sprintf("cameras[%d]", i), cam)
		if _, dup := seen[cam.Name]; dup {
			v.AddError(fmt.Sprintf("cameras[%d].name", i), "duplicate camera name", cam.Name)
		}
		seen[cam.Name] = struct{}{}
	}

	validateClassifier(v, cfg.Classifier)
	validateResolver(v, cfg.Resolver)

	v.NotEmpty("ffmpeg.bin", cfg.FFmpeg.Bin)
	v.NotEmpty("ffmpeg.probe_bin", cfg.FFmpeg.ProbeBin)
	v.PositiveDuration("ffmpeg.kill_grace", cfg.FFmpeg.KillGrace)

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"http", "grpc"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("telemetry.sampling_rate", cfg.Telemetry.SamplingRate, 0, 1, true)
	}

	return v.Err()
}

func validateCamera(v *validate.Validator, prefix string, cam CameraConfig) {
	v.NotEmpty(prefix+".name", cam.Name)
	v.MAC(prefix+".mac", cam.MAC)
	if !cam.Debug {
		v.Directory(prefix+".folder", cam.Folder, false)
	}
	v.PositiveDuration(prefix+".segment_size", cam.SegmentSize)
	v.FloatRange(prefix+".scale_factor", cam.ScaleFactor, 0, 1, false)
	v.PositiveDuration(prefix+".retry_interval", cam.RetryInterval)
	v.FloatRange(prefix+".min_confidence", cam.MinConfidence, 0, 1, true)
	v.Positive(prefix+".detect_nth_frame", cam.DetectNthFrame)
	v.Positive(prefix+".capture_fps", cam.CaptureFPS)
	v.Positive(prefix+".writer_fps", cam.WriterFPS)
	v.PositiveDuration(prefix+".connect_timeout", cam.ConnectTimeout)
	if !strings.Contains(cam.URLTemplate, "{address}") {
		v.AddError(prefix+".url_template", "template must contain {address}", cam.URLTemplate)
	}
}

func validateClassifier(v *validate.Validator, c ClassifierConfig) {
	v.OneOf("classifier.backend", c.Backend, []string{BackendHTTP, BackendGoCV, BackendNone})
	switch c.Backend {
	case BackendHTTP:
		v.URL("classifier.endpoint", c.Endpoint, []string{"http", "https"})
		v.PositiveDuration("classifier.timeout", c.Timeout)
	case BackendGoCV:
		v.NotEmpty("classifier.model", c.Model)
		v.NotEmpty("classifier.model_config", c.ModelConfig)
	}
	if c.Backend != BackendNone {
		v.NotEmpty("classifier.labels", c.Labels)
	}
	if c.MaxRPS < 0 {
		v.AddError("classifier.max_rps", "value cannot be negative", c.MaxRPS)
	}
	v.NonNegative("classifier.breaker_threshold", c.BreakerThreshold)
	if c.BreakerThreshold > 0 {
		v.PositiveDuration("classifier.breaker_reset", c.BreakerReset)
	}
}

func validateResolver(v *validate.Validator, r ResolverConfig) {
	if len(r.Order) == 0 {
		v.AddError("resolver.order", "at least one resolver backend is required", nil)
	}
	for i, name := range r.Order {
		field := fmt.Sprintf("resolver.order[%d]", i)
		v.OneOf(field, name, []string{ResolverStatic, ResolverLeases, ResolverARP, ResolverRedis})
		switch name {
		case ResolverARP:
			v.NotEmpty("resolver.arp_path", r.ARPPath)
		case ResolverLeases:
			v.NotEmpty("resolver.leases_path", r.LeasesPath)
		case ResolverRedis:
			v.NotEmpty("resolver.redis.addr", r.Redis.Addr)
			v.NotEmpty("resolver.redis.key", r.Redis.Key)
			v.Range("resolver.redis.db", r.Redis.DB, 0, 15)
		}
	}
	for mac := range r.Static {
		v.MAC("resolver.static", mac)
	}
}
