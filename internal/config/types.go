// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

// Settings holds the tunables every camera inherits from `defaults`.
type Settings struct {
	SegmentSize    time.Duration `yaml:"segment_size"`
	ScaleFactor    float64       `yaml:"scale_factor"`
	RetryInterval  time.Duration `yaml:"retry_interval"`
	MinConfidence  float64       `yaml:"min_confidence"`
	DetectNthFrame int           `yaml:"detect_nth_frame"`
	Realtime       bool          `yaml:"realtime"`
	Debug          bool          `yaml:"debug"`
	CaptureFPS     int           `yaml:"capture_fps"`
	WriterFPS      int           `yaml:"writer_fps"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	URLTemplate    string        `yaml:"url_template"`
	MonotonicIndex bool          `yaml:"monotonic_index"`
	Evidence       bool          `yaml:"evidence"`
}

// SettingsOverride is the per-camera variant of Settings. Nil fields inherit.
type SettingsOverride struct {
	SegmentSize    *time.Duration `yaml:"segment_size"`
	ScaleFactor    *float64       `yaml:"scale_factor"`
	RetryInterval  *time.Duration `yaml:"retry_interval"`
	MinConfidence  *float64       `yaml:"min_confidence"`
	DetectNthFrame *int           `yaml:"detect_nth_frame"`
	Realtime       *bool          `yaml:"realtime"`
	Debug          *bool          `yaml:"debug"`
	CaptureFPS     *int           `yaml:"capture_fps"`
	WriterFPS      *int           `yaml:"writer_fps"`
	ConnectTimeout *time.Duration `yaml:"connect_timeout"`
	URLTemplate    *string        `yaml:"url_template"`
	MonotonicIndex *bool          `yaml:"monotonic_index"`
	Evidence       *bool          `yaml:"evidence"`
}

// CameraFile is one entry of the `cameras` list as it appears in YAML.
type CameraFile struct {
	Name             string `yaml:"name"`
	MAC              string `yaml:"mac"`
	Password         string `yaml:"password"`
	Folder           string `yaml:"folder"`
	SettingsOverride `yaml:",inline"`
}

// CameraConfig is the fully merged, immutable configuration of one camera.
type CameraConfig struct {
	Name     string
	MAC      string
	Password string
	Folder   string
	Settings
}

// ClassifierConfig selects and tunes the detection backend.
type ClassifierConfig struct {
	Backend          string        `yaml:"backend"`
	Endpoint         string        `yaml:"endpoint"`
	Timeout          time.Duration `yaml:"timeout"`
	Labels           string        `yaml:"labels"`
	Model            string        `yaml:"model"`
	ModelConfig      string        `yaml:"model_config"`
	MaxRPS           float64       `yaml:"max_rps"`
	BreakerThreshold int           `yaml:"breaker_threshold"`
	BreakerReset     time.Duration `yaml:"breaker_reset"`
}

// RedisConfig configures the Redis resolver backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// ResolverConfig configures hardware address discovery.
type ResolverConfig struct {
	Order      []string            `yaml:"order"`
	ARPPath    string              `yaml:"arp_path"`
	LeasesPath string              `yaml:"leases_path"`
	Static     map[string][]string `yaml:"static"`
	Redis      RedisConfig         `yaml:"redis"`
}

// FFmpegConfig points at the ffmpeg binaries.
type FFmpegConfig struct {
	Bin       string        `yaml:"bin"`
	ProbeBin  string        `yaml:"probe_bin"`
	KillGrace time.Duration `yaml:"kill_grace"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// FileConfig mirrors the YAML file layout.
type FileConfig struct {
	LogLevel    string           `yaml:"log_level"`
	LogFormat   string           `yaml:"log_format"`
	Listen      string           `yaml:"listen"`
	Display     bool             `yaml:"display"`
	CatalogPath string           `yaml:"catalog_path"`
	IdleSleep   time.Duration    `yaml:"idle_sleep"`
	Defaults    Settings         `yaml:"defaults"`
	Cameras     []CameraFile     `yaml:"cameras"`
	Classifier  ClassifierConfig `yaml:"classifier"`
	Resolver    ResolverConfig   `yaml:"resolver"`
	FFmpeg      FFmpegConfig     `yaml:"ffmpeg"`
	Telemetry   TelemetryConfig  `yaml:"telemetry"`
}

// AppConfig is the validated runtime configuration.
type AppConfig struct {
	Version     string
	LogLevel    string
	LogFormat   string
	Listen      string
	Display     bool
	CatalogPath string
	IdleSleep   time.Duration
	Defaults    Settings
	Cameras     []CameraConfig
	Classifier  ClassifierConfig
	Resolver    ResolverConfig
	FFmpeg      FFmpegConfig
	Telemetry   TelemetryConfig
}

// Camera returns the camera with the given name.
func (c AppConfig) Camera(name string) (CameraConfig, bool) {
	for _, cam := range c.Cameras {
		if cam.Name == name {
			return cam, true
		}
	}
	return CameraConfig{}, false
}

// apply merges non-nil overrides into s.
func (o SettingsOverride) apply(s Settings) Settings {
	if o.SegmentSize != nil {
		s.SegmentSize = *o.SegmentSize
	}
	if o.ScaleFactor != nil {
		s.ScaleFactor = *o.ScaleFactor
	}
	if o.RetryInterval != nil {
		s.RetryInterval = *o.RetryInterval
	}
	if o.MinConfidence != nil {
		s.MinConfidence = *o.MinConfidence
	}
	if o.DetectNthFrame != nil {
		s.DetectNthFrame = *o.DetectNthFrame
	}
	if o.Realtime != nil {
		s.Realtime = *o.Realtime
	}
	if o.Debug != nil {
		s.Debug = *o.Debug
	}
	if o.CaptureFPS != nil {
		s.CaptureFPS = *o.CaptureFPS
	}
	if o.WriterFPS != nil {
		s.WriterFPS = *o.WriterFPS
	}
	if o.ConnectTimeout != nil {
		s.ConnectTimeout = *o.ConnectTimeout
	}
	if o.URLTemplate != nil {
		s.URLTemplate = *o.URLTemplate
	}
	if o.MonotonicIndex != nil {
		s.MonotonicIndex = *o.MonotonicIndex
	}
	if o.Evidence != nil {
		s.Evidence = *o.Evidence
	}
	return s
}
