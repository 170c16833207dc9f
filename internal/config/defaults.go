// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

// Documented defaults.
const (
	DefaultListen         = ":8090"
	DefaultIdleSleep      = 10 * time.Millisecond
	DefaultURLTemplate    = "rtsp://admin:{password}@{address}:554/onvif1"
	DefaultSegmentSize    = 5 * time.Second
	DefaultScaleFactor    = 0.5
	DefaultRetryInterval  = 10 * time.Second
	DefaultMinConfidence  = 0.5
	DefaultDetectNthFrame = 5
	DefaultCaptureFPS     = 30
	DefaultWriterFPS      = 10
	DefaultConnectTimeout = 5 * time.Second
)

// DefaultSettings returns the camera settings used when neither `defaults`
// nor a camera entry sets a key.
func DefaultSettings() Settings {
	return Settings{
		SegmentSize:    DefaultSegmentSize,
		ScaleFactor:    DefaultScaleFactor,
		RetryInterval:  DefaultRetryInterval,
		MinConfidence:  DefaultMinConfidence,
		DetectNthFrame: DefaultDetectNthFrame,
		CaptureFPS:     DefaultCaptureFPS,
		WriterFPS:      DefaultWriterFPS,
		ConnectTimeout: DefaultConnectTimeout,
		URLTemplate:    DefaultURLTemplate,
		Evidence:       true,
	}
}

func defaultFileConfig() FileConfig {
	return FileConfig{
		LogLevel:  "info",
		LogFormat: LogFormatJSON,
		Listen:    DefaultListen,
		IdleSleep: DefaultIdleSleep,
		Defaults:  DefaultSettings(),
		Classifier: ClassifierConfig{
			Backend:          "http",
			Endpoint:         "http://127.0.0.1:8081",
			Timeout:          2 * time.Second,
			Labels:           "models/labels.txt",
			Model:            "models/ssd_mobilenet.pb",
			ModelConfig:      "models/ssd_mobilenet.pbtxt",
			BreakerThreshold: 5,
			BreakerReset:     30 * time.Second,
		},
		Resolver: ResolverConfig{
			Order:   []string{"static", "arp"},
			ARPPath: "/proc/net/arp",
			Redis:   RedisConfig{Key: "motioncam:mac"},
		},
		FFmpeg: FFmpegConfig{
			Bin:       "ffmpeg",
			ProbeBin:  "ffprobe",
			KillGrace: 2 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "http",
			Endpoint:     "localhost:4318",
			SamplingRate: 1.0,
		},
	}
}
