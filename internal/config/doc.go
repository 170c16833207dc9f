// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads the motioncam configuration.
//
// Precedence is defaults, then the YAML file (strict: unknown keys and
// multiple documents are rejected), then MOTIONCAM_* environment variables.
// Per-camera settings inherit from the `defaults` section and may override
// any of its keys. The result is validated once and is immutable afterwards.
package config
