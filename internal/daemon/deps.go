// SPDX-License-Identifier: MIT

package daemon

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// ListenAddr is the API listen address; empty disables the server.
	ListenAddr      string
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns the listener defaults for addr. There is no
// write timeout because live view sockets stay open.
func DefaultServerConfig(addr string) ServerConfig {
	return ServerConfig{
		ListenAddr:      addr,
		ReadTimeout:     10 * time.Second,
		IdleTimeout:     120 * time.Second,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: 15 * time.Second,
	}
}

// Deps contains dependencies required by the daemon Manager.
type Deps struct {
	// Logger is the structured logger for the daemon
	Logger zerolog.Logger

	// APIHandler serves the HTTP API; required when ListenAddr is set
	APIHandler http.Handler
}

// Validate checks the dependencies against cfg.
func (d *Deps) Validate(cfg ServerConfig) error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if cfg.ListenAddr != "" && d.APIHandler == nil {
		return ErrMissingAPIHandler
	}
	return nil
}
