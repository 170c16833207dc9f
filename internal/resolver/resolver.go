// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package resolver maps camera hardware (MAC) addresses to network addresses.
//
// Backends read the kernel ARP table, a dnsmasq lease file, a static table
// from configuration, or a Redis hash maintained by another host. A Chain
// queries them in configured order and returns every distinct candidate.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ManuGH/motioncam/internal/config"
	"github.com/ManuGH/motioncam/internal/log"
	"github.com/rs/zerolog"
)

// ErrResolution is returned when no backend knows an address for a MAC.
var ErrResolution = errors.New("no address found for mac")

// Resolver returns candidate addresses for a MAC. An empty result with a nil
// error means the backend has no entry.
type Resolver interface {
	Resolve(ctx context.Context, mac string) ([]string, error)
	Name() string
}

// NormalizeMAC returns mac in lower-case colon form. Strings that are not a
// MAC are lower-cased and trimmed.
func NormalizeMAC(mac string) string {
	mac = strings.TrimSpace(mac)
	if hw, err := net.ParseMAC(mac); err == nil {
		return hw.String()
	}
	return strings.ToLower(mac)
}

// Chain queries backends in order.
type Chain struct {
	backends []Resolver
	closers  []func() error
	logger   zerolog.Logger
}

// NewChain builds a chain over already constructed backends.
func NewChain(backends ...Resolver) *Chain {
	return &Chain{
		backends: backends,
		logger:   log.WithComponent("resolver"),
	}
}

// New builds the chain described by cfg. Lease watchers are started with ctx
// and stopped by Close.
func New(ctx context.Context, cfg config.ResolverConfig) (*Chain, error) {
	c := NewChain()
	for _, name := range cfg.Order {
		switch name {
		case config.ResolverStatic:
			c.backends = append(c.backends, NewStatic(cfg.Static))
		case config.ResolverARP:
			c.backends = append(c.backends, NewARP(cfg.ARPPath))
		case config.ResolverLeases:
			l := NewLeases(cfg.LeasesPath)
			if err := l.Start(ctx); err != nil {
				_ = c.Close()
				return nil, err
			}
			c.backends = append(c.backends, l)
			c.closers = append(c.closers, l.Close)
		case config.ResolverRedis:
			r := NewRedis(cfg.Redis)
			c.backends = append(c.backends, r)
			c.closers = append(c.closers, r.Close)
		default:
			_ = c.Close()
			return nil, fmt.Errorf("unknown resolver backend %q", name)
		}
	}
	return c, nil
}

// Resolve returns the de-duplicated candidates of every backend, in backend
// order. A failing backend is logged and skipped. If nothing is found the
// error wraps ErrResolution.
func (c *Chain) Resolve(ctx context.Context, mac string) ([]string, error) {
	mac = NormalizeMAC(mac)
	seen := make(map[string]struct{})
	var out []string
	for _, b := range c.backends {
		addrs, err := b.Resolve(ctx, mac)
		if err != nil {
			c.logger.Warn().
				Err(err).
				Str(log.FieldEvent, "resolver.backend_failed").
				Str(log.FieldMAC, mac).
				Str("backend", b.Name()).
				Msg("resolver backend failed")
			continue
		}
		for _, a := range addrs {
			if _, dup := seen[a]; dup {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrResolution, mac)
	}
	return out, nil
}

// Name implements Resolver.
func (c *Chain) Name() string {
	names := make([]string, len(c.backends))
	for i, b := range c.backends {
		names[i] = b.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Close stops watchers and closes connections.
func (c *Chain) Close() error {
	var errs []error
	for _, fn := range c.closers {
		errs = append(errs, fn())
	}
	c.closers = nil
	return errors.Join(errs...)
}
