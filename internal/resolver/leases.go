// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package resolver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/motioncam/internal/log"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

type lease struct {
	addr    string
	expires time.Time // zero: infinite
}

// Leases serves a dnsmasq lease file. The file is parsed once at Start and
// again whenever it changes on disk.
type Leases struct {
	path   string
	now    func() time.Time
	logger zerolog.Logger

	mu    sync.RWMutex
	table map[string][]lease

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewLeases creates a lease-file backend. Call Start before Resolve.
func NewLeases(path string) *Leases {
	return &Leases{
		path:   filepath.Clean(path),
		now:    time.Now,
		logger: log.WithComponent("resolver"),
		table:  map[string][]lease{},
	}
}

// Start loads the file and watches its directory, so that atomic replaces
// by dnsmasq are seen. A missing file is not an error.
func (l *Leases) Start(ctx context.Context) error {
	if err := l.reload(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(l.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch lease dir: %w", err)
	}
	l.watcher = watcher
	l.done = make(chan struct{})

	l.logger.Info().
		Str(log.FieldEvent, "resolver.leases_watch").
		Str(log.FieldPath, l.path).
		Msg("watching lease file")

	go l.watchLoop(ctx, watcher)
	return nil
}

func (l *Leases) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			_ = watcher.Close()
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != l.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := l.reload(); err != nil {
				l.logger.Warn().
					Err(err).
					Str(log.FieldEvent, "resolver.leases_reload_failed").
					Msg("lease file reload failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.logger.Error().Err(err).Str(log.FieldEvent, "resolver.watcher_error").Msg("lease watcher error")
		}
	}
}

func (l *Leases) reload() error {
	// #nosec G304 -- path is operator configuration
	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("open leases: %w", err)
	}
	defer func() { _ = f.Close() }()

	table, err := parseLeases(f)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.table = table
	l.mu.Unlock()

	l.logger.Debug().
		Str(log.FieldEvent, "resolver.leases_loaded").
		Int("entries", len(table)).
		Msg("lease file loaded")
	return nil
}

func (l *Leases) Resolve(_ context.Context, mac string) ([]string, error) {
	now := l.now()
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []string
	for _, e := range l.table[NormalizeMAC(mac)] {
		if !e.expires.IsZero() && now.After(e.expires) {
			continue
		}
		out = append(out, e.addr)
	}
	return out, nil
}

func (l *Leases) Name() string { return "leases" }

// Close stops the watcher and waits for its goroutine.
func (l *Leases) Close() error {
	if l.watcher == nil {
		return nil
	}
	err := l.watcher.Close()
	<-l.done
	l.watcher = nil
	return err
}

// parseLeases reads the dnsmasq format: "<expiry> <mac> <ip> <hostname> <client-id>".
// Expiry 0 means infinite.
func parseLeases(r io.Reader) (map[string][]lease, error) {
	table := make(map[string][]lease)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		expiry, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			continue
		}
		e := lease{addr: fields[2]}
		if expiry > 0 {
			e.expires = time.Unix(expiry, 0)
		}
		mac := NormalizeMAC(fields[1])
		table[mac] = append(table[mac], e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read leases: %w", err)
	}
	return table, nil
}
