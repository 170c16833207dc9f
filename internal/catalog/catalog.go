// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package catalog keeps a SQLite journal of every closed segment.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/motioncam/internal/log"
	"github.com/ManuGH/motioncam/internal/persistence/sqlite"
	"github.com/ManuGH/motioncam/internal/segment"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultLimit caps List when no limit is given.
const DefaultLimit = 100

// Catalog stores segment records.
type Catalog struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger
}

// Open opens or creates the catalog at path.
func Open(path string) (*Catalog, error) {
	db, err := sqlite.Open(path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	c := &Catalog{db: db, path: path, logger: log.WithComponent("catalog")}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate catalog: %w", err)
	}
	return c, nil
}

// Path returns the database file.
func (c *Catalog) Path() string { return c.path }

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Ping checks the database connection.
func (c *Catalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Catalog) migrate() error {
	_, err := c.db.Exec(`
	CREATE TABLE IF NOT EXISTS segments (
		id TEXT PRIMARY KEY,
		camera TEXT NOT NULL,
		idx INTEGER NOT NULL,
		path TEXT NOT NULL,
		opened_at TEXT NOT NULL,
		closed_at TEXT NOT NULL,
		outcome TEXT NOT NULL CHECK(outcome IN ('kept', 'discarded', 'finalized_on_shutdown', 'failed')),
		frames INTEGER NOT NULL DEFAULT 0,
		persons INTEGER NOT NULL DEFAULT 0,
		evidence TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_segments_camera_closed ON segments(camera, closed_at);
	CREATE INDEX IF NOT EXISTS idx_segments_closed ON segments(closed_at);
	`)
	return err
}

// Record stores rec and returns it with its id assigned.
func (c *Catalog) Record(ctx context.Context, rec segment.Record) (segment.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := c.db.ExecContext(ctx, `
	INSERT INTO segments (id, camera, idx, path, opened_at, closed_at, outcome, frames, persons, evidence, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID, rec.Camera, rec.Index, rec.Path,
		formatTime(rec.OpenedAt), formatTime(rec.ClosedAt),
		string(rec.Outcome), rec.Frames, rec.Persons, rec.Evidence, rec.Error,
	)
	if err != nil {
		return rec, fmt.Errorf("insert segment: %w", err)
	}
	return rec, nil
}

// SegmentClosed records rec and logs failures; the recording path never
// waits on the catalog's health.
func (c *Catalog) SegmentClosed(ctx context.Context, rec segment.Record) {
	if _, err := c.Record(ctx, rec); err != nil {
		c.logger.Error().
			Err(err).
			Str(log.FieldEvent, "catalog.record_failed").
			Str(log.FieldCamera, rec.Camera).
			Str(log.FieldSegment, rec.Path).
			Msg("cannot record segment")
	}
}

// Filter selects records for List.
type Filter struct {
	Camera  string
	Outcome segment.Outcome
	Since   time.Time
	Limit   int
}

// List returns matching records, newest first.
func (c *Catalog) List(ctx context.Context, f Filter) ([]segment.Record, error) {
	var where []string
	var args []any
	if f.Camera != "" {
		where = append(where, "camera = ?")
		args = append(args, f.Camera)
	}
	if f.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, string(f.Outcome))
	}
	if !f.Since.IsZero() {
		where = append(where, "closed_at >= ?")
		args = append(args, formatTime(f.Since))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `SELECT id, camera, idx, path, opened_at, closed_at, outcome, frames, persons, evidence, error FROM segments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY closed_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []segment.Record
	for rows.Next() {
		var r segment.Record
		var opened, closed, outcome string
		if err := rows.Scan(&r.ID, &r.Camera, &r.Index, &r.Path, &opened, &closed, &outcome, &r.Frames, &r.Persons, &r.Evidence, &r.Error); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		r.Outcome = segment.Outcome(outcome)
		r.OpenedAt = parseTime(opened)
		r.ClosedAt = parseTime(closed)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Counts returns the number of segments per outcome, optionally for one camera.
func (c *Catalog) Counts(ctx context.Context, camera string) (map[segment.Outcome]int, error) {
	query := `SELECT outcome, COUNT(*) FROM segments`
	var args []any
	if camera != "" {
		query += ` WHERE camera = ?`
		args = append(args, camera)
	}
	query += ` GROUP BY outcome`

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count segments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[segment.Outcome]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[segment.Outcome(outcome)] = n
	}
	return counts, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
