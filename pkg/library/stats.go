package library

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

const statsSchema = `
CREATE TABLE IF NOT EXISTS fae_render_stats (
    template_name  TEXT PRIMARY KEY,
    render_count   INTEGER NOT NULL DEFAULT 0,
    error_count    INTEGER NOT NULL DEFAULT 0,
    last_rendered  DATETIME,
    avg_render_ns  INTEGER NOT NULL DEFAULT 0
);
`

// SetupStatsSchema creates the render-stats table if it doesn't already
// exist. Safe to call on every startup.
func SetupStatsSchema(db *sql.DB) error {
	_, err := db.Exec(statsSchema)
	return err
}

// StatsRecorder records per-template render counts, failure counts, and a
// rolling average render duration into a SQLite database. It is purely
// additive telemetry: a Library with no recorder behaves identically,
// just without the bookkeeping.
type StatsRecorder struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStatsRecorder wraps db, which must already have had SetupStatsSchema
// applied to it.
func NewStatsRecorder(db *sql.DB, logger *slog.Logger) *StatsRecorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &StatsRecorder{db: db, logger: logger}
}

// Record upserts one render observation for name. Failures to record are
// logged and otherwise ignored — stats bookkeeping never affects render
// output or its error.
func (s *StatsRecorder) Record(name string, dur time.Duration, ok bool) {
	if err := s.record(name, dur, ok); err != nil {
		s.logger.Warn("failed to record render stats", "template", name, "error", err)
	}
}

func (s *StatsRecorder) record(name string, dur time.Duration, ok bool) error {
	now := time.Now()
	errInc := 0
	if !ok {
		errInc = 1
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
        INSERT INTO fae_render_stats (template_name, render_count, error_count, last_rendered, avg_render_ns)
        VALUES (?, 1, ?, ?, ?)
        ON CONFLICT(template_name) DO UPDATE SET
            render_count = render_count + 1,
            error_count = error_count + ?,
            last_rendered = ?
    `, name, errInc, now, dur.Nanoseconds(), errInc, now)
	if err != nil {
		return fmt.Errorf("failed to upsert render stats: %w", err)
	}

	var count int64
	var avgNs int64
	if err := tx.QueryRow(`SELECT render_count, avg_render_ns FROM fae_render_stats WHERE template_name = ?`, name).Scan(&count, &avgNs); err != nil {
		return fmt.Errorf("failed to read back render stats: %w", err)
	}

	// Incremental mean: avg += (x - avg) / n.
	newAvg := avgNs + (dur.Nanoseconds()-avgNs)/count

	if _, err := tx.Exec(`UPDATE fae_render_stats SET avg_render_ns = ? WHERE template_name = ?`, newAvg, name); err != nil {
		return fmt.Errorf("failed to update average render duration: %w", err)
	}

	return tx.Commit()
}

// Summary is a snapshot of one template's recorded render stats.
type Summary struct {
	TemplateName string
	RenderCount  int64
	ErrorCount   int64
	LastRendered time.Time
	AvgRender    time.Duration
}

// Summaries returns recorded stats for every template that has been
// rendered at least once, most-recently-rendered first.
func (s *StatsRecorder) Summaries() ([]Summary, error) {
	rows, err := s.db.Query(`
        SELECT template_name, render_count, error_count, last_rendered, avg_render_ns
        FROM fae_render_stats
        ORDER BY last_rendered DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to query render stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var avgNs int64
		if err := rows.Scan(&sum.TemplateName, &sum.RenderCount, &sum.ErrorCount, &sum.LastRendered, &avgNs); err != nil {
			return nil, fmt.Errorf("failed to scan render stats row: %w", err)
		}
		sum.AvgRender = time.Duration(avgNs)
		out = append(out, sum)
	}
	return out, rows.Err()
}
