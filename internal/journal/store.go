package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"salesmind/internal/config"
	"salesmind/internal/insight"
)

// ErrDisabled is returned by Open when the journal is switched off.
var ErrDisabled = errors.New("journal disabled")

// Entry is one recorded insight pipeline.
type Entry struct {
	ID          int64         `json:"id"`
	Seq         uint64        `json:"seq"`
	Company     string        `json:"company"`
	Category    string        `json:"category"`
	State       insight.State `json:"state"`
	Insight     string        `json:"insight,omitempty"`
	Narration   string        `json:"narration,omitempty"`
	Fallback    bool          `json:"narration_fallback"`
	FailureKind string        `json:"failure_kind,omitempty"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Stats summarises the journal.
type Stats struct {
	Total     int `json:"total"`
	Ready     int `json:"ready"`
	Failed    int `json:"failed"`
	Fallbacks int `json:"fallbacks"`
	Companies int `json:"companies"`
}

// Store persists insight outcomes in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the configured journal database.
func Open(cfg *config.Config) (*Store, error) {
	if !cfg.Journal.Enabled {
		return nil, ErrDisabled
	}
	return OpenPath(cfg.Journal.Path)
}

// OpenPath connects to the journal at path, creating it when missing.
func OpenPath(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("journal path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a finished pipeline.
func (s *Store) Record(ctx context.Context, o insight.Outcome) error {
	created := o.CompletedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO insight_outcomes (
            seq, company, category, state, insight, narration,
            narration_fallback, failure_kind, error_message, duration_ms, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(o.Seq),
		o.Company,
		o.Category,
		string(o.State),
		nullableString(o.Insight),
		nullableString(o.Narration),
		boolToInt(o.Fallback),
		nullableString(o.FailureKind),
		nullableString(o.Error),
		o.Duration.Milliseconds(),
		created.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A company filter is
// matched case-insensitively.
func (s *Store) Recent(ctx context.Context, company string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := "SELECT " + entryColumns + " FROM insight_outcomes"
	args := []any{}
	if company = strings.TrimSpace(company); company != "" {
		query += " WHERE company = ? COLLATE NOCASE"
		args = append(args, company)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return entries, nil
}

// Stats returns aggregate counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	row := s.db.QueryRowContext(ctx, `SELECT
        COUNT(1),
        COALESCE(SUM(CASE WHEN state = ? THEN 1 ELSE 0 END), 0),
        COALESCE(SUM(CASE WHEN state = ? THEN 1 ELSE 0 END), 0),
        COALESCE(SUM(narration_fallback), 0),
        COUNT(DISTINCT LOWER(company))
        FROM insight_outcomes`,
		string(insight.StateReady),
		string(insight.StateFailed),
	)
	if err := row.Scan(&stats.Total, &stats.Ready, &stats.Failed, &stats.Fallbacks, &stats.Companies); err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return stats, nil
}

// Prune deletes entries older than cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM insight_outcomes WHERE created_at < ?",
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune outcomes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
