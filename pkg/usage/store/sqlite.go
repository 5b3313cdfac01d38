package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/AstroAir/PromptBoost-sub001/pkg/usage"
)

// schemaVersion is bumped whenever the table layout changes.
const schemaVersion = 1

// schema creates the ledger tables. Times are stored as unix
// nanoseconds and durations as milliseconds, both as integers.
const schema = `
CREATE TABLE IF NOT EXISTS usage_records (
    id                TEXT PRIMARY KEY,
    time              INTEGER NOT NULL,
    provider          TEXT NOT NULL,
    model             TEXT NOT NULL,
    key_hash          TEXT NOT NULL,
    operation         TEXT NOT NULL,
    prompt_tokens     INTEGER NOT NULL,
    completion_tokens INTEGER NOT NULL,
    total_tokens      INTEGER NOT NULL,
    estimated         INTEGER NOT NULL,
    status            TEXT NOT NULL,
    code              TEXT,
    attempts          INTEGER NOT NULL,
    duration_ms       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_usage_time ON usage_records(time);
CREATE INDEX IF NOT EXISTS idx_usage_provider_time ON usage_records(provider, time);

CREATE TABLE IF NOT EXISTS schema_version (
    version    INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`

// SQLiteConfig configures the SQLite ledger backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// SQLite implements usage.Store on an embedded SQLite database. The
// database runs in WAL mode with a single writer connection, which is
// all an append-heavy ledger needs.
type SQLite struct {
	db         *sql.DB
	path       string
	logger     *slog.Logger
	closeOnce  sync.Once
	appendStmt *sql.Stmt
}

// NewSQLite opens (creating if needed) the ledger database at the
// configured path.
func NewSQLite(cfg SQLiteConfig) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("usage sqlite: path cannot be empty")
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("usage sqlite: open %q: %w", cfg.Path, err)
	}

	// SQLite supports a single writer; more connections only contend.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLite{
		db:     db,
		path:   cfg.Path,
		logger: slog.Default().With("component", "usage.store.sqlite"),
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("usage ledger opened", "path", cfg.Path)
	return s, nil
}

func (s *SQLite) initialize() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("usage sqlite: create schema: %w", err)
	}
	if _, err := s.db.Exec(
		`INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, ?)`,
		schemaVersion, time.Now().UnixNano(),
	); err != nil {
		return fmt.Errorf("usage sqlite: record schema version: %w", err)
	}

	var version int
	err := s.db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err != nil {
		return fmt.Errorf("usage sqlite: read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("usage sqlite: schema version %d, expected %d", version, schemaVersion)
	}

	stmt, err := s.db.Prepare(`
		INSERT INTO usage_records (
			id, time, provider, model, key_hash, operation,
			prompt_tokens, completion_tokens, total_tokens, estimated,
			status, code, attempts, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("usage sqlite: prepare append: %w", err)
	}
	s.appendStmt = stmt
	return nil
}

// Append writes one record.
func (s *SQLite) Append(ctx context.Context, rec *usage.Record) error {
	estimated := 0
	if rec.Estimated {
		estimated = 1
	}
	_, err := s.appendStmt.ExecContext(ctx,
		rec.ID, rec.Time.UnixNano(), rec.Provider, rec.Model, rec.KeyHash, rec.Operation,
		rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens, estimated,
		rec.Status, rec.Code, rec.Attempts, rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("usage sqlite: append: %w", err)
	}
	return nil
}

// Query returns matching records, newest first.
func (s *SQLite) Query(ctx context.Context, q *usage.Query) ([]*usage.Record, error) {
	where, args := buildWhere(q)

	sb := strings.Builder{}
	sb.WriteString(`SELECT id, time, provider, model, key_hash, operation,
		prompt_tokens, completion_tokens, total_tokens, estimated,
		status, code, attempts, duration_ms
		FROM usage_records`)
	sb.WriteString(where)
	sb.WriteString(` ORDER BY time DESC`)
	if q != nil && q.Limit > 0 {
		sb.WriteString(fmt.Sprintf(` LIMIT %d`, q.Limit))
		if q.Offset > 0 {
			sb.WriteString(fmt.Sprintf(` OFFSET %d`, q.Offset))
		}
	} else if q != nil && q.Offset > 0 {
		// SQLite requires a LIMIT clause before OFFSET.
		sb.WriteString(fmt.Sprintf(` LIMIT -1 OFFSET %d`, q.Offset))
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("usage sqlite: query: %w", err)
	}
	defer rows.Close()

	var records []*usage.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("usage sqlite: iterate: %w", err)
	}
	return records, nil
}

// Summarize aggregates matching records in the database.
func (s *SQLite) Summarize(ctx context.Context, q *usage.Query) (*usage.Summary, error) {
	where, args := buildWhere(q)

	query := `SELECT provider,
		COUNT(*),
		SUM(CASE WHEN status != 'ok' THEN 1 ELSE 0 END),
		COALESCE(SUM(prompt_tokens), 0),
		COALESCE(SUM(completion_tokens), 0),
		COALESCE(SUM(total_tokens), 0),
		SUM(estimated)
		FROM usage_records` + where + ` GROUP BY provider`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("usage sqlite: summarize: %w", err)
	}
	defer rows.Close()

	summary := &usage.Summary{ByProvider: make(map[string]*usage.Totals)}
	for rows.Next() {
		var provider string
		var t usage.Totals
		if err := rows.Scan(&provider, &t.Requests, &t.Failures,
			&t.PromptTokens, &t.CompletionTokens, &t.TotalTokens, &t.Estimated); err != nil {
			return nil, fmt.Errorf("usage sqlite: scan summary: %w", err)
		}
		summary.ByProvider[provider] = &t
		summary.Requests += t.Requests
		summary.Failures += t.Failures
		summary.PromptTokens += t.PromptTokens
		summary.CompletionTokens += t.CompletionTokens
		summary.TotalTokens += t.TotalTokens
		summary.Estimated += t.Estimated
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("usage sqlite: iterate summary: %w", err)
	}
	return summary, nil
}

// Count returns the number of matching records.
func (s *SQLite) Count(ctx context.Context, q *usage.Query) (int64, error) {
	where, args := buildWhere(q)

	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM usage_records`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("usage sqlite: count: %w", err)
	}
	return n, nil
}

// Delete removes matching records and returns how many went.
func (s *SQLite) Delete(ctx context.Context, q *usage.Query) (int64, error) {
	where, args := buildWhere(q)

	res, err := s.db.ExecContext(ctx, `DELETE FROM usage_records`+where, args...)
	if err != nil {
		return 0, fmt.Errorf("usage sqlite: delete: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("usage sqlite: rows affected: %w", err)
	}
	return deleted, nil
}

// Close releases the database handle. Safe to call more than once.
func (s *SQLite) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.appendStmt != nil {
			s.appendStmt.Close()
		}
		err = s.db.Close()
		s.logger.Debug("usage ledger closed", "path", s.path)
	})
	return err
}

// buildWhere translates a query's filters into a WHERE clause.
// Pagination is handled by the caller.
func buildWhere(q *usage.Query) (string, []any) {
	if q == nil {
		return "", nil
	}

	var conds []string
	var args []any
	if q.Start != nil {
		conds = append(conds, "time >= ?")
		args = append(args, q.Start.UnixNano())
	}
	if q.End != nil {
		conds = append(conds, "time <= ?")
		args = append(args, q.End.UnixNano())
	}
	if q.Provider != "" {
		conds = append(conds, "provider = ?")
		args = append(args, q.Provider)
	}
	if q.Model != "" {
		conds = append(conds, "model = ?")
		args = append(args, q.Model)
	}
	if q.KeyHash != "" {
		conds = append(conds, "key_hash = ?")
		args = append(args, q.KeyHash)
	}
	if q.Operation != "" {
		conds = append(conds, "operation = ?")
		args = append(args, q.Operation)
	}
	if q.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, q.Status)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanRecord(rows *sql.Rows) (*usage.Record, error) {
	var rec usage.Record
	var at int64
	var estimated int
	var code sql.NullString
	var durationMs int64

	err := rows.Scan(&rec.ID, &at, &rec.Provider, &rec.Model, &rec.KeyHash, &rec.Operation,
		&rec.PromptTokens, &rec.CompletionTokens, &rec.TotalTokens, &estimated,
		&rec.Status, &code, &rec.Attempts, &durationMs)
	if err != nil {
		return nil, fmt.Errorf("usage sqlite: scan record: %w", err)
	}

	rec.Time = time.Unix(0, at)
	rec.Estimated = estimated != 0
	rec.Code = code.String
	rec.Duration = time.Duration(durationMs) * time.Millisecond
	return &rec, nil
}
