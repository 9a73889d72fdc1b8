// Package escalation persists the durable log of escalated runs.
package escalation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/resolvd-io/resolvd/pkg/protocol"
)

// Filter constrains escalation list queries.
type Filter struct {
	Category *protocol.Category
	Since    time.Time // zero = no lower bound
	Limit    int       // 0 = no limit
}

// Store is a SQLite-backed escalation log. Rows are append-only.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the escalation database and runs migrations.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("escalation store: open: %w", err)
	}

	// WAL mode for concurrent reads while the daemon appends
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("escalation store: wal: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS escalations (
			id             TEXT PRIMARY KEY,
			run_id         TEXT NOT NULL,
			subject        TEXT NOT NULL,
			description    TEXT NOT NULL,
			category       TEXT NOT NULL,
			attempts       INTEGER NOT NULL,
			final_score    REAL NOT NULL,
			final_feedback TEXT NOT NULL,
			details        TEXT NOT NULL DEFAULT '',
			created_at     TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_escalations_created ON escalations(created_at);
		CREATE INDEX IF NOT EXISTS idx_escalations_category ON escalations(category);
	`)
	if err != nil {
		return fmt.Errorf("escalation store: migrate: %w", err)
	}
	return nil
}

// Record appends one escalation row. Implements workflow.EscalationSink.
func (s *Store) Record(ctx context.Context, row protocol.EscalationRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO escalations (id, run_id, subject, description, category, attempts, final_score, final_feedback, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, row.ID, row.RunID, row.Subject, row.Description, string(row.Category),
		row.Attempts, row.FinalScore, row.FinalFeedback, row.Details,
		row.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("escalation store: record: %w", err)
	}
	return nil
}

// List returns escalation rows matching the filter, newest first.
func (s *Store) List(filter Filter) ([]protocol.EscalationRow, error) {
	query := `SELECT id, run_id, subject, description, category, attempts, final_score, final_feedback, details, created_at
		FROM escalations WHERE 1=1`
	var args []any

	if filter.Category != nil {
		query += " AND category = ?"
		args = append(args, string(*filter.Category))
	}
	if !filter.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.Since.UTC().Format(time.RFC3339))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("escalation store: list: %w", err)
	}
	defer rows.Close()

	var result []protocol.EscalationRow
	for rows.Next() {
		var row protocol.EscalationRow
		var category, createdAt string
		if err := rows.Scan(&row.ID, &row.RunID, &row.Subject, &row.Description, &category,
			&row.Attempts, &row.FinalScore, &row.FinalFeedback, &row.Details, &createdAt); err != nil {
			return nil, fmt.Errorf("escalation store: list scan: %w", err)
		}
		row.Category = protocol.Category(category)
		row.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		result = append(result, row)
	}
	return result, rows.Err()
}

// Count returns the number of rows matching the filter.
func (s *Store) Count(filter Filter) (int, error) {
	query := "SELECT COUNT(*) FROM escalations WHERE 1=1"
	var args []any

	if filter.Category != nil {
		query += " AND category = ?"
		args = append(args, string(*filter.Category))
	}
	if !filter.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.Since.UTC().Format(time.RFC3339))
	}

	var count int
	if err := s.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("escalation store: count: %w", err)
	}
	return count, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection (for testing or direct access).
func (s *Store) DB() *sql.DB {
	return s.db
}
