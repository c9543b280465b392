package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/xiaot623/spendagent/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS interactions (
			interaction_id TEXT PRIMARY KEY,
			request_id TEXT,
			source TEXT NOT NULL,
			name TEXT NOT NULL,
			invoice_id TEXT,
			outcome TEXT NOT NULL,
			detail TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_created ON interactions(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_invoice ON interactions(invoice_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordInteraction appends one journal entry.
func (s *SQLiteStore) RecordInteraction(ctx context.Context, in *domain.Interaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (interaction_id, request_id, source, name, invoice_id, outcome, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.InteractionID, nullString(in.RequestID), string(in.Source), in.Name,
		nullString(in.InvoiceID), in.Outcome, nullString(in.Detail), in.CreatedAt)
	return err
}

// ListInteractions returns the newest entries first.
func (s *SQLiteStore) ListInteractions(ctx context.Context, limit int) ([]domain.Interaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT interaction_id, request_id, source, name, invoice_id, outcome, detail, created_at
		 FROM interactions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Interaction{}
	for rows.Next() {
		var in domain.Interaction
		var source string
		var requestID, invoiceID, detail sql.NullString
		if err := rows.Scan(&in.InteractionID, &requestID, &source, &in.Name, &invoiceID, &in.Outcome, &detail, &in.CreatedAt); err != nil {
			return nil, err
		}
		in.Source = domain.InteractionSource(source)
		in.RequestID = requestID.String
		in.InvoiceID = invoiceID.String
		in.Detail = detail.String
		out = append(out, in)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
