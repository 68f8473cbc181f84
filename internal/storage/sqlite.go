package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"feed_kiosk/internal/model"
	"feed_kiosk/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps :memory: databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := migrations.Run(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// LoadQueue returns the queue in stored order.
func (s *SQLite) LoadQueue(ctx context.Context) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM queue_posts ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query queue: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var queue []model.Post
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan queue row: %w", err)
		}
		var p model.Post
		if err := codec.UnmarshalFromString(payload, &p); err != nil {
			return nil, fmt.Errorf("decode queue row: %w", err)
		}
		queue = append(queue, p)
	}
	return queue, rows.Err()
}

// SaveQueue replaces the stored queue in a single transaction.
func (s *SQLite) SaveQueue(ctx context.Context, queue []model.Post) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM queue_posts`); err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	for i, p := range queue {
		payload, err := codec.MarshalToString(p)
		if err != nil {
			return fmt.Errorf("encode post %s: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO queue_posts (position, id, payload) VALUES (?, ?, ?)`,
			i, p.ID, payload,
		); err != nil {
			return fmt.Errorf("insert post %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// LoadSeen returns every stored post ID.
func (s *SQLite) LoadSeen(ctx context.Context) (model.SeenSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM seen_posts`)
	if err != nil {
		return nil, fmt.Errorf("query seen: %w", err)
	}
	defer func() { _ = rows.Close() }()

	seen := model.SeenSet{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan seen row: %w", err)
		}
		seen.Add(id)
	}
	return seen, rows.Err()
}

// SaveSeen inserts IDs not stored yet. Existing rows keep their first_seen_at
// and are never removed, matching the grow-only seen-set.
func (s *SQLite) SaveSeen(ctx context.Context, seen model.SeenSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(timeLayout)
	for _, id := range seen.Sorted() {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO seen_posts (id, first_seen_at) VALUES (?, ?)`,
			id, now,
		); err != nil {
			return fmt.Errorf("mark seen %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// FirstSeen returns when id was first stored.
func (s *SQLite) FirstSeen(ctx context.Context, id string) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT first_seen_at FROM seen_posts WHERE id = ?`, id).Scan(&raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("query first seen: %w", err)
	}
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse first seen: %w", err)
	}
	return t, nil
}
