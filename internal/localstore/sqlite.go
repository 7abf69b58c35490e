package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const createLocalStorageTable = `CREATE TABLE IF NOT EXISTS local_storage (
	namespace  TEXT NOT NULL,
	item_key   TEXT NOT NULL,
	item_value BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (namespace, item_key)
)`

// SQLiteBackend persists device storage in a single SQLite file.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (or creates) the database at path and ensures the
// schema exists. It enables WAL mode.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), createLocalStorageTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create local_storage table: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Scope(namespace string) Storage {
	return &sqliteStorage{db: b.db, ns: namespace}
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

type sqliteStorage struct {
	db *sql.DB
	ns string
}

func (s *sqliteStorage) GetItem(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT item_value FROM local_storage WHERE namespace = ? AND item_key = ?`,
		s.ns, key,
	).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query item: %w", err)
	}
	return v, nil
}

func (s *sqliteStorage) SetItem(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO local_storage (namespace, item_key, item_value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (namespace, item_key) DO UPDATE SET
		   item_value = excluded.item_value,
		   updated_at = excluded.updated_at`,
		s.ns, key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

func (s *sqliteStorage) RemoveItem(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM local_storage WHERE namespace = ? AND item_key = ?`, s.ns, key,
	); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}
