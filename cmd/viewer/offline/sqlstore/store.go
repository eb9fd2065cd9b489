// Package sqlstore keeps offline caches in a local SQLite file.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"chat-viewer/cmd/viewer/offline"
)

const schema = `
CREATE TABLE IF NOT EXISTS caches (
	name       TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cache_entries (
	cache_name  TEXT NOT NULL REFERENCES caches(name) ON DELETE CASCADE,
	key         TEXT NOT NULL,
	status_code INTEGER NOT NULL,
	header      TEXT NOT NULL,
	body        BLOB,
	stored_at   INTEGER NOT NULL,
	PRIMARY KEY (cache_name, key)
);
`

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// 단일 커넥션: :memory: DB가 커넥션마다 분리되지 않도록
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Open(ctx context.Context, name string) (offline.Cache, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO caches (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, time.Now().UnixNano())
	if err != nil {
		return nil, err
	}
	return &cache{name: name, db: s.db}, nil
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM caches ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes the cache and its entries in one transaction.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_name = ?`, name); err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM caches WHERE name = ?`, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n > 0, nil
}

type cache struct {
	name string
	db   *sql.DB
}

func (c *cache) Match(ctx context.Context, key string) (*offline.Entry, error) {
	var (
		status   int
		header   string
		body     []byte
		storedAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT status_code, header, body, stored_at FROM cache_entries WHERE cache_name = ? AND key = ?`,
		c.name, key).Scan(&status, &header, &body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, offline.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	h := http.Header{}
	if err := json.Unmarshal([]byte(header), &h); err != nil {
		return nil, fmt.Errorf("corrupt header for %s: %w", key, err)
	}
	return &offline.Entry{
		URL:        key,
		StatusCode: status,
		Header:     h,
		Body:       body,
		StoredAt:   time.Unix(0, storedAt),
	}, nil
}

func (c *cache) Put(ctx context.Context, key string, entry *offline.Entry) error {
	header, err := json.Marshal(entry.Header)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO cache_entries (cache_name, key, status_code, header, body, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_name, key) DO UPDATE SET
			status_code = excluded.status_code,
			header = excluded.header,
			body = excluded.body,
			stored_at = excluded.stored_at`,
		c.name, key, entry.StatusCode, string(header), entry.Body, entry.StoredAt.UnixNano())
	return err
}
