package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

const schema = `CREATE TABLE IF NOT EXISTS cells (
	cell_key TEXT PRIMARY KEY,
	payload  TEXT NOT NULL DEFAULT ''
)`

// SQLStore keeps cells in a single table. The claim is an INSERT that
// does nothing on conflict; one affected row means the claim was won.
type SQLStore struct {
	db       *sql.DB
	postgres bool
}

// OpenSQLite opens (creating if needed) a sqlite database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, unavailable("open", path, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, unavailable("open", path, err)
	}
	// one connection keeps the busy timeout pragma in force for every statement
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, unavailable("open", path, err)
	}
	return newSQLStore(ctx, db, false)
}

// OpenPostgres connects through pgx using a postgres:// URL.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, unavailable("open", "postgres", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, unavailable("ping", "postgres", err)
	}
	return newSQLStore(ctx, db, true)
}

func newSQLStore(ctx context.Context, db *sql.DB, postgres bool) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, unavailable("migrate", "cells", err)
	}
	return &SQLStore{db: db, postgres: postgres}, nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) Claim(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO cells (cell_key, payload) VALUES (?, '') ON CONFLICT (cell_key) DO NOTHING`), key)
	if err != nil {
		return false, unavailable("claim", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("claim", key, err)
	}
	return n == 1, nil
}

func (s *SQLStore) Complete(ctx context.Context, key string, r Result) error {
	data := r.Text()
	_, err := s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO cells (cell_key, payload) VALUES (?, ?)
			ON CONFLICT (cell_key) DO UPDATE SET payload = excluded.payload`), key, string(data))
	if err != nil {
		return unavailable("complete", key, err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, key string) (Entry, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT payload FROM cells WHERE cell_key = ?`), key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, unavailable("load", key, err)
	}
	return decodeEntry(key, []byte(payload)), nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM cells WHERE cell_key = ?`), key)
	if err != nil {
		return unavailable("delete", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("delete", key, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT cell_key, payload FROM cells ORDER BY cell_key`)
	if err != nil {
		return nil, unavailable("list", "cells", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var key, payload string
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, unavailable("list", "cells", err)
		}
		entries = append(entries, decodeEntry(key, []byte(payload)))
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list", "cells", err)
	}
	return entries, nil
}

func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close cells db: %w", err)
	}
	return nil
}
