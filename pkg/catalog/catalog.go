// Package catalog caches the programmer's device list in SQLite so the full
// list is available on the next start without running `minipro -l` again.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS devices (
	name TEXT PRIMARY KEY,
	name_lower TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS devices_name_lower ON devices(name_lower);
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// DefaultSearchLimit caps Search when limit <= 0.
const DefaultSearchLimit = 200

// Catalog is a device name store backed by a single SQLite file.
type Catalog struct {
	db *sql.DB
}

// Open opens or creates the catalogue at path. Use ":memory:" for a
// throwaway store.
func Open(path string) (*Catalog, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	// A single connection serialises writers and keeps :memory: databases
	// alive for the lifetime of the Catalog.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{"journal_mode=WAL", "busy_timeout=5000", "synchronous=NORMAL"} {
		if _, err := db.Exec("PRAGMA " + pragma + ";"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set PRAGMA %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Replace swaps the stored list for names in one transaction.
func (c *Catalog) Replace(ctx context.Context, names []string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM devices`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO devices(name, name_lower) VALUES(?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, n, strings.ToLower(n)); err != nil {
			return fmt.Errorf("insert %s: %w", n, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES('updated_at', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// Search returns names containing substr, case-insensitively, in name
// order. An empty substr matches everything.
func (c *Catalog) Search(ctx context.Context, substr string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(substr))) + "%"
	rows, err := c.db.QueryContext(ctx,
		`SELECT name FROM devices WHERE name_lower LIKE ? ESCAPE '\' ORDER BY name LIMIT ?`,
		pattern, limit,
	)
	if err != nil {
		return nil, err
	}
	return scanNames(rows)
}

// All returns every stored name in order.
func (c *Catalog) All(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT name FROM devices ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return scanNames(rows)
}

// Count returns the number of stored names.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM devices`).Scan(&n)
	return n, err
}

// UpdatedAt returns when Replace last ran, or the zero time if never.
func (c *Catalog) UpdatedAt(ctx context.Context) (time.Time, error) {
	var v string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'updated_at'`).Scan(&v)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, v)
}

func scanNames(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
