// Package storage mirrors the assignment collection into SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"duetrack/internal/assignment"
	"duetrack/internal/log"
)

// Collection is the table that holds assignment documents.
const Collection = "assignments"

type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ assignment.Mirror = (*Store)(nil)

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: log.NewModuleLogger("storage", "sqlite")}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS ` + Collection + ` (
	id TEXT PRIMARY KEY,
	seq INTEGER NOT NULL,
	title TEXT NOT NULL,
	due_date TEXT NOT NULL
);`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("create %s: %w", Collection, err)
	}
	return s.ensureColumns()
}

// ensureColumns adds columns that are not part of the CREATE TABLE above.
// updated_at is set by every field update; UpdatedAt reads it back.
func (s *Store) ensureColumns() error {
	required := map[string]string{
		"updated_at": "ALTER TABLE " + Collection + " ADD COLUMN updated_at TEXT DEFAULT NULL;",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.Query(`PRAGMA table_info(` + Collection + `);`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.Exec(alter); err != nil {
			return err
		}
	}
	return nil
}

// List returns every document in insertion order.
func (s *Store) List(ctx context.Context) ([]assignment.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, due_date, updated_at FROM `+Collection+` ORDER BY seq;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []assignment.Record
	var lastUpdated string
	for rows.Next() {
		var r assignment.Record
		var dueStr string
		var updated sql.NullString
		if err := rows.Scan(&r.ID, &r.Title, &dueStr, &updated); err != nil {
			return nil, err
		}
		// All timestamps are UTC RFC 3339, so they order as strings.
		if updated.Valid && updated.String > lastUpdated {
			lastUpdated = updated.String
		}
		due, err := time.Parse(time.RFC3339, dueStr)
		if err != nil {
			return nil, fmt.Errorf("document %s: bad due_date %q: %w", r.ID, dueStr, err)
		}
		r.Due = due.In(time.Local)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.logger.Debug("documents listed", "count", len(records), "last_updated", lastUpdated)
	return records, nil
}

func (s *Store) Create(ctx context.Context, r assignment.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO `+Collection+` (id, seq, title, due_date)
		 VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM `+Collection+`), ?, ?);`,
		r.ID, r.Title, formatTime(r.Due))
	if err != nil {
		return fmt.Errorf("create document %s: %w", r.ID, err)
	}
	return nil
}

// Update rewrites the title and due_date fields of an existing document.
func (s *Store) Update(ctx context.Context, r assignment.Record) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+Collection+` SET title = ?, due_date = ?, updated_at = ? WHERE id = ?;`,
		r.Title, formatTime(r.Due), formatTime(time.Now()), r.ID)
	if err != nil {
		return fmt.Errorf("update document %s: %w", r.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update document %s: %w", r.ID, assignment.ErrNotFound)
	}
	return nil
}

// UpdatedAt reports when a document's fields were last rewritten. ok is
// false for documents that were never updated.
func (s *Store) UpdatedAt(ctx context.Context, id string) (t time.Time, ok bool, err error) {
	var v sql.NullString
	err = s.db.QueryRowContext(ctx, `SELECT updated_at FROM `+Collection+` WHERE id = ?;`, id).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, fmt.Errorf("document %s: %w", id, assignment.ErrNotFound)
	}
	if err != nil || !v.Valid {
		return time.Time{}, false, err
	}
	t, err = time.Parse(time.RFC3339, v.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("document %s: bad updated_at %q: %w", id, v.String, err)
	}
	return t.In(time.Local), true, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM `+Collection+` WHERE id = ?;`, id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
