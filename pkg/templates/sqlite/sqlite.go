// Package sqlite keeps contract template definitions in a SQLite table so a
// deployment can manage templates as configuration data instead of files. The
// table is read once at startup into an immutable templates.Store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/goliatone/go-contractgen/pkg/templates"
)

// Table is the table holding template definitions.
const Table = "contract_templates"

const schema = `CREATE TABLE IF NOT EXISTS ` + Table + ` (
	id         TEXT PRIMARY KEY,
	format     TEXT NOT NULL DEFAULT 'json',
	body       TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// Open opens (creating when missing) the SQLite database at path using the
// pure-Go driver and makes sure the template table exists.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite: database path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the template table when it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: create %s: %w", Table, err)
	}
	return nil
}

// Put inserts or replaces one raw definition.
func Put(ctx context.Context, db *sql.DB, id string, format templates.Format, body []byte) error {
	return put(ctx, db, id, format, body)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func put(ctx context.Context, db execer, id string, format templates.Format, body []byte) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("sqlite: template id is required")
	}
	if format == "" {
		format = templates.FormatJSON
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO `+Table+` (id, format, body, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET format = excluded.format, body = excluded.body, updated_at = excluded.updated_at`,
		id, string(format), string(body), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("sqlite: put %q: %w", id, err)
	}
	return nil
}

// Import writes every template of store into the table in one transaction,
// encoded as JSON. It returns the number of rows written.
func Import(ctx context.Context, db *sql.DB, store *templates.Store) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	count := 0
	for _, tpl := range store.All() {
		body, err := templates.Encode(tpl, templates.FormatJSON)
		if err != nil {
			return 0, fmt.Errorf("sqlite: encode %q: %w", tpl.ID, err)
		}
		if err := put(ctx, tx, tpl.ID, templates.FormatJSON, body); err != nil {
			return 0, err
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit import: %w", err)
	}
	return count, nil
}

// Load reads every row and builds a store. Each row's body must declare the
// same id as the row. Malformed rows follow the templates load options.
func Load(ctx context.Context, db *sql.DB, opts ...templates.LoadOption) (*templates.Store, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, format, body FROM `+Table+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query %s: %w", Table, err)
	}
	defer rows.Close()

	var docs []templates.Document
	for rows.Next() {
		var id, formatName, body string
		if err := rows.Scan(&id, &formatName, &body); err != nil {
			return nil, fmt.Errorf("sqlite: scan %s: %w", Table, err)
		}
		format, err := templates.ParseFormat(formatName)
		if err != nil {
			// Let Build report it like any other malformed definition.
			format = templates.Format(formatName)
		}
		docs = append(docs, templates.Document{
			Source:     Table + "/" + id,
			Format:     format,
			Data:       []byte(body),
			ExpectedID: id,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: read %s: %w", Table, err)
	}

	return templates.Build(docs, opts...)
}
