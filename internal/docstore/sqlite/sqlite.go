// Package sqlite persists document collections as JSON rows in a single
// SQLite table, filtered with json_extract.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/OgnevOA/spendy-pants/internal/docstore"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps read-modify-write transactions free of
	// SQLITE_BUSY within the process.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`,
		collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.Document{}, docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Document{}, fmt.Errorf("get document: %w", err)
	}
	return decodeDocument(id, body)
}

func (s *Store) Set(ctx context.Context, collection, id string, fields docstore.Fields, merge bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set: %w", err)
	}
	defer tx.Rollback()

	current := docstore.Fields{}
	if merge {
		current, err = readForUpdate(ctx, tx, collection, id)
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return err
		}
		if current == nil {
			current = docstore.Fields{}
		}
	}

	resolved, err := docstore.ResolveWrites(current, fields)
	if err != nil {
		return err
	}
	if err := writeDocument(ctx, tx, collection, id, resolved); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Update(ctx context.Context, collection, id string, updates docstore.Fields) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	current, err := readForUpdate(ctx, tx, collection, id)
	if err != nil {
		return err
	}

	resolved, err := docstore.ResolveWrites(current, updates)
	if err != nil {
		return err
	}
	if err := writeDocument(ctx, tx, collection, id, resolved); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		collection, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	query := `SELECT id, body FROM documents WHERE collection = ?`
	args := []any{collection}
	for _, f := range filters {
		op, ok := sqlOp(f.Op)
		if !ok {
			return nil, fmt.Errorf("unsupported filter op %q", f.Op)
		}
		query += ` AND json_extract(body, ?) ` + op + ` ?`
		args = append(args, "$."+f.Field, filterArg(f.Value))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []docstore.Document
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc, err := decodeDocument(id, body)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (s *Store) AddAutoID(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, fields, false); err != nil {
		return "", err
	}
	return id, nil
}

func readForUpdate(ctx context.Context, tx *sql.Tx, collection, id string) (docstore.Fields, error) {
	var body string
	err := tx.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`,
		collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	var fields docstore.Fields
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, fmt.Errorf("decode document %s/%s: %w", collection, id, err)
	}
	return fields, nil
}

func writeDocument(ctx context.Context, tx *sql.Tx, collection, id string, fields docstore.Fields) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body, updated_at)
		 VALUES (?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		 ON CONFLICT (collection, id) DO UPDATE SET
		   body = excluded.body,
		   updated_at = excluded.updated_at`,
		collection, id, string(body))
	if err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

func decodeDocument(id, body string) (docstore.Document, error) {
	var fields docstore.Fields
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return docstore.Document{}, fmt.Errorf("decode document %s: %w", id, err)
	}
	return docstore.Document{ID: id, Fields: fields}, nil
}

func sqlOp(op string) (string, bool) {
	switch op {
	case docstore.OpEqual:
		return "=", true
	case docstore.OpGreaterOrEqual:
		return ">=", true
	case docstore.OpLessOrEqual:
		return "<=", true
	}
	return "", false
}

// filterArg widens integers so comparisons against JSON numbers behave the
// same as the in-memory backend.
func filterArg(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return v
}
