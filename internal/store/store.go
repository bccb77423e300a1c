// Package store handles SQLite persistence of render history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/sportsposter/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for render history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS renders (
			id INTEGER PRIMARY KEY,
			created_at TEXT NOT NULL,
			variant TEXT NOT NULL,
			scope_label TEXT NOT NULL,
			upload_digest TEXT NOT NULL,
			activities INTEGER NOT NULL,
			png_path TEXT NOT NULL,
			svg_path TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_renders_created_at ON renders(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_renders_digest ON renders(upload_digest);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRender stores a completed render and returns its id.
func (s *Store) InsertRender(ctx context.Context, r model.RenderRecord) (int64, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO renders (created_at, variant, scope_label, upload_digest, activities, png_path, svg_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(r.Variant),
		r.ScopeLabel,
		r.UploadDigest,
		r.Activities,
		r.PNGPath,
		r.SVGPath,
	)
	if err != nil {
		return 0, fmt.Errorf("insert render: %w", err)
	}
	return res.LastInsertId()
}

// HistoryFilter narrows ListRenders. Zero values match everything.
type HistoryFilter struct {
	Variant model.Variant
	Since   *time.Time
	Limit   int
}

// ListRenders returns renders, most recent first.
func (s *Store) ListRenders(ctx context.Context, filter HistoryFilter) ([]model.RenderRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Variant != "" {
		clauses = append(clauses, "variant = ?")
		args = append(args, string(filter.Variant))
	}
	if filter.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, created_at, variant, scope_label, upload_digest, activities, png_path, svg_path
		FROM renders
		WHERE %s
		ORDER BY created_at DESC, id DESC`, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.RenderRecord
	for rows.Next() {
		var r model.RenderRecord
		var createdAt, variant string
		if err := rows.Scan(&r.ID, &createdAt, &variant, &r.ScopeLabel, &r.UploadDigest, &r.Activities, &r.PNGPath, &r.SVGPath); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		r.CreatedAt = parsed
		r.Variant = model.Variant(variant)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountByDigest returns how many renders were made from one upload.
func (s *Store) CountByDigest(ctx context.Context, digest string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM renders WHERE upload_digest = ?`, digest).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}
