// Package books persists the cleaned catalog in SQLite.
package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/bookfinder-io/bookfinder/internal/domain"
)

// Repository is the SQLite-backed book store.
type Repository struct {
	db   *sql.DB
	path string
}

// Statistics summarizes the stored catalog.
type Statistics struct {
	TotalBooks            int     `json:"total_books"`
	BooksWithDescriptions int     `json:"books_with_descriptions"`
	DatabaseSizeMB        float64 `json:"database_size_mb"`
}

// Open opens (creating if needed) the books database and ensures the schema.
// journal_mode=WAL: better concurrency between the API and the pipeline.
// busy_timeout=5000: wait up to 5s for a lock instead of failing.
// Pragmas use the modernc driver's _pragma=name(value) DSN form.
func Open(ctx context.Context, path string) (*Repository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(2 * time.Hour)

	repo := &Repository{db: db, path: path}
	if err := repo.createSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *Repository) createSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS books (
			isbn         TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			description  TEXT,
			authors      TEXT,
			genres       TEXT,
			publish_date TEXT,
			created_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_books_created_at ON books(created_at DESC);`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// InsertBatch inserts books inside one transaction, skipping records whose
// ISBN is already stored. Returns inserted and duplicate counts.
func (r *Repository) InsertBatch(ctx context.Context, books []domain.Book) (inserted, duplicates int, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO books (isbn, title, description, authors, genres, publish_date)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range books {
		res, execErr := stmt.ExecContext(ctx,
			b.ISBN, b.Title, nullable(b.Description), nullable(b.Authors),
			nullable(b.Genres), nullable(b.PublishDate),
		)
		if execErr != nil {
			err = fmt.Errorf("insert %s: %w", b.ISBN, execErr)
			return 0, 0, err
		}
		n, _ := res.RowsAffected()
		if n > 0 {
			inserted++
		} else {
			duplicates++
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, duplicates, nil
}

// Recent returns the most recently stored books, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]domain.Book, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT isbn, title, description, authors, genres, publish_date
		FROM books ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		b, scanErr := scanBook(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return books, nil
}

// GetByISBN returns a single book or domain.ErrBookNotFound.
func (r *Repository) GetByISBN(ctx context.Context, isbn string) (domain.Book, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT isbn, title, description, authors, genres, publish_date
		FROM books WHERE isbn = ?`, isbn)

	b, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Book{}, domain.ErrBookNotFound
		}
		return domain.Book{}, err
	}
	return b, nil
}

// Count returns the number of stored books.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

// Stats returns catalog statistics including on-disk size.
func (r *Repository) Stats(ctx context.Context) (Statistics, error) {
	var stats Statistics
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&stats.TotalBooks); err != nil {
		return Statistics{}, fmt.Errorf("count books: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM books
		WHERE description IS NOT NULL AND TRIM(description) != ''`,
	).Scan(&stats.BooksWithDescriptions); err != nil {
		return Statistics{}, fmt.Errorf("count described books: %w", err)
	}
	if info, err := os.Stat(r.path); err == nil {
		stats.DatabaseSizeMB = float64(info.Size()) / (1024 * 1024)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (domain.Book, error) {
	var b domain.Book
	var description, authors, genres, publishDate sql.NullString
	if err := row.Scan(&b.ISBN, &b.Title, &description, &authors, &genres, &publishDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Book{}, err
		}
		return domain.Book{}, fmt.Errorf("scan book: %w", err)
	}
	b.Description = description.String
	b.Authors = authors.String
	b.Genres = genres.String
	b.PublishDate = publishDate.String
	return b, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
