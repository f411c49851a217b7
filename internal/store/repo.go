package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookhub/pkg/models"
)

// ErrNotFound reports that no record exists for the given id.
var ErrNotFound = errors.New("book not found")

// Repo is the blob store: durable persistence of book records, keyed by
// an id the store assigns on creation.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Create inserts a new record and returns its assigned id. The record
// starts with a null last position ("never opened").
func (r *Repo) Create(ctx context.Context, content []byte, title, contentType string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO books (title, content_type, content, last_position, created_at)
		VALUES (?, ?, ?, NULL, ?)
	`, title, contentType, content, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("book insert id: %w", err)
	}
	return id, nil
}

// Get returns the full record, blob included.
func (r *Repo) Get(ctx context.Context, id int64) (*models.Book, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, title, content_type, content, last_position, created_at
		FROM books
		WHERE id = ?
	`, id)

	var (
		b        models.Book
		position sql.NullString
		created  time.Time
	)
	if err := row.Scan(&b.ID, &b.Title, &b.ContentType, &b.Content, &position, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	b.CreatedAt = created

	if position.Valid {
		var p models.Position
		if err := p.Scan(position.String); err != nil {
			return nil, fmt.Errorf("decode last position: %w", err)
		}
		b.LastPosition = &p
	}
	return &b, nil
}

// ListAll returns summaries for every record, in insertion order.
func (r *Repo) ListAll(ctx context.Context) ([]models.BookSummary, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, title, content_type, last_position, created_at
		FROM books
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	out := make([]models.BookSummary, 0)
	for rows.Next() {
		var (
			s        models.BookSummary
			position sql.NullString
			created  time.Time
		)
		if err := rows.Scan(&s.ID, &s.Title, &s.ContentType, &position, &created); err != nil {
			return nil, fmt.Errorf("scan book row: %w", err)
		}
		s.CreatedAt = created
		if position.Valid {
			var p models.Position
			if err := p.Scan(position.String); err != nil {
				return nil, fmt.Errorf("decode last position: %w", err)
			}
			s.LastPosition = &p
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// UpdatePosition overwrites only the last-position marker. Content,
// content type and title are never touched here.
func (r *Repo) UpdatePosition(ctx context.Context, id int64, position models.Position) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE books SET last_position = ? WHERE id = ?
	`, position, id)
	if err != nil {
		return fmt.Errorf("update position: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update position rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the record. Subsequent Get/UpdatePosition on the same
// id report ErrNotFound.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM books WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete book rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
