package models

import "time"

// Book is the single persisted entity: one imported file plus its
// reading-position marker. Content and ContentType never change after
// creation; a new version of a book is a new record.
type Book struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	ContentType  string    `json:"content_type"`
	Content      []byte    `json:"-"`
	LastPosition *Position `json:"last_position,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// BookSummary is the listing form of a record, without the blob.
type BookSummary struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	ContentType  string    `json:"content_type"`
	LastPosition *Position `json:"last_position,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (b Book) Summary() BookSummary {
	return BookSummary{
		ID:           b.ID,
		Title:        b.Title,
		ContentType:  b.ContentType,
		LastPosition: b.LastPosition,
		CreatedAt:    b.CreatedAt,
	}
}
