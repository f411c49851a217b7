package catalog

import (
	"context"
	"time"

	"bookhub/internal/store"
	"bookhub/pkg/models"
)

const (
	StatusInProgress = "in progress"
	StatusNew        = "new"

	maxDisplayTitle = 20
	truncatedLength = 17
)

// Entry is one selectable row of the library list.
type Entry struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	DisplayTitle string    `json:"display_title"`
	Badge        string    `json:"badge"`
	Status       string    `json:"status"`
	ContentType  string    `json:"content_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// Catalog presents the stored records as a selectable list.
type Catalog struct {
	Store *store.Repo
}

func New(repo *store.Repo) *Catalog {
	return &Catalog{Store: repo}
}

// Refresh re-queries the store and rebuilds the full list; there is no
// incremental diffing.
func (cat *Catalog) Refresh(ctx context.Context) ([]Entry, error) {
	summaries, err := cat.Store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(summaries))
	for _, s := range summaries {
		entries = append(entries, EntryFor(s))
	}
	return entries, nil
}

func EntryFor(s models.BookSummary) Entry {
	status := StatusNew
	if s.LastPosition != nil {
		status = StatusInProgress
	}
	return Entry{
		ID:           s.ID,
		Title:        s.Title,
		DisplayTitle: DisplayTitle(s.Title),
		Badge:        models.DetectFormat(s.ContentType).Badge(),
		Status:       status,
		ContentType:  s.ContentType,
		CreatedAt:    s.CreatedAt,
	}
}

// DisplayTitle truncates long titles for the list: anything over 20
// characters becomes the first 17 plus an ellipsis marker.
func DisplayTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxDisplayTitle {
		return title
	}
	return string(runes[:truncatedLength]) + "..."
}
