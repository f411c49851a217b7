package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bookhub/pkg/models"
)

func TestDisplayTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Short", "Short"},
		{"Exactly twenty chars", "Exactly twenty chars"},
		{"Twenty-one characters", "Twenty-one charac..."},
		{"A much longer title that keeps going", "A much longer tit..."},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayTitle(tt.title), "title %q", tt.title)
	}
}

func TestDisplayTitleMultibyte(t *testing.T) {
	// 25 runes, each multi-byte; truncation counts runes, not bytes.
	title := "日本語のとても長い書名がここに続いています対応確認"
	got := DisplayTitle(title)
	assert.Equal(t, string([]rune(title)[:17])+"...", got)
	assert.Len(t, []rune(got), 20)
}

func TestEntryForBadges(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"application/epub+zip", "EPUB"},
		{"application/pdf", "PDF"},
		{"text/plain", "TXT"},
		{"application/octet-stream", "TXT"},
	}
	for _, tt := range tests {
		e := EntryFor(models.BookSummary{ID: 1, Title: "t", ContentType: tt.contentType})
		assert.Equal(t, tt.want, e.Badge, "content type %q", tt.contentType)
	}
}

func TestEntryForStatus(t *testing.T) {
	fresh := EntryFor(models.BookSummary{ID: 1, Title: "t", ContentType: "text/plain"})
	assert.Equal(t, StatusNew, fresh.Status)

	pos := models.OffsetPosition(10)
	opened := EntryFor(models.BookSummary{
		ID:           2,
		Title:        "t",
		ContentType:  "text/plain",
		LastPosition: &pos,
		CreatedAt:    time.Now(),
	})
	assert.Equal(t, StatusInProgress, opened.Status)
}
