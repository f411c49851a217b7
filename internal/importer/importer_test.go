package importer

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookhub/internal/store"
	"bookhub/pkg/database"
)

func testImporter(t *testing.T) (*Importer, *store.Repo) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	repo := store.NewRepo(db)
	return New(repo, nil), repo
}

func TestDefaultTitle(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"My Book.epub", "My Book"},
		{"My Book.v2.txt", "My Book.v2"}, // only the final extension goes
		{"archive.tar.gz", "archive.tar"},
		{"noextension", "noextension"},
		{"trailingdot.", "trailingdot"},
		{"/some/dir/nested.pdf", "nested"},
		{".epub", ".epub"}, // never derive an empty title
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultTitle(tt.filename), "filename %q", tt.filename)
	}
}

func TestImportPlainText(t *testing.T) {
	imp, repo := testImporter(t)
	ctx := context.Background()

	results := imp.Import(ctx, []File{
		{Name: "notes.txt", ContentType: "text/plain", Data: []byte("hello")},
	})
	require.Len(t, results, 1)
	require.Empty(t, results[0].Error)
	assert.Equal(t, "notes", results[0].Title)

	book, err := repo.Get(ctx, results[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), book.Content)
	assert.Equal(t, "text/plain", book.ContentType)
}

func TestImportDefaultsContentType(t *testing.T) {
	imp, repo := testImporter(t)
	ctx := context.Background()

	results := imp.Import(ctx, []File{
		{Name: "mystery.bin", Data: []byte{0x00, 0x01}},
	})
	require.Len(t, results, 1)
	require.Empty(t, results[0].Error)

	book, err := repo.Get(ctx, results[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", book.ContentType)
}

func TestImportMalformedEPUBStillStored(t *testing.T) {
	imp, repo := testImporter(t)
	ctx := context.Background()

	// Not a zip at all; metadata extraction fails and the filename
	// title carries the record.
	results := imp.Import(ctx, []File{
		{Name: "broken book.epub", ContentType: "application/epub+zip", Data: []byte("not a zip")},
	})
	require.Len(t, results, 1)
	require.Empty(t, results[0].Error)
	assert.Equal(t, "broken book", results[0].Title)

	book, err := repo.Get(ctx, results[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("not a zip"), book.Content)
}

func TestImportBatchIndependence(t *testing.T) {
	imp, repo := testImporter(t)
	ctx := context.Background()

	results := imp.Import(ctx, []File{
		{Name: "good one.txt", ContentType: "text/plain", Data: []byte("a")},
		{Name: "empty.txt", ContentType: "text/plain", Data: nil},
		{Name: "good two.txt", ContentType: "text/plain", Data: []byte("b")},
	})
	require.Len(t, results, 3)

	// results come back in input order even though imports run
	// concurrently
	assert.Equal(t, "good one.txt", results[0].Filename)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, "empty.txt", results[1].Filename)
	assert.Equal(t, "empty file", results[1].Error)
	assert.Equal(t, "good two.txt", results[2].Filename)
	assert.Empty(t, results[2].Error)

	summaries, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, summaries, 2, "the empty file must not block its siblings")
}
