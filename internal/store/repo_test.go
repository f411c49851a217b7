package store

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookhub/pkg/database"
	"bookhub/pkg/models"
)

func testRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return NewRepo(db)
}

func TestCreateAndGet(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	content := []byte("once upon a time")
	id, err := repo.Create(ctx, content, "Fairy Tales", "text/plain")
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	book, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, book.ID)
	assert.Equal(t, "Fairy Tales", book.Title)
	assert.Equal(t, "text/plain", book.ContentType)
	assert.Equal(t, content, book.Content)
	assert.Nil(t, book.LastPosition, "fresh records start with no position")
	assert.False(t, book.CreatedAt.IsZero())
}

func TestGetMissing(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.Get(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePositionLocator(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, []byte("content"), "Novel", "application/epub+zip")
	require.NoError(t, err)

	require.NoError(t, repo.UpdatePosition(ctx, id, models.LocatorPosition("spine:4@120")))

	book, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, book.LastPosition)
	assert.Equal(t, models.PositionLocator, book.LastPosition.Kind)
	assert.Equal(t, "spine:4@120", book.LastPosition.Locator)
}

func TestUpdatePositionOffset(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, []byte("plain text"), "Notes", "text/plain")
	require.NoError(t, err)

	require.NoError(t, repo.UpdatePosition(ctx, id, models.OffsetPosition(4200)))

	book, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, book.LastPosition)
	assert.Equal(t, models.PositionOffset, book.LastPosition.Kind)
	assert.Equal(t, int64(4200), book.LastPosition.Offset)
}

func TestUpdatePositionLeavesRecordIntact(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	content := []byte("immutable blob")
	id, err := repo.Create(ctx, content, "Stable Title", "application/pdf")
	require.NoError(t, err)

	require.NoError(t, repo.UpdatePosition(ctx, id, models.LocatorPosition("spine:1")))

	book, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Stable Title", book.Title)
	assert.Equal(t, "application/pdf", book.ContentType)
	assert.Equal(t, content, book.Content)
}

func TestUpdatePositionMissing(t *testing.T) {
	repo := testRepo(t)

	err := repo.UpdatePosition(context.Background(), 999, models.OffsetPosition(10))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, []byte("gone soon"), "Ephemeral", "text/plain")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, id))

	_, err = repo.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.UpdatePosition(ctx, id, models.OffsetPosition(1)), ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, id), ErrNotFound)
}

func TestListAllInsertionOrder(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	titles := []string{"First", "Second", "Third"}
	for _, title := range titles {
		_, err := repo.Create(ctx, []byte(title), title, "text/plain")
		require.NoError(t, err)
	}

	summaries, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	for i, s := range summaries {
		assert.Equal(t, titles[i], s.Title)
	}
}

func TestListAllEmpty(t *testing.T) {
	repo := testRepo(t)

	summaries, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, summaries)
	assert.Empty(t, summaries)
}
