package reader

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookhub/internal/store"
	"bookhub/pkg/database"
)

func testStore(t *testing.T) *store.Repo {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return store.NewRepo(db)
}

func createBook(t *testing.T, repo *store.Repo, contentType string, content []byte) int64 {
	t.Helper()
	id, err := repo.Create(context.Background(), content, "Test Book", contentType)
	require.NoError(t, err)
	return id
}

func TestTrackerRecordLocatorImmediate(t *testing.T) {
	repo := testStore(t)
	id := createBook(t, repo, "application/epub+zip", []byte("x"))
	tr := newTracker(repo, id, 50*time.Millisecond)
	defer tr.Close()

	require.NoError(t, tr.RecordLocator(context.Background(), "spine:2"))

	book, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, book.LastPosition)
	assert.Equal(t, "spine:2", book.LastPosition.Locator)
}

func TestTrackerRecordOffsetDebounces(t *testing.T) {
	repo := testStore(t)
	id := createBook(t, repo, "text/plain", []byte("x"))
	tr := newTracker(repo, id, 30*time.Millisecond)
	defer tr.Close()

	// a burst of scroll events within the quiet period
	tr.RecordOffset(100)
	tr.RecordOffset(200)
	tr.RecordOffset(300)

	book, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, book.LastPosition, "nothing lands before the quiet period expires")

	time.Sleep(120 * time.Millisecond)

	book, err = repo.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, book.LastPosition)
	assert.Equal(t, int64(300), book.LastPosition.Offset, "only the last offset of the burst is written")
}

func TestTrackerCloseCancelsPendingWrite(t *testing.T) {
	repo := testStore(t)
	id := createBook(t, repo, "text/plain", []byte("x"))
	tr := newTracker(repo, id, 30*time.Millisecond)

	tr.RecordOffset(4200)
	tr.Close()

	// well past the debounce window: the cancelled write must not land
	time.Sleep(120 * time.Millisecond)

	book, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, book.LastPosition, "a write pending at close must never land")
}

func TestTrackerIgnoresRecordsAfterClose(t *testing.T) {
	repo := testStore(t)
	id := createBook(t, repo, "text/plain", []byte("x"))
	tr := newTracker(repo, id, time.Millisecond)
	tr.Close()

	require.NoError(t, tr.RecordLocator(context.Background(), "spine:9"))
	tr.RecordOffset(77)
	time.Sleep(50 * time.Millisecond)

	book, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, book.LastPosition)
}
