package reader

import (
	"context"
	"log"
	"sync"
	"time"

	"bookhub/internal/store"
	"bookhub/pkg/models"
)

const trackerWriteTimeout = 5 * time.Second

// tracker persists the reading position for one open book. Discrete
// events (page relocations) are written straight through; continuous
// events (scroll) are debounced so a burst costs one write. Closing
// the tracker cancels any pending debounced write, so a stale position
// can never land after the book is closed.
type tracker struct {
	store  *store.Repo
	bookID int64
	delay  time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

func newTracker(repo *store.Repo, bookID int64, delay time.Duration) *tracker {
	return &tracker{store: repo, bookID: bookID, delay: delay}
}

// RecordLocator writes a pagination locator immediately.
func (t *tracker) RecordLocator(ctx context.Context, locator string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	return t.store.UpdatePosition(ctx, t.bookID, models.LocatorPosition(locator))
}

// RecordOffset schedules a debounced write of a scroll offset. Each
// call restarts the quiet period.
func (t *tracker) RecordOffset(offset int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.delay, func() { t.flush(offset) })
}

func (t *tracker) flush(offset int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), trackerWriteTimeout)
	defer cancel()
	if err := t.store.UpdatePosition(ctx, t.bookID, models.OffsetPosition(offset)); err != nil {
		log.Printf("[reader] position write failed for book %d: %v", t.bookID, err)
	}
}

// Close stops the tracker. The mutex makes this strict: any write that
// already held the lock completes first, and nothing runs after.
func (t *tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
