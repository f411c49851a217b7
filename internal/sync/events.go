package sync

import "time"

const (
	// EventCatalogRefresh tells listeners to re-query the catalog
	// (fires after imports, deletes and reader close).
	EventCatalogRefresh = "catalog.refresh"
	EventReaderOpened   = "reader.opened"
	// EventReaderRelocated carries the new locator after a page turn.
	EventReaderRelocated = "reader.relocated"
	// EventReaderPage is the PDF page counter: one event per page as
	// the sequential render completes it.
	EventReaderPage   = "reader.page"
	EventReaderClosed = "reader.closed"
	EventImportFile   = "import.file"
)

// Event is the line-JSON payload broadcast to every connected reader
// surface (websocket and TCP).
type Event struct {
	Type      string    `json:"type"`
	BookID    int64     `json:"book_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	BatchID   string    `json:"batch_id,omitempty"`
	Locator   string    `json:"locator,omitempty"`
	Page      int       `json:"page,omitempty"`
	PageCount int       `json:"page_count,omitempty"`
	Title     string    `json:"title,omitempty"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

func NewEvent(eventType string) Event {
	return Event{Type: eventType, At: time.Now().UTC()}
}
