// Package reader owns the single currently-open book: it dispatches to
// the right rendering strategy, drives navigation, search and page
// rendering, and persists the reading position back to the store.
package reader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookhub/internal/epub"
	"bookhub/internal/pdf"
	"bookhub/internal/store"
	synchub "bookhub/internal/sync"
	"bookhub/pkg/models"
)

const (
	// Minimum horizontal travel for a swipe to count as a page turn.
	swipeThreshold = 50.0
	// Fixed rasterization scale for PDF pages.
	pdfScale = 1.5

	defaultLoadTimeout    = 15 * time.Second
	defaultScrollDebounce = 500 * time.Millisecond
)

// ErrBadLocator reports a locator the engine cannot resolve.
var ErrBadLocator = errors.New("invalid locator")

// ErrPageNotReady reports a PDF page the sequential render has not
// reached yet.
var ErrPageNotReady = errors.New("page not rendered yet")

// Session is the active-session value: which book is open, which
// strategy it runs under and the handles attached to it. There is at
// most one, owned by the Manager.
type Session struct {
	ID     string
	BookID int64
	Title  string
	Format models.Format

	epubView EPUBView

	pdfDoc       PDFDocument
	pageCount    int
	cancelRender context.CancelFunc
	renderMu     sync.Mutex
	rendered     []*pdf.RenderedPage
	renderErr    string

	text    string
	scroll  int64
	tracker *tracker
}

// State is the externally visible session snapshot.
type State struct {
	SessionID     string `json:"session_id"`
	BookID        int64  `json:"book_id"`
	Title         string `json:"title"`
	Format        string `json:"format"`
	Page          int    `json:"page,omitempty"`
	PageCount     int    `json:"page_count,omitempty"`
	Locator       string `json:"locator,omitempty"`
	RenderedPages int    `json:"rendered_pages,omitempty"`
	RenderError   string `json:"render_error,omitempty"`
	ScrollOffset  int64  `json:"scroll_offset,omitempty"`
}

// Manager owns session transitions. All mutation of the active session
// goes through its mutex, which is what enforces the single-open-book
// invariant.
type Manager struct {
	Store          *store.Repo
	Hub            *synchub.Hub
	LoadTimeout    time.Duration
	ScrollDebounce time.Duration

	// engine constructors, swappable in tests
	newEPUBView func(data []byte) (EPUBView, error)
	newPDFDoc   func(data []byte) (PDFDocument, error)

	mu     sync.Mutex
	active *Session
}

func NewManager(repo *store.Repo, hub *synchub.Hub) *Manager {
	return &Manager{
		Store:          repo,
		Hub:            hub,
		LoadTimeout:    defaultLoadTimeout,
		ScrollDebounce: defaultScrollDebounce,
		newEPUBView:    openEPUB,
		newPDFDoc:      openPDF,
	}
}

// Open fetches the record, tears down any prior session and dispatches
// to the strategy the book's format demands.
func (m *Manager) Open(ctx context.Context, id int64) (*State, error) {
	book, err := m.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	format := models.DetectFormat(book.ContentType)
	if format == models.FormatUnsupported {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, book.ContentType)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Prior listeners go away before anything new is attached, so a
	// quick close/open cycle cannot leak handlers or pending writes.
	m.closeActiveLocked()

	s := &Session{
		ID:     uuid.NewString(),
		BookID: book.ID,
		Title:  book.Title,
		Format: format,
	}

	switch format {
	case models.FormatEPUB:
		if err := m.openEPUBSession(ctx, s, book); err != nil {
			return nil, err
		}
	case models.FormatPDF:
		if err := m.openPDFSession(ctx, s, book); err != nil {
			return nil, err
		}
	case models.FormatPlainText:
		if err := m.openTextSession(s, book); err != nil {
			return nil, err
		}
	}

	m.active = s
	ev := synchub.NewEvent(synchub.EventReaderOpened)
	ev.BookID = s.BookID
	ev.SessionID = s.ID
	ev.Title = s.Title
	m.publish(ev)

	return m.stateLocked(), nil
}

func (m *Manager) openEPUBSession(ctx context.Context, s *Session, book *models.Book) error {
	view, err := m.loadEPUB(ctx, book.Content)
	if err != nil {
		return &RenderError{Format: models.FormatEPUB, Err: err}
	}

	if book.LastPosition != nil && book.LastPosition.Kind == models.PositionLocator {
		if err := view.DisplayAt(book.LastPosition.Locator); err != nil {
			// A locator the engine no longer resolves falls back to
			// the beginning instead of failing the open.
			log.Printf("[reader] stale locator for book %d: %v", book.ID, err)
		}
	}

	s.epubView = view
	s.tracker = newTracker(m.Store, book.ID, m.ScrollDebounce)

	// The initial display is a relocation like any other.
	if err := s.tracker.RecordLocator(ctx, view.Locator()); err != nil {
		log.Printf("[reader] position write failed for book %d: %v", book.ID, err)
	}
	m.publishRelocated(s)
	return nil
}

func (m *Manager) openPDFSession(ctx context.Context, s *Session, book *models.Book) error {
	doc, err := m.loadPDF(ctx, book.Content)
	if err != nil {
		return &RenderError{Format: models.FormatPDF, Err: err}
	}

	s.pdfDoc = doc
	s.pageCount = doc.PageCount()
	// Reading progress is not tracked for PDFs (inherited gap, kept
	// deliberately): no tracker is attached here.

	renderCtx, cancel := context.WithCancel(context.Background())
	s.cancelRender = cancel
	go m.renderPages(renderCtx, s)
	return nil
}

func (m *Manager) openTextSession(s *Session, book *models.Book) error {
	text, err := decodeText(book.Content)
	if err != nil {
		return &RenderError{Format: models.FormatPlainText, Err: err}
	}

	s.text = text
	if book.LastPosition != nil && book.LastPosition.Kind == models.PositionOffset {
		s.scroll = book.LastPosition.Offset
	}
	s.tracker = newTracker(m.Store, book.ID, m.ScrollDebounce)
	return nil
}

// loadEPUB bounds the engine's construction time. A stalled decode
// surfaces as an error instead of hanging the open forever.
func (m *Manager) loadEPUB(ctx context.Context, data []byte) (EPUBView, error) {
	type result struct {
		view EPUBView
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		view, err := m.newEPUBView(data)
		ch <- result{view, err}
	}()

	timer := time.NewTimer(m.LoadTimeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		return r.view, r.err
	case <-timer.C:
		go func() {
			if r := <-ch; r.view != nil {
				_ = r.view.Close()
			}
		}()
		return nil, fmt.Errorf("engine load timed out after %s", m.LoadTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) loadPDF(ctx context.Context, data []byte) (PDFDocument, error) {
	type result struct {
		doc PDFDocument
		err error
	}
	ch := make(chan result, 1)
	go func() {
		doc, err := m.newPDFDoc(data)
		ch <- result{doc, err}
	}()

	timer := time.NewTimer(m.LoadTimeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		return r.doc, r.err
	case <-timer.C:
		return nil, fmt.Errorf("engine load timed out after %s", m.LoadTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// renderPages renders strictly one page at a time: page N+1 starts
// only after page N settled. That bounds peak memory on large PDFs.
func (m *Manager) renderPages(ctx context.Context, s *Session) {
	for num := 1; num <= s.pageCount; num++ {
		if ctx.Err() != nil {
			return
		}

		page, err := s.pdfDoc.RenderPage(num, pdfScale)
		if err != nil {
			s.renderMu.Lock()
			s.renderErr = err.Error()
			s.renderMu.Unlock()
			log.Printf("[reader] pdf page %d render failed for book %d: %v", num, s.BookID, err)

			ev := synchub.NewEvent(synchub.EventReaderPage)
			ev.BookID = s.BookID
			ev.SessionID = s.ID
			ev.Page = num
			ev.PageCount = s.pageCount
			ev.Error = err.Error()
			m.publish(ev)
			return
		}

		s.renderMu.Lock()
		s.rendered = append(s.rendered, page)
		s.renderMu.Unlock()

		ev := synchub.NewEvent(synchub.EventReaderPage)
		ev.BookID = s.BookID
		ev.SessionID = s.ID
		ev.Page = num
		ev.PageCount = s.pageCount
		m.publish(ev)
	}
}

// State reports the current session, or ErrNoSession.
func (m *Manager) State() (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil, ErrNoSession
	}
	return m.stateLocked(), nil
}

// Next turns one page forward.
func (m *Manager) Next(ctx context.Context) (*State, error) {
	return m.turn(ctx, func(v EPUBView) { v.Next() })
}

// Prev turns one page back.
func (m *Manager) Prev(ctx context.Context) (*State, error) {
	return m.turn(ctx, func(v EPUBView) { v.Prev() })
}

// Swipe applies a horizontal gesture: leftward travel past the
// threshold advances, rightward retreats, anything shorter is ignored.
func (m *Manager) Swipe(ctx context.Context, deltaX float64) (*State, error) {
	if math.Abs(deltaX) <= swipeThreshold {
		return m.State()
	}
	if deltaX < 0 {
		return m.Next(ctx)
	}
	return m.Prev(ctx)
}

func (m *Manager) turn(ctx context.Context, move func(EPUBView)) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.active
	if s == nil {
		return nil, ErrNoSession
	}
	if s.Format != models.FormatEPUB {
		return nil, ErrWrongFormat
	}

	move(s.epubView)
	if err := s.tracker.RecordLocator(ctx, s.epubView.Locator()); err != nil {
		return nil, err
	}
	m.publishRelocated(s)
	return m.stateLocked(), nil
}

// GotoLocator displays the page a previously issued locator points at.
func (m *Manager) GotoLocator(ctx context.Context, locator string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.active
	if s == nil {
		return nil, ErrNoSession
	}
	if s.Format != models.FormatEPUB {
		return nil, ErrWrongFormat
	}

	if err := s.epubView.DisplayAt(locator); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadLocator, err)
	}
	if err := s.tracker.RecordLocator(ctx, s.epubView.Locator()); err != nil {
		return nil, err
	}
	m.publishRelocated(s)
	return m.stateLocked(), nil
}

// Scroll records the current offset of the linear view. Persistence is
// debounced; the in-memory state updates immediately.
func (m *Manager) Scroll(_ context.Context, offset int64) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.active
	if s == nil {
		return nil, ErrNoSession
	}
	if s.Format != models.FormatPlainText {
		return nil, ErrWrongFormat
	}

	if offset < 0 {
		offset = 0
	}
	s.scroll = offset
	s.tracker.RecordOffset(offset)
	return m.stateLocked(), nil
}

// Search runs a full-text search over the open EPUB: previous
// highlights are cleared, all matches highlighted, and the view jumps
// to the first. epub.ErrNoResults when nothing matched.
func (m *Manager) Search(ctx context.Context, query string) ([]epub.Match, *State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.active
	if s == nil {
		return nil, nil, ErrNoSession
	}
	if s.Format != models.FormatEPUB {
		return nil, nil, ErrWrongFormat
	}

	matches, err := s.epubView.Search(query)
	if err != nil {
		if errors.Is(err, epub.ErrNoResults) {
			return nil, nil, err
		}
		return nil, nil, &RenderError{Format: models.FormatEPUB, Err: err}
	}

	if err := s.tracker.RecordLocator(ctx, s.epubView.Locator()); err != nil {
		return nil, nil, err
	}
	m.publishRelocated(s)
	return matches, m.stateLocked(), nil
}

// Text returns the current display content: the open page for EPUB,
// the whole document for plain text.
func (m *Manager) Text() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.active
	if s == nil {
		return "", ErrNoSession
	}
	switch s.Format {
	case models.FormatEPUB:
		return s.epubView.PageText(), nil
	case models.FormatPlainText:
		return s.text, nil
	default:
		return "", ErrWrongFormat
	}
}

// Page returns one rendered PDF page, if the sequential render has
// produced it yet.
func (m *Manager) Page(num int) (*pdf.RenderedPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.active
	if s == nil {
		return nil, ErrNoSession
	}
	if s.Format != models.FormatPDF {
		return nil, ErrWrongFormat
	}
	if num < 1 || num > s.pageCount {
		return nil, fmt.Errorf("%w: page %d of %d", ErrBadLocator, num, s.pageCount)
	}

	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	if num > len(s.rendered) {
		if s.renderErr != "" {
			return nil, &RenderError{Format: models.FormatPDF, Err: errors.New(s.renderErr)}
		}
		return nil, ErrPageNotReady
	}
	return s.rendered[num-1], nil
}

// Close tears the active session down and returns to the catalog.
func (m *Manager) Close(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return ErrNoSession
	}
	m.closeActiveLocked()
	return nil
}

// closeActiveLocked detaches everything the active session owns:
// pending debounced writes are cancelled first, then the render
// goroutine, then the engine handle.
func (m *Manager) closeActiveLocked() {
	s := m.active
	if s == nil {
		return
	}
	m.active = nil

	if s.tracker != nil {
		s.tracker.Close()
	}
	if s.cancelRender != nil {
		s.cancelRender()
	}
	if s.epubView != nil {
		_ = s.epubView.Close()
	}

	ev := synchub.NewEvent(synchub.EventReaderClosed)
	ev.BookID = s.BookID
	ev.SessionID = s.ID
	m.publish(ev)
	m.publish(synchub.NewEvent(synchub.EventCatalogRefresh))
}

func (m *Manager) stateLocked() *State {
	s := m.active
	st := &State{
		SessionID: s.ID,
		BookID:    s.BookID,
		Title:     s.Title,
		Format:    s.Format.String(),
	}
	switch s.Format {
	case models.FormatEPUB:
		st.Page = s.epubView.CurrentPage()
		st.PageCount = s.epubView.PageCount()
		st.Locator = s.epubView.Locator()
	case models.FormatPDF:
		st.PageCount = s.pageCount
		s.renderMu.Lock()
		st.RenderedPages = len(s.rendered)
		st.RenderError = s.renderErr
		s.renderMu.Unlock()
		st.Page = st.RenderedPages
	case models.FormatPlainText:
		st.ScrollOffset = s.scroll
	}
	return st
}

func (m *Manager) publishRelocated(s *Session) {
	ev := synchub.NewEvent(synchub.EventReaderRelocated)
	ev.BookID = s.BookID
	ev.SessionID = s.ID
	ev.Locator = s.epubView.Locator()
	ev.Page = s.epubView.CurrentPage()
	ev.PageCount = s.epubView.PageCount()
	m.publish(ev)
}

func (m *Manager) publish(ev synchub.Event) {
	if m.Hub != nil {
		m.Hub.Publish(ev)
	}
}
