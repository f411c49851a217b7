// Package epub adapts the external EPUB engine (tabula/epubdoc) to the
// reader's paginated-view contract: metadata extraction, pagination
// primitives, locators and full-text search.
package epub

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tsawler/tabula/epubdoc"
	"golang.org/x/net/html"
)

// ErrNoResults reports a search that matched nothing.
var ErrNoResults = errors.New("no results")

// ExtractTitle opens the archive in metadata-only mode and returns the
// declared title. Callers treat any failure as "no embedded title".
func ExtractTitle(data []byte) (string, error) {
	r, err := epubdoc.OpenReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open epub: %w", err)
	}
	defer r.Close()

	title := strings.TrimSpace(r.Metadata().Title)
	if title == "" {
		return "", errors.New("epub metadata has no title")
	}
	return title, nil
}

// Match is one search hit. Locator points at the hit so the view can
// jump straight to it.
type Match struct {
	Locator string `json:"locator"`
	Excerpt string `json:"excerpt"`
	Page    int    `json:"page"`
}

// View is a paginated rendering surface over one open EPUB. Pages are
// the linear reading-order content documents; the view owns the current
// page and the active search highlights.
type View struct {
	reader     *epubdoc.Reader
	pages      []string // plain text per spine item
	page       int      // current page, zero-based
	highlights []Match
}

// Open builds a paginated view from raw bytes. The engine owns all
// layout work; we only keep extracted page text for display and search.
func Open(data []byte) (*View, error) {
	r, err := epubdoc.OpenReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open epub: %w", err)
	}

	chapters := r.Chapters()
	if len(chapters) == 0 {
		_ = r.Close()
		return nil, errors.New("epub has no readable content")
	}

	pages := make([]string, 0, len(chapters))
	for _, ch := range chapters {
		pages = append(pages, flattenXHTML(ch.Content))
	}

	return &View{reader: r, pages: pages}, nil
}

func (v *View) Close() error {
	return v.reader.Close()
}

func (v *View) PageCount() int { return len(v.pages) }

// CurrentPage is the displayed page number, 1-based.
func (v *View) CurrentPage() int { return v.page + 1 }

// Locator returns the opaque locator for the current position.
func (v *View) Locator() string {
	return fmt.Sprintf("spine:%d", v.page)
}

// PageText returns the current page's text content.
func (v *View) PageText() string {
	return v.pages[v.page]
}

// DisplayAt navigates to a locator previously issued by this engine.
func (v *View) DisplayAt(locator string) error {
	page, _, err := parseLocator(locator)
	if err != nil {
		return err
	}
	if page < 0 || page >= len(v.pages) {
		return fmt.Errorf("locator out of range: %s", locator)
	}
	v.page = page
	return nil
}

// Next advances one page, clamping at the end like the engine's own
// pagination primitive.
func (v *View) Next() {
	if v.page < len(v.pages)-1 {
		v.page++
	}
}

func (v *View) Prev() {
	if v.page > 0 {
		v.page--
	}
}

// Search clears prior highlights, finds every case-insensitive match,
// highlights them all and jumps to the first. ErrNoResults when the
// query matches nothing.
func (v *View) Search(query string) ([]Match, error) {
	v.highlights = nil

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrNoResults
	}
	needle := strings.ToLower(query)

	var matches []Match
	for i, text := range v.pages {
		lower := strings.ToLower(text)
		at := 0
		for {
			idx := strings.Index(lower[at:], needle)
			if idx < 0 {
				break
			}
			pos := at + idx
			matches = append(matches, Match{
				Locator: fmt.Sprintf("spine:%d@%d", i, pos),
				Excerpt: excerpt(text, pos, len(needle)),
				Page:    i + 1,
			})
			at = pos + len(needle)
		}
	}

	if len(matches) == 0 {
		return nil, ErrNoResults
	}

	v.highlights = matches
	if err := v.DisplayAt(matches[0].Locator); err != nil {
		return nil, err
	}
	return matches, nil
}

// Highlights returns the matches from the most recent search.
func (v *View) Highlights() []Match { return v.highlights }

// parseLocator understands "spine:<page>" with an optional "@<offset>"
// tail pointing inside the page.
func parseLocator(locator string) (page, offset int, err error) {
	rest, ok := strings.CutPrefix(locator, "spine:")
	if !ok {
		return 0, 0, fmt.Errorf("unrecognized locator: %s", locator)
	}
	pagePart, offsetPart, hasOffset := strings.Cut(rest, "@")
	page, err = strconv.Atoi(pagePart)
	if err != nil {
		return 0, 0, fmt.Errorf("unrecognized locator: %s", locator)
	}
	if hasOffset {
		offset, err = strconv.Atoi(offsetPart)
		if err != nil {
			return 0, 0, fmt.Errorf("unrecognized locator: %s", locator)
		}
	}
	return page, offset, nil
}

func excerpt(text string, pos, length int) string {
	const margin = 40
	start := pos - margin
	if start < 0 {
		start = 0
	}
	end := pos + length + margin
	if end > len(text) {
		end = len(text)
	}
	return strings.Join(strings.Fields(text[start:end]), " ")
}

// flattenXHTML reduces a content document to whitespace-normalized
// plain text, skipping script and style subtrees.
func flattenXHTML(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		// Malformed markup still renders as raw text rather than
		// dropping the page.
		return strings.Join(strings.Fields(string(content)), " ")
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(sb.String()), " ")
}
