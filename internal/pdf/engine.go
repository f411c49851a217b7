// Package pdf adapts the external PDF engine (ledongthuc/pdf) to the
// reader's contract: decode bytes into a page-addressable document and
// render one page at a time at a given scale.
package pdf

import (
	"bytes"
	"fmt"

	lpdf "github.com/ledongthuc/pdf"
)

// US Letter, the engine's fallback when a page declares no media box.
const (
	defaultPageWidth  = 612
	defaultPageHeight = 792
)

// Document is a decoded, page-addressable PDF.
type Document struct {
	reader *lpdf.Reader
	pages  int
}

// Decode parses raw bytes into a document handle. Corrupt data fails
// here, before any page work starts.
func Decode(data []byte) (*Document, error) {
	r, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("decode pdf: %w", err)
	}
	return &Document{reader: r, pages: r.NumPage()}, nil
}

func (d *Document) PageCount() int { return d.pages }

// RenderedPage is one page's drawable output: extracted text plus the
// viewport dimensions at the requested scale.
type RenderedPage struct {
	Number int     `json:"number"`
	Text   string  `json:"text"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`
}

// RenderPage rasterizes a single page (1-based) at the given scale.
func (d *Document) RenderPage(num int, scale float64) (*RenderedPage, error) {
	if num < 1 || num > d.pages {
		return nil, fmt.Errorf("page %d out of range 1..%d", num, d.pages)
	}

	page := d.reader.Page(num)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d is unreadable", num)
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", num, err)
	}

	width, height := pageSize(page)
	return &RenderedPage{
		Number: num,
		Text:   text,
		Width:  width * scale,
		Height: height * scale,
		Scale:  scale,
	}, nil
}

func pageSize(page lpdf.Page) (width, height float64) {
	box := page.V.Key("MediaBox")
	if box.Len() != 4 {
		return defaultPageWidth, defaultPageHeight
	}
	width = box.Index(2).Float64() - box.Index(0).Float64()
	height = box.Index(3).Float64() - box.Index(1).Float64()
	if width <= 0 || height <= 0 {
		return defaultPageWidth, defaultPageHeight
	}
	return width, height
}
