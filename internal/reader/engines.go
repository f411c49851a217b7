package reader

import (
	"bookhub/internal/epub"
	"bookhub/internal/pdf"
)

// EPUBView is the paginated rendering surface the session drives. The
// engine owns pagination; the session only calls its primitives.
type EPUBView interface {
	Close() error
	PageCount() int
	CurrentPage() int
	Locator() string
	PageText() string
	DisplayAt(locator string) error
	Next()
	Prev()
	Search(query string) ([]epub.Match, error)
	Highlights() []epub.Match
}

// PDFDocument is a decoded, page-addressable document.
type PDFDocument interface {
	PageCount() int
	RenderPage(num int, scale float64) (*pdf.RenderedPage, error)
}

func openEPUB(data []byte) (EPUBView, error) {
	return epub.Open(data)
}

func openPDF(data []byte) (PDFDocument, error) {
	return pdf.Decode(data)
}
