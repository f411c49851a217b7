package models

import "strings"

// Format is the closed set of rendering strategies. It is computed once
// from the stored content type when a book is opened, instead of
// substring-matching the type string all over the place.
type Format int

const (
	FormatUnsupported Format = iota
	FormatEPUB
	FormatPDF
	FormatPlainText
)

// DetectFormat maps a MIME-like content type to a strategy. EPUB wins
// over PDF, both win over the plain-text fallback.
func DetectFormat(contentType string) Format {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "epub"):
		return FormatEPUB
	case strings.Contains(ct, "pdf"):
		return FormatPDF
	case strings.Contains(ct, "text/plain"):
		return FormatPlainText
	default:
		return FormatUnsupported
	}
}

func (f Format) String() string {
	switch f {
	case FormatEPUB:
		return "epub"
	case FormatPDF:
		return "pdf"
	case FormatPlainText:
		return "text"
	default:
		return "unsupported"
	}
}

// Badge is the catalog label. Anything that is neither EPUB nor PDF
// gets the generic text badge.
func (f Format) Badge() string {
	switch f {
	case FormatEPUB:
		return "EPUB"
	case FormatPDF:
		return "PDF"
	default:
		return "TXT"
	}
}
