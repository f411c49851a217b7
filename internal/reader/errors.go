package reader

import (
	"errors"
	"fmt"

	"bookhub/pkg/models"
)

var (
	// ErrNoSession means no book is open.
	ErrNoSession = errors.New("no open book")
	// ErrUnsupportedFormat means the content type matches none of the
	// known strategies. Surfaced as an explicit notice, never a blank
	// view.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrWrongFormat means the operation does not apply to the open
	// book's strategy (e.g. search on a PDF).
	ErrWrongFormat = errors.New("operation not available for this format")
)

// RenderError wraps an engine failure during construction, load or
// page render. Handlers turn it into a readable error body with a path
// back to the catalog; raw engine errors never reach the surface.
type RenderError struct {
	Format models.Format
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
