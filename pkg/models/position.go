package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type PositionKind int

const (
	// PositionLocator is an opaque pagination locator issued by a
	// rendering engine (paginated formats).
	PositionLocator PositionKind = iota + 1
	// PositionOffset is a scroll offset in the display surface
	// (linear formats).
	PositionOffset
)

// Position is a reading-position marker. Exactly one representation is
// populated, determined by the book's format; a locator must never be
// read as an offset or vice versa.
type Position struct {
	Kind    PositionKind
	Locator string
	Offset  int64
}

func LocatorPosition(locator string) Position {
	return Position{Kind: PositionLocator, Locator: locator}
}

func OffsetPosition(offset int64) Position {
	return Position{Kind: PositionOffset, Offset: offset}
}

// MarshalJSON encodes a locator as a JSON string and an offset as a
// JSON number, matching what each renderer hands back.
func (p Position) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PositionLocator:
		return json.Marshal(p.Locator)
	case PositionOffset:
		return json.Marshal(p.Offset)
	default:
		return nil, fmt.Errorf("position has no kind")
	}
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode position: %w", err)
	}
	switch t := v.(type) {
	case string:
		*p = LocatorPosition(t)
	case float64:
		*p = OffsetPosition(int64(t))
	default:
		return fmt.Errorf("position must be a string or a number, got %T", v)
	}
	return nil
}

// Value stores the JSON encoding in a single TEXT column.
func (p Position) Value() (driver.Value, error) {
	b, err := p.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *Position) Scan(src any) error {
	switch t := src.(type) {
	case string:
		return p.UnmarshalJSON([]byte(t))
	case []byte:
		return p.UnmarshalJSON(t)
	default:
		return fmt.Errorf("scan position: unsupported type %T", src)
	}
}
