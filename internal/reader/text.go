package reader

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeText decodes a plain-text book as UTF-8, stripping a leading
// BOM if one is present. Invalid sequences become replacement runes
// rather than failing the whole book.
func decodeText(data []byte) (string, error) {
	decoder := unicode.UTF8BOM.NewDecoder()
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}
