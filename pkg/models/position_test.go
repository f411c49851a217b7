package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionJSONLocator(t *testing.T) {
	b, err := json.Marshal(LocatorPosition("spine:3@42"))
	require.NoError(t, err)
	assert.Equal(t, `"spine:3@42"`, string(b))

	var p Position
	require.NoError(t, json.Unmarshal(b, &p))
	assert.Equal(t, PositionLocator, p.Kind)
	assert.Equal(t, "spine:3@42", p.Locator)
}

func TestPositionJSONOffset(t *testing.T) {
	b, err := json.Marshal(OffsetPosition(4200))
	require.NoError(t, err)
	assert.Equal(t, `4200`, string(b))

	var p Position
	require.NoError(t, json.Unmarshal(b, &p))
	assert.Equal(t, PositionOffset, p.Kind)
	assert.Equal(t, int64(4200), p.Offset)
}

func TestPositionJSONRejectsOtherTypes(t *testing.T) {
	var p Position
	assert.Error(t, json.Unmarshal([]byte(`true`), &p))
	assert.Error(t, json.Unmarshal([]byte(`{"page": 3}`), &p))
}

func TestPositionZeroValueHasNoEncoding(t *testing.T) {
	_, err := json.Marshal(Position{})
	assert.Error(t, err)
}

func TestPositionValueScanRoundTrip(t *testing.T) {
	for _, orig := range []Position{
		LocatorPosition("spine:0"),
		OffsetPosition(0),
		OffsetPosition(987654),
	} {
		v, err := orig.Value()
		require.NoError(t, err)

		var got Position
		require.NoError(t, got.Scan(v))
		assert.Equal(t, orig, got)
	}
}
