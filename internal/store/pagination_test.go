package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), ID: 42}

	decoded, err := DecodeCursor(EncodeCursor(c))
	require.NoError(t, err)
	assert.True(t, c.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, int64(42), decoded.ID)
}

func TestDecodeCursorInvalid(t *testing.T) {
	_, err := DecodeCursor("%%%not-base64")
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestDecodeCursorEmptyStartsAtTop(t *testing.T) {
	c, err := DecodeCursor("")
	require.NoError(t, err)
	assert.True(t, c.CreatedAt.After(time.Now()))
}

func TestNewOffsetPage(t *testing.T) {
	p := newOffsetPage[int](nil, 21, 2, 10)
	assert.Equal(t, 3, p.TotalPages)
	assert.NotNil(t, p.Items)
}
