package store

import (
	"math"
	"testing"
	"time"

	"github.com/safar/bookstore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	in := OrderCursor{CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), ID: 42}

	out, err := DecodeCursor(EncodeCursor(in))
	require.NoError(t, err)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.ID, out.ID)
}

func TestDecodeEmptyCursorStartsAtNewest(t *testing.T) {
	cursor, err := DecodeCursor("")
	require.NoError(t, err)
	assert.True(t, cursor.CreatedAt.After(time.Now()))
	assert.Equal(t, int64(math.MaxInt32), cursor.ID)
}

func TestDecodeInvalidCursor(t *testing.T) {
	_, err := DecodeCursor("not base64!")
	assert.Error(t, err)

	_, err = DecodeCursor("bm90IGpzb24")
	assert.Error(t, err)
}

func TestDecodeCursorRejectsIDBeyondKeyRange(t *testing.T) {
	encoded := EncodeCursor(OrderCursor{CreatedAt: time.Now(), ID: 3000000000})

	_, err := DecodeCursor(encoded)
	assert.ErrorIs(t, err, errCursorOutOfRange)

	_, err = DecodeCursor(EncodeCursor(OrderCursor{CreatedAt: time.Now(), ID: -1}))
	assert.ErrorIs(t, err, errCursorOutOfRange)
}

func TestCursorAfterUsesLastOrder(t *testing.T) {
	created := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	cursor := cursorAfter(models.Order{ID: 12, CreatedAt: created})

	assert.Equal(t, int64(12), cursor.ID)
	assert.True(t, created.Equal(cursor.CreatedAt))
}
