package store

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/safar/bookstore/internal/models"
)

// CursorPage is one page of a user's order history, newest first.
// NextCursor is set only when HasMore is true and resumes after the last
// order in Items.
type CursorPage struct {
	Items      []models.Order `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}

// OrderCursor is the keyset position of the last order on a page.
type OrderCursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        int64     `json:"id"`
}

var errCursorOutOfRange = errors.New("cursor id out of range")

// cursorAfter positions a cursor just past order.
func cursorAfter(order models.Order) OrderCursor {
	return OrderCursor{CreatedAt: order.CreatedAt, ID: order.ID}
}

// EncodeCursor renders a cursor as opaque URL-safe text.
func EncodeCursor(cursor OrderCursor) string {
	data, err := json.Marshal(cursor)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor parses a cursor produced by EncodeCursor. The empty cursor
// positions before the newest possible order. Ids outside the order_id
// column range are rejected.
func DecodeCursor(encoded string) (OrderCursor, error) {
	if encoded == "" {
		return OrderCursor{CreatedAt: time.Now().Add(time.Hour), ID: maxKey}, nil
	}

	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return OrderCursor{}, err
	}

	var cursor OrderCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return OrderCursor{}, err
	}
	if cursor.ID < 0 || cursor.ID > maxKey {
		return OrderCursor{}, errCursorOutOfRange
	}
	return cursor, nil
}
