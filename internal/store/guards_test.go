package store

import (
	"context"
	"testing"

	"github.com/safar/bookstore/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The repositories below have no database: every call must be answered
// before a query is issued.

const beyondInt4 = 3000000000

func TestAddToCart_ValuesBeyondColumnRange(t *testing.T) {
	carts := NewCartRepository(nil)
	ctx := context.Background()

	_, _, err := carts.AddToCart(ctx, 1, beyondInt4, 1)
	require.True(t, database.IsValidation(err))
	assert.Contains(t, err.Error(), "Book does not exist")

	_, _, err = carts.AddToCart(ctx, 1, 1, beyondInt4)
	require.True(t, database.IsValidation(err))
	assert.Contains(t, err.Error(), "Invalid quantity")

	_, _, err = carts.AddToCart(ctx, 1, 1, MaxQuantity+1)
	assert.True(t, database.IsValidation(err))
}

func TestUpdateQuantity_ValuesBeyondColumnRange(t *testing.T) {
	carts := NewCartRepository(nil)
	ctx := context.Background()

	_, err := carts.UpdateQuantity(ctx, 1, 1, beyondInt4)
	assert.True(t, database.IsValidation(err))

	n, err := carts.UpdateQuantity(ctx, 1, beyondInt4, 2)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRemoveLine_CartIDBeyondColumnRange(t *testing.T) {
	n, err := NewCartRepository(nil).RemoveLine(context.Background(), 1, beyondInt4)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLookupsBeyondColumnRangeAreNotFound(t *testing.T) {
	ctx := context.Background()

	_, err := NewBookRepository(nil).GetBook(ctx, beyondInt4)
	assert.ErrorIs(t, err, database.ErrBookNotFound)

	_, err = NewOrderRepository(nil).GetOrder(ctx, 1, beyondInt4)
	assert.ErrorIs(t, err, database.ErrOrderNotFound)

	cursor := EncodeCursor(OrderCursor{ID: beyondInt4})
	_, err = NewOrderRepository(nil).ListOrders(ctx, 1, cursor, 10)
	assert.True(t, database.IsValidation(err))
}
