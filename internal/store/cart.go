package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/lib/pq"
	"github.com/safar/bookstore/internal/database"
	"github.com/safar/bookstore/internal/models"
)

const cartBookForeignKey = "cart_items_book_id_fkey"

// Keys and quantities are INTEGER columns.
const (
	maxKey = math.MaxInt32

	// MaxQuantity caps the quantity a single request may add or set.
	MaxQuantity = 9999
)

func invalidQuantity(quantity int) bool {
	return quantity < 1 || quantity > MaxQuantity
}

type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

// ListCart returns the user's cart lines, most recently added first.
func (r *CartRepository) ListCart(ctx context.Context, userID int64) ([]models.CartItem, error) {
	query := `
		SELECT c.cart_id, c.quantity, c.created_at,
		       b.book_id, b.title, b.author, b.price, b.image_url
		FROM cart_items c
		JOIN books b ON c.book_id = b.book_id
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC, c.cart_id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		err := rows.Scan(
			&item.CartID,
			&item.Quantity,
			&item.CreatedAt,
			&item.BookID,
			&item.Title,
			&item.Author,
			&item.Price,
			&item.ImageURL,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// AddToCart inserts a line for (userID, bookID) or, when one exists, adds
// quantity to it. created reports which of the two happened.
func (r *CartRepository) AddToCart(ctx context.Context, userID, bookID int64, quantity int) (cartID int64, created bool, err error) {
	if bookID <= 0 {
		return 0, false, database.NewValidationError("bookId", "Book ID required")
	}
	if bookID > maxKey {
		return 0, false, database.NewValidationError("bookId", "Book does not exist")
	}
	if invalidQuantity(quantity) {
		return 0, false, database.NewValidationError("quantity", "Invalid quantity")
	}

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO cart_items (user_id, book_id, quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, book_id)
		 DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		 RETURNING cart_id, (xmax = 0) AS inserted`,
		userID, bookID, quantity).Scan(&cartID, &created)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == database.CodeForeignKeyViolation && pqErr.Constraint == cartBookForeignKey {
			return 0, false, database.NewValidationError("bookId", "Book does not exist")
		}
		if database.HasCode(err, database.CodeNumericOutOfRange) {
			return 0, false, database.NewValidationError("quantity", "Invalid quantity")
		}
		return 0, false, fmt.Errorf("add to cart: %w", err)
	}

	return cartID, created, nil
}

// UpdateQuantity sets the quantity of a line owned by userID. A line that is
// missing or owned by someone else is left alone and reported as zero rows.
func (r *CartRepository) UpdateQuantity(ctx context.Context, userID, cartID int64, quantity int) (int64, error) {
	if invalidQuantity(quantity) {
		return 0, database.NewValidationError("quantity", "Invalid quantity")
	}
	if cartID <= 0 || cartID > maxKey {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $1 WHERE cart_id = $2 AND user_id = $3`,
		quantity, cartID, userID)
	if err != nil {
		return 0, fmt.Errorf("update cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// RemoveLine deletes a line owned by userID; anything else is a no-op.
func (r *CartRepository) RemoveLine(ctx context.Context, userID, cartID int64) (int64, error) {
	if cartID <= 0 || cartID > maxKey {
		return 0, nil
	}
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND user_id = $2`,
		cartID, userID)
	if err != nil {
		return 0, fmt.Errorf("remove cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	return rowsAffected, nil
}
