package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/bookstore/internal/database"
	"github.com/safar/bookstore/internal/models"
)

type OrderRepository struct {
	db   *sql.DB
	opts database.TxOptions
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db, opts: database.DefaultTxOptions()}
}

// PlaceOrder turns the user's cart into a confirmed order in one transaction:
// the cart rows are locked and read, the order and its price-snapshot lines are
// inserted and the cart is emptied. Any failure rolls all of it back, leaving
// the cart as it was.
//
// Cart rows are read with FOR UPDATE, so a concurrent checkout for the same
// user waits for this one and then finds the cart empty.
func (r *OrderRepository) PlaceOrder(ctx context.Context, userID int64, req PlaceOrderRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	cardLastFour, err := RedactCardNumber(req.CardNumber)
	if err != nil {
		return nil, err
	}

	var order *models.Order

	err = database.WithRetry(ctx, r.db, r.opts, func(tx *sql.Tx) error {
		items, err := lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return database.ErrEmptyCart
		}

		totals := ComputeTotals(items).Rounded()
		shipping := req.shipping()

		o := &models.Order{
			UserID:       userID,
			Subtotal:     totals.Subtotal,
			Tax:          totals.Tax,
			TotalAmount:  totals.Total,
			Shipping:     shipping,
			CardLastFour: cardLastFour,
			Status:       models.OrderStatusConfirmed,
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (
				user_id, total_amount, subtotal, tax,
				shipping_name, shipping_address, shipping_city, shipping_state, shipping_zip,
				card_last_four, order_status
			 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 RETURNING order_id, created_at`,
			userID, o.TotalAmount, o.Subtotal, o.Tax,
			shipping.Name, shipping.Address, shipping.City, shipping.State, shipping.Zip,
			cardLastFour, o.Status).Scan(&o.ID, &o.CreatedAt)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, item := range items {
			line := models.OrderItem{
				OrderID:         o.ID,
				BookID:          item.BookID,
				Quantity:        item.Quantity,
				PriceAtPurchase: item.Price,
			}
			err := tx.QueryRowContext(ctx,
				`INSERT INTO order_items (order_id, book_id, quantity, price_at_purchase)
				 VALUES ($1, $2, $3, $4)
				 RETURNING order_item_id`,
				line.OrderID, line.BookID, line.Quantity, line.PriceAtPurchase).Scan(&line.ID)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
			o.Items = append(o.Items, line)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func lockCart(ctx context.Context, tx *sql.Tx, userID int64) ([]models.CartItem, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT c.cart_id, c.quantity, c.created_at,
		        b.book_id, b.title, b.author, b.price, b.image_url
		 FROM cart_items c
		 JOIN books b ON c.book_id = b.book_id
		 WHERE c.user_id = $1
		 ORDER BY c.cart_id
		 FOR UPDATE OF c`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}
	defer rows.Close()

	var items []models.CartItem
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

const orderColumns = `order_id, user_id, subtotal, tax, total_amount,
	shipping_name, shipping_address, shipping_city, shipping_state, shipping_zip,
	card_last_four, order_status, created_at`

func scanOrder(s rowScanner) (*models.Order, error) {
	order := &models.Order{}
	err := s.Scan(
		&order.ID,
		&order.UserID,
		&order.Subtotal,
		&order.Tax,
		&order.TotalAmount,
		&order.Shipping.Name,
		&order.Shipping.Address,
		&order.Shipping.City,
		&order.Shipping.State,
		&order.Shipping.Zip,
		&order.CardLastFour,
		&order.Status,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder returns one of userID's orders with its lines. Orders belonging to
// other users are reported as not found.
func (r *OrderRepository) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	if orderID <= 0 || orderID > maxKey {
		return nil, database.ErrOrderNotFound
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_id = $1 AND user_id = $2`,
		orderID, userID)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT order_item_id, order_id, book_id, quantity, price_at_purchase
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY order_item_id`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.BookID,
			&item.Quantity,
			&item.PriceAtPurchase,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return order, nil
}

// ListOrders pages through userID's orders, newest first.
func (r *OrderRepository) ListOrders(ctx context.Context, userID int64, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, database.NewValidationError("cursor", "Invalid cursor")
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		  AND (created_at, order_id) < ($2, $3)
		ORDER BY created_at DESC, order_id DESC
		LIMIT $4`

	rows, err := r.db.QueryContext(ctx, query, userID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		nextCursor = EncodeCursor(cursorAfter(orders[len(orders)-1]))
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}
