package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/bookstore/internal/database"
	"github.com/safar/bookstore/internal/models"
)

const bookColumns = `book_id, title, author, price, image_url, description, rating`

type BookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{db: db}
}

func (r *BookRepository) ListBooks(ctx context.Context) ([]models.Book, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY book_id`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, *book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return books, nil
}

func (r *BookRepository) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	if id <= 0 || id > maxKey {
		return nil, database.ErrBookNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE book_id = $1`, id)

	book, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	return book, nil
}

// CreateBook inserts a catalog entry. It is used by seeding only; the HTTP
// surface never writes books.
func CreateBook(ctx context.Context, q database.Querier, b models.Book) (*models.Book, error) {
	row := q.QueryRowContext(ctx,
		`INSERT INTO books (title, author, price, image_url, description, rating)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+bookColumns,
		b.Title, b.Author, b.Price, b.ImageURL, b.Description, b.Rating)

	book, err := scanBook(row)
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	return book, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(s rowScanner) (*models.Book, error) {
	book := &models.Book{}
	err := s.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Price,
		&book.ImageURL,
		&book.Description,
		&book.Rating,
	)
	if err != nil {
		return nil, err
	}
	return book, nil
}
