// Package seed loads catalog entries from a YAML file into the books table.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/safar/bookstore/internal/database"
	"github.com/safar/bookstore/internal/models"
	"github.com/safar/bookstore/internal/store"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type file struct {
	Books []entry `yaml:"books"`
}

type entry struct {
	Title       string `yaml:"title"`
	Author      string `yaml:"author"`
	Price       string `yaml:"price"`
	ImageURL    string `yaml:"image_url"`
	Description string `yaml:"description"`
	Rating      string `yaml:"rating"`
}

func LoadFile(path string) ([]models.Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses and validates a seed document.
func Decode(r io.Reader) ([]models.Book, error) {
	var doc file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	books := make([]models.Book, 0, len(doc.Books))
	for i, e := range doc.Books {
		book, err := e.toBook()
		if err != nil {
			return nil, fmt.Errorf("book %d (%q): %w", i, e.Title, err)
		}
		books = append(books, book)
	}
	return books, nil
}

func (e entry) toBook() (models.Book, error) {
	if strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.Author) == "" {
		return models.Book{}, fmt.Errorf("title and author are required")
	}

	price, err := decimal.NewFromString(e.Price)
	if err != nil {
		return models.Book{}, fmt.Errorf("parse price: %w", err)
	}
	if price.IsNegative() {
		return models.Book{}, fmt.Errorf("price must not be negative")
	}

	rating := decimal.Zero
	if e.Rating != "" {
		if rating, err = decimal.NewFromString(e.Rating); err != nil {
			return models.Book{}, fmt.Errorf("parse rating: %w", err)
		}
		if rating.IsNegative() || rating.GreaterThan(decimal.NewFromInt(5)) {
			return models.Book{}, fmt.Errorf("rating must be between 0 and 5")
		}
	}

	return models.Book{
		Title:       e.Title,
		Author:      e.Author,
		Price:       price.Round(2),
		ImageURL:    e.ImageURL,
		Description: e.Description,
		Rating:      rating.Round(1),
	}, nil
}

// Insert writes all books in one transaction and returns them with their ids.
func Insert(ctx context.Context, db *sql.DB, books []models.Book) ([]models.Book, error) {
	var created []models.Book

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		created = created[:0]
		for _, b := range books {
			book, err := store.CreateBook(ctx, tx, b)
			if err != nil {
				return err
			}
			created = append(created, *book)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}
