package store_test

import (
	"context"
	"database/sql"
	"strconv"
	"testing"

	"github.com/safar/bookstore/internal/database"
	"github.com/safar/bookstore/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func TestUsers(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	users := store.NewUserRepository(db)

	user, err := users.CreateUser(ctx, "alice", "alice@example.com", "hash-1")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	_, err = users.CreateUser(ctx, "alice", "other@example.com", "hash-2")
	assert.ErrorIs(t, err, database.ErrDuplicateUser)
	_, err = users.CreateUser(ctx, "other", "alice@example.com", "hash-2")
	assert.ErrorIs(t, err, database.ErrDuplicateUser)

	byEmail, err := users.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "hash-1", byEmail.PasswordHash)

	require.NoError(t, users.UpdatePasswordHash(ctx, user.ID, "hash-3"))
	byID, err := users.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash-3", byID.PasswordHash)

	_, err = users.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, database.ErrUserNotFound)
	assert.ErrorIs(t, users.UpdatePasswordHash(ctx, 9999, "x"), database.ErrUserNotFound)
}

func TestDeleteUserCascadesCart(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	users := store.NewUserRepository(db)

	user := createUser(t, db, "alice")
	book := createBook(t, db, "Dune", "10.00")
	_, _, err := store.NewCartRepository(db).AddToCart(ctx, user.ID, book.ID, 1)
	require.NoError(t, err)

	require.NoError(t, users.DeleteUser(ctx, user.ID))
	assert.Equal(t, 0, countRows(t, db, "cart_items"))
	assert.ErrorIs(t, users.DeleteUser(ctx, user.ID), database.ErrUserNotFound)
}

func TestBooks(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	books := store.NewBookRepository(db)

	empty, err := books.ListBooks(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	dune := createBook(t, db, "Dune", "10.00")
	createBook(t, db, "Emma", "2.50")

	all, err := books.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Dune", all[0].Title)

	got, err := books.GetBook(ctx, dune.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.00", got.Price.StringFixed(2))
	assert.Equal(t, "4.0", got.Rating.StringFixed(1))

	_, err = books.GetBook(ctx, 9999)
	assert.ErrorIs(t, err, database.ErrBookNotFound)
}

func TestWithRetry_RollsBackOnError(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()

	calls := 0
	err := database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		calls++
		if _, err := tx.ExecContext(ctx, `INSERT INTO users (username, email, password_hash) VALUES ('x', 'x@example.com', 'h')`); err != nil {
			return err
		}
		return database.ErrEmptyCart
	})
	assert.ErrorIs(t, err, database.ErrEmptyCart)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, countRows(t, db, "users"))
}
