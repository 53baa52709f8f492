package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/safar/bookstore/internal/database"
	"github.com/safar/bookstore/internal/events"
	"github.com/safar/bookstore/internal/models"
	"github.com/safar/bookstore/internal/store"
	"github.com/shopspring/decimal"
)

type fakeCatalog struct {
	books []models.Book
	err   error
}

func (f *fakeCatalog) ListBooks(context.Context) ([]models.Book, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.books, nil
}

func (f *fakeCatalog) GetBook(_ context.Context, id int64) (*models.Book, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.books {
		if f.books[i].ID == id {
			b := f.books[i]
			return &b, nil
		}
	}
	return nil, database.ErrBookNotFound
}

// fakeCarts keeps lines per user and mirrors the repository's validation.
type fakeCarts struct {
	mu     sync.Mutex
	nextID int64
	lines  map[int64][]models.CartItem
	books  map[int64]models.Book
}

func newFakeCarts(books ...models.Book) *fakeCarts {
	f := &fakeCarts{lines: map[int64][]models.CartItem{}, books: map[int64]models.Book{}}
	for _, b := range books {
		f.books[b.ID] = b
	}
	return f
}

func (f *fakeCarts) ListCart(_ context.Context, userID int64) ([]models.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := append([]models.CartItem{}, f.lines[userID]...)
	return items, nil
}

func (f *fakeCarts) AddToCart(_ context.Context, userID, bookID int64, quantity int) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if quantity < 1 || quantity > store.MaxQuantity {
		return 0, false, database.NewValidationError("quantity", "Invalid quantity")
	}
	book, ok := f.books[bookID]
	if !ok {
		return 0, false, database.NewValidationError("bookId", "Book does not exist")
	}
	for i, line := range f.lines[userID] {
		if line.BookID == bookID {
			f.lines[userID][i].Quantity += quantity
			return line.CartID, false, nil
		}
	}
	f.nextID++
	f.lines[userID] = append(f.lines[userID], models.CartItem{
		CartID:   f.nextID,
		Quantity: quantity,
		BookID:   bookID,
		Title:    book.Title,
		Author:   book.Author,
		Price:    book.Price,
	})
	return f.nextID, true, nil
}

func (f *fakeCarts) UpdateQuantity(_ context.Context, userID, cartID int64, quantity int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if quantity < 1 || quantity > store.MaxQuantity {
		return 0, database.NewValidationError("quantity", "Invalid quantity")
	}
	for i, line := range f.lines[userID] {
		if line.CartID == cartID {
			f.lines[userID][i].Quantity = quantity
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeCarts) RemoveLine(_ context.Context, userID, cartID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, line := range f.lines[userID] {
		if line.CartID == cartID {
			f.lines[userID] = append(f.lines[userID][:i], f.lines[userID][i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeOrders struct {
	placeErr error
	placed   *models.Order
	lastReq  store.PlaceOrderRequest
	orders   map[int64]*models.Order
	page     *store.CursorPage
	lastPage struct {
		cursor string
		limit  int
	}
}

func (f *fakeOrders) PlaceOrder(_ context.Context, userID int64, req store.PlaceOrderRequest) (*models.Order, error) {
	f.lastReq = req
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	o := *f.placed
	o.UserID = userID
	return &o, nil
}

func (f *fakeOrders) GetOrder(_ context.Context, userID, orderID int64) (*models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, database.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrders) ListOrders(_ context.Context, _ int64, cursor string, limit int) (*store.CursorPage, error) {
	f.lastPage.cursor = cursor
	f.lastPage.limit = limit
	if f.page == nil {
		return &store.CursorPage{Items: []models.Order{}}, nil
	}
	return f.page, nil
}

type fakeUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[int64]*models.User{}}
}

func (f *fakeUsers) CreateUser(_ context.Context, username, email, hash string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Username == username || u.Email == email {
			return nil, database.ErrDuplicateUser
		}
	}
	f.nextID++
	u := &models.User{ID: f.nextID, Username: username, Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, database.ErrUserNotFound
}

func (f *fakeUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return database.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return database.ErrUserNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	events []events.OrderPlaced
}

func (f *fakePublisher) PublishOrderPlaced(_ context.Context, e events.OrderPlaced) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.err
}

func (f *fakePublisher) Close() error { return nil }

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

var errStorage = errors.New("connection refused")

func testBooks() []models.Book {
	return []models.Book{
		{ID: 1, Title: "Dune", Author: "Frank Herbert", Price: decimal.RequireFromString("10.00"), Rating: decimal.RequireFromString("4.5")},
		{ID: 2, Title: "Emma", Author: "Jane Austen", Price: decimal.RequireFromString("2.50"), Rating: decimal.RequireFromString("4.1")},
	}
}
