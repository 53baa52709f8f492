// Package api exposes the bookstore over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/safar/bookstore/internal/auth"
	"github.com/safar/bookstore/internal/events"
	"github.com/safar/bookstore/internal/models"
	"github.com/safar/bookstore/internal/store"
	"github.com/safar/bookstore/internal/telemetry"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

type Catalog interface {
	ListBooks(ctx context.Context) ([]models.Book, error)
	GetBook(ctx context.Context, id int64) (*models.Book, error)
}

type CartStore interface {
	ListCart(ctx context.Context, userID int64) ([]models.CartItem, error)
	AddToCart(ctx context.Context, userID, bookID int64, quantity int) (int64, bool, error)
	UpdateQuantity(ctx context.Context, userID, cartID int64, quantity int) (int64, error)
	RemoveLine(ctx context.Context, userID, cartID int64) (int64, error)
}

type OrderStore interface {
	PlaceOrder(ctx context.Context, userID int64, req store.PlaceOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error)
	ListOrders(ctx context.Context, userID int64, cursor string, limit int) (*store.CursorPage, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
	DeleteUser(ctx context.Context, id int64) error
}

// Pinger reports database reachability for the health check.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Catalog   Catalog
	Carts     CartStore
	Orders    OrderStore
	Users     UserStore
	Sessions  *auth.Sessions
	Publisher events.Publisher
	Metrics   *telemetry.CheckoutMetrics
	DB        Pinger
	Logger    *slog.Logger
}

type Server struct {
	catalog   Catalog
	carts     CartStore
	orders    OrderStore
	users     UserStore
	sessions  *auth.Sessions
	publisher events.Publisher
	metrics   *telemetry.CheckoutMetrics
	db        Pinger
	logger    *slog.Logger
}

func NewServer(d Deps) *Server {
	publisher := d.Publisher
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Server{
		catalog:   d.Catalog,
		carts:     d.Carts,
		orders:    d.Orders,
		users:     d.Users,
		sessions:  d.Sessions,
		publisher: publisher,
		metrics:   d.Metrics,
		db:        d.DB,
		logger:    d.Logger,
	}
}

type RouterOptions struct {
	RequestTimeout time.Duration
	MetricsHandler http.Handler
	// StaticDir, when set, is served for every path no API route claims.
	StaticDir string
}

func (s *Server) Routes(opts RouterOptions) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(s.sessions.Middleware)
	r.Use(tagRoute)

	r.Get("/healthz", s.handleHealth)
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Get("/books", s.handleListBooks)
	r.Get("/books/{id}", s.handleGetBook)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/current-user", s.handleCurrentUser)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)
			r.Post("/change-password", s.handleChangePassword)
			r.Delete("/delete-account", s.handleDeleteAccount)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", s.handleGetCart)
			r.Post("/", s.handleAddToCart)
			r.Put("/{cartId}", s.handleUpdateCartItem)
			r.Delete("/{cartId}", s.handleRemoveCartItem)
		})

		r.Post("/checkout/create-order", s.handleCreateOrder)

		r.Get("/orders", s.handleListOrders)
		r.Get("/orders/{id}", s.handleGetOrder)
	})

	if opts.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
	}

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// tagRoute names the active span after the matched chi pattern once routing
// has happened, which the outer otelhttp handler cannot see.
func tagRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)

		rctx := chi.RouteContext(r.Context())
		if rctx == nil {
			return
		}
		if pattern := rctx.RoutePattern(); pattern != "" {
			span := trace.SpanFromContext(r.Context())
			span.SetName(r.Method + " " + pattern)
			span.SetAttributes(semconv.HTTPRoute(pattern))
		}
	})
}
