package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/safar/bookstore/internal/api"
	"github.com/safar/bookstore/internal/auth"
	"github.com/safar/bookstore/internal/cache"
	"github.com/safar/bookstore/internal/catalog"
	"github.com/safar/bookstore/internal/config"
	"github.com/safar/bookstore/internal/database"
	"github.com/safar/bookstore/internal/events"
	"github.com/safar/bookstore/internal/store"
	"github.com/safar/bookstore/internal/telemetry"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

const shutdownTimeout = 10 * time.Second

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the bookstore HTTP server.

Configuration is read from the environment (and a .env file when present).
Redis, Kafka and OTLP tracing are enabled only when configured.

Example:
  bookstore serve
  bookstore serve --migrate --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts, migrateFirst)
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")

	return cmd
}

func runServe(ctx context.Context, rootOpts *RootOptions, migrateFirst bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg, rootOpts)

	if cfg.Telemetry.Enabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName, Version)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer shutdownWith(logger, "tracer", shutdownTracer)
	}

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.Telemetry.ServiceName, Version)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer shutdownWith(logger, "meter", shutdownMeter)

	checkoutMetrics, err := telemetry.NewCheckoutMetrics(otel.Meter("github.com/safar/bookstore"))
	if err != nil {
		return fmt.Errorf("register checkout metrics: %w", err)
	}

	if migrateFirst {
		if err := migrateUp(cfg, logger); err != nil {
			return err
		}
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info("connected to database")

	var catalogCache cache.CatalogCache
	redisClient, err := newRedisClient(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		catalogCache = cache.NewRedisCache(redisClient, cfg.Cache.TTL)
		logger.Info("catalog cache enabled")
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		writer := events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic)
		publisher = events.NewKafkaPublisher(writer, cfg.Kafka.OrderTopic, events.DefaultBreakerSettings(), logger)
		logger.Info("order events enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.OrderTopic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close publisher", "error", err)
		}
	}()

	srv := api.NewServer(api.Deps{
		Catalog:  catalog.NewService(store.NewBookRepository(db), catalogCache, logger),
		Carts:    store.NewCartRepository(db),
		Orders:   store.NewOrderRepository(db),
		Users:    store.NewUserRepository(db),
		Sessions: auth.NewSessions(auth.SessionOptions{
			Secret: cfg.Session.Secret,
			MaxAge: cfg.Session.MaxAge,
			Secure: cfg.Session.Secure,
		}, logger),
		Publisher: publisher,
		Metrics:   checkoutMetrics,
		DB:        db,
		Logger:    logger,
	})

	routes := srv.Routes(api.RouterOptions{
		RequestTimeout: cfg.Server.RequestTimeout,
		MetricsHandler: metricsHandler,
		StaticDir:      cfg.Server.StaticDir,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      otelhttp.NewHandler(routes, cfg.Telemetry.ServiceName),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port, "env", cfg.Env, "version", Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func shutdownWith(logger *slog.Logger, name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "component", name, "error", err)
	}
}
