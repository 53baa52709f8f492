package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeterProvider installs a Prometheus-backed MeterProvider globally and
// returns the /metrics handler with a shutdown function.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(newResource(serviceName, serviceVersion)),
	)

	otel.SetMeterProvider(mp)

	return promhttp.Handler(), mp.Shutdown, nil
}

// Checkout outcomes recorded on the checkout counter.
const (
	OutcomePlaced    = "placed"
	OutcomeEmptyCart = "empty_cart"
	OutcomeInvalid   = "invalid"
	OutcomeFailed    = "failed"
)

type CheckoutMetrics struct {
	attempts metric.Int64Counter
	revenue  metric.Float64Counter
	duration metric.Float64Histogram
}

// NewCheckoutMetrics registers the checkout instruments on meter. With no
// provider installed the global meter is a no-op.
func NewCheckoutMetrics(meter metric.Meter) (*CheckoutMetrics, error) {
	attempts, err := meter.Int64Counter("bookstore.checkout.attempts",
		metric.WithDescription("Checkout attempts by outcome"))
	if err != nil {
		return nil, err
	}

	revenue, err := meter.Float64Counter("bookstore.checkout.revenue",
		metric.WithDescription("Order totals of placed orders"),
		metric.WithUnit("{USD}"))
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("bookstore.checkout.duration",
		metric.WithDescription("Time spent in the order placement transaction"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &CheckoutMetrics{attempts: attempts, revenue: revenue, duration: duration}, nil
}

// Record counts one checkout attempt. A nil receiver records nothing.
func (m *CheckoutMetrics) Record(ctx context.Context, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.attempts.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *CheckoutMetrics) AddRevenue(ctx context.Context, total float64) {
	if m == nil {
		return
	}
	m.revenue.Add(ctx, total)
}
