package httpapi

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fyrsmithlabs/intentd/internal/logging"
)

const instrumentationName = "github.com/fyrsmithlabs/intentd/internal/httpapi"

// Metrics holds HTTP-layer instrumentation: request counts and
// durations by route and status.
type Metrics struct {
	meter         metric.Meter
	logger        *logging.Logger
	requestsTotal metric.Int64Counter
	requestDur    metric.Float64Histogram
}

// NewMetrics builds a Metrics instance registered against the global
// OTel meter provider.
func NewMetrics(logger *logging.Logger) *Metrics {
	m := &Metrics{meter: otel.Meter(instrumentationName), logger: logger}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error
	m.requestsTotal, err = m.meter.Int64Counter(
		"intentd.http.requests_total",
		metric.WithDescription("Total HTTP requests by method, route, and status code."),
		metric.WithUnit("{request}"),
	)
	if err != nil && m.logger != nil {
		m.logger.Warn(context.Background(), "httpapi: failed to create requests counter")
	}

	m.requestDur, err = m.meter.Float64Histogram(
		"intentd.http.request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds by method, route, and status code."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil && m.logger != nil {
		m.logger.Warn(context.Background(), "httpapi: failed to create duration histogram")
	}
}

// Middleware returns an Echo middleware recording request count and duration.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			attrs := []attribute.KeyValue{
				attribute.String("method", c.Request().Method),
				attribute.String("route", c.Path()),
				attribute.Int("status", c.Response().Status),
			}
			ctx := c.Request().Context()
			if m.requestsTotal != nil {
				m.requestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if m.requestDur != nil {
				m.requestDur.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
			}
			return err
		}
	}
}
