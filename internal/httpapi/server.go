// Package httpapi provides the HTTP API for intentd's recognition core:
// POST /intent/recognize, POST /intent/recognize/batch, plus the
// GET /health and GET /metrics endpoints.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/intentd/internal/coordinator"
	"github.com/fyrsmithlabs/intentd/internal/logging"
	"github.com/fyrsmithlabs/intentd/internal/pipeline"
)

// Config holds HTTP server configuration.
type Config struct {
	Port            int
	ShutdownTimeout time.Duration
	MaxBatchSize    int
	APIKeyHeader    string
	RequiredAPIKey  string // empty disables the check
}

// LLMHealth reports whether the LLM fallback matcher's backend is
// reachable, per its own startup probe. Satisfied by *llmclient.Client;
// kept as a narrow interface here so httpapi doesn't depend on
// llmclient's transport details, just this one signal.
type LLMHealth interface {
	Connected() bool
}

// Server wraps the Echo router exposing the recognition API.
type Server struct {
	echo      *echo.Echo
	coord     *coordinator.Coordinator
	logger    *logging.Logger
	config    Config
	llmHealth LLMHealth
}

// NewServer builds a Server with the standard middleware stack:
// recover, request ID, metrics, and structured request logging.
// llmHealth may be nil, in which case /health omits the llm component.
func NewServer(coord *coordinator.Coordinator, logger *logging.Logger, cfg Config, llmHealth LLMHealth) *Server {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 100
	}
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = "X-API-Key"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	metrics := NewMetrics(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(metrics.Middleware())
	e.Use(requestLoggingMiddleware(logger))

	s := &Server{echo: e, coord: coord, logger: logger, config: cfg, llmHealth: llmHealth}
	s.registerRoutes()
	return s
}

func requestLoggingMiddleware(logger *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if logger != nil {
				logger.Info(c.Request().Context(), "http request",
					zap.String("method", c.Request().Method),
					zap.String("uri", c.Request().RequestURI),
					zap.Int("status", c.Response().Status),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				)
			}
			return err
		}
	}
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("", s.apiKeyMiddleware())
	api.POST("/intent/recognize", s.handleRecognize)
	api.POST("/intent/recognize/batch", s.handleRecognizeBatch)
}

// apiKeyMiddleware enforces the configured API key header when
// RequiredAPIKey is set.
func (s *Server) apiKeyMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if s.config.RequiredAPIKey == "" {
				return next(c)
			}
			if c.Request().Header.Get(s.config.APIKeyHeader) != s.config.RequiredAPIKey {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing API key")
			}
			return next(c)
		}
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	LLM    string `json:"llm,omitempty"`
}

func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok"}
	if s.llmHealth != nil {
		if s.llmHealth.Connected() {
			resp.LLM = "connected"
		} else {
			resp.LLM = "unreachable"
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// RecognizeRequest is the body of POST /intent/recognize.
type RecognizeRequest struct {
	AppKey  string         `json:"app_key"`
	Text    string         `json:"text"`
	Context map[string]any `json:"context,omitempty"`
}

func (s *Server) handleRecognize(c echo.Context) error {
	var req RecognizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Text = collapseWhitespace(req.Text)
	if req.AppKey == "" || req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "app_key and text are required")
	}

	resp := s.coord.Recognize(c.Request().Context(), coordinator.Request{
		AppKey:  req.AppKey,
		Text:    req.Text,
		Context: req.Context,
		Mode:    pipeline.ModeFirstAcceptable,
	})
	recognitionsTotal.WithLabelValues(resp.FinalRecognizer, string(resp.FailureType)).Inc()
	return c.JSON(http.StatusOK, resp)
}

// BatchRecognizeRequest is the body of POST /intent/recognize/batch.
type BatchRecognizeRequest struct {
	AppKey string   `json:"app_key"`
	Texts  []string `json:"texts"`
}

// BatchRecognizeResponse is the body returned by POST /intent/recognize/batch.
type BatchRecognizeResponse struct {
	Results     []any `json:"results"`
	TotalCount  int   `json:"total_count"`
	CachedCount int   `json:"cached_count"`
}

func (s *Server) handleRecognizeBatch(c echo.Context) error {
	var req BatchRecognizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.AppKey == "" || len(req.Texts) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "app_key and texts are required")
	}
	if len(req.Texts) > s.config.MaxBatchSize {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("texts exceeds max_batch_size (%d)", s.config.MaxBatchSize))
	}
	for i := range req.Texts {
		req.Texts[i] = collapseWhitespace(req.Texts[i])
		if req.Texts[i] == "" {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("texts[%d] is empty", i))
		}
	}

	ctx := c.Request().Context()
	results := make([]any, len(req.Texts))
	var cached int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i, text := range req.Texts {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			resp := s.coord.Recognize(ctx, coordinator.Request{
				AppKey: req.AppKey,
				Text:   text,
				Mode:   pipeline.ModeFirstAcceptable,
			})
			recognitionsTotal.WithLabelValues(resp.FinalRecognizer, string(resp.FailureType)).Inc()
			if resp.Cached {
				mu.Lock()
				cached++
				mu.Unlock()
			}
			results[i] = resp
		}(i, text)
	}
	wg.Wait()

	return c.JSON(http.StatusOK, BatchRecognizeResponse{
		Results:     results,
		TotalCount:  len(results),
		CachedCount: cached,
	})
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Start starts the HTTP server, blocking until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	if s.logger != nil {
		s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	}
	return s.echo.Start(addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
