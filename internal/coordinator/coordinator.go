// Package coordinator implements the recognition coordinator: the
// composition root that resolves an application's context,
// obtains its compiled Pipeline, runs it, applies the Fallback Controller,
// and records the outcome — consulting the Result Cache on the way in and
// populating it on the way out.
package coordinator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/intentd/internal/fallback"
	"github.com/fyrsmithlabs/intentd/internal/logging"
	"github.com/fyrsmithlabs/intentd/internal/logsink"
	"github.com/fyrsmithlabs/intentd/internal/models"
	"github.com/fyrsmithlabs/intentd/internal/pipeline"
	"github.com/fyrsmithlabs/intentd/internal/pipelinecache"
	"github.com/fyrsmithlabs/intentd/internal/repository"
	"github.com/fyrsmithlabs/intentd/internal/resultcache"
)

var tracer = otel.Tracer("github.com/fyrsmithlabs/intentd/internal/coordinator")

// ContextLoader resolves an application's recognition configuration.
// *repository.ContextCache satisfies this.
type ContextLoader interface {
	Get(ctx context.Context, appKey string) (models.AppContext, error)
}

// Coordinator wires the whole recognition path together.
type Coordinator struct {
	contexts ContextLoader
	repo     repository.Repository
	pipes    *pipelinecache.Cache
	results  *resultcache.Cache
	fallback *fallback.Controller
	logsink  *logsink.Sink
	logger   *logging.Logger

	globalLLMEnabled bool
}

// New returns a Coordinator. results and logsink may be nil to disable
// result caching / log persistence respectively (both degrade silently).
func New(contexts ContextLoader, repo repository.Repository, pipes *pipelinecache.Cache, results *resultcache.Cache, fc *fallback.Controller, sink *logsink.Sink, logger *logging.Logger, globalLLMEnabled bool) *Coordinator {
	return &Coordinator{
		contexts:         contexts,
		repo:             repo,
		pipes:            pipes,
		results:          results,
		fallback:         fc,
		logsink:          sink,
		logger:           logger,
		globalLLMEnabled: globalLLMEnabled,
	}
}

// Request is one recognition request.
type Request struct {
	AppKey  string
	Text    string
	Context map[string]any
	Mode    pipeline.Mode
}

// Recognize runs the full recognition sequence for one request: cache
// lookup, context resolution, pipeline, fallback, logging, cache write.
func (c *Coordinator) Recognize(ctx context.Context, req Request) models.Response {
	ctx, span := tracer.Start(ctx, "coordinator.Recognize",
		trace.WithAttributes(attribute.String("app_key", req.AppKey)))
	defer span.End()

	start := time.Now()

	// Step 2-3: resolve the application's AppContext. This runs ahead of
	// the result-cache lookup (listed after the cache check, but
	// enable_cache — checked in step 2 — lives on the Application row, so
	// it must be known before the cache can be consulted at all).
	appCtx, err := c.contexts.Get(ctx, req.AppKey)
	if err != nil {
		resp := c.handleMissingContext(ctx, req)
		resp.ProcessingTimeMS = elapsedMS(start)
		c.record(ctx, req, resp)
		return resp
	}

	if !appCtx.Application.IsActive {
		resp := c.handleMissingContext(ctx, req)
		resp.ProcessingTimeMS = elapsedMS(start)
		c.record(ctx, req, resp)
		return resp
	}

	// Step 2: result cache lookup, gated by the application's enable_cache
	// flag. A hit's recognition_chain is replaced with the single cache
	// entry a cached response must carry, not the chain that produced
	// the original response.
	if c.results != nil && appCtx.Application.EnableCache {
		if cached, ok := c.results.Get(ctx, req.AppKey, req.Text, req.Context); ok {
			cached.Cached = true
			cached.RecognitionChain = []models.ChainEntry{{Recognizer: "cache", Status: models.ChainStatusSuccess}}
			cached.ProcessingTimeMS = elapsedMS(start)
			c.record(ctx, req, cached)
			return cached
		}
	}

	// Step 4: compile or fetch the cached Pipeline for this configuration.
	p, err := c.pipes.Get(ctx, appCtx.Application, appCtx.Categories, appCtx.Rules)
	if err != nil {
		resp := models.Response{
			Success:          false,
			FailureType:      models.FailureSystemError,
			FailureReason:    "failed to compile recognition pipeline",
			Suggestion:       "retry the request; if the problem persists, check service logs",
			ProcessingTimeMS: elapsedMS(start),
		}
		if c.logger != nil {
			c.logger.Error(ctx, "coordinator: pipeline compile failed", zap.Error(err), zap.String("app_key", req.AppKey))
		}
		c.record(ctx, req, resp)
		return resp
	}

	// Step 5: run the pipeline.
	outcome := p.Run(ctx, req.Mode, req.Text, appCtx.Categories, appCtx.Rules)

	// Step 6-7: apply the fallback controller's threshold/fallback decision.
	resp := c.fallback.Decide(ctx, req.Text, outcome, appCtx.Application, appCtx)
	resp.ProcessingTimeMS = elapsedMS(start)

	// Step 9: populate the result cache on success, if enabled.
	if c.results != nil && resp.Success && appCtx.Application.EnableCache {
		c.results.Set(ctx, req.AppKey, req.Text, req.Context, resp)
	}

	// Steps 8 and 10: enqueue the log entry and return.
	c.record(ctx, req, resp)
	return resp
}

// handleMissingContext covers the missing-configuration case: the app_key was
// unknown, inactive, or had no active categories at all.
func (c *Coordinator) handleMissingContext(ctx context.Context, req Request) models.Response {
	var candidates []models.IntentCategory
	if c.globalLLMEnabled {
		if all, err := c.repo.AllActiveCategories(ctx); err == nil {
			candidates = all
		}
	}
	return c.fallback.DecideConfigMissing(ctx, req.Text, c.globalLLMEnabled, candidates)
}

func (c *Coordinator) record(ctx context.Context, req Request, resp models.Response) {
	if c.logsink == nil {
		return
	}
	c.logsink.Enqueue(models.LogEntry{
		AppKey:           req.AppKey,
		InputText:        req.Text,
		RecognizedIntent: resp.Intent,
		Confidence:       resp.Confidence,
		ProcessingTimeMS: resp.ProcessingTimeMS,
		IsSuccess:        resp.Success,
		ErrorMessage:     resp.FailureReason,
		RecognitionChain: resp.RecognitionChain,
		MatchedRules:     resp.MatchedRules,
	})
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
