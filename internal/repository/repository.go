// Package repository provides read-only access to applications, their
// intent categories, and matcher rules, plus best-effort persistence of
// recognition log entries. The core treats the backing store as opaque;
// this package exposes the handful of read methods the Recognition
// Coordinator needs and an in-memory implementation suitable for tests, the
// CLI demo path, and as a reference for a future SQL-backed adapter.
package repository

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/intentd/internal/models"
)

// Sentinel errors returned by Repository implementations.
var (
	ErrApplicationNotFound = errors.New("repository: application not found")
	ErrNoActiveCategories  = errors.New("repository: no active categories for application")
)

// Repository is the read surface the recognition core depends on. Admin
// CRUD over applications/categories/rules/API-keys belongs to the admin
// surface; this interface only names the methods the Coordinator calls.
type Repository interface {
	// GetApplicationByKey returns the active application for app_key, or
	// ErrApplicationNotFound if none exists or it is inactive.
	GetApplicationByKey(ctx context.Context, appKey string) (models.Application, error)

	// GetCategoriesByApplication returns the active categories owned by
	// the application, ordered by priority descending.
	GetCategoriesByApplication(ctx context.Context, applicationID string) ([]models.IntentCategory, error)

	// GetActiveRulesForCategories returns the active+enabled rules for the
	// given category IDs.
	GetActiveRulesForCategories(ctx context.Context, categoryIDs []string) ([]models.IntentRule, error)

	// PersistLogEntry writes a recognition attempt. Called from the Async
	// Log Sink's background worker, never from the request path.
	PersistLogEntry(ctx context.Context, entry models.LogEntry) error

	// AllActiveCategories returns every active category across every
	// application, used by the Fallback Controller's global-LLM path
	// when an app_key is unknown.
	AllActiveCategories(ctx context.Context) ([]models.IntentCategory, error)
}

// LoadAppContext assembles an AppContext from the three read methods, in
// the shape the Recognition Coordinator needs. It is a
// free function rather than a Repository method so callers can interpose
// the context cache (see context_cache.go) in front of it without the
// Repository implementation needing to know about caching.
func LoadAppContext(ctx context.Context, repo Repository, appKey string) (models.AppContext, error) {
	app, err := repo.GetApplicationByKey(ctx, appKey)
	if err != nil {
		return models.AppContext{}, err
	}

	categories, err := repo.GetCategoriesByApplication(ctx, app.AppKey)
	if err != nil {
		return models.AppContext{}, err
	}
	if len(categories) == 0 {
		return models.AppContext{}, ErrNoActiveCategories
	}

	catIDs := make([]string, len(categories))
	for i, c := range categories {
		catIDs[i] = c.ID
	}

	rules, err := repo.GetActiveRulesForCategories(ctx, catIDs)
	if err != nil {
		return models.AppContext{}, err
	}

	return models.AppContext{
		Application: app,
		Categories:  categories,
		Rules:       rules,
	}, nil
}
