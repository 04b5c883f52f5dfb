package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/fyrsmithlabs/intentd/internal/models"
)

// MemoryRepository is an in-memory Repository, safe for concurrent use. It
// backs the CLI demo path and package tests; a SQL-backed Repository would
// satisfy the same interface against a real schema.
type MemoryRepository struct {
	mu sync.RWMutex

	appsByKey  map[string]models.Application
	categories map[string][]models.IntentCategory // keyed by Application.AppKey
	rules      map[string][]models.IntentRule      // keyed by IntentCategory.ID

	logs []models.LogEntry
}

// NewMemoryRepository returns an empty MemoryRepository. Use the Seed* or
// Put* methods to populate it before serving traffic.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		appsByKey:  make(map[string]models.Application),
		categories: make(map[string][]models.IntentCategory),
		rules:      make(map[string][]models.IntentRule),
	}
}

// PutApplication upserts an application.
func (m *MemoryRepository) PutApplication(app models.Application) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appsByKey[app.AppKey] = app
}

// PutCategory upserts a category, appending it to its application's list if
// not already present by ID.
func (m *MemoryRepository) PutCategory(appKey string, cat models.IntentCategory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.categories[appKey]
	for i, c := range list {
		if c.ID == cat.ID {
			list[i] = cat
			m.categories[appKey] = list
			return
		}
	}
	m.categories[appKey] = append(list, cat)
}

// PutRule upserts a rule under its category.
func (m *MemoryRepository) PutRule(rule models.IntentRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.rules[rule.CategoryID]
	for i, r := range list {
		if r.ID == rule.ID {
			list[i] = rule
			m.rules[rule.CategoryID] = list
			return
		}
	}
	m.rules[rule.CategoryID] = append(list, rule)
}

func (m *MemoryRepository) GetApplicationByKey(_ context.Context, appKey string) (models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	app, ok := m.appsByKey[appKey]
	if !ok || !app.IsActive {
		return models.Application{}, ErrApplicationNotFound
	}
	return app, nil
}

func (m *MemoryRepository) GetCategoriesByApplication(_ context.Context, applicationID string) ([]models.IntentCategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.IntentCategory
	for _, c := range m.categories[applicationID] {
		if c.IsActive {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out, nil
}

func (m *MemoryRepository) GetActiveRulesForCategories(_ context.Context, categoryIDs []string) ([]models.IntentRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.IntentRule
	for _, catID := range categoryIDs {
		for _, r := range m.rules[catID] {
			if r.IsActive && r.Enabled {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (m *MemoryRepository) AllActiveCategories(_ context.Context) ([]models.IntentCategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.IntentCategory
	for _, list := range m.categories {
		for _, c := range list {
			if c.IsActive {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (m *MemoryRepository) PersistLogEntry(_ context.Context, entry models.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, entry)
	return nil
}

// Logs returns a copy of every entry persisted so far, for test assertions.
func (m *MemoryRepository) Logs() []models.LogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.LogEntry, len(m.logs))
	copy(out, m.logs)
	return out
}
