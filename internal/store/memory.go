// Package store — in-memory Store implementation.
// Used when no database path is configured (local dev, tests).
package store

import (
	"context"
	"sync"

	"github.com/tracelens/tracelens/pkg/models"
)

// MemoryStore implements Store with mutex-guarded maps.
type MemoryStore struct {
	mu       sync.RWMutex
	tracers  map[string]*models.TracerRecord // key: country:household:policy:version
	analyses map[string]*models.Analysis     // key: exact prompt string
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tracers:  make(map[string]*models.TracerRecord),
		analyses: make(map[string]*models.Analysis),
	}
}

func (m *MemoryStore) GetTracer(ctx context.Context, countryID, householdID, policyID, apiVersion string) (*models.TracerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := tracerKey(countryID, householdID, policyID, apiVersion)
	record, ok := m.tracers[key]
	if !ok {
		return nil, &ErrNotFound{Entity: "tracer", Key: key}
	}
	cp := *record
	cp.Output = append([]string(nil), record.Output...)
	return &cp, nil
}

func (m *MemoryStore) CreateTracer(ctx context.Context, record *models.TracerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *record
	cp.Output = append([]string(nil), record.Output...)
	m.tracers[tracerKey(record.CountryID, record.HouseholdID, record.PolicyID, record.APIVersion)] = &cp
	return nil
}

func (m *MemoryStore) GetAnalysis(ctx context.Context, prompt string) (*models.Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	analysis, ok := m.analyses[prompt]
	if !ok {
		return nil, &ErrNotFound{Entity: "analysis", Key: prompt}
	}
	cp := *analysis
	return &cp, nil
}

func (m *MemoryStore) CreateAnalysis(ctx context.Context, analysis *models.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *analysis
	m.analyses[analysis.Prompt] = &cp
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
