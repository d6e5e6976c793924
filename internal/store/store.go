// Package store provides the storage interface and implementations for
// TraceLens. Tracer records and cached analyses live behind a narrow
// interface so handlers and the analysis service can run against the
// in-memory store in tests and SQLite in production.
package store

import (
	"context"

	"github.com/tracelens/tracelens/pkg/models"
)

// Store is the primary storage interface.
type Store interface {
	TracerStore
	AnalysisStore

	// Ping checks if the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the store.
	Close() error
}

// ── Tracer Store ─────────────────────────────────────────────

// TracerStore holds recorded simulation traces, one record per
// (country, household, policy, api_version) key. Records are written
// by the simulation pipeline and only read here.
type TracerStore interface {
	// GetTracer returns the record for the composite key, or
	// *ErrNotFound if no simulation tracer exists for it.
	GetTracer(ctx context.Context, countryID, householdID, policyID, apiVersion string) (*models.TracerRecord, error)

	// CreateTracer stores a tracer record, replacing any existing
	// record under the same composite key.
	CreateTracer(ctx context.Context, record *models.TracerRecord) error
}

// ── Analysis Store ───────────────────────────────────────────

// AnalysisStore maps exact prompt strings to previously generated
// explanations. A hit means generation is skipped entirely.
type AnalysisStore interface {
	// GetAnalysis returns the cached analysis for an exact prompt
	// string, or *ErrNotFound on a miss.
	GetAnalysis(ctx context.Context, prompt string) (*models.Analysis, error)

	// CreateAnalysis stores a completed analysis under its prompt.
	CreateAnalysis(ctx context.Context, analysis *models.Analysis) error
}

// ── Errors ───────────────────────────────────────────────────

// ErrNotFound is returned when a requested entity does not exist.
type ErrNotFound struct {
	Entity string
	Key    string
}

func (e *ErrNotFound) Error() string {
	return e.Entity + " not found: " + e.Key
}

// tracerKey builds the composite map key for a tracer record.
func tracerKey(countryID, householdID, policyID, apiVersion string) string {
	return countryID + ":" + householdID + ":" + policyID + ":" + apiVersion
}
