// Package store — SQLite-backed Store implementation.
// Uses the pure-Go modernc.org/sqlite driver so the server builds
// without cgo. Tracer output is persisted as a JSON-encoded list of
// lines, matching how the simulation pipeline writes it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tracelens/tracelens/pkg/models"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS tracers (
	id            TEXT PRIMARY KEY,
	country_id    TEXT NOT NULL,
	household_id  TEXT NOT NULL,
	policy_id     TEXT NOT NULL,
	api_version   TEXT NOT NULL,
	tracer_output TEXT NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_tracers_key
	ON tracers (country_id, household_id, policy_id, api_version);

CREATE TABLE IF NOT EXISTS analysis (
	prompt     TEXT PRIMARY KEY,
	analysis   TEXT NOT NULL,
	status     TEXT NOT NULL,
	created_at TEXT NOT NULL
);
`

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at path and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetTracer(ctx context.Context, countryID, householdID, policyID, apiVersion string) (*models.TracerRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, country_id, household_id, policy_id, api_version, tracer_output, created_at
		 FROM tracers
		 WHERE country_id = ? AND household_id = ? AND policy_id = ? AND api_version = ?`,
		countryID, householdID, policyID, apiVersion,
	)

	var record models.TracerRecord
	var output, createdAt string
	err := row.Scan(&record.ID, &record.CountryID, &record.HouseholdID,
		&record.PolicyID, &record.APIVersion, &output, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ErrNotFound{Entity: "tracer", Key: tracerKey(countryID, householdID, policyID, apiVersion)}
	}
	if err != nil {
		return nil, fmt.Errorf("query tracer: %w", err)
	}

	if err := json.Unmarshal([]byte(output), &record.Output); err != nil {
		return nil, fmt.Errorf("decode tracer output: %w", err)
	}
	record.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &record, nil
}

func (s *SQLiteStore) CreateTracer(ctx context.Context, record *models.TracerRecord) error {
	output, err := json.Marshal(record.Output)
	if err != nil {
		return fmt.Errorf("encode tracer output: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tracers (id, country_id, household_id, policy_id, api_version, tracer_output, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (country_id, household_id, policy_id, api_version)
		 DO UPDATE SET tracer_output = excluded.tracer_output, created_at = excluded.created_at`,
		record.ID, record.CountryID, record.HouseholdID, record.PolicyID,
		record.APIVersion, string(output), record.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert tracer: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, prompt string) (*models.Analysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT prompt, analysis, status, created_at FROM analysis WHERE prompt = ?`,
		prompt,
	)

	var analysis models.Analysis
	var createdAt string
	err := row.Scan(&analysis.Prompt, &analysis.Analysis, &analysis.Status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ErrNotFound{Entity: "analysis", Key: prompt}
	}
	if err != nil {
		return nil, fmt.Errorf("query analysis: %w", err)
	}

	analysis.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &analysis, nil
}

func (s *SQLiteStore) CreateAnalysis(ctx context.Context, analysis *models.Analysis) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis (prompt, analysis, status, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (prompt) DO UPDATE SET analysis = excluded.analysis, status = excluded.status`,
		analysis.Prompt, analysis.Analysis, string(analysis.Status),
		analysis.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
