package models

import (
	"strconv"
	"strings"
	"time"
)

// ── Semantic Versioning Helpers ──────────────────────────────

// IsSemver returns true if the string looks like "X.Y.Z".
func IsSemver(v string) bool {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return false
		}
	}
	return true
}

// ── Tracer Record ────────────────────────────────────────────

// TracerRecord is the recorded computation trace of one household
// simulation run. Output lines are ordered; nesting is conveyed by
// leading whitespace. Records are written once by the simulation
// pipeline and read-only afterwards.
type TracerRecord struct {
	ID          string    `json:"id"`
	CountryID   string    `json:"country_id"`
	HouseholdID string    `json:"household_id"`
	PolicyID    string    `json:"policy_id"`
	APIVersion  string    `json:"api_version"`
	Output      []string  `json:"tracer_output"`
	CreatedAt   time.Time `json:"created_at"`
}

// ── Analysis ─────────────────────────────────────────────────

// AnalysisStatus marks the outcome of a generation run.
type AnalysisStatus string

const (
	AnalysisStatusOK AnalysisStatus = "ok"
)

// Analysis is a cached explanation keyed by the exact prompt string
// that produced it. Two byte-identical prompts always map to the same
// row, which is what lets the dispatcher skip generation entirely on
// a cache hit.
type Analysis struct {
	Prompt    string         `json:"prompt"`
	Analysis  string         `json:"analysis"`
	Status    AnalysisStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// ── Analysis Delivery ────────────────────────────────────────

// AnalysisMode says how an analysis result is delivered.
type AnalysisMode string

const (
	// AnalysisModeStatic means the explanation already exists and is
	// returned as a complete string.
	AnalysisModeStatic AnalysisMode = "static"
	// AnalysisModeStreaming means the explanation is being generated
	// and is delivered as an ordered sequence of text chunks.
	AnalysisModeStreaming AnalysisMode = "streaming"
)

// StreamEventType distinguishes text chunks from mid-stream errors.
type StreamEventType string

const (
	StreamEventText  StreamEventType = "text"
	StreamEventError StreamEventType = "error"
)

// StreamEvent is one NDJSON line of a streaming analysis response.
type StreamEvent struct {
	Type   StreamEventType `json:"type"`
	Stream string          `json:"stream"`
}

// ── Requests ─────────────────────────────────────────────────

// TracerAnalysisRequest is the POST body for /{countryID}/tracer-analysis.
type TracerAnalysisRequest struct {
	HouseholdID string `json:"household_id"`
	PolicyID    string `json:"policy_id"`
	Variable    string `json:"variable"`
}

// TracerCreateRequest is the POST body for /{countryID}/tracer.
// APIVersion is optional; when empty the record is stored under the
// country's current package version.
type TracerCreateRequest struct {
	HouseholdID string   `json:"household_id"`
	PolicyID    string   `json:"policy_id"`
	APIVersion  string   `json:"api_version,omitempty"`
	Output      []string `json:"tracer_output"`
}
