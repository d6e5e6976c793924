// Package handlers implements the HTTP handlers for TraceLens.
// Handlers validate the request, run the analysis service, and shape
// the response: cached analyses go out as one JSON document, fresh
// ones as an NDJSON stream of events.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tracelens/tracelens/internal/analysis"
	"github.com/tracelens/tracelens/internal/country"
	"github.com/tracelens/tracelens/internal/generation"
	"github.com/tracelens/tracelens/internal/store"
	"github.com/tracelens/tracelens/pkg/models"
)

// Handlers holds all handler dependencies.
type Handlers struct {
	Store    store.Store
	Analysis *analysis.Service
}

// New creates a new Handlers instance with all dependencies.
func New(s store.Store, svc *analysis.Service) *Handlers {
	return &Handlers{Store: s, Analysis: svc}
}

// ── Tracer Analysis ──────────────────────────────────────────

// ExecuteTracerAnalysis handles POST /{countryID}/tracer-analysis.
func (h *Handlers) ExecuteTracerAnalysis(w http.ResponseWriter, r *http.Request) {
	countryID := chi.URLParam(r, "countryID")
	if !country.IsKnown(countryID) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown country: %s", countryID))
		return
	}

	var req models.TracerAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validateAnalysisRequest(&req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	result, err := h.Analysis.ExecuteAnalysis(r.Context(), countryID, req.HouseholdID, req.PolicyID, req.Variable)
	if err != nil {
		var notFound *store.ErrNotFound
		if errors.As(err, &notFound) {
			respondError(w, http.StatusNotFound, "No household simulation tracer found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if result.Mode == models.AnalysisModeStatic {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"result":  result.Text,
			"message": nil,
		})
		return
	}

	h.streamAnalysis(w, r, result.Stream)
}

// streamAnalysis writes a generation stream as NDJSON events, one
// StreamEvent per line, flushing after each so chunks reach the client
// as they are produced.
func (h *Handlers) streamAnalysis(w http.ResponseWriter, r *http.Request, stream generation.Stream) {
	defer stream.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	// Prevent response buffering on proxied deployments
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	for stream.Next() {
		if err := enc.Encode(models.StreamEvent{Type: models.StreamEventText, Stream: stream.Current()}); err != nil {
			// Client went away; closing the stream stops the producer.
			return
		}
		flusher.Flush()
	}

	if err := stream.Err(); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("AI analysis stream failed")
		enc.Encode(models.StreamEvent{Type: models.StreamEventError, Stream: generation.FriendlyMessage(err)})
		flusher.Flush()
	}
}

// ── Tracer Ingestion ─────────────────────────────────────────

// CreateTracer handles POST /{countryID}/tracer. The simulation
// pipeline calls this after a run to persist the computation trace.
func (h *Handlers) CreateTracer(w http.ResponseWriter, r *http.Request) {
	countryID := chi.URLParam(r, "countryID")
	apiVersion, err := country.ResolveVersion(countryID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.TracerCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !isNumericID(req.HouseholdID) {
		respondError(w, http.StatusBadRequest, "household_id must be a numeric string")
		return
	}
	if !isNumericID(req.PolicyID) {
		respondError(w, http.StatusBadRequest, "policy_id must be a numeric string")
		return
	}
	if req.Output == nil {
		respondError(w, http.StatusBadRequest, "tracer_output is required")
		return
	}
	if req.APIVersion != "" {
		if !models.IsSemver(req.APIVersion) {
			respondError(w, http.StatusBadRequest, "api_version must be a semantic version")
			return
		}
		apiVersion = req.APIVersion
	}

	record := &models.TracerRecord{
		ID:          uuid.New().String(),
		CountryID:   countryID,
		HouseholdID: req.HouseholdID,
		PolicyID:    req.PolicyID,
		APIVersion:  apiVersion,
		Output:      req.Output,
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.Store.CreateTracer(r.Context(), record); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info().
		Str("country", countryID).
		Str("household", req.HouseholdID).
		Str("policy", req.PolicyID).
		Str("version", apiVersion).
		Msg("Tracer record stored")
	respondJSON(w, http.StatusCreated, record)
}

// ── Validation ───────────────────────────────────────────────

func validateAnalysisRequest(req *models.TracerAnalysisRequest) string {
	if !isNumericID(req.HouseholdID) {
		return "household_id must be a numeric string"
	}
	if !isNumericID(req.PolicyID) {
		return "policy_id must be a numeric string"
	}
	if strings.TrimSpace(req.Variable) == "" {
		return "variable must be a non-empty string"
	}
	return ""
}

func isNumericID(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ── Response helpers ─────────────────────────────────────────

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
