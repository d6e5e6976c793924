// Package analysis orchestrates tracer analysis: fetch the recorded
// trace, extract the target variable's computation subtree, render the
// prompt, and either return the cached explanation or start a fresh
// streaming generation.
package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tracelens/tracelens/internal/country"
	"github.com/tracelens/tracelens/internal/generation"
	"github.com/tracelens/tracelens/internal/store"
	"github.com/tracelens/tracelens/internal/tracer"
	"github.com/tracelens/tracelens/pkg/models"
)

// streamChunkSize is the fixed size of text pieces delivered to
// streaming consumers.
const streamChunkSize = 5

// Result is the outcome of ExecuteAnalysis. Exactly one of Text or
// Stream is populated, according to Mode.
type Result struct {
	Mode models.AnalysisMode

	// Text is the complete explanation when Mode is static.
	Text string

	// Stream delivers the explanation when Mode is streaming. It is
	// single-consumption; the caller may Close it early to stop
	// generation.
	Stream generation.Stream
}

// Service runs tracer analyses against a store and a generation
// backend. It holds no per-call state; concurrent calls are safe.
type Service struct {
	store     store.Store
	generator generation.Generator
}

// NewService creates an analysis service.
func NewService(s store.Store, g generation.Generator) *Service {
	return &Service{store: s, generator: g}
}

// ExecuteAnalysis analyses one variable of one household simulation.
//
// A cached explanation for the exact rendered prompt is returned as a
// static result and generation is skipped entirely. On a cache miss a
// streaming result is returned; once the stream is fully consumed the
// concatenated text is written back to the analysis store, so the same
// prompt never triggers generation twice. Nothing here retries: a
// missing tracer, an unknown country, or a backend failure is logged
// and returned to the caller as-is.
func (s *Service) ExecuteAnalysis(ctx context.Context, countryID, householdID, policyID, variable string) (*Result, error) {
	apiVersion, err := country.ResolveVersion(countryID)
	if err != nil {
		return nil, err
	}

	record, err := s.store.GetTracer(ctx, countryID, householdID, policyID, apiVersion)
	if err != nil {
		var notFound *store.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, err
		}
		log.Error().Err(err).
			Str("country", countryID).
			Str("household", householdID).
			Str("policy", policyID).
			Str("stage", "tracer_fetch").
			Msg("Failed to fetch tracer record")
		return nil, fmt.Errorf("fetch tracer: %w", err)
	}

	segment := tracer.Extract(record.Output, variable)
	prompt := tracer.RenderPrompt(variable, segment)

	existing, err := s.store.GetAnalysis(ctx, prompt)
	if err == nil {
		return &Result{Mode: models.AnalysisModeStatic, Text: existing.Analysis}, nil
	}
	var notFound *store.ErrNotFound
	if !errors.As(err, &notFound) {
		log.Error().Err(err).
			Str("variable", variable).
			Str("stage", "cache_lookup").
			Msg("Failed to look up existing analysis")
		return nil, fmt.Errorf("look up analysis: %w", err)
	}

	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		log.Error().Err(err).
			Str("country", countryID).
			Str("household", householdID).
			Str("policy", policyID).
			Str("variable", variable).
			Str("stage", "generation").
			Msg("Failed to start AI analysis")
		return nil, fmt.Errorf("generate analysis: %w", err)
	}

	recorded := newRecordingStream(raw, s.store, prompt)
	return &Result{
		Mode:   models.AnalysisModeStreaming,
		Stream: generation.Chunked(recorded, streamChunkSize),
	}, nil
}
