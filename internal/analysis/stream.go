package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tracelens/tracelens/internal/generation"
	"github.com/tracelens/tracelens/internal/store"
	"github.com/tracelens/tracelens/pkg/models"
)

// recordingStream accumulates the text flowing through a generation
// stream and, when the stream completes cleanly, writes the full
// explanation to the analysis store under its prompt. Early
// termination or a backend error skips the write: only complete
// explanations are cached.
type recordingStream struct {
	inner    generation.Stream
	analyses store.AnalysisStore
	prompt   string
	text     strings.Builder
	saved    bool
}

func newRecordingStream(inner generation.Stream, analyses store.AnalysisStore, prompt string) *recordingStream {
	return &recordingStream{inner: inner, analyses: analyses, prompt: prompt}
}

func (r *recordingStream) Next() bool {
	if r.inner.Next() {
		r.text.WriteString(r.inner.Current())
		return true
	}
	if !r.saved && r.inner.Err() == nil {
		r.saved = true
		r.save()
	}
	return false
}

func (r *recordingStream) Current() string { return r.inner.Current() }

func (r *recordingStream) Err() error { return r.inner.Err() }

func (r *recordingStream) Close() error { return r.inner.Close() }

// save runs on its own context: by the time the last chunk has been
// consumed the request context may already be cancelled.
func (r *recordingStream) save() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := r.analyses.CreateAnalysis(ctx, &models.Analysis{
		Prompt:    r.prompt,
		Analysis:  r.text.String(),
		Status:    models.AnalysisStatusOK,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to cache completed analysis")
	}
}
