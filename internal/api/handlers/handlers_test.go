package handlers_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tracelens/tracelens/internal/analysis"
	"github.com/tracelens/tracelens/internal/api"
	"github.com/tracelens/tracelens/internal/api/handlers"
	"github.com/tracelens/tracelens/internal/config"
	"github.com/tracelens/tracelens/internal/country"
	"github.com/tracelens/tracelens/internal/generation"
	"github.com/tracelens/tracelens/internal/store"
	"github.com/tracelens/tracelens/internal/tracer"
	"github.com/tracelens/tracelens/pkg/models"
)

type fakeGenerator struct {
	calls  int
	chunks []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (generation.Stream, error) {
	f.calls++
	return generation.NewSliceStream(f.chunks...), nil
}

func newTestRouter(t *testing.T, s store.Store, gen generation.Generator) http.Handler {
	t.Helper()
	h := handlers.New(s, analysis.NewService(s, gen))
	return api.NewRouter(config.Load(), h)
}

func seedTracer(t *testing.T, s store.Store) {
	t.Helper()
	err := s.CreateTracer(context.Background(), &models.TracerRecord{
		ID:          "rec-1",
		CountryID:   "us",
		HouseholdID: "71424",
		PolicyID:    "2",
		APIVersion:  country.PackageVersions["us"],
		Output: []string{
			"household_net_income <1500>",
			"    market_income <1000>",
		},
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateTracer() error = %v", err)
	}
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func analysisRequest() models.TracerAnalysisRequest {
	return models.TracerAnalysisRequest{
		HouseholdID: "71424",
		PolicyID:    "2",
		Variable:    "market_income",
	}
}

func TestTracerAnalysisStatic(t *testing.T) {
	s := store.NewMemoryStore()
	seedTracer(t, s)

	segment := []string{"    market_income <1000>"}
	prompt := tracer.RenderPrompt("market_income", segment)
	s.CreateAnalysis(context.Background(), &models.Analysis{
		Prompt:   prompt,
		Analysis: "Existing static analysis",
		Status:   models.AnalysisStatusOK,
	})

	gen := &fakeGenerator{chunks: []string{"unused"}}
	router := newTestRouter(t, s, gen)

	w := postJSON(t, router, "/us/tracer-analysis", analysisRequest())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body %s", w.Code, http.StatusOK, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if body["result"] != "Existing static analysis" {
		t.Errorf("result field = %v, want cached analysis", body["result"])
	}
	if gen.calls != 0 {
		t.Errorf("generator invoked %d times on cache hit, want 0", gen.calls)
	}
}

func TestTracerAnalysisStreaming(t *testing.T) {
	s := store.NewMemoryStore()
	seedTracer(t, s)

	gen := &fakeGenerator{chunks: []string{"stream chunk 1", "stream chunk 2"}}
	router := newTestRouter(t, s, gen)

	w := postJSON(t, router, "/us/tracer-analysis", analysisRequest())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body %s", w.Code, http.StatusOK, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("Content-Type = %q, want application/x-ndjson", ct)
	}
	if got := w.Header().Get("X-Accel-Buffering"); got != "no" {
		t.Errorf("X-Accel-Buffering = %q, want no", got)
	}

	var sb strings.Builder
	scanner := bufio.NewScanner(w.Body)
	for scanner.Scan() {
		var event models.StreamEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("decode NDJSON line %q: %v", scanner.Text(), err)
		}
		if event.Type != models.StreamEventText {
			t.Fatalf("event type = %q, want %q", event.Type, models.StreamEventText)
		}
		sb.WriteString(event.Stream)
	}
	if sb.String() != "stream chunk 1stream chunk 2" {
		t.Errorf("concatenated stream = %q, want full backend output", sb.String())
	}
}

func TestTracerAnalysisNotFound(t *testing.T) {
	router := newTestRouter(t, store.NewMemoryStore(), &fakeGenerator{})

	w := postJSON(t, router, "/us/tracer-analysis", analysisRequest())
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestTracerAnalysisValidation(t *testing.T) {
	s := store.NewMemoryStore()
	seedTracer(t, s)
	router := newTestRouter(t, s, &fakeGenerator{})

	tests := []struct {
		name string
		path string
		body models.TracerAnalysisRequest
	}{
		{"unknown country", "/zz/tracer-analysis", analysisRequest()},
		{"non-numeric household", "/us/tracer-analysis", models.TracerAnalysisRequest{HouseholdID: "abc", PolicyID: "2", Variable: "x"}},
		{"non-numeric policy", "/us/tracer-analysis", models.TracerAnalysisRequest{HouseholdID: "1", PolicyID: "x2", Variable: "x"}},
		{"empty variable", "/us/tracer-analysis", models.TracerAnalysisRequest{HouseholdID: "1", PolicyID: "2", Variable: " "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, tt.path, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestCreateTracer(t *testing.T) {
	s := store.NewMemoryStore()
	router := newTestRouter(t, s, &fakeGenerator{})

	w := postJSON(t, router, "/us/tracer", models.TracerCreateRequest{
		HouseholdID: "71424",
		PolicyID:    "2",
		Output:      []string{"household_net_income <1500>"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body %s", w.Code, http.StatusCreated, w.Body.String())
	}

	record, err := s.GetTracer(context.Background(), "us", "71424", "2", country.PackageVersions["us"])
	if err != nil {
		t.Fatalf("GetTracer() after create error = %v", err)
	}
	if len(record.Output) != 1 {
		t.Errorf("stored %d lines, want 1", len(record.Output))
	}
}

func TestCreateTracerValidation(t *testing.T) {
	router := newTestRouter(t, store.NewMemoryStore(), &fakeGenerator{})

	tests := []struct {
		name string
		body models.TracerCreateRequest
	}{
		{"non-numeric household", models.TracerCreateRequest{HouseholdID: "not-a-number", PolicyID: "2", Output: []string{"x"}}},
		{"malformed api_version", models.TracerCreateRequest{HouseholdID: "1", PolicyID: "2", APIVersion: "latest", Output: []string{"x"}}},
		{"missing output", models.TracerCreateRequest{HouseholdID: "1", PolicyID: "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/us/tracer", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestCreateTracerExplicitVersion(t *testing.T) {
	s := store.NewMemoryStore()
	router := newTestRouter(t, s, &fakeGenerator{})

	w := postJSON(t, router, "/us/tracer", models.TracerCreateRequest{
		HouseholdID: "5",
		PolicyID:    "9",
		APIVersion:  "1.100.0",
		Output:      []string{"snap <250>"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if _, err := s.GetTracer(context.Background(), "us", "5", "9", "1.100.0"); err != nil {
		t.Fatalf("GetTracer() under explicit version error = %v", err)
	}
}

func TestHealthAndVersion(t *testing.T) {
	router := newTestRouter(t, store.NewMemoryStore(), &fakeGenerator{})

	for _, path := range []string{"/health", "/version"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, w.Code, http.StatusOK)
		}
	}
}
