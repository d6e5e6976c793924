// Package server provides the public entry point for initializing the
// TraceLens server: config → store → generator → analysis service →
// HTTP handler. It lives in pkg/ so an embedding binary can compose
// the service with its own middleware.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tracelens/tracelens/internal/analysis"
	"github.com/tracelens/tracelens/internal/api"
	"github.com/tracelens/tracelens/internal/api/handlers"
	"github.com/tracelens/tracelens/internal/config"
	"github.com/tracelens/tracelens/internal/generation"
	"github.com/tracelens/tracelens/internal/store"
	"github.com/tracelens/tracelens/internal/telemetry"

	"github.com/rs/zerolog/log"
)

// Server holds the initialized TraceLens service.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Store is the data store (SQLite or in-memory).
	Store store.Store

	// Port is the port the server should listen on.
	Port int

	// ShutdownFunc should be called on graceful shutdown to flush telemetry.
	ShutdownFunc func(context.Context) error
}

// New initializes all components from environment configuration.
func New(ctx context.Context) (*Server, error) {
	return NewWithConfig(ctx, config.Load())
}

// NewWithConfig initializes the service with an explicit configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	shutdown, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	var dataStore store.Store
	if cfg.Database.Path != "" {
		dataStore, err = store.NewSQLiteStore(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		log.Info().Str("path", cfg.Database.Path).Msg("SQLite store initialized")
	} else {
		dataStore = store.NewMemoryStore()
		log.Info().Msg("In-memory store initialized")
	}

	generator, err := generation.NewAnthropicGenerator(cfg.Anthropic.APIKey)
	if err != nil {
		return nil, fmt.Errorf("init generator: %w", err)
	}

	svc := analysis.NewService(dataStore, generator)
	h := handlers.New(dataStore, svc)
	router := api.NewRouter(cfg, h)

	return &Server{
		Handler:      router,
		Store:        dataStore,
		Port:         cfg.Port,
		ShutdownFunc: shutdown,
	}, nil
}
