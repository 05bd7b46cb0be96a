// Package server exposes a director over HTTP and a websocket stream.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zeusync/director/internal/core/director"
	"github.com/zeusync/director/internal/core/observability/log"
	"github.com/zeusync/director/internal/core/state"
	"github.com/zeusync/director/internal/core/systems/physics"
)

const (
	DefaultStreamInterval = time.Second
	DefaultTopThreats     = 10
	// MaxPathBatch caps the requests accepted by POST /v1/paths.
	MaxPathBatch = 64

	maxBodyBytes = 1 << 20
)

// Options carries the router's dependencies. Runner is required; the rest
// fall back to defaults or disable their routes.
type Options struct {
	Runner *director.Runner
	// State enables the /v1/slots and /v1/history routes.
	State *state.Manager
	// Metrics is served on /metrics when set.
	Metrics http.Handler
	Logger  log.Log

	// Reference is the point threats are ranked against when a request
	// does not name one.
	Reference      physics.Vec3
	StreamInterval time.Duration
	TopThreats     int

	CORSOrigins []string
	// RateLimit is requests per second across all clients; zero disables
	// limiting.
	RateLimit float64
	Burst     int
}

type handlers struct {
	runner   *director.Runner
	logger   log.Log
	ref      physics.Vec3
	interval time.Duration
	top      int

	// guards state; the manager is not safe for concurrent use
	stateMu sync.Mutex
	state   *state.Manager
}

// NewRouter builds the HTTP surface. It starts no goroutines and opens no
// listeners, so it can be served by httptest directly.
func NewRouter(opts Options) (*chi.Mux, error) {
	if opts.Runner == nil {
		return nil, ErrMissingRunner
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNop()
	}
	if opts.StreamInterval <= 0 {
		opts.StreamInterval = DefaultStreamInterval
	}
	if opts.TopThreats <= 0 {
		opts.TopThreats = DefaultTopThreats
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}

	h := &handlers{
		runner:   opts.Runner,
		logger:   opts.Logger.Named("http"),
		ref:      opts.Reference,
		interval: opts.StreamInterval,
		top:      opts.TopThreats,
		state:    opts.State,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	if opts.RateLimit > 0 {
		r.Use(newLimiter(opts.RateLimit, opts.Burst).middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.handleHealth)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/counters", h.handleCounters)
		r.Get("/nearest", h.handleNearest)
		r.Get("/radius", h.handleRadius)
		r.Get("/threats", h.handleThreats)
		r.Get("/threats/queue", h.handleThreatQueue)
		r.Get("/entities/{key}", h.handleEntity)
		r.Get("/entities/by-id/{id}", h.handleEntityByID)
		r.Get("/path", h.handlePath)
		r.Post("/paths", h.handlePaths)
		r.Get("/waves", h.handleWaves)
		r.Post("/waves/kill", h.handleKill)
		r.Get("/stream", h.handleStream)

		if h.state != nil {
			r.Get("/slots", h.handleListSlots)
			r.Post("/slots/{slot}", h.handleSaveSlot)
			r.Get("/slots/{slot}", h.handleLoadSlot)
			r.Delete("/slots/{slot}", h.handleDeleteSlot)
			r.Get("/history", h.handleHistory)
			r.Post("/history/undo", h.handleUndo)
			r.Post("/history/redo", h.handleRedo)
		}
	})

	return r, nil
}
