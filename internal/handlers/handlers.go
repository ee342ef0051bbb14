package handlers

import (
	"context"
	"net/http"
	"time"

	"coverart/internal/cover"

	"github.com/gorilla/mux"
)

// CoverService is the part of *cover.Grabber the HTTP layer uses.
type CoverService interface {
	GetWithSource(ctx context.Context, kind cover.EntityKind, id int64, width int) (*cover.EncodedImage, string, error)
	FlushCache()
	Stats() cover.Stats
}

// Pinger reports whether the library database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers serves the cover API and the operational endpoints.
type Handlers struct {
	covers    CoverService
	db        Pinger
	startTime time.Time
}

// New creates Handlers. db may be nil, in which case readiness only depends
// on the cover service.
func New(covers CoverService, db Pinger) *Handlers {
	return &Handlers{
		covers:    covers,
		db:        db,
		startTime: time.Now(),
	}
}

// RegisterRoutes adds the service routes to r.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	// Health check endpoints
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	api := r.PathPrefix("/api/cover").Subrouter()
	api.HandleFunc("/stats", h.GetCacheStats).Methods(http.MethodGet)
	api.HandleFunc("/flush", h.FlushCache).Methods(http.MethodPost)
	api.HandleFunc("/{kind:track|release}/{id}", h.GetCover).Methods(http.MethodGet, http.MethodHead)
}
