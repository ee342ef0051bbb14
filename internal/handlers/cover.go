package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"coverart/internal/cover"
	"coverart/internal/logging"
	"coverart/internal/middleware"

	"github.com/gorilla/mux"
)

// DefaultCoverSize is the width served when the request has no size
// parameter.
const DefaultCoverSize = 512

// Cache lifetimes sent to clients. The default cover is kept briefly so that
// newly added artwork shows up.
const (
	coverMaxAge        = "public, max-age=86400"
	defaultCoverMaxAge = "public, max-age=300"
)

// GetCover serves GET /api/cover/{kind}/{id}?size=N.
func (h *Handlers) GetCover(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	kind, err := cover.ParseKind(vars["kind"])
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusNotFound)
		return
	}

	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeJSONError(w, "invalid id", http.StatusBadRequest)
		return
	}

	width := DefaultCoverSize
	if sizeStr := r.URL.Query().Get("size"); sizeStr != "" {
		width, err = strconv.Atoi(sizeStr)
		if err != nil {
			writeJSONError(w, "invalid size", http.StatusBadRequest)
			return
		}
	}

	img, source, err := h.covers.GetWithSource(r.Context(), kind, id, width)
	switch {
	case errors.Is(err, cover.ErrInvalidWidth):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		logging.Error("Cover: %s %d at %d failed: %v", kind, id, width, err)
		writeJSONError(w, "failed to get cover", http.StatusInternalServerError)
		return
	}

	cacheStatus := "miss"
	if source == cover.SourceCache {
		cacheStatus = "hit"
	}
	maxAge := coverMaxAge
	if source == cover.SourceDefault {
		maxAge = defaultCoverMaxAge
	}

	w.Header().Set("Content-Type", img.MimeType())
	w.Header().Set("Content-Length", strconv.FormatInt(img.Size(), 10))
	w.Header().Set("Cache-Control", maxAge)
	w.Header().Set(middleware.CacheStatusHeader, cacheStatus)
	w.Header().Set("X-Cover-Source", source)
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(img.Data()); err != nil {
		logging.Debug("Cover: write %s %d: %v", kind, id, err)
	}
}

// FlushCache serves POST /api/cover/flush.
func (h *Handlers) FlushCache(w http.ResponseWriter, _ *http.Request) {
	h.covers.FlushCache()
	logging.Info("Cover cache flushed")
	writeJSONStatus(w, "flushed")
}

// GetCacheStats serves GET /api/cover/stats.
func (h *Handlers) GetCacheStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, h.covers.Stats())
}
