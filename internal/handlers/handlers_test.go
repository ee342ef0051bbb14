package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"coverart/internal/cover"
	"coverart/internal/middleware"

	"github.com/gorilla/mux"
)

// fakeCovers answers every valid request with "<kind>/<id>@<width>".
type fakeCovers struct {
	mu       sync.Mutex
	source   string
	err      error
	requests []cover.Key
	flushes  int
	stats    cover.Stats
}

func (f *fakeCovers) GetWithSource(_ context.Context, kind cover.EntityKind, id int64, width int) (*cover.EncodedImage, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, cover.Key{Kind: kind, ID: id, Width: width})
	if f.err != nil {
		return nil, "", f.err
	}
	if width < 1 || width > cover.MaxWidth {
		return nil, "", fmt.Errorf("%w: %d", cover.ErrInvalidWidth, width)
	}
	data := fmt.Sprintf("%s/%d@%d", kind, id, width)
	return cover.NewEncodedImage([]byte(data), "image/jpeg"), f.source, nil
}

func (f *fakeCovers) FlushCache() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
}

func (f *fakeCovers) Stats() cover.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func (f *fakeCovers) lastRequest() cover.Key {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return cover.Key{}
	}
	return f.requests[len(f.requests)-1]
}

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(context.Context) error { return p.err }

func newTestRouter(covers CoverService, db Pinger) *mux.Router {
	router := mux.NewRouter()
	New(covers, db).RegisterRoutes(router)
	return router
}

func serve(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, http.NoBody))
	return w
}

func TestGetCover(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		source     string
		wantStatus int
		wantBody   string
		wantKey    cover.Key
		wantCache  string
		wantMaxAge string
	}{
		{
			name:       "track with default size",
			target:     "/api/cover/track/12",
			source:     cover.SourceDirectory,
			wantStatus: http.StatusOK,
			wantBody:   "track/12@512",
			wantKey:    cover.Key{Kind: cover.KindTrack, ID: 12, Width: DefaultCoverSize},
			wantCache:  "miss",
			wantMaxAge: coverMaxAge,
		},
		{
			name:       "release with explicit size",
			target:     "/api/cover/release/3?size=150",
			source:     cover.SourceCache,
			wantStatus: http.StatusOK,
			wantBody:   "release/3@150",
			wantKey:    cover.Key{Kind: cover.KindRelease, ID: 3, Width: 150},
			wantCache:  "hit",
			wantMaxAge: coverMaxAge,
		},
		{
			name:       "default cover is short lived",
			target:     "/api/cover/track/404?size=64",
			source:     cover.SourceDefault,
			wantStatus: http.StatusOK,
			wantBody:   "track/404@64",
			wantKey:    cover.Key{Kind: cover.KindTrack, ID: 404, Width: 64},
			wantCache:  "miss",
			wantMaxAge: defaultCoverMaxAge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			covers := &fakeCovers{source: tt.source}
			w := serve(t, newTestRouter(covers, nil), http.MethodGet, tt.target)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %q)", w.Code, tt.wantStatus, w.Body.String())
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
			if got := covers.lastRequest(); got != tt.wantKey {
				t.Errorf("request = %v, want %v", got, tt.wantKey)
			}

			headers := map[string]string{
				"Content-Type":               "image/jpeg",
				"Content-Length":             fmt.Sprint(len(tt.wantBody)),
				"Cache-Control":              tt.wantMaxAge,
				middleware.CacheStatusHeader: tt.wantCache,
				"X-Cover-Source":             tt.source,
			}
			for k, v := range headers {
				if got := w.Header().Get(k); got != v {
					t.Errorf("header %s = %q, want %q", k, got, v)
				}
			}
		})
	}
}

func TestGetCoverHead(t *testing.T) {
	covers := &fakeCovers{source: cover.SourceEmbedded}
	w := serve(t, newTestRouter(covers, nil), http.MethodHead, "/api/cover/track/1?size=32")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("HEAD returned a body of %d bytes", w.Body.Len())
	}
	if w.Header().Get("Content-Length") != "10" {
		t.Errorf("Content-Length = %q, want 10", w.Header().Get("Content-Length"))
	}
}

func TestGetCoverBadRequests(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"non numeric id", "/api/cover/track/abc", http.StatusBadRequest},
		{"non numeric size", "/api/cover/track/1?size=big", http.StatusBadRequest},
		{"zero size", "/api/cover/track/1?size=0", http.StatusBadRequest},
		{"negative size", "/api/cover/release/1?size=-5", http.StatusBadRequest},
		{"oversized", fmt.Sprintf("/api/cover/track/1?size=%d", cover.MaxWidth+1), http.StatusBadRequest},
		{"unknown kind", "/api/cover/artist/1", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, newTestRouter(&fakeCovers{}, nil), http.MethodGet, tt.target)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %q)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestGetCoverInvalidKindDirectCall(t *testing.T) {
	h := New(&fakeCovers{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cover/artist/1", http.NoBody)
	req = mux.SetURLVars(req, map[string]string{"kind": "artist", "id": "1"})
	w := httptest.NewRecorder()
	h.GetCover(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetCoverServiceError(t *testing.T) {
	covers := &fakeCovers{err: errors.New("boom")}
	w := serve(t, newTestRouter(covers, nil), http.MethodGet, "/api/cover/track/1")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["error"] == "" {
		t.Errorf("error body = %q (%v)", w.Body.String(), err)
	}
}

func TestFlushCache(t *testing.T) {
	covers := &fakeCovers{}
	router := newTestRouter(covers, nil)

	w := serve(t, router, http.MethodPost, "/api/cover/flush")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if covers.flushes != 1 {
		t.Errorf("flushes = %d, want 1", covers.flushes)
	}

	if w := serve(t, router, http.MethodGet, "/api/cover/flush"); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET flush status = %d, want 405", w.Code)
	}
}

func TestGetCacheStats(t *testing.T) {
	want := cover.Stats{Hits: 5, Misses: 2, Evictions: 1, Entries: 3, ByteTotal: 900, MaxBytes: 1000, DefaultEntries: 1}
	w := serve(t, newTestRouter(&fakeCovers{stats: want}, nil), http.MethodGet, "/api/cover/stats")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got cover.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if got != want {
		t.Errorf("stats = %+v, want %+v", got, want)
	}
}

func TestGetCoverConcurrent(t *testing.T) {
	covers := &fakeCovers{source: cover.SourceCache}
	router := newTestRouter(covers, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/cover/track/%d", id), http.NoBody))
			if w.Code != http.StatusOK {
				t.Errorf("request %d status = %d", id, w.Code)
			}
		}(i)
	}
	wg.Wait()

	if len(covers.requests) != 20 {
		t.Errorf("requests = %d, want 20", len(covers.requests))
	}
}
