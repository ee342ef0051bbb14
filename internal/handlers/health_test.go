package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"testing"

	"coverart/internal/cover"
)

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name         string
		db           Pinger
		wantStatus   int
		wantHealth   string
		wantDatabase string
	}{
		{"no database", nil, http.StatusOK, statusHealthy, "ok"},
		{"database reachable", &fakePinger{}, http.StatusOK, statusHealthy, "ok"},
		{"database down", &fakePinger{err: errors.New("disk I/O error")}, http.StatusServiceUnavailable, statusDegraded, "unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := cover.Stats{Hits: 3, Entries: 2, MaxBytes: 1 << 20, DefaultEntries: 1}
			router := newTestRouter(&fakeCovers{stats: stats}, tt.db)

			for _, path := range []string{"/health", "/healthz"} {
				w := serve(t, router, http.MethodGet, path)
				if w.Code != tt.wantStatus {
					t.Errorf("%s status = %d, want %d", path, w.Code, tt.wantStatus)
				}

				var resp HealthResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("%s: decode: %v", path, err)
				}
				if resp.Status != tt.wantHealth || resp.Database != tt.wantDatabase {
					t.Errorf("%s: status/database = %s/%s, want %s/%s", path, resp.Status, resp.Database, tt.wantHealth, tt.wantDatabase)
				}
				if resp.Ready != (tt.wantStatus == http.StatusOK) {
					t.Errorf("%s: ready = %v", path, resp.Ready)
				}
				if (resp.Error != "") == resp.Ready {
					t.Errorf("%s: error = %q with ready = %v", path, resp.Error, resp.Ready)
				}
				if resp.Cache != stats {
					t.Errorf("%s: cache = %+v, want %+v", path, resp.Cache, stats)
				}
				if resp.GoVersion != runtime.Version() || resp.NumCPU != runtime.NumCPU() || resp.Uptime == "" {
					t.Errorf("%s: system info = %+v", path, resp)
				}
			}
		})
	}
}

func TestLivenessCheck(t *testing.T) {
	router := newTestRouter(&fakeCovers{}, &fakePinger{err: errors.New("down")})

	w := serve(t, router, http.MethodGet, "/livez")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, liveness must not depend on the database", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["status"] != "alive" {
		t.Errorf("body = %q", w.Body.String())
	}

	w = serve(t, router, http.MethodHead, "/livez")
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Errorf("HEAD /livez = %d with %d body bytes", w.Code, w.Body.Len())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestReadinessCheck(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
		wantBody   string
	}{
		{"ready without database", nil, http.StatusOK, "ready"},
		{"ready", &fakePinger{}, http.StatusOK, "ready"},
		{"not ready", &fakePinger{err: errors.New("locked")}, http.StatusServiceUnavailable, "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, newTestRouter(&fakeCovers{}, tt.db), http.MethodGet, "/readyz")
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["status"] != tt.wantBody {
				t.Errorf("body = %q, want status %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestHealthResponseOmitsEmptyError(t *testing.T) {
	data, err := json.Marshal(HealthResponse{Status: statusHealthy})
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["error"]; ok {
		t.Error("empty error should be omitted")
	}
	if _, ok := raw["cache"]; !ok {
		t.Error("cache stats should always be present")
	}
}
