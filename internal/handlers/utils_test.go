package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{"Simple map", map[string]string{"status": "ok"}, `{"status":"ok"}`},
		{"String slice", []string{"a", "b"}, `["a","b"]`},
		{"Number", 42, `42`},
		{"Null", nil, `null`},
		{"HTML escaped", map[string]string{"path": "<a&b>"}, `{"path":"\u003ca\u0026b\u003e"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeJSON(w, tt.input)

			if got := strings.TrimSpace(w.Body.String()); got != tt.expected {
				t.Errorf("writeJSON(%v) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestWriteJSONUnsupportedType(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, make(chan int))

	if w.Body.Len() != 0 {
		t.Errorf("unsupported value wrote %q", w.Body.String())
	}
}

func TestWriteJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSONError(w, "invalid size", http.StatusBadRequest)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["error"] != "invalid size" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestWriteJSONStatus(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSONStatus(w, "flushed")

	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["status"] != "flushed" {
		t.Errorf("body = %q", w.Body.String())
	}
}
