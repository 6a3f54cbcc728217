package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r)
	}))

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"caller id kept", "abc-123", true},
		{"missing", "", false},
		{"too long", strings.Repeat("x", 200), false},
		{"control characters", "abc\n123", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if seen == "" {
				t.Fatal("expected a request id in context")
			}
			if got := w.Header().Get(RequestIDHeader); got != seen {
				t.Errorf("response header %q does not match context %q", got, seen)
			}
			if tt.keep && seen != tt.header {
				t.Errorf("expected caller id %q, got %q", tt.header, seen)
			}
			if !tt.keep && seen == tt.header {
				t.Errorf("expected a fresh id, got caller's %q", seen)
			}
		})
	}
}
