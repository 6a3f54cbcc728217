package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lzjever/wsorch/internal/core"
)

func TestParsePort(t *testing.T) {
	p, err := parsePort("ssh:2222/tcp")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if p != (core.Port{Name: "ssh", ContainerPort: 2222, Protocol: "TCP"}) {
		t.Errorf("unexpected port %+v", p)
	}

	p, err = parsePort("http:8080")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if p.Protocol != "" {
		t.Errorf("expected empty protocol for server default, got %s", p.Protocol)
	}

	for _, bad := range []string{"8080", "http:abc", "http:"} {
		if _, err := parsePort(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestClientDecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"code":"WSO_PROVISIONING_FAILED","message":"apply Service failed","kind":"Service"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Post("/v1/workspaces", map[string]string{"name": "demo-1"}, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Kind != "Service" {
		t.Errorf("unexpected error %+v", apiErr)
	}
	if apiErr.Error() != "WSO_PROVISIONING_FAILED (Service): apply Service failed" {
		t.Errorf("unexpected message %q", apiErr.Error())
	}
}

func TestClientNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Get("/readyz", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", apiErr.Status)
	}
}

func TestClientPatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Write([]byte(`{"name":"demo-1","cpu":"2","memory":"2048Mi"}`))
	}))
	defer srv.Close()

	var d core.WorkspaceDetail
	if err := NewClient(srv.URL).Patch("/v1/workspaces/demo-1/resources", map[string]string{"cpu": "2"}, &d); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if d.CPU != "2" {
		t.Errorf("expected cpu 2, got %s", d.CPU)
	}
}
