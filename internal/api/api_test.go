package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	clienttesting "k8s.io/client-go/testing"

	"github.com/lzjever/wsorch/internal/core"
	"github.com/lzjever/wsorch/internal/gateway"
	"github.com/lzjever/wsorch/internal/orchestrator"
	"github.com/lzjever/wsorch/internal/testutil"
	"github.com/lzjever/wsorch/internal/worker"
)

const ns = "ws-test"

type recordingAuditor struct {
	mu     sync.Mutex
	events []core.AuditEvent
	err    error
}

func (a *recordingAuditor) Record(_ context.Context, ev core.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
	return a.err
}

func (a *recordingAuditor) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.events))
	for _, ev := range a.events {
		out = append(out, ev.Action)
	}
	return out
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type testServer struct {
	cp      *testutil.ControlPlane
	auditor *recordingAuditor
	handler http.Handler
}

func newTestServer(t *testing.T, db Pinger, objs ...runtime.Object) *testServer {
	t.Helper()
	cp := testutil.NewControlPlane(ns, objs...)
	pool := worker.New(worker.Config{Workers: 1, QueueSize: 4}, zap.NewNop())
	pool.Start()
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })

	cfg := orchestrator.DefaultConfig()
	cfg.ReadyPollInterval = 5 * time.Millisecond
	cfg.ReadyTimeout = 500 * time.Millisecond
	cfg.ReleasePollInterval = 5 * time.Millisecond
	cfg.ReleaseTimeout = 100 * time.Millisecond

	auditor := &recordingAuditor{}
	orch := orchestrator.New(cp.Gateway, pool, cfg, zap.NewNop())
	return &testServer{
		cp:      cp,
		auditor: auditor,
		handler: NewAPI(orch, auditor, db, zap.NewNop()).Router(),
	}
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse error response %q: %s", w.Body.String(), err)
	}
	return resp
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do("GET", "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("expected body OK, got %s", w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestReadyHandler(t *testing.T) {
	s := newTestServer(t, pingerFunc(func(context.Context) error { return nil }))
	if w := s.do("GET", "/readyz", nil); w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	s = newTestServer(t, pingerFunc(func(context.Context) error { return errors.New("connection refused") }))
	if w := s.do("GET", "/readyz", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 for db down, got %d", w.Code)
	}

	s = newTestServer(t, nil)
	s.cp.FailOn("list", gateway.KindWorkspace, "", apierrors.NewServiceUnavailable("down"))
	if w := s.do("GET", "/readyz", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 for control plane down, got %d", w.Code)
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, core.ProvisioningFailed("Service", errors.New("boom")))

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Code != "WSO_PROVISIONING_FAILED" {
		t.Errorf("expected code WSO_PROVISIONING_FAILED, got %s", resp.Code)
	}
	if resp.Kind != "Service" {
		t.Errorf("expected kind Service, got %s", resp.Kind)
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusOK, map[string]string{"key": "value"})

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %s", err)
	}
	if resp["key"] != "value" {
		t.Errorf("expected key=value, got %v", resp)
	}
}

func TestCreateWorkspace(t *testing.T) {
	s := newTestServer(t, nil)
	s.cp.Hook("get", gateway.KindWorkspace, func(n int, _ clienttesting.Action) {
		if n >= 2 {
			_ = s.cp.SetStatus(gateway.KindWorkspace, "demo-1", map[string]any{"phase": "Running"})
		}
	})

	w := s.do("POST", "/v1/workspaces", core.CreateWorkspaceParams{
		Name:       "demo-1",
		HostPrefix: "abcdefgh12",
		HostSuffix: "cloud.example.com",
		TemplateID: "go-1.22",
		Image:      "ghcr.io/example/devenv:1.2",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var summary core.WorkspaceSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("failed to parse response: %s", err)
	}
	if summary.Status != core.PhaseRunning {
		t.Errorf("expected Running, got %s", summary.Status)
	}
	if summary.URL != "https://abcdefgh12.cloud.example.com" {
		t.Errorf("unexpected url %s", summary.URL)
	}
	if got := s.auditor.actions(); len(got) != 1 || got[0] != "workspace.create" {
		t.Errorf("expected one workspace.create audit event, got %v", got)
	}
}

func TestCreateWorkspaceRejectsBadInput(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest("POST", "/v1/workspaces", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for malformed body, got %d", w.Code)
	}

	w = s.do("POST", "/v1/workspaces", map[string]string{"name": "demo-1", "owner": "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for unknown field, got %d", w.Code)
	}

	w = s.do("POST", "/v1/workspaces", core.CreateWorkspaceParams{Name: "demo-1", HostPrefix: "short"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != "WSO_VALIDATION" {
		t.Errorf("expected WSO_VALIDATION, got %s", resp.Code)
	}
	if len(s.cp.Client.Actions()) != 0 {
		t.Errorf("expected no control plane calls, got %d", len(s.cp.Client.Actions()))
	}
	if len(s.auditor.actions()) != 0 {
		t.Errorf("failed requests must not be audited")
	}
}

func TestCreateWorkspaceConflict(t *testing.T) {
	s := newTestServer(t, nil, testutil.Workspace(ns, "demo-1", nil))

	w := s.do("POST", "/v1/workspaces", core.CreateWorkspaceParams{
		Name:       "demo-1",
		HostPrefix: "abcdefgh12",
		HostSuffix: "cloud.example.com",
		TemplateID: "go-1.22",
		Image:      "ghcr.io/example/devenv:1.2",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != "WSO_ALREADY_EXISTS" {
		t.Errorf("expected WSO_ALREADY_EXISTS, got %s", resp.Code)
	}
}

func TestGetWorkspace(t *testing.T) {
	s := newTestServer(t, nil, testutil.Workspace(ns, "demo-1", map[string]any{"phase": "Stopped"}))

	w := s.do("GET", "/v1/workspaces/demo-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var d core.WorkspaceDetail
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("failed to parse response: %s", err)
	}
	if d.Status != core.PhaseStopped {
		t.Errorf("expected Stopped, got %s", d.Status)
	}
	if d.TemplateID != "go-1.22" {
		t.Errorf("expected template go-1.22, got %s", d.TemplateID)
	}

	if w := s.do("GET", "/v1/workspaces/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestDeleteWorkspace(t *testing.T) {
	s := newTestServer(t, nil,
		testutil.Workspace(ns, "demo-1", nil),
		testutil.Owned("v1", "Service", ns, "demo-1", "demo-1"),
	)
	s.cp.FailOn("delete", gateway.KindService, "demo-1", apierrors.NewServiceUnavailable("overloaded"))

	w := s.do("DELETE", "/v1/workspaces/demo-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var res core.DeleteResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to parse response: %s", err)
	}
	if !res.Success || len(res.Warnings) != 1 {
		t.Errorf("expected success with one warning, got %+v", res)
	}
	if s.cp.Exists(gateway.KindWorkspace, "demo-1") {
		t.Error("workspace should be gone")
	}
}

func TestStartStop(t *testing.T) {
	s := newTestServer(t, nil, testutil.Workspace(ns, "demo-1", nil))

	w := s.do("POST", "/v1/workspaces/demo-1/stop", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", w.Code)
	}
	ws, err := s.cp.Object(gateway.KindWorkspace, "demo-1")
	if err != nil {
		t.Fatal(err)
	}
	if state, _, _ := unstructured.NestedString(ws.Object, "spec", "state"); state != "Stopped" {
		t.Errorf("expected spec.state Stopped, got %s", state)
	}

	if w := s.do("POST", "/v1/workspaces/demo-1/start", nil); w.Code != http.StatusAccepted {
		t.Errorf("expected status 202, got %d", w.Code)
	}
	if w := s.do("POST", "/v1/workspaces/ghost/start", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
	if got := s.auditor.actions(); len(got) != 2 || got[0] != "workspace.stop" || got[1] != "workspace.start" {
		t.Errorf("unexpected audit actions %v", got)
	}
}

func TestPatchResources(t *testing.T) {
	s := newTestServer(t, nil, testutil.Workspace(ns, "demo-1", nil))

	w := s.do("PATCH", "/v1/workspaces/demo-1/resources", map[string]string{"memory": "4Gi"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var d core.WorkspaceDetail
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("failed to parse response: %s", err)
	}
	if d.Memory != "4Gi" || d.CPU != "1000m" {
		t.Errorf("expected cpu 1000m and memory 4Gi, got %s/%s", d.CPU, d.Memory)
	}

	if w := s.do("PATCH", "/v1/workspaces/demo-1/resources", map[string]string{}); w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for empty patch, got %d", w.Code)
	}
}

func TestExecWithoutExecutor(t *testing.T) {
	s := newTestServer(t, nil, testutil.Owned("v1", "Pod", ns, "demo-1-0", "demo-1"))

	w := s.do("POST", "/v1/workspaces/demo-1/exec", ExecRequest{Command: []string{"uname", "-a"}})
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != "WSO_TRANSPORT" {
		t.Errorf("expected WSO_TRANSPORT, got %s", resp.Code)
	}
}

func TestCreateReleaseStopped(t *testing.T) {
	s := newTestServer(t, nil, testutil.Workspace(ns, "demo-1", map[string]any{"phase": "Stopped"}))

	w := s.do("POST", "/v1/workspaces/demo-1/releases", CreateReleaseRequest{Tag: "v1", Notes: "fix"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var res core.CreateReleaseResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to parse response: %s", err)
	}
	if res.NeedsWaiting {
		t.Error("expected needs_waiting=false")
	}

	w = s.do("GET", "/v1/workspaces/demo-1/releases/v1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var rel core.ReleaseDetail
	if err := json.Unmarshal(w.Body.Bytes(), &rel); err != nil {
		t.Fatalf("failed to parse response: %s", err)
	}
	if rel.Phase != core.PhasePending || rel.Notes != "fix" {
		t.Errorf("unexpected release %+v", rel)
	}

	if w := s.do("POST", "/v1/workspaces/demo-1/releases", CreateReleaseRequest{Tag: "v1"}); w.Code != http.StatusConflict {
		t.Errorf("expected status 409 for duplicate, got %d", w.Code)
	}
}

func TestCreateReleaseRunning(t *testing.T) {
	s := newTestServer(t, nil, testutil.Workspace(ns, "demo-1", map[string]any{"phase": "Running"}))

	w := s.do("POST", "/v1/workspaces/demo-1/releases", CreateReleaseRequest{Tag: "v1"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", w.Code)
	}
	var res core.CreateReleaseResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to parse response: %s", err)
	}
	if !res.NeedsWaiting || res.Release.Phase != core.PhasePending {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestReleaseOwnershipAndList(t *testing.T) {
	s := newTestServer(t, nil,
		testutil.Release(ns, "a-b", "c"),
		testutil.Release(ns, "demo-1", "v1"),
	)

	w := s.do("DELETE", "/v1/workspaces/a/releases/b-c", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != "WSO_OWNERSHIP_MISMATCH" {
		t.Errorf("expected WSO_OWNERSHIP_MISMATCH, got %s", resp.Code)
	}

	w = s.do("GET", "/v1/releases?workspace=demo-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var list struct {
		Releases []core.ReleaseSummary `json:"releases"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to parse response: %s", err)
	}
	if len(list.Releases) != 1 || list.Releases[0].Name != "demo-1-v1" {
		t.Errorf("unexpected releases %+v", list.Releases)
	}

	if w := s.do("DELETE", "/v1/workspaces/a-b/releases/c", nil); w.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", w.Code)
	}
}

func TestAuditFailureDoesNotFailRequest(t *testing.T) {
	s := newTestServer(t, nil, testutil.Workspace(ns, "demo-1", nil))
	s.auditor.err = errors.New("db down")

	if w := s.do("POST", "/v1/workspaces/demo-1/stop", nil); w.Code != http.StatusAccepted {
		t.Errorf("expected status 202, got %d", w.Code)
	}
}

func TestRecoverer(t *testing.T) {
	r := NewAPI(nil, nil, nil, zap.NewNop()).Router()
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != "WSO_INTERNAL" {
		t.Errorf("expected WSO_INTERNAL, got %s", resp.Code)
	}
}
