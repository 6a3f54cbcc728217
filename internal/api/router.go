package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lzjever/wsorch/internal/api/middleware"
	"github.com/lzjever/wsorch/internal/core"
	"github.com/lzjever/wsorch/internal/orchestrator"
	"github.com/lzjever/wsorch/internal/store"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type API struct {
	orch    *orchestrator.Orchestrator
	auditor store.Auditor
	db      Pinger
	log     *zap.Logger
}

// NewAPI wires handlers to the orchestrator. auditor and db may be nil when
// no database is configured.
func NewAPI(orch *orchestrator.Orchestrator, auditor store.Auditor, db Pinger, log *zap.Logger) *API {
	if auditor == nil {
		auditor = store.NopAuditor{}
	}
	return &API{
		orch:    orch,
		auditor: auditor,
		db:      db,
		log:     log,
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recoverer(a.log))
	r.Use(middleware.Logger)
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Health endpoints
	r.Get("/healthz", a.HealthHandler)
	r.Get("/readyz", a.ReadyHandler)

	r.Route("/v1", func(r chi.Router) {
		// Workspaces
		r.Post("/workspaces", a.CreateWorkspace)
		r.Get("/workspaces/{name}", a.GetWorkspace)
		r.Delete("/workspaces/{name}", a.DeleteWorkspace)
		r.Post("/workspaces/{name}/start", a.StartWorkspace)
		r.Post("/workspaces/{name}/stop", a.StopWorkspace)
		r.Patch("/workspaces/{name}/resources", a.PatchResources)
		r.Post("/workspaces/{name}/exec", a.Exec)

		// Releases
		r.Get("/releases", a.ListReleases)
		r.Post("/workspaces/{name}/releases", a.CreateRelease)
		r.Get("/workspaces/{name}/releases/{tag}", a.GetRelease)
		r.Delete("/workspaces/{name}/releases/{tag}", a.DeleteRelease)
	})

	return r
}

// writeAudit records an API action. Failures are logged, never returned.
func (a *API) writeAudit(ctx context.Context, requestID, workspace, action string, payload interface{}) {
	var payloadBytes []byte
	if payload != nil {
		payloadBytes, _ = json.Marshal(payload)
	}
	var reqID *string
	if requestID != "" {
		reqID = &requestID
	}
	err := a.auditor.Record(context.WithoutCancel(ctx), core.AuditEvent{
		Namespace: a.orch.Namespace(),
		Workspace: workspace,
		Action:    action,
		RequestID: reqID,
		Payload:   payloadBytes,
	})
	if err != nil {
		a.log.Warn("audit write failed",
			zap.String("action", action),
			zap.String("workspace", workspace),
			zap.Error(err),
		)
	}
}

// fail writes err, logging anything that is not a caller mistake.
func (a *API) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	appErr := core.AsAppError(err)
	if appErr.Code.HTTPStatus() >= http.StatusInternalServerError {
		a.log.Error(op+" failed",
			zap.String("request_id", middleware.GetRequestID(r)),
			zap.Error(err),
		)
	}
	WriteError(w, appErr)
}
