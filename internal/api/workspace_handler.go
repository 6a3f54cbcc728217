package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lzjever/wsorch/internal/api/middleware"
	"github.com/lzjever/wsorch/internal/core"
)

type PatchResourcesRequest struct {
	CPU    *string `json:"cpu,omitempty"`
	Memory *string `json:"memory,omitempty"`
}

type ExecRequest struct {
	Container string   `json:"container,omitempty"`
	Command   []string `json:"command"`
}

// CreateWorkspace provisions a workspace and blocks until it is Running.
func (a *API) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req core.CreateWorkspaceParams
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	summary, err := a.orch.CreateWorkspace(r.Context(), req)
	if err != nil {
		a.fail(w, r, "create workspace", err)
		return
	}

	a.writeAudit(r.Context(), middleware.GetRequestID(r), req.Name, "workspace.create", req)
	WriteJSON(w, http.StatusCreated, summary)
}

// GetWorkspace returns a workspace with its derived phase.
func (a *API) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	d, err := a.orch.GetWorkspace(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		a.fail(w, r, "get workspace", err)
		return
	}
	WriteJSON(w, http.StatusOK, d)
}

// DeleteWorkspace tears a workspace down. Dependent resources that could not
// be removed are reported as warnings.
func (a *API) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	res, err := a.orch.DeleteWorkspace(r.Context(), name)
	if err != nil {
		a.fail(w, r, "delete workspace", err)
		return
	}

	a.writeAudit(r.Context(), middleware.GetRequestID(r), name, "workspace.delete", res)
	WriteJSON(w, http.StatusOK, res)
}

func (a *API) StartWorkspace(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := a.orch.Start(r.Context(), name); err != nil {
		a.fail(w, r, "start workspace", err)
		return
	}
	a.writeAudit(r.Context(), middleware.GetRequestID(r), name, "workspace.start", nil)
	WriteAccepted(w, name, core.StateRunning)
}

func (a *API) StopWorkspace(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := a.orch.Stop(r.Context(), name); err != nil {
		a.fail(w, r, "stop workspace", err)
		return
	}
	a.writeAudit(r.Context(), middleware.GetRequestID(r), name, "workspace.stop", nil)
	WriteAccepted(w, name, core.StateStopped)
}

// PatchResources changes CPU and/or memory. Omitted fields are left as they
// are.
func (a *API) PatchResources(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req PatchResourcesRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	d, err := a.orch.UpdateResources(r.Context(), name, req.CPU, req.Memory)
	if err != nil {
		a.fail(w, r, "patch resources", err)
		return
	}

	a.writeAudit(r.Context(), middleware.GetRequestID(r), name, "workspace.resources", req)
	WriteJSON(w, http.StatusOK, d)
}

// Exec runs a command in the workspace pod and returns its output.
func (a *API) Exec(w http.ResponseWriter, r *http.Request) {
	var req ExecRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	res, err := a.orch.Exec(r.Context(), chi.URLParam(r, "name"), req.Container, req.Command)
	if err != nil {
		a.fail(w, r, "exec", err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}
