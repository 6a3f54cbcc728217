package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lzjever/wsorch/internal/api/middleware"
)

type CreateReleaseRequest struct {
	Tag   string `json:"tag"`
	Notes string `json:"notes,omitempty"`
}

// CreateRelease returns 201 when the release was created right away and 202
// when it will be created after the workspace stops.
func (a *API) CreateRelease(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req CreateReleaseRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	res, err := a.orch.CreateRelease(r.Context(), name, req.Tag, req.Notes)
	if err != nil {
		a.fail(w, r, "create release", err)
		return
	}

	a.writeAudit(r.Context(), middleware.GetRequestID(r), name, "release.create", req)
	status := http.StatusCreated
	if res.NeedsWaiting {
		status = http.StatusAccepted
	}
	WriteJSON(w, status, res)
}

func (a *API) GetRelease(w http.ResponseWriter, r *http.Request) {
	rel, err := a.orch.GetRelease(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "tag"))
	if err != nil {
		a.fail(w, r, "get release", err)
		return
	}
	WriteJSON(w, http.StatusOK, rel)
}

func (a *API) DeleteRelease(w http.ResponseWriter, r *http.Request) {
	name, tag := chi.URLParam(r, "name"), chi.URLParam(r, "tag")
	if err := a.orch.DeleteRelease(r.Context(), name, tag); err != nil {
		a.fail(w, r, "delete release", err)
		return
	}
	a.writeAudit(r.Context(), middleware.GetRequestID(r), name, "release.delete", map[string]string{"tag": tag})
	w.WriteHeader(http.StatusNoContent)
}

// ListReleases lists releases, optionally only those of ?workspace=.
func (a *API) ListReleases(w http.ResponseWriter, r *http.Request) {
	rels, err := a.orch.ListReleases(r.Context(), r.URL.Query().Get("workspace"))
	if err != nil {
		a.fail(w, r, "list releases", err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"releases": rels,
	})
}
