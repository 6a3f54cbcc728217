package core

import "time"

// ReleaseName returns the composite key of a release: <workspace>-<tag>.
func ReleaseName(workspace, tag string) string {
	return workspace + "-" + tag
}

type ReleaseSummary struct {
	Name          string    `json:"name"`
	WorkspaceName string    `json:"workspace_name"`
	Tag           string    `json:"tag"`
	Notes         string    `json:"notes,omitempty"`
	Phase         Phase     `json:"phase"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

type ReleaseDetail struct {
	ReleaseSummary
	RawStatus map[string]any `json:"raw_status,omitempty"`
}

// CreateReleaseResult tells the caller whether the release is created
// synchronously or will be created after the workspace stops.
type CreateReleaseResult struct {
	NeedsWaiting bool           `json:"needs_waiting"`
	Message      string         `json:"message,omitempty"`
	Release      ReleaseSummary `json:"release"`
}
