package core

import "time"

// StateIntent is the declared state of a workspace.
type StateIntent string

const (
	StateRunning StateIntent = "Running"
	StateStopped StateIntent = "Stopped"
)

type Port struct {
	Name          string `json:"name"`
	ContainerPort int32  `json:"container_port"`
	Protocol      string `json:"protocol"`
}

// CreateWorkspaceParams are the inputs to provisioning.
type CreateWorkspaceParams struct {
	Name       string `json:"name"`
	HostPrefix string `json:"host_prefix"`
	HostSuffix string `json:"host_suffix"`
	TemplateID string `json:"template_id"`
	Image      string `json:"image"`
	CPU        string `json:"cpu,omitempty"`
	Memory     string `json:"memory,omitempty"`
	Ports      []Port `json:"ports,omitempty"`
}

type WorkspaceSummary struct {
	Name      string    `json:"name"`
	Status    Phase     `json:"status"`
	URL       string    `json:"url"`
	CPU       string    `json:"cpu"`
	Memory    string    `json:"memory"`
	CreatedAt time.Time `json:"created_at"`
	Namespace string    `json:"namespace"`
}

type WorkspaceDetail struct {
	WorkspaceSummary
	State      StateIntent    `json:"state"`
	Image      string         `json:"image"`
	TemplateID string         `json:"template_id"`
	Ports      []Port         `json:"ports"`
	RawStatus  map[string]any `json:"raw_status,omitempty"`
}

// DeleteResult is returned by teardown. Success is false only when the
// workspace object itself could not be deleted, in which case an error is
// returned instead.
type DeleteResult struct {
	Success  bool     `json:"success"`
	Warnings []string `json:"warnings,omitempty"`
}
