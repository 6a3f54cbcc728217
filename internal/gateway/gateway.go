// Package gateway is the only code that talks to the control plane. It exposes
// namespace-scoped CRUD over the handful of resource kinds the orchestrator
// manages, plus an exec primitive.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

type Kind string

const (
	KindWorkspace Kind = "Workspace"
	KindRelease   Kind = "WorkspaceRelease"
	KindService   Kind = "Service"
	KindRoute     Kind = "Route"
	KindSecret    Kind = "Secret"
	KindPod       Kind = "Pod"
)

const (
	Group   = "workspace.devbox.io"
	Version = "v1alpha1"

	// LabelWorkspaceName binds services, routes and pods to their workspace.
	LabelWorkspaceName = Group + "/workspace-name"
	// AnnotationDomain carries a precomputed external host for a workspace.
	AnnotationDomain = Group + "/domain"
	LabelManagedBy   = "app.kubernetes.io/managed-by"
	ManagerName      = "wsorch"
)

var resources = map[Kind]schema.GroupVersionResource{
	KindWorkspace: {Group: Group, Version: Version, Resource: "workspaces"},
	KindRelease:   {Group: Group, Version: Version, Resource: "workspacereleases"},
	KindService:   {Group: "", Version: "v1", Resource: "services"},
	KindRoute:     {Group: "networking.k8s.io", Version: "v1", Resource: "ingresses"},
	KindSecret:    {Group: "", Version: "v1", Resource: "secrets"},
	KindPod:       {Group: "", Version: "v1", Resource: "pods"},
}

// ListKinds maps every managed resource to its list kind. Fake dynamic
// clients need it to serve List calls.
var ListKinds = map[schema.GroupVersionResource]string{
	resources[KindWorkspace]: "WorkspaceList",
	resources[KindRelease]:   "WorkspaceReleaseList",
	resources[KindService]:   "ServiceList",
	resources[KindRoute]:     "IngressList",
	resources[KindSecret]:    "SecretList",
	resources[KindPod]:       "PodList",
}

// Resource returns the GroupVersionResource backing kind.
func Resource(kind Kind) schema.GroupVersionResource {
	return resources[kind]
}

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrExecDisabled  = errors.New("exec is not configured")
)

// TransportError wraps every control-plane failure that is neither a
// not-found nor an already-exists.
type TransportError struct {
	Op   string
	Kind Kind
	Name string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s %q: %v", e.Op, e.Kind, e.Name, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }
func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }

type ExecRequest struct {
	Pod       string
	Container string
	Command   []string
}

type ExecResult struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// Gateway is the control-plane surface consumed by the orchestrator.
type Gateway interface {
	Namespace() string
	Get(ctx context.Context, kind Kind, name string) (*unstructured.Unstructured, error)
	List(ctx context.Context, kind Kind, labelSelector string) ([]unstructured.Unstructured, error)
	Create(ctx context.Context, kind Kind, obj *unstructured.Unstructured) (*unstructured.Unstructured, error)
	// Patch applies a JSON merge patch.
	Patch(ctx context.Context, kind Kind, name string, patch []byte) (*unstructured.Unstructured, error)
	Delete(ctx context.Context, kind Kind, name string) error
	Exec(ctx context.Context, req ExecRequest) (ExecResult, error)
}
