// Package testutil provides an in-memory control plane for orchestrator and
// API tests.
package testutil

import (
	"fmt"
	"sync"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	clienttesting "k8s.io/client-go/testing"

	"github.com/lzjever/wsorch/internal/gateway"
)

// ControlPlane wraps a fake dynamic client and a gateway bound to it.
type ControlPlane struct {
	Client    *dynamicfake.FakeDynamicClient
	Gateway   *gateway.Kube
	Namespace string

	mu     sync.Mutex
	counts map[string]int
}

func NewControlPlane(namespace string, objs ...runtime.Object) *ControlPlane {
	client := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), gateway.ListKinds, objs...)
	return &ControlPlane{
		Client:    client,
		Gateway:   gateway.New(client, namespace),
		Namespace: namespace,
		counts:    map[string]int{},
	}
}

// Object reads an object straight from the tracker, bypassing reactors.
func (c *ControlPlane) Object(kind gateway.Kind, name string) (*unstructured.Unstructured, error) {
	obj, err := c.Client.Tracker().Get(gateway.Resource(kind), c.Namespace, name)
	if err != nil {
		return nil, err
	}
	return obj.(*unstructured.Unstructured), nil
}

// Exists reports whether the tracker holds the named object.
func (c *ControlPlane) Exists(kind gateway.Kind, name string) bool {
	_, err := c.Object(kind, name)
	return err == nil
}

// SetStatus replaces the status of an object in the tracker. Values must be
// JSON-compatible (string, bool, int64, float64, []any, map[string]any).
func (c *ControlPlane) SetStatus(kind gateway.Kind, name string, status map[string]any) error {
	obj, err := c.Object(kind, name)
	if err != nil {
		return err
	}
	obj = obj.DeepCopy()
	obj.Object["status"] = status
	return c.Client.Tracker().Update(gateway.Resource(kind), obj, c.Namespace)
}

// FailOn makes verb on kind fail with err. An empty name matches every object.
func (c *ControlPlane) FailOn(verb string, kind gateway.Kind, name string, err error) {
	c.Client.PrependReactor(verb, gateway.Resource(kind).Resource, func(action clienttesting.Action) (bool, runtime.Object, error) {
		if name != "" && actionName(action) != name {
			return false, nil, nil
		}
		return true, nil, err
	})
}

// Hook runs fn before verb on kind reaches the tracker. fn receives the
// number of matching calls so far, starting at 1. It must not call back into
// Client; use the tracker helpers instead.
func (c *ControlPlane) Hook(verb string, kind gateway.Kind, fn func(n int, action clienttesting.Action)) {
	key := verb + "/" + string(kind)
	c.Client.PrependReactor(verb, gateway.Resource(kind).Resource, func(action clienttesting.Action) (bool, runtime.Object, error) {
		c.mu.Lock()
		c.counts[key]++
		n := c.counts[key]
		c.mu.Unlock()
		fn(n, action)
		return false, nil, nil
	})
}

// Mutations lists "verb resource/name" for every create, patch and delete
// the client has seen, in order.
func (c *ControlPlane) Mutations() []string {
	var out []string
	for _, a := range c.Client.Actions() {
		switch a.GetVerb() {
		case "create", "patch", "delete":
			out = append(out, fmt.Sprintf("%s %s/%s", a.GetVerb(), a.GetResource().Resource, actionName(a)))
		}
	}
	return out
}

func actionName(action clienttesting.Action) string {
	switch a := action.(type) {
	case clienttesting.GetAction:
		return a.GetName()
	case clienttesting.DeleteAction:
		return a.GetName()
	case clienttesting.PatchAction:
		return a.GetName()
	case clienttesting.CreateAction:
		if m, err := meta.Accessor(a.GetObject()); err == nil {
			return m.GetName()
		}
	case clienttesting.UpdateAction:
		if m, err := meta.Accessor(a.GetObject()); err == nil {
			return m.GetName()
		}
	}
	return ""
}

// Workspace builds a workspace object with the given status.
func Workspace(namespace, name string, status map[string]any) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": gateway.Group + "/" + gateway.Version,
		"kind":       string(gateway.KindWorkspace),
		"metadata": map[string]any{
			"name":      name,
			"namespace": namespace,
		},
		"spec": map[string]any{
			"state":      "Running",
			"image":      "ghcr.io/example/devenv:latest",
			"templateID": "go-1.22",
			"resource": map[string]any{
				"cpu":    "1000m",
				"memory": "2048Mi",
			},
		},
	}}
	if status != nil {
		obj.Object["status"] = status
	}
	return obj
}

// Release builds a release object owned by workspace.
func Release(namespace, workspace, tag string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": gateway.Group + "/" + gateway.Version,
		"kind":       string(gateway.KindRelease),
		"metadata": map[string]any{
			"name":      workspace + "-" + tag,
			"namespace": namespace,
			"labels": map[string]any{
				gateway.LabelWorkspaceName: workspace,
			},
		},
		"spec": map[string]any{
			"workspaceName": workspace,
			"newTag":        tag,
			"notes":         "",
		},
	}}
}

// Owned builds a bare core or networking object carrying the workspace label.
func Owned(apiVersion, kind, namespace, name, workspace string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": apiVersion,
		"kind":       kind,
		"metadata": map[string]any{
			"name":      name,
			"namespace": namespace,
			"labels": map[string]any{
				gateway.LabelWorkspaceName: workspace,
			},
		},
	}}
}
