package orchestrator

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/lzjever/wsorch/internal/core"
	"github.com/lzjever/wsorch/internal/gateway"
	"github.com/lzjever/wsorch/internal/status"
)

// GetWorkspace returns the workspace with its derived phase.
func (o *Orchestrator) GetWorkspace(ctx context.Context, name string) (*core.WorkspaceDetail, error) {
	if err := validateName("name", name); err != nil {
		return nil, err
	}
	ws, err := o.gw.Get(ctx, gateway.KindWorkspace, name)
	if err != nil {
		return nil, fromGateway(err, "workspace "+name)
	}
	d := o.detail(ctx, ws)
	return &d, nil
}

func (o *Orchestrator) summarize(ctx context.Context, ws *unstructured.Unstructured, phase core.Phase) core.WorkspaceSummary {
	return core.WorkspaceSummary{
		Name:      ws.GetName(),
		Status:    phase,
		URL:       o.resolveURL(ctx, ws),
		CPU:       specString(ws, "resource", "cpu"),
		Memory:    specString(ws, "resource", "memory"),
		CreatedAt: ws.GetCreationTimestamp().Time,
		Namespace: o.gw.Namespace(),
	}
}

func (o *Orchestrator) detail(ctx context.Context, ws *unstructured.Unstructured) core.WorkspaceDetail {
	raw := statusOf(ws)
	return core.WorkspaceDetail{
		WorkspaceSummary: o.summarize(ctx, ws, status.Workspace(raw)),
		State:            core.StateIntent(specString(ws, "state")),
		Image:            specString(ws, "image"),
		TemplateID:       specString(ws, "templateID"),
		Ports:            portsOf(ws),
		RawStatus:        raw,
	}
}

func portsOf(ws *unstructured.Unstructured) []core.Port {
	items, _, _ := unstructured.NestedSlice(ws.Object, "spec", "network", "extraPorts")
	ports := make([]core.Port, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		p := core.Port{}
		p.Name, _ = m["name"].(string)
		p.Protocol, _ = m["protocol"].(string)
		var n int64
		switch v := m["containerPort"].(type) {
		case int64:
			n = v
		case float64:
			n = int64(v)
		}
		// Ports outside the valid range would wrap in int32.
		if n < 1 || n > 65535 {
			continue
		}
		p.ContainerPort = int32(n)
		ports = append(ports, p)
	}
	return ports
}

// resolveURL prefers a precomputed domain on the workspace, then the host of
// its route. Neither being present yields a placeholder, never an error.
func (o *Orchestrator) resolveURL(ctx context.Context, ws *unstructured.Unstructured) string {
	if d := ws.GetAnnotations()[gateway.AnnotationDomain]; d != "" {
		return o.url(d)
	}
	if d := ws.GetLabels()[gateway.AnnotationDomain]; d != "" {
		return o.url(d)
	}

	routes, err := o.gw.List(ctx, gateway.KindRoute, ownerSelector(ws.GetName()))
	if err != nil {
		o.log.Debug("route lookup failed", zap.String("workspace", ws.GetName()), zap.Error(err))
	}
	for _, r := range routes {
		var ing networkingv1.Ingress
		if err := runtime.DefaultUnstructuredConverter.FromUnstructured(r.Object, &ing); err != nil {
			continue
		}
		for _, rule := range ing.Spec.Rules {
			if rule.Host != "" {
				return o.url(rule.Host)
			}
		}
	}
	return o.url(fmt.Sprintf("%s.%s.workspace.invalid", ws.GetName(), o.gw.Namespace()))
}

func (o *Orchestrator) url(host string) string {
	return o.cfg.URLScheme + "://" + host
}

func ownerSelector(workspace string) string {
	return gateway.LabelWorkspaceName + "=" + workspace
}

func releaseSummary(rel *unstructured.Unstructured) core.ReleaseSummary {
	return core.ReleaseSummary{
		Name:          rel.GetName(),
		WorkspaceName: specString(rel, "workspaceName"),
		Tag:           specString(rel, "newTag"),
		Notes:         specString(rel, "notes"),
		Phase:         status.Release(statusOf(rel)),
		CreatedAt:     rel.GetCreationTimestamp().Time,
	}
}

// ListReleases lists releases in the namespace, newest first. A non-empty
// workspace restricts the result to releases that declare it as owner.
func (o *Orchestrator) ListReleases(ctx context.Context, workspace string) ([]core.ReleaseSummary, error) {
	if workspace != "" {
		if err := validateName("workspace", workspace); err != nil {
			return nil, err
		}
	}
	items, err := o.gw.List(ctx, gateway.KindRelease, "")
	if err != nil {
		return nil, fromGateway(err, "releases")
	}
	out := make([]core.ReleaseSummary, 0, len(items))
	for i := range items {
		s := releaseSummary(&items[i])
		if workspace != "" && s.WorkspaceName != workspace {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
