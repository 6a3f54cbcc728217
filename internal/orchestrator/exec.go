package orchestrator

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/lzjever/wsorch/internal/core"
	"github.com/lzjever/wsorch/internal/gateway"
)

// Exec runs command in the workspace's pod, preferring a Running pod.
func (o *Orchestrator) Exec(ctx context.Context, name, container string, command []string) (*gateway.ExecResult, error) {
	if err := validateName("name", name); err != nil {
		return nil, err
	}
	if len(command) == 0 {
		return nil, core.Validationf("command is required")
	}
	pods, err := o.gw.List(ctx, gateway.KindPod, ownerSelector(name))
	if err != nil {
		return nil, fromGateway(err, "pods")
	}
	pod := pickPod(pods)
	if pod == "" {
		return nil, core.NewAppError(core.ErrNotFound, fmt.Sprintf("no pod found for workspace %s", name))
	}
	res, err := o.gw.Exec(ctx, gateway.ExecRequest{Pod: pod, Container: container, Command: command})
	if err != nil {
		return nil, fromGateway(err, "pod "+pod)
	}
	return &res, nil
}

func pickPod(pods []unstructured.Unstructured) string {
	for _, p := range pods {
		if phase, _, _ := unstructured.NestedString(p.Object, "status", "phase"); phase == "Running" {
			return p.GetName()
		}
	}
	if len(pods) > 0 {
		return pods[0].GetName()
	}
	return ""
}
