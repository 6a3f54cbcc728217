// Package orchestrator implements the workspace lifecycle: provisioning,
// releases, teardown and in-place mutations. All coordination state lives
// on the control plane; the orchestrator keeps none between calls.
package orchestrator

import (
	"context"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/lzjever/wsorch/internal/core"
	"github.com/lzjever/wsorch/internal/gateway"
	"github.com/lzjever/wsorch/internal/observability"
	"github.com/lzjever/wsorch/internal/worker"
)

// Submitter schedules fire-and-forget background work.
type Submitter interface {
	Submit(name string, fn worker.TaskFunc) (string, error)
}

type Orchestrator struct {
	gw  gateway.Gateway
	bg  Submitter
	cfg Config
	log *zap.Logger
}

func New(gw gateway.Gateway, bg Submitter, cfg Config, log *zap.Logger) *Orchestrator {
	return &Orchestrator{gw: gw, bg: bg, cfg: cfg, log: log}
}

func (o *Orchestrator) Namespace() string {
	return o.gw.Namespace()
}

// Ping checks that the control plane answers a list request.
func (o *Orchestrator) Ping(ctx context.Context) error {
	_, err := o.gw.List(ctx, gateway.KindWorkspace, "")
	return err
}

func (o *Orchestrator) logger(workspace, op string) *zap.Logger {
	return observability.WorkspaceLogger(o.log, o.gw.Namespace(), workspace, op)
}

// record counts an operation outcome and passes err through.
func record(op string, err error) error {
	result := "ok"
	if err != nil {
		result = string(core.CodeOf(err))
	}
	observability.OperationTotal.WithLabelValues(op, result).Inc()
	return err
}

// fromGateway translates a gateway error into the orchestrator's taxonomy.
func fromGateway(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case gateway.IsNotFound(err):
		return core.WrapAppError(core.ErrNotFound, what+" not found", err)
	case gateway.IsAlreadyExists(err):
		return core.WrapAppError(core.ErrAlreadyExists, what+" already exists", err)
	default:
		return core.WrapAppError(core.ErrTransport, "control plane request failed", err)
	}
}

func statusOf(obj *unstructured.Unstructured) map[string]any {
	if obj == nil {
		return nil
	}
	v, found, err := unstructured.NestedFieldNoCopy(obj.Object, "status")
	if !found || err != nil {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}

func specString(obj *unstructured.Unstructured, fields ...string) string {
	s, _, _ := unstructured.NestedString(obj.Object, append([]string{"spec"}, fields...)...)
	return s
}
