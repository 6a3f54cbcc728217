package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/lzjever/wsorch/internal/core"
	"github.com/lzjever/wsorch/internal/gateway"
	"github.com/lzjever/wsorch/internal/manifest"
)

// CreateWorkspace applies the workspace, service and route objects in that
// order and waits for the workspace to reach Running.
//
// Application is not atomic. When object k fails, objects 1..k-1 stay on the
// control plane and DeleteWorkspace is the way to clean them up. A readiness
// timeout likewise leaves every object in place.
func (o *Orchestrator) CreateWorkspace(ctx context.Context, params core.CreateWorkspaceParams) (*core.WorkspaceSummary, error) {
	summary, err := o.createWorkspace(context.WithoutCancel(ctx), params)
	return summary, record("create_workspace", err)
}

func (o *Orchestrator) createWorkspace(ctx context.Context, params core.CreateWorkspaceParams) (*core.WorkspaceSummary, error) {
	p, err := o.normalizeCreate(params)
	if err != nil {
		return nil, err
	}
	log := o.logger(p.Name, "create")
	if errs := validation.IsDNS1035Label(p.Name); len(errs) > 0 {
		log.Warn("name is not a valid service name, service apply will likely be rejected",
			zap.Strings("reasons", errs))
	}

	// Only a definitive read blocks creation; a flaky read does not.
	if _, err := o.gw.Get(ctx, gateway.KindWorkspace, p.Name); err == nil {
		return nil, core.NewAppError(core.ErrAlreadyExists, fmt.Sprintf("workspace %s already exists", p.Name))
	} else if !gateway.IsNotFound(err) {
		log.Warn("existence probe failed, proceeding", zap.Error(err))
	}

	objs, err := manifest.Render(manifest.Params{
		Name:         p.Name,
		Namespace:    o.gw.Namespace(),
		Image:        p.Image,
		TemplateID:   p.TemplateID,
		CPU:          p.CPU,
		Memory:       p.Memory,
		HostPrefix:   p.HostPrefix,
		HostSuffix:   p.HostSuffix,
		IngressClass: o.cfg.IngressClass,
		Ports:        p.Ports,
	})
	if err != nil {
		return nil, core.WrapAppError(core.ErrInternal, "render manifests", err)
	}

	for _, obj := range objs {
		if _, err := o.gw.Create(ctx, obj.Kind, obj.Object); err != nil {
			log.Error("apply failed", zap.String("kind", string(obj.Kind)), zap.String("object", obj.Object.GetName()), zap.Error(err))
			return nil, core.ProvisioningFailed(string(obj.Kind), err)
		}
		log.Info("applied", zap.String("kind", string(obj.Kind)), zap.String("object", obj.Object.GetName()))
	}

	ws, phase, err := o.waitForPhase(ctx, log, "ready", p.Name, core.PhaseRunning, o.cfg.ReadyPollInterval, o.cfg.ReadyTimeout)
	if err != nil {
		log.Warn("workspace not running in time", zap.String("last_phase", string(phase)), zap.Duration("timeout", o.cfg.ReadyTimeout))
		return nil, core.WrapAppError(core.ErrProvisioningTimeout,
			fmt.Sprintf("workspace %s did not reach Running within %s (last phase %s)", p.Name, o.cfg.ReadyTimeout, phase), err)
	}

	log.Info("workspace running")
	summary := o.summarize(ctx, ws, phase)
	return &summary, nil
}
