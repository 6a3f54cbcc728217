package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/lzjever/wsorch/internal/core"
	"github.com/lzjever/wsorch/internal/gateway"
	"github.com/lzjever/wsorch/internal/patch"
)

// Start declares the workspace Running. It does not wait; callers poll
// GetWorkspace for the phase.
func (o *Orchestrator) Start(ctx context.Context, name string) error {
	return record("start", o.setState(ctx, name, core.StateRunning))
}

// Stop declares the workspace Stopped without waiting.
func (o *Orchestrator) Stop(ctx context.Context, name string) error {
	return record("stop", o.setState(ctx, name, core.StateStopped))
}

func (o *Orchestrator) setState(ctx context.Context, name string, state core.StateIntent) error {
	if err := validateName("name", name); err != nil {
		return err
	}
	p, err := patch.State(string(state)).Bytes()
	if err != nil {
		return core.WrapAppError(core.ErrInternal, "build patch", err)
	}
	if _, err := o.gw.Patch(ctx, gateway.KindWorkspace, name, p); err != nil {
		return fromGateway(err, "workspace "+name)
	}
	o.logger(name, "state").Info("state patched", zap.String("state", string(state)))
	return nil
}

// UpdateResources patches CPU and/or memory in place. Fields left nil are not
// sent.
func (o *Orchestrator) UpdateResources(ctx context.Context, name string, cpu, memory *string) (*core.WorkspaceDetail, error) {
	d, err := o.updateResources(ctx, name, cpu, memory)
	return d, record("update_resources", err)
}

func (o *Orchestrator) updateResources(ctx context.Context, name string, cpu, memory *string) (*core.WorkspaceDetail, error) {
	if err := validateName("name", name); err != nil {
		return nil, err
	}
	if cpu == nil && memory == nil {
		return nil, core.Validationf("at least one of cpu or memory is required")
	}
	if cpu != nil {
		if err := validateQuantity("cpu", *cpu); err != nil {
			return nil, err
		}
	}
	if memory != nil {
		if err := validateQuantity("memory", *memory); err != nil {
			return nil, err
		}
	}

	p, err := patch.Resources(cpu, memory).Bytes()
	if err != nil {
		return nil, core.WrapAppError(core.ErrInternal, "build patch", err)
	}
	ws, err := o.gw.Patch(ctx, gateway.KindWorkspace, name, p)
	if err != nil {
		return nil, fromGateway(err, "workspace "+name)
	}
	o.logger(name, "resources").Info("resources patched",
		zap.Stringp("cpu", cpu),
		zap.Stringp("memory", memory),
	)
	d := o.detail(ctx, ws)
	return &d, nil
}
