package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/lzjever/wsorch/internal/core"
	"github.com/lzjever/wsorch/internal/gateway"
	"github.com/lzjever/wsorch/internal/observability"
)

// DeleteWorkspace removes a workspace and everything provisioned for it.
// Dependent resources are deleted best-effort: an absent resource counts as
// deleted and any other failure becomes a warning. Only a failure to delete
// the workspace object itself fails the call.
func (o *Orchestrator) DeleteWorkspace(ctx context.Context, name string) (*core.DeleteResult, error) {
	res, err := o.deleteWorkspace(context.WithoutCancel(ctx), name)
	return res, record("delete_workspace", err)
}

func (o *Orchestrator) deleteWorkspace(ctx context.Context, name string) (*core.DeleteResult, error) {
	if err := validateName("name", name); err != nil {
		return nil, err
	}
	log := o.logger(name, "delete")

	var errs error
	note := func(kind gateway.Kind, obj string, err error) {
		if err == nil || gateway.IsNotFound(err) {
			return
		}
		errs = multierr.Append(errs, fmt.Errorf("%s %s: %w", kind, obj, err))
		observability.TeardownWarningsTotal.WithLabelValues(string(kind)).Inc()
	}

	// Older provisioning used a -svc suffix.
	for _, svc := range []string{name, name + "-svc"} {
		note(gateway.KindService, svc, o.gw.Delete(ctx, gateway.KindService, svc))
	}

	selector := ownerSelector(name)
	routes, err := o.gw.List(ctx, gateway.KindRoute, selector)
	if err != nil {
		note(gateway.KindRoute, selector, err)
	}
	for _, r := range routes {
		note(gateway.KindRoute, r.GetName(), o.gw.Delete(ctx, gateway.KindRoute, r.GetName()))
	}

	note(gateway.KindSecret, name, o.gw.Delete(ctx, gateway.KindSecret, name))

	if err := o.gw.Delete(ctx, gateway.KindWorkspace, name); err != nil && !gateway.IsNotFound(err) {
		log.Error("workspace delete failed", zap.Error(err), zap.NamedError("dependents", errs))
		return nil, fromGateway(err, "workspace "+name)
	}

	var warnings []string
	for _, err := range multierr.Errors(errs) {
		warnings = append(warnings, err.Error())
	}
	if errs != nil {
		log.Warn("workspace deleted with warnings", zap.Strings("warnings", warnings))
	} else {
		log.Info("workspace deleted")
	}
	return &core.DeleteResult{Success: true, Warnings: warnings}, nil
}
