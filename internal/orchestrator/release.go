package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/lzjever/wsorch/internal/core"
	"github.com/lzjever/wsorch/internal/gateway"
	"github.com/lzjever/wsorch/internal/observability"
	"github.com/lzjever/wsorch/internal/patch"
	"github.com/lzjever/wsorch/internal/status"
)

const msgReleaseInProgress = "release already in progress"

func validateRelease(workspace, tag string) error {
	if err := validateName("workspace", workspace); err != nil {
		return err
	}
	if strings.TrimSpace(tag) == "" {
		return core.Validationf("tag is required")
	}
	name := core.ReleaseName(workspace, tag)
	if errs := validation.IsDNS1123Subdomain(name); len(errs) > 0 {
		return core.Validationf("invalid release name %q: %s", name, strings.Join(errs, "; "))
	}
	return nil
}

// CreateRelease snapshots a workspace under tag.
//
// A stopped workspace gets its release object immediately. Otherwise the call
// returns at once with NeedsWaiting set and a background task stops the
// workspace, waits for Stopped and then creates the release. That task
// reports nothing back; callers poll GetRelease. If the workspace does not
// stop in time the task gives up and no release is created.
func (o *Orchestrator) CreateRelease(ctx context.Context, workspace, tag, notes string) (*core.CreateReleaseResult, error) {
	res, err := o.createRelease(ctx, workspace, tag, notes)
	return res, record("create_release", err)
}

func (o *Orchestrator) createRelease(ctx context.Context, workspace, tag, notes string) (*core.CreateReleaseResult, error) {
	if err := validateRelease(workspace, tag); err != nil {
		return nil, err
	}
	log := o.logger(workspace, "release").With(zap.String("tag", tag))
	name := core.ReleaseName(workspace, tag)

	ws, err := o.gw.Get(ctx, gateway.KindWorkspace, workspace)
	if err != nil {
		return nil, fromGateway(err, "workspace "+workspace)
	}
	if _, err := o.gw.Get(ctx, gateway.KindRelease, name); err == nil {
		return nil, core.NewAppError(core.ErrAlreadyExists, fmt.Sprintf("release %s already exists", name))
	} else if !gateway.IsNotFound(err) {
		return nil, fromGateway(err, "release "+name)
	}

	pending := core.ReleaseSummary{
		Name:          name,
		WorkspaceName: workspace,
		Tag:           tag,
		Notes:         notes,
		Phase:         core.PhasePending,
	}

	phase := status.Workspace(statusOf(ws))
	if phase == core.PhaseStopped {
		res := &core.CreateReleaseResult{Release: pending}
		created, err := o.createReleaseObject(ctx, workspace, tag, notes)
		switch {
		case gateway.IsAlreadyExists(err):
			log.Info("release created concurrently, treating as in progress")
			observability.ReleaseOutcomeTotal.WithLabelValues("sync", "conflict").Inc()
			res.Message = msgReleaseInProgress
			return res, nil
		case err != nil:
			observability.ReleaseOutcomeTotal.WithLabelValues("sync", "failed").Inc()
			return nil, fromGateway(err, "release "+name)
		}
		observability.ReleaseOutcomeTotal.WithLabelValues("sync", "created").Inc()
		log.Info("release created")
		res.Release = releaseSummary(created)
		return res, nil
	}

	taskID, err := o.bg.Submit("release", func(ctx context.Context, tlog *zap.Logger) {
		o.stopThenRelease(ctx, tlog.With(
			zap.String("namespace", o.gw.Namespace()),
			zap.String("workspace", workspace),
			zap.String("tag", tag),
		), workspace, tag, notes, phase)
	})
	if err != nil {
		observability.ReleaseOutcomeTotal.WithLabelValues("background", "not_scheduled").Inc()
		log.Error("release task not scheduled", zap.Error(err))
	} else {
		log.Info("release scheduled after stop", zap.String("task_id", taskID), zap.String("phase", string(phase)))
	}
	return &core.CreateReleaseResult{
		NeedsWaiting: true,
		Message:      fmt.Sprintf("workspace is %s; it will be stopped before the release is created", phase),
		Release:      pending,
	}, nil
}

// stopThenRelease is the background half of CreateRelease. Every failure is
// logged and ends the task.
func (o *Orchestrator) stopThenRelease(ctx context.Context, log *zap.Logger, workspace, tag, notes string, observed core.Phase) {
	if observed != core.PhaseStopping {
		p, _ := patch.State(string(core.StateStopped)).Bytes()
		if _, err := o.gw.Patch(ctx, gateway.KindWorkspace, workspace, p); err != nil {
			observability.ReleaseOutcomeTotal.WithLabelValues("background", "stop_failed").Inc()
			log.Error("stop failed, release abandoned", zap.Error(err))
			return
		}
		log.Info("stop requested")
	}

	_, phase, err := o.waitForPhase(ctx, log, "release", workspace, core.PhaseStopped, o.cfg.ReleasePollInterval, o.cfg.ReleaseTimeout)
	if err != nil {
		timeout := core.WrapAppError(core.ErrReleaseTimeout,
			fmt.Sprintf("workspace did not stop within %s (last phase %s)", o.cfg.ReleaseTimeout, phase), err)
		observability.ReleaseOutcomeTotal.WithLabelValues("background", "abandoned").Inc()
		log.Warn("release abandoned", zap.Error(timeout))
		return
	}

	_, err = o.createReleaseObject(ctx, workspace, tag, notes)
	switch {
	case gateway.IsAlreadyExists(err):
		observability.ReleaseOutcomeTotal.WithLabelValues("background", "conflict").Inc()
		log.Info("release created concurrently, nothing to do")
	case err != nil:
		observability.ReleaseOutcomeTotal.WithLabelValues("background", "failed").Inc()
		log.Error("release create failed", zap.Error(err))
	default:
		observability.ReleaseOutcomeTotal.WithLabelValues("background", "created").Inc()
		log.Info("release created")
	}
}

func (o *Orchestrator) createReleaseObject(ctx context.Context, workspace, tag, notes string) (*unstructured.Unstructured, error) {
	obj := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": gateway.Group + "/" + gateway.Version,
		"kind":       string(gateway.KindRelease),
		"metadata": map[string]any{
			"name":      core.ReleaseName(workspace, tag),
			"namespace": o.gw.Namespace(),
			"labels": map[string]any{
				gateway.LabelWorkspaceName: workspace,
				gateway.LabelManagedBy:     gateway.ManagerName,
			},
		},
		"spec": map[string]any{
			"workspaceName": workspace,
			"newTag":        tag,
			"notes":         notes,
		},
	}}
	return o.gw.Create(ctx, gateway.KindRelease, obj)
}

// ownedRelease fetches a release and checks that it declares workspace as
// its owner. Names are not unique across workspaces: "a-b" + "c" and
// "a" + "b-c" share a key.
func (o *Orchestrator) ownedRelease(ctx context.Context, workspace, tag string) (*unstructured.Unstructured, error) {
	if err := validateRelease(workspace, tag); err != nil {
		return nil, err
	}
	name := core.ReleaseName(workspace, tag)
	rel, err := o.gw.Get(ctx, gateway.KindRelease, name)
	if err != nil {
		return nil, fromGateway(err, "release "+name)
	}
	if owner := specString(rel, "workspaceName"); owner != workspace {
		return nil, core.NewAppError(core.ErrOwnershipMismatch,
			fmt.Sprintf("release %s belongs to workspace %q, not %q", name, owner, workspace))
	}
	return rel, nil
}

// GetRelease returns a release and its derived phase.
func (o *Orchestrator) GetRelease(ctx context.Context, workspace, tag string) (*core.ReleaseDetail, error) {
	rel, err := o.ownedRelease(ctx, workspace, tag)
	if err != nil {
		return nil, err
	}
	return &core.ReleaseDetail{
		ReleaseSummary: releaseSummary(rel),
		RawStatus:      statusOf(rel),
	}, nil
}

// DeleteRelease removes a release after checking ownership. A mismatch
// leaves the release untouched.
func (o *Orchestrator) DeleteRelease(ctx context.Context, workspace, tag string) error {
	return record("delete_release", o.deleteRelease(ctx, workspace, tag))
}

func (o *Orchestrator) deleteRelease(ctx context.Context, workspace, tag string) error {
	rel, err := o.ownedRelease(ctx, workspace, tag)
	if err != nil {
		return err
	}
	if err := o.gw.Delete(ctx, gateway.KindRelease, rel.GetName()); err != nil {
		return fromGateway(err, "release "+rel.GetName())
	}
	o.logger(workspace, "release").Info("release deleted", zap.String("tag", tag))
	return nil
}
