package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/lzjever/wsorch/internal/core"
	"github.com/lzjever/wsorch/internal/gateway"
	"github.com/lzjever/wsorch/internal/observability"
	"github.com/lzjever/wsorch/internal/status"
)

// waitForPhase polls the workspace every interval until it reports want or
// timeout elapses. Read errors never end the wait early. It returns the last
// object and phase observed; err is non-nil only on timeout.
func (o *Orchestrator) waitForPhase(ctx context.Context, log *zap.Logger, label, name string, want core.Phase, interval, timeout time.Duration) (*unstructured.Unstructured, core.Phase, error) {
	var last *unstructured.Unstructured
	lastPhase := core.PhaseUnknown
	start := time.Now()

	err := wait.PollUntilContextTimeout(ctx, interval, timeout, true, func(ctx context.Context) (bool, error) {
		obj, err := o.gw.Get(ctx, gateway.KindWorkspace, name)
		if err != nil {
			log.Debug("phase read failed, retrying", zap.String("wait", label), zap.Error(err))
			return false, nil
		}
		last = obj
		phase := status.Workspace(statusOf(obj))
		if phase != lastPhase {
			log.Debug("phase observed", zap.String("wait", label), zap.String("phase", string(phase)))
		}
		lastPhase = phase
		return phase == want, nil
	})

	result := "reached"
	if err != nil {
		result = "timeout"
	}
	observability.PollDuration.WithLabelValues(label, result).Observe(time.Since(start).Seconds())
	return last, lastPhase, err
}
