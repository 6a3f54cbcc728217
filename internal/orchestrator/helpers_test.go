package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/lzjever/wsorch/internal/core"
	"github.com/lzjever/wsorch/internal/testutil"
	"github.com/lzjever/wsorch/internal/worker"
)

const ns = "ws-test"

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.ReadyPollInterval = 5 * time.Millisecond
	cfg.ReadyTimeout = 500 * time.Millisecond
	cfg.ReleasePollInterval = 5 * time.Millisecond
	cfg.ReleaseTimeout = 500 * time.Millisecond
	return cfg
}

// harness wires an orchestrator to an in-memory control plane and a real
// background pool.
type harness struct {
	cp   *testutil.ControlPlane
	pool *worker.Pool
	orch *Orchestrator
}

func newHarness(t *testing.T, cfg Config, objs ...runtime.Object) *harness {
	t.Helper()
	cp := testutil.NewControlPlane(ns, objs...)
	pool := worker.New(worker.Config{Workers: 2, QueueSize: 8}, zap.NewNop())
	pool.Start()
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })
	return &harness{
		cp:   cp,
		pool: pool,
		orch: New(cp.Gateway, pool, cfg, zap.NewNop()),
	}
}

// drain waits for every background task to finish.
func (h *harness) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.pool.Shutdown(ctx))
}

func requireCode(t *testing.T, err error, code core.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, core.CodeOf(err), "error: %v", err)
}

func validParams(name string) core.CreateWorkspaceParams {
	return core.CreateWorkspaceParams{
		Name:       name,
		HostPrefix: "abcdefgh12",
		HostSuffix: "cloud.example.com",
		TemplateID: "go-1.22",
		Image:      "ghcr.io/example/devenv:1.2",
	}
}
