package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	clienttesting "k8s.io/client-go/testing"
	"k8s.io/utils/ptr"

	"github.com/lzjever/wsorch/internal/core"
	"github.com/lzjever/wsorch/internal/gateway"
	"github.com/lzjever/wsorch/internal/testutil"
)

func specState(t *testing.T, cp *testutil.ControlPlane, name string) string {
	t.Helper()
	ws, err := cp.Object(gateway.KindWorkspace, name)
	require.NoError(t, err)
	s, _, _ := unstructured.NestedString(ws.Object, "spec", "state")
	return s
}

func TestStartStop(t *testing.T) {
	h := newHarness(t, fastConfig(), testutil.Workspace(ns, "demo-1", running()))

	require.NoError(t, h.orch.Stop(context.Background(), "demo-1"))
	require.Equal(t, "Stopped", specState(t, h.cp, "demo-1"))

	require.NoError(t, h.orch.Start(context.Background(), "demo-1"))
	require.Equal(t, "Running", specState(t, h.cp, "demo-1"))

	// Status is untouched; the control plane moves it.
	ws, err := h.cp.Object(gateway.KindWorkspace, "demo-1")
	require.NoError(t, err)
	require.Equal(t, running(), ws.Object["status"])
}

func TestStartMissingWorkspace(t *testing.T) {
	h := newHarness(t, fastConfig())

	requireCode(t, h.orch.Start(context.Background(), "ghost"), core.ErrNotFound)
	requireCode(t, h.orch.Stop(context.Background(), "bad name"), core.ErrValidation)
}

func TestUpdateResourcesCPUOnly(t *testing.T) {
	h := newHarness(t, fastConfig(), testutil.Workspace(ns, "demo-1", running()))

	d, err := h.orch.UpdateResources(context.Background(), "demo-1", ptr.To("2"), nil)
	require.NoError(t, err)
	require.Equal(t, "2", d.CPU)
	require.Equal(t, "2048Mi", d.Memory)
	require.Equal(t, core.PhaseRunning, d.Status)

	var sent map[string]any
	for _, a := range h.cp.Client.Actions() {
		if p, ok := a.(clienttesting.PatchAction); ok {
			require.NoError(t, json.Unmarshal(p.GetPatch(), &sent))
		}
	}
	res, found, err := unstructured.NestedMap(sent, "spec", "resource")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, map[string]any{"cpu": "2"}, res)
}

func TestUpdateResourcesValidation(t *testing.T) {
	h := newHarness(t, fastConfig(), testutil.Workspace(ns, "demo-1", running()))

	_, err := h.orch.UpdateResources(context.Background(), "demo-1", nil, nil)
	requireCode(t, err, core.ErrValidation)
	_, err = h.orch.UpdateResources(context.Background(), "demo-1", nil, ptr.To("lots"))
	requireCode(t, err, core.ErrValidation)
	require.Empty(t, h.cp.Client.Actions())
}

func TestUpdateResourcesMissingWorkspace(t *testing.T) {
	h := newHarness(t, fastConfig())

	_, err := h.orch.UpdateResources(context.Background(), "ghost", nil, ptr.To("4Gi"))
	requireCode(t, err, core.ErrNotFound)
}

func TestExecWithoutPod(t *testing.T) {
	h := newHarness(t, fastConfig(), testutil.Workspace(ns, "demo-1", running()))

	_, err := h.orch.Exec(context.Background(), "demo-1", "", []string{"ls"})
	requireCode(t, err, core.ErrNotFound)

	_, err = h.orch.Exec(context.Background(), "demo-1", "", nil)
	requireCode(t, err, core.ErrValidation)
}

func TestExecDisabled(t *testing.T) {
	h := newHarness(t, fastConfig(), testutil.Owned("v1", "Pod", ns, "demo-1-0", "demo-1"))

	_, err := h.orch.Exec(context.Background(), "demo-1", "", []string{"ls"})
	requireCode(t, err, core.ErrTransport)
	require.True(t, errors.Is(err, gateway.ErrExecDisabled))
}

func TestPickPodPrefersRunning(t *testing.T) {
	pending := testutil.Owned("v1", "Pod", ns, "demo-1-a", "demo-1")
	ready := testutil.Owned("v1", "Pod", ns, "demo-1-b", "demo-1")
	ready.Object["status"] = map[string]any{"phase": "Running"}

	require.Equal(t, "demo-1-b", pickPod([]unstructured.Unstructured{*pending, *ready}))
	require.Equal(t, "demo-1-a", pickPod([]unstructured.Unstructured{*pending}))
	require.Empty(t, pickPod(nil))
}
