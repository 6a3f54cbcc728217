package gateway

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Kube implements Gateway over the Kubernetes dynamic client.
type Kube struct {
	client    dynamic.Interface
	namespace string
	exec      *executor
}

// New returns a gateway scoped to namespace. Exec is disabled; use
// NewFromConfig for a gateway that can exec into pods.
func New(client dynamic.Interface, namespace string) *Kube {
	return &Kube{client: client, namespace: namespace}
}

// NewFromConfig builds a gateway from a kubeconfig path, or from the
// in-cluster service account when path is empty.
func NewFromConfig(kubeconfig, namespace string) (*Kube, error) {
	cfg, err := loadConfig(kubeconfig)
	if err != nil {
		return nil, err
	}
	dyn, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("dynamic client: %w", err)
	}
	cs, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("clientset: %w", err)
	}
	k := New(dyn, namespace)
	k.exec = &executor{config: cfg, clientset: cs}
	return k, nil
}

func loadConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig == "" {
		cfg, err := rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("in-cluster config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("load kubeconfig %s: %w", kubeconfig, err)
	}
	return cfg, nil
}

func (k *Kube) Namespace() string { return k.namespace }

func (k *Kube) resource(kind Kind) dynamic.ResourceInterface {
	return k.client.Resource(resources[kind]).Namespace(k.namespace)
}

func (k *Kube) Get(ctx context.Context, kind Kind, name string) (*unstructured.Unstructured, error) {
	obj, err := k.resource(kind).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, classify("get", kind, name, err)
	}
	return obj, nil
}

func (k *Kube) List(ctx context.Context, kind Kind, labelSelector string) ([]unstructured.Unstructured, error) {
	list, err := k.resource(kind).List(ctx, metav1.ListOptions{LabelSelector: labelSelector})
	if err != nil {
		return nil, classify("list", kind, labelSelector, err)
	}
	return list.Items, nil
}

func (k *Kube) Create(ctx context.Context, kind Kind, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	if obj.GetNamespace() == "" {
		obj.SetNamespace(k.namespace)
	}
	created, err := k.resource(kind).Create(ctx, obj, metav1.CreateOptions{})
	if err != nil {
		return nil, classify("create", kind, obj.GetName(), err)
	}
	return created, nil
}

func (k *Kube) Patch(ctx context.Context, kind Kind, name string, patch []byte) (*unstructured.Unstructured, error) {
	obj, err := k.resource(kind).Patch(ctx, name, types.MergePatchType, patch, metav1.PatchOptions{})
	if err != nil {
		return nil, classify("patch", kind, name, err)
	}
	return obj, nil
}

func (k *Kube) Delete(ctx context.Context, kind Kind, name string) error {
	if err := k.resource(kind).Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
		return classify("delete", kind, name, err)
	}
	return nil
}

func (k *Kube) Exec(ctx context.Context, req ExecRequest) (ExecResult, error) {
	if k.exec == nil {
		return ExecResult{}, ErrExecDisabled
	}
	res, err := k.exec.run(ctx, k.namespace, req)
	if err != nil {
		return res, &TransportError{Op: "exec", Kind: KindPod, Name: req.Pod, Err: err}
	}
	return res, nil
}

func classify(op string, kind Kind, name string, err error) error {
	switch {
	case apierrors.IsNotFound(err):
		return fmt.Errorf("%s %s %q: %w", op, kind, name, ErrNotFound)
	case op == "create" && (apierrors.IsAlreadyExists(err) || apierrors.IsConflict(err)):
		return fmt.Errorf("%s %s %q: %w", op, kind, name, ErrAlreadyExists)
	default:
		return &TransportError{Op: op, Kind: kind, Name: name, Err: err}
	}
}
