// Package manifest renders the objects that make up a workspace. Rendering is
// pure: the same Params always produce the same objects.
package manifest

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"text/template"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"

	"github.com/lzjever/wsorch/internal/core"
	"github.com/lzjever/wsorch/internal/gateway"
)

//go:embed templates/*.yaml
var templateFS embed.FS

var templates = template.Must(template.New("manifest").
	Funcs(template.FuncMap{"quote": quote}).
	ParseFS(templateFS, "templates/*.yaml"))

// DefaultPorts is used when the caller declares no ports.
var DefaultPorts = []core.Port{{Name: "http", ContainerPort: 8080, Protocol: string(corev1.ProtocolTCP)}}

type Params struct {
	Name         string
	Namespace    string
	Image        string
	TemplateID   string
	CPU          string
	Memory       string
	HostPrefix   string
	HostSuffix   string
	IngressClass string
	Ports        []core.Port
}

// Host is the external hostname of the workspace route.
func (p Params) Host() string {
	return p.HostPrefix + "." + p.HostSuffix
}

// Object is one rendered object and the gateway kind it is applied as.
type Object struct {
	Kind   gateway.Kind
	Object *unstructured.Unstructured
}

// Render returns the workspace, service and route objects in apply order.
func Render(p Params) ([]Object, error) {
	if len(p.Ports) == 0 {
		p.Ports = DefaultPorts
	}
	data := map[string]any{
		"APIVersion":       gateway.Group + "/" + gateway.Version,
		"Name":             p.Name,
		"Namespace":        p.Namespace,
		"Image":            p.Image,
		"TemplateID":       p.TemplateID,
		"CPU":              p.CPU,
		"Memory":           p.Memory,
		"Host":             p.Host(),
		"IngressClass":     p.IngressClass,
		"Ports":            p.Ports,
		"RouteName":        RouteName(p.Name, p.HostPrefix),
		"TLSSecret":        p.Name + "-tls",
		"WorkspaceLabel":   gateway.LabelWorkspaceName,
		"ManagedByLabel":   gateway.LabelManagedBy,
		"DomainAnnotation": gateway.AnnotationDomain,
		"Manager":          gateway.ManagerName,
	}

	order := []struct {
		kind gateway.Kind
		tmpl string
	}{
		{gateway.KindWorkspace, "workspace.yaml"},
		{gateway.KindService, "service.yaml"},
		{gateway.KindRoute, "route.yaml"},
	}
	out := make([]Object, 0, len(order))
	for _, o := range order {
		obj, err := renderOne(o.tmpl, data)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", o.kind, err)
		}
		out = append(out, Object{Kind: o.kind, Object: obj})
	}
	return out, nil
}

// RouteName is not derivable from the workspace name alone, so teardown
// finds routes by label instead.
func RouteName(workspace, hostPrefix string) string {
	return workspace + "-" + hostPrefix
}

func renderOne(name string, data map[string]any) (*unstructured.Unstructured, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	js, err := yaml.YAMLToJSON(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("parse rendered yaml: %w", err)
	}
	// Unstructured decoding keeps integers as int64.
	obj := &unstructured.Unstructured{}
	if err := obj.UnmarshalJSON(js); err != nil {
		return nil, fmt.Errorf("decode rendered object: %w", err)
	}
	return obj, nil
}

// quote renders s as a double-quoted scalar; JSON strings are valid YAML.
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// ToYAML renders objects as a multi-document YAML stream.
func ToYAML(objs []Object) ([]byte, error) {
	var buf bytes.Buffer
	for i, o := range objs {
		if i > 0 {
			buf.WriteString("---\n")
		}
		b, err := yaml.Marshal(o.Object.Object)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	return buf.Bytes(), nil
}
