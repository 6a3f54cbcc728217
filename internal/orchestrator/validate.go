package orchestrator

import (
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/lzjever/wsorch/internal/core"
)

const (
	minHostPrefix = 8
	maxHostPrefix = 20
)

// validateName enforces ^[a-z0-9]([a-z0-9-]*[a-z0-9])?$ and 1-63 characters.
// A workspace name is also used as its Service name, which the API server
// holds to the stricter DNS-1035 rule (leading letter). A name such as "1abc"
// passes here but provisioning then fails on the Service with the Workspace
// left behind; createWorkspace logs a warning for such names.
func validateName(field, name string) error {
	if name == "" {
		return core.Validationf("%s is required", field)
	}
	if errs := validation.IsDNS1123Label(name); len(errs) > 0 {
		return core.Validationf("invalid %s %q: %s", field, name, strings.Join(errs, "; "))
	}
	return nil
}

func validateQuantity(field, value string) error {
	if _, err := resource.ParseQuantity(value); err != nil {
		return core.Validationf("invalid %s %q: %v", field, value, err)
	}
	return nil
}

// normalizeCreate validates p and fills in defaults. It makes no network
// calls.
func (o *Orchestrator) normalizeCreate(p core.CreateWorkspaceParams) (core.CreateWorkspaceParams, error) {
	if err := validateName("name", p.Name); err != nil {
		return p, err
	}
	if n := len(p.HostPrefix); n < minHostPrefix || n > maxHostPrefix {
		return p, core.Validationf("host_prefix must be %d-%d characters, got %d", minHostPrefix, maxHostPrefix, n)
	}
	if errs := validation.IsDNS1123Label(p.HostPrefix); len(errs) > 0 {
		return p, core.Validationf("invalid host_prefix %q: %s", p.HostPrefix, strings.Join(errs, "; "))
	}
	for _, f := range []struct{ name, value string }{
		{"host_suffix", p.HostSuffix},
		{"template_id", p.TemplateID},
		{"image", p.Image},
	} {
		if strings.TrimSpace(f.value) == "" {
			return p, core.Validationf("%s is required", f.name)
		}
	}
	if errs := validation.IsDNS1123Subdomain(p.HostSuffix); len(errs) > 0 {
		return p, core.Validationf("invalid host_suffix %q: %s", p.HostSuffix, strings.Join(errs, "; "))
	}

	if p.CPU == "" {
		p.CPU = o.cfg.DefaultCPU
	}
	if p.Memory == "" {
		p.Memory = o.cfg.DefaultMemory
	}
	if err := validateQuantity("cpu", p.CPU); err != nil {
		return p, err
	}
	if err := validateQuantity("memory", p.Memory); err != nil {
		return p, err
	}

	ports := make([]core.Port, 0, len(p.Ports))
	for _, port := range p.Ports {
		if errs := validation.IsValidPortName(port.Name); len(errs) > 0 {
			return p, core.Validationf("invalid port name %q: %s", port.Name, strings.Join(errs, "; "))
		}
		if errs := validation.IsValidPortNum(int(port.ContainerPort)); len(errs) > 0 {
			return p, core.Validationf("invalid port %d: %s", port.ContainerPort, strings.Join(errs, "; "))
		}
		switch corev1.Protocol(port.Protocol) {
		case "":
			port.Protocol = string(corev1.ProtocolTCP)
		case corev1.ProtocolTCP, corev1.ProtocolUDP, corev1.ProtocolSCTP:
		default:
			return p, core.Validationf("invalid protocol %q for port %s", port.Protocol, port.Name)
		}
		ports = append(ports, port)
	}
	p.Ports = ports
	return p, nil
}
