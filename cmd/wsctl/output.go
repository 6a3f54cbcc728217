package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/lzjever/wsorch/internal/core"
)

func printResult(v interface{}) {
	switch output {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(v)
	case "yaml":
		b, err := yaml.Marshal(v)
		exitOnError(err)
		os.Stdout.Write(b)
	default:
		printTable(v)
	}
}

func printTable(v interface{}) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	switch data := v.(type) {
	case *core.WorkspaceSummary:
		fmt.Fprintln(w, "NAME\tSTATUS\tCPU\tMEMORY\tURL\tAGE")
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", data.Name, data.Status, data.CPU, data.Memory, data.URL, age(data.CreatedAt))
	case *core.WorkspaceDetail:
		fmt.Fprintf(w, "Name:\t%s\n", data.Name)
		fmt.Fprintf(w, "Namespace:\t%s\n", data.Namespace)
		fmt.Fprintf(w, "Status:\t%s\n", data.Status)
		fmt.Fprintf(w, "State:\t%s\n", data.State)
		fmt.Fprintf(w, "Image:\t%s\n", data.Image)
		fmt.Fprintf(w, "Template:\t%s\n", data.TemplateID)
		fmt.Fprintf(w, "Resources:\tcpu=%s memory=%s\n", data.CPU, data.Memory)
		fmt.Fprintf(w, "URL:\t%s\n", data.URL)
		for _, p := range data.Ports {
			fmt.Fprintf(w, "Port:\t%s %d/%s\n", p.Name, p.ContainerPort, p.Protocol)
		}
		fmt.Fprintf(w, "Age:\t%s\n", age(data.CreatedAt))
	case *core.DeleteResult:
		fmt.Fprintf(w, "Deleted:\t%t\n", data.Success)
		for _, warn := range data.Warnings {
			fmt.Fprintf(w, "Warning:\t%s\n", warn)
		}
	case []core.ReleaseSummary:
		if len(data) == 0 {
			fmt.Println("No releases found.")
			return
		}
		fmt.Fprintln(w, "NAME\tWORKSPACE\tTAG\tPHASE\tNOTES\tAGE")
		for _, r := range data {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Name, r.WorkspaceName, r.Tag, r.Phase, truncate(r.Notes, 40), age(r.CreatedAt))
		}
	case *core.ReleaseDetail:
		fmt.Fprintf(w, "Name:\t%s\n", data.Name)
		fmt.Fprintf(w, "Workspace:\t%s\n", data.WorkspaceName)
		fmt.Fprintf(w, "Tag:\t%s\n", data.Tag)
		fmt.Fprintf(w, "Phase:\t%s\n", data.Phase)
		fmt.Fprintf(w, "Notes:\t%s\n", data.Notes)
		fmt.Fprintf(w, "Age:\t%s\n", age(data.CreatedAt))
	case *core.CreateReleaseResult:
		fmt.Fprintf(w, "Release:\t%s\n", data.Release.Name)
		fmt.Fprintf(w, "Phase:\t%s\n", data.Release.Phase)
		if data.Message != "" {
			fmt.Fprintf(w, "Message:\t%s\n", data.Message)
		}
		if data.NeedsWaiting {
			fmt.Fprintf(w, "Next:\twsctl release get %s %s\n", data.Release.WorkspaceName, data.Release.Tag)
		}
	default:
		json.NewEncoder(os.Stdout).Encode(v)
	}
	w.Flush()
}

func age(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return time.Since(t).Round(time.Second).String()
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
