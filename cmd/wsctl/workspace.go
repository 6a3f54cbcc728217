package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lzjever/wsorch/internal/core"
)

var workspaceCmd = &cobra.Command{
	Use:     "workspace",
	Aliases: []string{"ws"},
	Short:   "Workspace management commands",
}

var createParams core.CreateWorkspaceParams
var createPorts []string

var wsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a workspace and wait until it is running",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		params := createParams
		params.Name = args[0]
		for _, spec := range createPorts {
			p, err := parsePort(spec)
			exitOnError(err)
			params.Ports = append(params.Ports, p)
		}

		var summary core.WorkspaceSummary
		exitOnError(NewClient(apiURL).Post("/v1/workspaces", params, &summary))
		printResult(&summary)
	},
}

var wsGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Get workspace details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var d core.WorkspaceDetail
		exitOnError(NewClient(apiURL).Get("/v1/workspaces/"+args[0], &d))
		printResult(&d)
	},
}

var wsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a workspace and its service, routes and secret",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var res core.DeleteResult
		exitOnError(NewClient(apiURL).Delete("/v1/workspaces/"+args[0], &res))
		printResult(&res)
	},
}

var wsStartCmd = &cobra.Command{
	Use:   "start <name>",
	Short: "Declare a workspace running",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(NewClient(apiURL).Post("/v1/workspaces/"+args[0]+"/start", nil, nil))
		fmt.Printf("Workspace %s starting. Check status: wsctl workspace get %s\n", args[0], args[0])
	},
}

var wsStopCmd = &cobra.Command{
	Use:   "stop <name>",
	Short: "Declare a workspace stopped",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(NewClient(apiURL).Post("/v1/workspaces/"+args[0]+"/stop", nil, nil))
		fmt.Printf("Workspace %s stopping. Check status: wsctl workspace get %s\n", args[0], args[0])
	},
}

var wsResourcesCmd = &cobra.Command{
	Use:   "resources <name>",
	Short: "Change CPU and/or memory of a workspace",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		req := map[string]string{}
		for _, f := range []string{"cpu", "memory"} {
			if cmd.Flags().Changed(f) {
				v, _ := cmd.Flags().GetString(f)
				req[f] = v
			}
		}
		if len(req) == 0 {
			exitOnError(fmt.Errorf("at least one of --cpu or --memory is required"))
		}

		var d core.WorkspaceDetail
		exitOnError(NewClient(apiURL).Patch("/v1/workspaces/"+args[0]+"/resources", req, &d))
		printResult(&d)
	},
}

var execContainer string

var wsExecCmd = &cobra.Command{
	Use:   "exec <name> -- <command> [args...]",
	Short: "Run a command in the workspace pod",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		var res struct {
			Stdout string `json:"stdout"`
			Stderr string `json:"stderr"`
		}
		req := map[string]interface{}{
			"container": execContainer,
			"command":   args[1:],
		}
		exitOnError(NewClient(apiURL).Post("/v1/workspaces/"+args[0]+"/exec", req, &res))
		fmt.Fprint(os.Stdout, res.Stdout)
		fmt.Fprint(os.Stderr, res.Stderr)
	},
}

// parsePort reads name:port[/protocol].
func parsePort(s string) (core.Port, error) {
	name, rest, ok := strings.Cut(s, ":")
	if !ok {
		return core.Port{}, fmt.Errorf("invalid port %q, want name:port[/protocol]", s)
	}
	num, proto, _ := strings.Cut(rest, "/")
	n, err := strconv.ParseInt(num, 10, 32)
	if err != nil {
		return core.Port{}, fmt.Errorf("invalid port number in %q: %w", s, err)
	}
	return core.Port{Name: name, ContainerPort: int32(n), Protocol: strings.ToUpper(proto)}, nil
}

func init() {
	f := wsCreateCmd.Flags()
	f.StringVar(&createParams.HostPrefix, "host-prefix", "", "Host prefix, 8-20 characters (required)")
	f.StringVar(&createParams.HostSuffix, "host-suffix", "", "Host suffix domain (required)")
	f.StringVar(&createParams.TemplateID, "template", "", "Template ID (required)")
	f.StringVar(&createParams.Image, "image", "", "Container image (required)")
	f.StringVar(&createParams.CPU, "cpu", "", "CPU quantity (server default if empty)")
	f.StringVar(&createParams.Memory, "memory", "", "Memory quantity (server default if empty)")
	f.StringSliceVar(&createPorts, "port", nil, "Extra port as name:port[/protocol], repeatable")
	for _, name := range []string{"host-prefix", "host-suffix", "template", "image"} {
		_ = wsCreateCmd.MarkFlagRequired(name)
	}

	wsResourcesCmd.Flags().String("cpu", "", "New CPU quantity")
	wsResourcesCmd.Flags().String("memory", "", "New memory quantity")

	wsExecCmd.Flags().StringVarP(&execContainer, "container", "c", "", "Container name (pod default if empty)")

	workspaceCmd.AddCommand(wsCreateCmd, wsGetCmd, wsDeleteCmd, wsStartCmd, wsStopCmd, wsResourcesCmd, wsExecCmd)
	rootCmd.AddCommand(workspaceCmd)
}
