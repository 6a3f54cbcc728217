package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/lzjever/wsorch/internal/core"
)

var releaseCmd = &cobra.Command{
	Use:     "release",
	Aliases: []string{"rel"},
	Short:   "Release management commands",
}

var releaseNotes string

var relCreateCmd = &cobra.Command{
	Use:   "create <workspace> <tag>",
	Short: "Create a release, stopping the workspace first if needed",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		req := map[string]string{"tag": args[1], "notes": releaseNotes}
		var res core.CreateReleaseResult
		exitOnError(NewClient(apiURL).Post("/v1/workspaces/"+args[0]+"/releases", req, &res))
		printResult(&res)
	},
}

var relGetCmd = &cobra.Command{
	Use:   "get <workspace> <tag>",
	Short: "Get release details",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		var rel core.ReleaseDetail
		exitOnError(NewClient(apiURL).Get("/v1/workspaces/"+args[0]+"/releases/"+url.PathEscape(args[1]), &rel))
		printResult(&rel)
	},
}

var listWorkspace string

var relListCmd = &cobra.Command{
	Use:   "list",
	Short: "List releases, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		path := "/v1/releases"
		if listWorkspace != "" {
			path += "?workspace=" + url.QueryEscape(listWorkspace)
		}
		var resp struct {
			Releases []core.ReleaseSummary `json:"releases"`
		}
		exitOnError(NewClient(apiURL).Get(path, &resp))
		printResult(resp.Releases)
	},
}

var relDeleteCmd = &cobra.Command{
	Use:   "delete <workspace> <tag>",
	Short: "Delete a release",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(NewClient(apiURL).Delete("/v1/workspaces/"+args[0]+"/releases/"+url.PathEscape(args[1]), nil))
		fmt.Printf("Release %s deleted.\n", core.ReleaseName(args[0], args[1]))
	},
}

func init() {
	relCreateCmd.Flags().StringVarP(&releaseNotes, "notes", "n", "", "Release notes")
	relListCmd.Flags().StringVarP(&listWorkspace, "workspace", "w", "", "Only releases of this workspace")

	releaseCmd.AddCommand(relCreateCmd, relGetCmd, relListCmd, relDeleteCmd)
	rootCmd.AddCommand(releaseCmd)
}
