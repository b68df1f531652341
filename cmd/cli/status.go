package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func init() {
	statusCommand.Flags().BoolP("json", "j", false, "output as JSON")
	checkCommand.Flags().BoolP("json", "j", false, "output as JSON")
}

var statusCommand = &cobra.Command{
	Use:   "status",
	Short: "Show the latest check results",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showSnapshot(cmd, http.MethodGet, "/api/status")
	},
}

var checkCommand = &cobra.Command{
	Use:   "check",
	Short: "Run a check cycle now and show its results",
	Long:  "Triggers a manual cycle, or joins the one already running, and waits for it. Requires an admin key.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showSnapshot(cmd, http.MethodPost, "/api/check")
	},
}

func showSnapshot(cmd *cobra.Command, method, path string) error {
	snap, raw, err := newAPIClient(apiBase, apiKey).snapshot(cmd.Context(), method, path)
	if err != nil {
		return err
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		fmt.Fprint(cmd.OutOrStdout(), prettyJSON(raw))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderSnapshot(snap))
	return nil
}
