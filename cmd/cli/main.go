package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	apiBase string
	apiKey  string
)

var rootCmd = &cobra.Command{
	Use:           "uptimectl",
	Short:         "Query and drive the uptime monitor",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiBase, "api", envOr("API_BASE", "http://localhost:8080"), "monitor API base URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("API_KEY"), "API key sent as X-API-Key")

	rootCmd.AddCommand(statusCommand, checkCommand, runCommand)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, styleFailed.Render("✖"), err)
		stop()
		os.Exit(1)
	}
}
