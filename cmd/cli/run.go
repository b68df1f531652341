package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/app"
	"github.com/hamed0406/uptimemonitor/internal/config"
	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/logging"
	"github.com/hamed0406/uptimemonitor/internal/repo/statefile"
	"github.com/hamed0406/uptimemonitor/internal/scheduler"
)

func init() {
	runCommand.Flags().String("state-file", envOr("STATE_FILE", "status.json"), "state document read for previous results and rewritten afterwards")
	runCommand.Flags().String("targets", "", "yaml targets file (default: TARGETS_FILE or the built-in list)")
	runCommand.Flags().Duration("http-timeout", 10*time.Second, "HTTP probe timeout")
	runCommand.Flags().BoolP("json", "j", false, "print the state document instead of the table")
}

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run one check cycle locally without a server",
	Long: "Probes every target once, alerts on up/down transitions against the previous " +
		"state file and rewrites it. Exits 0 even when targets are down.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnv()
		cfg.CheckInterval = 0
		cfg.CheckSchedule = ""
		cfg.StateFile, _ = cmd.Flags().GetString("state-file")
		cfg.HTTPTimeout, _ = cmd.Flags().GetDuration("http-timeout")
		if targets, _ := cmd.Flags().GetString("targets"); targets != "" {
			cfg.TargetsFile = targets
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err := logging.NewLogger(logging.Options{Dir: cfg.LogDir, Level: cfg.LogLevel, Stdout: cfg.LogStdout})
		if err != nil {
			return err
		}
		defer logger.Sync()

		a, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		snap, runErr := a.Runner.RunCycle(cmd.Context(), scheduler.ReasonBatch)
		if err := a.Close(cmd.Context()); err != nil {
			logger.Warn("close_failed", zap.Error(err))
		}
		if runErr != nil {
			return runErr
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			raw, err := statefileJSON(snap)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), prettyJSON(raw))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderSnapshot(snap))
		return nil
	},
}

func statefileJSON(s domain.CycleSnapshot) ([]byte, error) {
	return json.Marshal(statefile.FromSnapshot(s))
}
