package commands

import (
	"fmt"

	"slotwatch/internal/components/chrono"

	"github.com/spf13/cobra"
)

const report_cli_watch = "cli.watch"

var schedule *string

func init() {
	schedule = watchCmd.Flags().String("schedule", "", "Cron spec for the checks, overrides `schedule` in the config.")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch [--schedule <cron spec>] [--broadcast] [--no-table]",
	Short: "Keeps checking the slot calendar on a cron schedule until interrupted.",
	Long: `Runs a check on every tick of the schedule. A check that is still running
when the next tick comes around makes that tick get skipped, so two checks
never share the state store.

--broadcast and --no-table apply to every check, with --broadcast every
check notifies the recipients.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		tel := newTelemetry()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if *schedule != "" {
			cfg.Schedule = *schedule
		}
		clock, err := newClock()
		if err != nil {
			return err
		}
		store, err := openStore(ctx, cfg, clock)
		if err != nil {
			return err
		}
		defer closeStore(store)
		runner := newRunner(cfg, clock, store, cmd.OutOrStdout(), tel)

		cron := chrono.NewStandardCron(clock, tel)
		opts := runOptions()
		err = cron.Cron(cfg.Schedule, func() {
			_, err := runner.Run(ctx, opts)
			if err != nil {
				// a failed check does not stop the schedule
				tel.ReportBroken(report_cli_watch, err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
		}

		tel.ReportInfo("watching", "schedule", cfg.Schedule, "broadcast", opts.Broadcast)
		cron.Start()
		<-ctx.Done()
		cron.Stop()
		return nil
	},
}
