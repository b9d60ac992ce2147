package commands

import (
	"errors"
	"fmt"

	"slotwatch/internal/watch"

	"github.com/spf13/cobra"
)

var (
	broadcast *bool
	noTable   *bool
)

func addCheckFlags(cmd *cobra.Command) {
	broadcast = cmd.PersistentFlags().BoolP("broadcast", "b", false, "Notify every recipient even if the earliest date has not changed.")
	noTable = cmd.PersistentFlags().Bool("no-table", false, "Do not print the table of bookable dates.")
}

func runOptions() watch.RunOptions {
	return watch.RunOptions{
		Broadcast: *broadcast,
		NoTable:   *noTable,
	}
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check [--broadcast] [--no-table]",
	Short: "Checks the slot calendar once.",
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
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

	runner := newRunner(cfg, clock, store, cmd.OutOrStdout(), newTelemetry())
	_, err = runner.Run(ctx, runOptions())
	if err != nil {
		var runErr *watch.RunError
		if errors.As(err, &runErr) && runErr.Stage == watch.StageExtract {
			return fmt.Errorf("read the slot calendar: %w", err)
		}
		return fmt.Errorf("reach the slot calendar: %w", err)
	}
	return nil
}
