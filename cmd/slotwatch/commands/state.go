package commands

import (
	"fmt"
	"time"

	"slotwatch/internal/state"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateResetCmd)
	rootCmd.AddCommand(stateCmd)
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspects the stored earliest date.",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Prints the earliest date seen by the last run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openConfiguredStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore(store)

		value, found, err := store.Read(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !found {
			fmt.Fprintln(out, "no earliest date stored")
			return nil
		}
		fmt.Fprintln(out, value)

		if sqlStore, ok := store.(state.SQLStore); ok {
			updatedAt, err := sqlStore.UpdatedAt(ctx)
			if err == nil {
				fmt.Fprintf(out, "updated %s\n", humanize.Time(time.Unix(updatedAt, 0)))
			}
		}
		return nil
	},
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forgets the stored earliest date, the next check notifies.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openConfiguredStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore(store)

		clearer, ok := store.(state.Clearer)
		if !ok {
			return fmt.Errorf("state store %T cannot be reset", store)
		}
		err = clearer.Clear(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "state cleared")
		return nil
	},
}
