package commands

import (
	"context"
	"errors"
	"os"
	"time"

	"slotwatch/internal/components/telemetry"
	"slotwatch/pkg/serviceutil"

	"github.com/mazen160/go-random"
	"github.com/spf13/cobra"
)

const report_cli_telemetry = "cli.telemetry"

var (
	configPath *string
	verbose    *bool

	providers telemetry.Telemetry
	runId     string
)

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The json5 config file, <name>.local.json5 is merged over it.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show debug output.")
	addCheckFlags(rootCmd)
}

var rootCmd = &cobra.Command{
	Use:   "slotwatch",
	Short: "slotwatch checks the driving test booking site for an earlier test date.",
	Long: `slotwatch logs into the booking site, reads every bookable date on the
slot calendar and texts the configured recipients when the earliest date
differs from the one seen by the previous run.

Running slotwatch without a subcommand is the same as "slotwatch check".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)

		id, err := random.String(8)
		if err != nil {
			id = "unknown"
		}
		runId = id

		providers, err = telemetry.SetupFromEnv(cmd.Context(), "slotwatch")
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			newTelemetry().ReportWarning(report_cli_telemetry, err)
		}
	},
	RunE: runCheck,
}

func newTelemetry() telemetry.API {
	return telemetry.NewSlogAPI("run", runId)
}

// shutdownTelemetry flushes pending spans and metrics, it also runs after a
// failed command.
func shutdownTelemetry(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err := providers.Shutdown(ctx)
	if err != nil {
		newTelemetry().ReportWarning(report_cli_telemetry, err)
	}
	providers = telemetry.Telemetry{}
}

// execute runs the command line, deferred cleanups of the command have run
// by the time it returns.
func execute(ctx context.Context) error {
	defer shutdownTelemetry(ctx)
	return rootCmd.ExecuteContext(ctx)
}

func ExecuteContext(ctx context.Context) {
	err := execute(ctx)
	if err != nil {
		serviceutil.Fatal("slotwatch failed", err)
	}
}
