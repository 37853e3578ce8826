package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zfogg/dormdesk/pkg/config"
	dderrors "github.com/zfogg/dormdesk/pkg/errors"
	"github.com/zfogg/dormdesk/pkg/guard"
	"github.com/zfogg/dormdesk/pkg/logger"
	"github.com/zfogg/dormdesk/pkg/output"
)

// standalone marks commands that run without a backend session
const standalone = "standalone"

var (
	verbose    bool
	configPath string
	outputFmt  string

	app *App
)

var rootCmd = &cobra.Command{
	Use:   "dormdesk",
	Short: "dormdesk - dormitory administration from the terminal",
	Long: `dormdesk is the staff client for the dormitory administration API.
Take roll call and cleaning inspections, answer inquiries, hand out
parcels, review overnight stays and upload utility bills.

Several dormdesk processes sharing one profile share one session:
signing in or out in one is seen by the others.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(configPath); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		logger.Init(verbose)

		if cmd.Flags().Changed("output") {
			if !output.ValidateOutputFormat(outputFmt) {
				return fmt.Errorf("invalid output format %q: use text, json or table", outputFmt)
			}
			config.Set("output.format", outputFmt)
		}

		if isStandalone(cmd) {
			return nil
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		app = a
		app.setRoute(routeOf(cmd))
		logger.Debug("Command started", "route", app.Route())
		return nil
	},
}

func isStandalone(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[standalone] == "true" {
			return true
		}
	}
	return false
}

// Execute runs the command tree and exits non-zero on failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRun is skipped when RunE fails, so close here
	if app != nil {
		app.Close()
	}
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	// The redirect already told the user how to sign in
	if !errors.Is(err, guard.ErrRedirected) {
		fmt.Fprintln(output.Err, dderrors.FormatError(err))
	}
	logger.Debug("Command failed", "error", err)
	stop()
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.config/dormdesk/config.toml)")
	rootCmd.PersistentFlags().StringVar(&outputFmt, "output", "text", "Output format: text, json, table")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(rollcallCmd)
	rootCmd.AddCommand(roomsCmd)
	rootCmd.AddCommand(studentsCmd)
	rootCmd.AddCommand(noticesCmd)
	rootCmd.AddCommand(parcelsCmd)
	rootCmd.AddCommand(inquiriesCmd)
	rootCmd.AddCommand(overnightCmd)
	rootCmd.AddCommand(billCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(devserverCmd)
	rootCmd.AddCommand(versionCmd)
}
