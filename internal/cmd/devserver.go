package cmd

import (
	"github.com/spf13/cobra"
	"github.com/zfogg/dormdesk/internal/devserver"
	"github.com/zfogg/dormdesk/pkg/config"
	"github.com/zfogg/dormdesk/pkg/formatter"
	"go.uber.org/zap"
)

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run an in-memory dormitory backend for development",
	Long: `Run a local stand-in for the dormitory API and its sign-in page, with
seeded rooms, students and records. Point api.base_url at it to try
dormdesk without a real backend. Data is lost when it stops.`,
	Annotations: map[string]string{standalone: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = config.GetString("devserver.addr")
		}

		log, err := newServerLogger()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		fake, _ := cmd.Flags().GetInt("fake-students")
		if !cmd.Flags().Changed("fake-students") {
			fake = config.GetInt("devserver.fake_students")
		}

		srv := devserver.New(devserver.Config{
			Addr:         addr,
			Secret:       []byte(config.GetString("devserver.secret")),
			SessionTTL:   config.GetDuration("devserver.session_ttl"),
			CORSOrigins:  config.GetStringSlice("devserver.cors_origins"),
			FakeStudents: fake,
		}, log)

		formatter.PrintInfo("Dev server on %s (metrics at /metrics). Press Ctrl+C to stop", addr)
		return ignoreCancel(srv.Run(cmd.Context()))
	},
}

func newServerLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func init() {
	devserverCmd.Flags().String("addr", "", "Listen address (default: devserver.addr)")
	devserverCmd.Flags().Int("fake-students", 0, "Add generated students to the roster")
}
