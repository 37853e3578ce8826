package cmd

import (
	"github.com/spf13/cobra"
	"github.com/zfogg/dormdesk/pkg/config"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect the shared session",
}

var sessionWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print session changes as they happen",
	Long: `Resolve the session, then print every state change, including sign-ins
and sign-outs made by other dormdesk processes on this profile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := app.authService()
		app.Sessions.Refresh(cmd.Context())
		return ignoreCancel(svc.Watch(cmd.Context()))
	},
}

func configDirLabel() string {
	return config.GetConfigDir()
}

func init() {
	sessionCmd.AddCommand(sessionWatchCmd)
}
