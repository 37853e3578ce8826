package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/zfogg/dormdesk/pkg/service"
)

var overnightCmd = &cobra.Command{
	Use:   "overnight",
	Short: "Overnight stay requests",
}

var overnightListCmd = &cobra.Command{
	Use:   "list",
	Short: "List overnight stay requests",
	RunE: guarded(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		return service.NewOvernightService(app.API).List(ctx, status)
	}),
}

var overnightApproveCmd = &cobra.Command{
	Use:   "approve <request-id>",
	Short: "Approve a request",
	Args:  cobra.ExactArgs(1),
	RunE: guarded(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		id, err := parseID("request id", args[0])
		if err != nil {
			return err
		}
		return service.NewOvernightService(app.API).Approve(ctx, id)
	}),
}

var overnightRejectCmd = &cobra.Command{
	Use:   "reject <request-id>",
	Short: "Reject a request",
	Args:  cobra.ExactArgs(1),
	RunE: guarded(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		id, err := parseID("request id", args[0])
		if err != nil {
			return err
		}
		reason, _ := cmd.Flags().GetString("reason")
		return service.NewOvernightService(app.API).Reject(ctx, id, reason)
	}),
}

func init() {
	overnightCmd.AddCommand(overnightListCmd)
	overnightCmd.AddCommand(overnightApproveCmd)
	overnightCmd.AddCommand(overnightRejectCmd)

	overnightListCmd.Flags().StringP("status", "s", "pending", "Filter by status: pending, approved, rejected, or empty for all")
	overnightRejectCmd.Flags().String("reason", "", "Reason shown to the student")
}
