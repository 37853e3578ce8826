package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/zfogg/dormdesk/pkg/api"
	"github.com/zfogg/dormdesk/pkg/service"
)

var noticesCmd = &cobra.Command{
	Use:   "notices",
	Short: "Dormitory notice board",
}

var noticesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notices",
	RunE: guarded(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")
		return service.NewNoticeService(app.API).List(ctx, page, limit)
	}),
}

var noticesPostCmd = &cobra.Command{
	Use:   "post",
	Short: "Post a notice",
	Long:  "Post a notice. Title and body are prompted for when not given as flags.",
	RunE: guarded(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		body, _ := cmd.Flags().GetString("body")
		pinned, _ := cmd.Flags().GetBool("pinned")
		return service.NewNoticeService(app.API).Post(ctx, api.NoticeInput{Title: title, Body: body, Pinned: pinned})
	}),
}

func init() {
	noticesCmd.AddCommand(noticesListCmd)
	noticesCmd.AddCommand(noticesPostCmd)

	noticesListCmd.Flags().IntP("page", "p", 1, "Page number")
	noticesListCmd.Flags().IntP("limit", "l", 20, "Items per page")
	noticesPostCmd.Flags().StringP("title", "t", "", "Notice title")
	noticesPostCmd.Flags().StringP("body", "b", "", "Notice text")
	noticesPostCmd.Flags().Bool("pinned", false, "Pin the notice to the top")
}
