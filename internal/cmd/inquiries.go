package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zfogg/dormdesk/pkg/service"
)

var inquiriesCmd = &cobra.Command{
	Use:     "inquiries",
	Aliases: []string{"inquiry"},
	Short:   "Student inquiries",
}

var inquiriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List inquiries",
	RunE: guarded(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		return service.NewInquiryService(app.API).List(ctx, status)
	}),
}

var inquiriesAnswerCmd = &cobra.Command{
	Use:   "answer <inquiry-id> [answer...]",
	Short: "Answer an inquiry",
	Long:  "Answer an inquiry. Without answer text it is prompted for.",
	Args:  cobra.MinimumNArgs(1),
	RunE: guarded(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		id, err := parseID("inquiry id", args[0])
		if err != nil {
			return err
		}
		return service.NewInquiryService(app.API).Answer(ctx, id, strings.Join(args[1:], " "))
	}),
}

func init() {
	inquiriesCmd.AddCommand(inquiriesListCmd)
	inquiriesCmd.AddCommand(inquiriesAnswerCmd)

	inquiriesListCmd.Flags().StringP("status", "s", "", "Filter by status: open, answered")
}
