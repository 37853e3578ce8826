package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/zfogg/dormdesk/pkg/billphoto"
	"github.com/zfogg/dormdesk/pkg/config"
	"github.com/zfogg/dormdesk/pkg/service"
)

var billCmd = &cobra.Command{
	Use:   "bill",
	Short: "Utility bill photos",
}

var billUploadCmd = &cobra.Command{
	Use:   "upload <room-id> <photo>",
	Short: "Upload a photographed utility bill",
	Long: `Upload a photo of a room's utility bill. The photo is downscaled and
re-encoded as JPEG before upload.`,
	Args: cobra.ExactArgs(2),
	RunE: guarded(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		roomID, err := parseID("room id", args[0])
		if err != nil {
			return err
		}
		month, _ := cmd.Flags().GetString("month")
		if month == "" {
			month = time.Now().Format("2006-01")
		}
		svc := service.NewBillService(app.API, billphoto.Options{
			MaxWidth: config.GetInt("bill.max_width"),
			Quality:  config.GetInt("bill.jpeg_quality"),
		})
		return svc.Upload(ctx, roomID, month, args[1])
	}),
}

func init() {
	billCmd.AddCommand(billUploadCmd)

	billUploadCmd.Flags().StringP("month", "m", "", "Billing month as YYYY-MM (default: this month)")
}
