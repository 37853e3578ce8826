package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/zfogg/dormdesk/pkg/service"
)

var parcelsCmd = &cobra.Command{
	Use:   "parcels",
	Short: "Parcels held at the front desk",
}

var parcelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List parcels",
	RunE: guarded(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		return service.NewParcelService(app.API).List(ctx, !all)
	}),
}

var parcelsPickupCmd = &cobra.Command{
	Use:   "pickup <parcel-id>",
	Short: "Record that a parcel was collected",
	Args:  cobra.ExactArgs(1),
	RunE: guarded(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		id, err := parseID("parcel id", args[0])
		if err != nil {
			return err
		}
		return service.NewParcelService(app.API).PickUp(ctx, id)
	}),
}

func init() {
	parcelsCmd.AddCommand(parcelsListCmd)
	parcelsCmd.AddCommand(parcelsPickupCmd)

	parcelsListCmd.Flags().BoolP("all", "a", false, "Include parcels already picked up")
}
