package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/zfogg/dormdesk/pkg/service"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Dormitory rooms",
}

var roomsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rooms",
	RunE: guarded(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")
		return service.NewDirectoryService(app.API).ListRooms(ctx, page, limit)
	}),
}

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "Resident students",
}

var studentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List students, optionally of one room",
	RunE: guarded(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		var roomID *int
		if room, _ := cmd.Flags().GetInt("room"); room > 0 {
			roomID = &room
		}
		return service.NewDirectoryService(app.API).ListStudents(ctx, roomID)
	}),
}

func init() {
	roomsCmd.AddCommand(roomsListCmd)
	studentsCmd.AddCommand(studentsListCmd)

	roomsListCmd.Flags().IntP("page", "p", 1, "Page number")
	roomsListCmd.Flags().IntP("limit", "l", 50, "Items per page")
	studentsListCmd.Flags().IntP("room", "r", 0, "Only students of this room")
}
