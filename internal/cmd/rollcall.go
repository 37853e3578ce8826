package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zfogg/dormdesk/pkg/api"
	"github.com/zfogg/dormdesk/pkg/rollcall"
	"github.com/zfogg/dormdesk/pkg/service"
)

var rollcallCmd = &cobra.Command{
	Use:     "rollcall",
	Aliases: []string{"rc"},
	Short:   "Roll call and cleaning inspections",
	Long: `Take the evening roll call and record cleaning inspections. Rows are
keyed by student id, or by student number for students without one.`,
}

var rollcallShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the roll call for a date",
	RunE: guarded(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		return rollcallService().Show(ctx, selectionFlags(cmd))
	}),
}

var rollcallMarkCmd = &cobra.Command{
	Use:       "mark <key> <present|leave|absent>",
	Short:     "Mark a student's attendance",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"present", "leave", "absent"},
	RunE: guarded(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		key, err := parseID("student key", args[0])
		if err != nil {
			return err
		}
		status := api.AttendanceStatus(strings.ToUpper(args[1]))
		return rollcallService().Mark(ctx, selectionFlags(cmd), key, status)
	}),
}

var rollcallCleanCmd = &cobra.Command{
	Use:   "clean <key> <pass|fail|none>",
	Short: "Record a cleaning inspection result",
	Args:  cobra.ExactArgs(2),
	RunE: guarded(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		key, err := parseID("student key", args[0])
		if err != nil {
			return err
		}
		cleaning := api.CleaningStatus(strings.ToUpper(args[1]))
		return rollcallService().Clean(ctx, selectionFlags(cmd), key, cleaning)
	}),
}

var rollcallNoteCmd = &cobra.Command{
	Use:   "note <key> <text...>",
	Short: "Set a student's note for the day",
	Long:  "Set a student's note for the day. An empty text clears it.",
	Args:  cobra.MinimumNArgs(1),
	RunE: guarded(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		key, err := parseID("student key", args[0])
		if err != nil {
			return err
		}
		return rollcallService().Note(ctx, selectionFlags(cmd), key, strings.Join(args[1:], " "))
	}),
}

var rollcallBoardCmd = &cobra.Command{
	Use:   "board",
	Short: "Edit the roll call interactively",
	Long: `Open an interactive board for a date. Each change is saved as soon as
it is made; failed saves stay on the board marked for retry.`,
	RunE: guarded(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		return ignoreCancel(rollcallService().Board(ctx, selectionFlags(cmd)))
	}),
}

func rollcallService() *service.RollcallService {
	return service.NewRollcallService(app.API)
}

func selectionFlags(cmd *cobra.Command) rollcall.Selection {
	date, _ := cmd.Flags().GetString("date")
	sel := rollcall.Selection{Date: date}
	if room, _ := cmd.Flags().GetInt("room"); room > 0 {
		sel.RoomID = &room
	}
	return sel
}

func init() {
	for _, c := range []*cobra.Command{rollcallShowCmd, rollcallMarkCmd, rollcallCleanCmd, rollcallNoteCmd, rollcallBoardCmd} {
		c.Flags().StringP("date", "d", "", "Date as YYYY-MM-DD (default: today)")
		c.Flags().IntP("room", "r", 0, "Limit to one room")
		rollcallCmd.AddCommand(c)
	}
}
