package formatter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/zfogg/dormdesk/pkg/api"
	"github.com/zfogg/dormdesk/pkg/output"
	"github.com/zfogg/dormdesk/pkg/rollcall"
)

var (
	Bold    = color.New(color.Bold)
	Success = color.New(color.FgGreen)
	Error   = color.New(color.FgRed)
	Info    = color.New(color.FgCyan)
	Warning = color.New(color.FgYellow)
	Faint   = color.New(color.Faint)
)

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	output.PrintSuccess(format, args...)
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	output.PrintError(format, args...)
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	output.PrintInfo(format, args...)
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	output.PrintWarning(format, args...)
}

// PrintKeyValue prints key-value pairs using the centralized output service
func PrintKeyValue(data map[string]interface{}) {
	output.PrintRecord("", data)
}

// StatusLabel renders an attendance status, dash when unmarked
func StatusLabel(s api.AttendanceStatus) string {
	switch s {
	case api.StatusPresent:
		return Success.Sprint(string(s))
	case api.StatusLeave:
		return Warning.Sprint(string(s))
	case api.StatusAbsent:
		return Error.Sprint(string(s))
	default:
		return Faint.Sprint("-")
	}
}

// CleaningLabel renders a cleaning inspection result
func CleaningLabel(c api.CleaningStatus) string {
	switch c {
	case api.CleaningPass:
		return Success.Sprint("PASS")
	case api.CleaningFail:
		return Error.Sprint("FAIL")
	default:
		return Faint.Sprint("NONE")
	}
}

// SaveStateLabel renders a row's save indicator
func SaveStateLabel(row rollcall.Row) string {
	switch row.State {
	case rollcall.RowSaving:
		return Info.Sprint("saving…")
	case rollcall.RowError:
		return Error.Sprint("✗ failed, retry")
	default:
		if row.Edited {
			return Faint.Sprint("edited")
		}
		return ""
	}
}

// OptionalInt renders a nullable id
func OptionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

// Time renders a timestamp in local time, dash when missing
func Time(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// StudentLabel renders a student's name with whatever identity they carry
func StudentLabel(s api.Student) string {
	key := rollcall.StudentKey(s)
	if key == rollcall.UnresolvedKey {
		return fmt.Sprintf("%s (?)", s.Name)
	}
	return fmt.Sprintf("%s (%d)", s.Name, key)
}

// RollcallTable turns a board snapshot into table headers and rows
func RollcallTable(snap rollcall.Snapshot) ([]string, [][]string) {
	headers := []string{"KEY", "STUDENT", "ROOM", "STATUS", "CLEANING", "NOTE", ""}
	rows := make([][]string, 0, len(snap.Rows))
	for _, r := range snap.Rows {
		room := OptionalInt(r.Student.RoomID)
		if r.Record != nil && r.Record.RoomID != nil {
			room = OptionalInt(r.Record.RoomID)
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Key),
			r.Student.Name,
			room,
			StatusLabel(r.Status),
			CleaningLabel(r.Cleaning),
			r.Note,
			SaveStateLabel(r),
		})
	}
	return headers, rows
}
