package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/zfogg/dormdesk/pkg/api"
	"github.com/zfogg/dormdesk/pkg/formatter"
	"github.com/zfogg/dormdesk/pkg/logger"
	"github.com/zfogg/dormdesk/pkg/output"
	"github.com/zfogg/dormdesk/pkg/prompter"
	"github.com/zfogg/dormdesk/pkg/rollcall"
)

// RollcallService provides the roll-call and cleaning inspection commands
type RollcallService struct {
	src rollcall.Source
}

// NewRollcallService creates a new roll-call service
func NewRollcallService(src rollcall.Source) *RollcallService {
	return &RollcallService{src: src}
}

func (s *RollcallService) load(ctx context.Context, sel rollcall.Selection) (*rollcall.Board, error) {
	if sel.Date == "" {
		sel.Date = Today()
	}
	board := rollcall.NewBoard(s.src)
	if err := board.Select(ctx, sel); err != nil {
		return nil, fmt.Errorf("failed to load roll call for %s: %w", sel.Date, err)
	}
	return board, nil
}

// Show prints the reconciled roll call for a date
func (s *RollcallService) Show(ctx context.Context, sel rollcall.Selection) error {
	board, err := s.load(ctx, sel)
	if err != nil {
		return err
	}
	return printBoard(board.Snapshot())
}

// Mark sets a student's attendance status
func (s *RollcallService) Mark(ctx context.Context, sel rollcall.Selection, key int, status api.AttendanceStatus) error {
	return s.edit(ctx, sel, key, func(b *rollcall.Board) error {
		return b.SetStatus(ctx, key, status)
	})
}

// Clean records a student's cleaning inspection result
func (s *RollcallService) Clean(ctx context.Context, sel rollcall.Selection, key int, cleaning api.CleaningStatus) error {
	return s.edit(ctx, sel, key, func(b *rollcall.Board) error {
		return b.SetCleaning(ctx, key, cleaning)
	})
}

// Note replaces a student's free-text note
func (s *RollcallService) Note(ctx context.Context, sel rollcall.Selection, key int, note string) error {
	return s.edit(ctx, sel, key, func(b *rollcall.Board) error {
		return b.SetNote(ctx, key, note)
	})
}

func (s *RollcallService) edit(ctx context.Context, sel rollcall.Selection, key int, change func(*rollcall.Board) error) error {
	board, err := s.load(ctx, sel)
	if err != nil {
		return err
	}
	if err := change(board); err != nil {
		return fmt.Errorf("failed to save roll call: %w", err)
	}

	row, ok := findRow(board.Snapshot(), key)
	if !ok {
		return nil
	}
	formatter.PrintSuccess("✓ Saved")
	formatter.PrintKeyValue(map[string]interface{}{
		"Student":  formatter.StudentLabel(row.Student),
		"Date":     board.Snapshot().Selection.Date,
		"Status":   formatter.StatusLabel(row.Status),
		"Cleaning": formatter.CleaningLabel(row.Cleaning),
		"Note":     row.Note,
	})
	return nil
}

// Board runs an interactive editing loop over one date until the user
// quits or ctx is cancelled
func (s *RollcallService) Board(ctx context.Context, sel rollcall.Selection) error {
	if !prompter.IsInteractive() {
		return fmt.Errorf("the roll-call board needs an interactive terminal")
	}
	board, err := s.load(ctx, sel)
	if err != nil {
		return err
	}
	if err := printBoard(board.Snapshot()); err != nil {
		return err
	}
	printBoardHelp()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := prompter.PromptString(">")
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		quit, err := handleBoardLine(ctx, board, line)
		if quit || err != nil {
			return err
		}
	}
}

// handleBoardLine runs one command and redraws the board. A failed command
// is reported and the board redrawn anyway, so a row that failed to save
// shows its retry marker straight away.
func handleBoardLine(ctx context.Context, board *rollcall.Board, line string) (bool, error) {
	quit, err := runBoardCommand(ctx, board, line)
	if quit {
		return true, nil
	}
	if err != nil {
		formatter.PrintError("%v", err)
	}
	return false, printBoard(board.Snapshot())
}

var statusShortcuts = map[string]api.AttendanceStatus{
	"p": api.StatusPresent,
	"l": api.StatusLeave,
	"a": api.StatusAbsent,
}

// runBoardCommand applies one board command line and reports whether the
// loop should stop
func runBoardCommand(ctx context.Context, board *rollcall.Board, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := fields[0], fields[1:]
	logger.Debug("Board command", "command", cmd, "args", len(args))

	switch cmd {
	case "q", "quit":
		return true, nil
	case "?", "h", "help":
		printBoardHelp()
		return false, nil
	case "R":
		return false, board.Refresh(ctx)
	case "d":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: d YYYY-MM-DD")
		}
		sel := board.Snapshot().Selection
		sel.Date = args[0]
		return false, board.Select(ctx, sel)
	case "p", "l", "a":
		key, err := parseKey(args)
		if err != nil {
			return false, err
		}
		return false, board.SetStatus(ctx, key, statusShortcuts[cmd])
	case "c":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: c <key> pass|fail|none")
		}
		key, err := parseKey(args[:1])
		if err != nil {
			return false, err
		}
		return false, board.SetCleaning(ctx, key, api.CleaningStatus(strings.ToUpper(args[1])))
	case "n":
		key, err := parseKey(args[:min(len(args), 1)])
		if err != nil {
			return false, err
		}
		return false, board.SetNote(ctx, key, strings.Join(args[1:], " "))
	case "r":
		key, err := parseKey(args)
		if err != nil {
			return false, err
		}
		return false, board.Retry(ctx, key)
	default:
		return false, fmt.Errorf("unknown command %q, type ? for help", cmd)
	}
}

func parseKey(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected a student key")
	}
	key, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid student key %q", args[0])
	}
	return key, nil
}

func findRow(snap rollcall.Snapshot, key int) (rollcall.Row, bool) {
	for _, r := range snap.Rows {
		if r.Key == key {
			return r, true
		}
	}
	return rollcall.Row{}, false
}

func printBoard(snap rollcall.Snapshot) error {
	if snap.Err != nil {
		return fmt.Errorf("failed to load roll call: %w", snap.Err)
	}
	title := "Roll call " + snap.Selection.Date
	if snap.Selection.RoomID != nil {
		title += ", room " + itoa(*snap.Selection.RoomID)
	}
	headers, rows := formatter.RollcallTable(snap)
	if err := output.PrintList(title, snap.Rows, headers, rows); err != nil {
		return err
	}
	if output.GetOutputFormat() != output.FormatJSON {
		marked := 0
		for _, r := range snap.Rows {
			if r.Status != "" {
				marked++
			}
		}
		formatter.Faint.Fprintf(output.Out, "%d of %d student%s marked\n", marked, len(snap.Rows), pluralize(len(snap.Rows)))
	}
	return nil
}

func printBoardHelp() {
	formatter.PrintInfo("Commands: p|l|a <key>  c <key> pass|fail|none  n <key> text  r <key> retry  R refresh  d YYYY-MM-DD  q quit")
}
