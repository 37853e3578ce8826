package prompter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

var (
	mu     sync.Mutex
	in     io.Reader = os.Stdin
	out    io.Writer = os.Stderr
	reader *bufio.Reader
	// interactive reports whether stdin is a terminal
	interactive = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
)

// SetIO swaps the prompt streams, for tests and non-interactive use.
// Prompts read from r as if it were a terminal.
func SetIO(r io.Reader, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	in, out = r, w
	reader = nil
	interactive = func() bool { return true }
}

func lineReader() *bufio.Reader {
	mu.Lock()
	defer mu.Unlock()
	if reader == nil {
		reader = bufio.NewReader(in)
	}
	return reader
}

// IsInteractive reports whether prompts can expect an answer
func IsInteractive() bool {
	return interactive()
}

// PromptString prompts user for a string input
func PromptString(label string) (string, error) {
	fmt.Fprint(out, label)
	input, err := lineReader().ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// PromptConfirm prompts user for yes/no confirmation
func PromptConfirm(label string) (bool, error) {
	input, err := PromptString(label + " (y/n) ")
	if err != nil {
		return false, err
	}
	response := strings.ToLower(input)
	return response == "y" || response == "yes", nil
}

// PromptSelect prompts user to select from options
func PromptSelect(label string, options []string) (int, error) {
	fmt.Fprintln(out, label)
	for i, opt := range options {
		fmt.Fprintf(out, "%d) %s\n", i+1, opt)
	}

	input, err := PromptString("Select option: ")
	if err != nil {
		return -1, err
	}

	var selection int
	if _, err := fmt.Sscanf(input, "%d", &selection); err != nil {
		return -1, err
	}
	if selection < 1 || selection > len(options) {
		return -1, fmt.Errorf("invalid selection")
	}
	return selection - 1, nil
}

// PromptMultilineString prompts user for multi-line input, ending at the
// first empty line
func PromptMultilineString(label string, maxLines int) (string, error) {
	fmt.Fprintf(out, "%s (end with an empty line):\n", label)

	r := lineReader()
	var lines []string
	for i := 0; i < maxLines; i++ {
		line, err := r.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			break
		}
		lines = append(lines, trimmed)
		if err != nil {
			break
		}
	}
	return strings.Join(lines, "\n"), nil
}

// WaitForEnter shows label and returns once the user presses enter, the
// timeout passes or ctx is done. It reports whether the user dismissed it.
// Without a terminal it returns immediately.
func WaitForEnter(ctx context.Context, label string, timeout time.Duration) bool {
	fmt.Fprintln(out, label)
	if !IsInteractive() {
		return false
	}

	pressed := make(chan struct{}, 1)
	go func() {
		if _, err := lineReader().ReadString('\n'); err == nil {
			pressed <- struct{}{}
		}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-pressed:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
