package wm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"webwrap/internal/executor"
	"webwrap/internal/infrastructure/logging"
)

const (
	DefaultListCommand  = "niri msg windows"
	DefaultFocusCommand = "niri msg action focus-window --id %d"
)

// blockSeparator matches a blank line, tolerating stray spaces on it
var blockSeparator = regexp.MustCompile(`\n[ \t]*\n`)

// Bridge talks to the compositor through its command-line client. It only
// knows how to list windows and focus one by id.
type Bridge struct {
	runner       executor.Runner
	listCommand  string
	focusCommand string
	log          logging.Logger
}

// NewBridge creates a Bridge. Empty commands fall back to the niri defaults.
// focusCommand must contain one %d verb for the window id.
func NewBridge(runner executor.Runner, listCommand, focusCommand string, log logging.Logger) *Bridge {
	if listCommand == "" {
		listCommand = DefaultListCommand
	}
	if focusCommand == "" {
		focusCommand = DefaultFocusCommand
	}
	if log == nil {
		log = logging.NewDefaultLogger()
	}
	return &Bridge{
		runner:       runner,
		listCommand:  listCommand,
		focusCommand: focusCommand,
		log:          log,
	}
}

// ListWindows returns the raw per-window blocks of the listing, in order.
// Every call queries the compositor.
func (b *Bridge) ListWindows(ctx context.Context) ([]string, error) {
	out, err := b.runner.Run(ctx, b.listCommand)
	if err != nil {
		return nil, err
	}
	blocks := SplitBlocks(out)
	b.log.Debug("Listed windows", "count", len(blocks))
	return blocks, nil
}

// FocusWindow asks the compositor to focus window id. Output is discarded.
func (b *Bridge) FocusWindow(ctx context.Context, id int) error {
	b.log.Debug("Focusing window", "window_id", id)
	_, err := b.runner.Run(ctx, fmt.Sprintf(b.focusCommand, id))
	return err
}

// SplitBlocks splits listing output on blank lines and drops empty blocks
func SplitBlocks(out string) []string {
	out = strings.ReplaceAll(out, "\r\n", "\n")
	parts := blockSeparator.Split(out, -1)
	blocks := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		blocks = append(blocks, strings.Trim(p, "\n"))
	}
	return blocks
}
