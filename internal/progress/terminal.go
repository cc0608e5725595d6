package progress

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"iota-cli/internal/util"
)

const barWidth = 50

// hideCursor and showCursor are the standard ANSI escape sequences every
// terminal-progress implementation in the ecosystem uses; there is no
// third-party cursor-control dependency in the pack worth pulling in for
// two escape codes.
const (
	hideCursor = "\x1b[?25l"
	showCursor = "\x1b[?25h"
)

// Terminal renders a single repainted progress line to stderr, modeled on
// the teacher's Reporter: a fixed-width bar, percent-change-only repaint,
// and a trailing newline on completion.
type Terminal struct {
	mu         sync.Mutex
	quiet      bool
	lastPct    map[string]int
	cursorHid  bool
	lastLineLn int
}

// NewTerminal creates a terminal sink. If quiet, progress and messages are
// suppressed (used for -q/--no-progress); errors are still printed.
func NewTerminal(quiet bool) *Terminal {
	return &Terminal{quiet: quiet, lastPct: map[string]int{}}
}

func (t *Terminal) Progress(step string, current, total int64) {
	if t.quiet {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	pct := percentOf(current, total)
	if prev, ok := t.lastPct[step]; ok && prev == pct {
		return
	}
	t.lastPct[step] = pct

	if !t.cursorHid {
		fmt.Fprint(os.Stderr, hideCursor)
		t.cursorHid = true
	}

	filled := pct * barWidth / 100
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	line := fmt.Sprintf("\r[%s] %3d%% | %s | %s/%s", bar, pct, step, util.Sizeify(current), util.Sizeify(total))

	if len(line) < t.lastLineLn {
		line += strings.Repeat(" ", t.lastLineLn-len(line))
	}
	t.lastLineLn = len(line)
	fmt.Fprint(os.Stderr, line)
}

func (t *Terminal) Message(text string) {
	if t.quiet {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.breakLine()
	fmt.Fprintln(os.Stderr, text)
}

func (t *Terminal) Error(code int32, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.breakLine()
	fmt.Fprintf(os.Stderr, "error[%d]: %s\n", code, text)
}

// Finish restores the cursor and moves past the progress line. Call once
// the operation it was tracking has concluded, success or failure.
func (t *Terminal) Finish() {
	if t.quiet {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.breakLine()
	if t.cursorHid {
		fmt.Fprint(os.Stderr, showCursor)
		t.cursorHid = false
	}
}

func (t *Terminal) breakLine() {
	if t.lastLineLn > 0 {
		fmt.Fprintln(os.Stderr)
		t.lastLineLn = 0
	}
}
