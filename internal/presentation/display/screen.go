package display

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ANSI control sequences
const (
	enterAlternateScreen = "\033[?1049h"
	exitAlternateScreen  = "\033[?1049l"
	ClearScreen          = "\033[2J"
	MoveCursorHome       = "\033[H"
	HideCursor           = "\033[?25l"
	ShowCursor           = "\033[?25h"
)

// Screen redraws output in place when it is written to a terminal. On any
// other writer every call is a no-op, so successive renders simply append.
type Screen struct {
	w                 io.Writer
	interactive       bool
	inAlternateScreen bool
}

func NewScreen(w io.Writer) *Screen {
	interactive := false
	if file, ok := w.(*os.File); ok {
		interactive = term.IsTerminal(int(file.Fd()))
	}
	return &Screen{w: w, interactive: interactive}
}

func (s *Screen) Interactive() bool {
	return s.interactive
}

// EnterAlternateScreen switches to the alternate screen buffer
func (s *Screen) EnterAlternateScreen() {
	if s.interactive && !s.inAlternateScreen {
		fmt.Fprint(s.w, enterAlternateScreen+ClearScreen+MoveCursorHome+HideCursor)
		s.inAlternateScreen = true
	}
}

// ExitAlternateScreen returns to the normal screen buffer
func (s *Screen) ExitAlternateScreen() {
	if s.inAlternateScreen {
		fmt.Fprint(s.w, ClearScreen+MoveCursorHome+ShowCursor+exitAlternateScreen)
		s.inAlternateScreen = false
	}
}

// Clear wipes the alternate screen before the next render.
func (s *Screen) Clear() {
	if s.inAlternateScreen {
		fmt.Fprint(s.w, ClearScreen+MoveCursorHome)
	}
}
