package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
)

// StatusLine renders the steady-state one-line status display. On a
// terminal each update overwrites the previous line; on any other writer it
// degrades to one line per update so piped output stays readable.
type StatusLine struct {
	writer    io.Writer
	tty       bool
	profile   termenv.Profile
	lastWidth int
}

// NewStatusLine creates a StatusLine for w. If w is nil it defaults to
// os.Stdout.
func NewStatusLine(w io.Writer) *StatusLine {
	if w == nil {
		w = os.Stdout
	}

	tty := false
	if f, ok := w.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	return &StatusLine{
		writer:  w,
		tty:     tty,
		profile: termenv.NewOutput(w).Profile,
	}
}

// Update replaces the current status line.
func (s *StatusLine) Update(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)

	if !s.tty {
		fmt.Fprintln(s.writer, line)
		return
	}

	// Pad by display width so a shorter line fully covers the previous
	// one even when it held multi-byte runes.
	width := runewidth.StringWidth(line)
	padded := line
	if pad := s.lastWidth - width; pad > 0 {
		padded += strings.Repeat(" ", pad)
	}
	s.lastWidth = width

	fmt.Fprintf(s.writer, "\r%s", padded)
}

// Notice breaks out of the status line and prints a highlighted message on
// its own line.
func (s *StatusLine) Notice(format string, args ...interface{}) {
	s.Clear()
	msg := termenv.String(fmt.Sprintf(format, args...)).Foreground(s.profile.Color("11")).String()
	fmt.Fprintln(s.writer, msg)
}

// Clear terminates the in-place line so subsequent output starts fresh.
func (s *StatusLine) Clear() {
	if !s.tty || s.lastWidth == 0 {
		return
	}
	fmt.Fprintf(s.writer, "\r%s\r", strings.Repeat(" ", s.lastWidth))
	s.lastWidth = 0
}
