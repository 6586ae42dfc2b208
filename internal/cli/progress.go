package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/Lllllllleong/pdfsuite/internal/models"
)

var (
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	noteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// progressView renders pipeline states. On a terminal it redraws a single
// progress bar line; elsewhere it prints one line per new message.
type progressView struct {
	w     io.Writer
	tty   bool
	quiet bool
	bar   progress.Model

	mu      sync.Mutex
	last    string
	drawing bool
}

func newProgressView(w io.Writer, quiet bool) *progressView {
	return &progressView{
		w:     w,
		tty:   isTerminal(w),
		quiet: quiet,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (v *progressView) observe(s models.ProcessingState) {
	if v.quiet || !s.IsProcessing() {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.tty {
		fmt.Fprintf(v.w, "\r\033[K%s %s", v.bar.ViewAs(s.Progress/100), mutedStyle.Render(s.Message))
		v.drawing = true
		return
	}
	if s.Message == v.last {
		return
	}
	v.last = s.Message
	fmt.Fprintf(v.w, "[%3.0f%%] %s\n", s.Progress, s.Message)
}

// finish ends the progress line so later output starts on a fresh one.
func (v *progressView) finish() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.drawing {
		fmt.Fprintln(v.w)
		v.drawing = false
	}
}
