package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/tower/pkg/domain"
	"github.com/aretw0/tower/pkg/report"
)

var stderr io.Writer = os.Stderr

const defaultWidth = 80

// Terminal writes human output, colored only when Out is an interactive terminal.
type Terminal struct {
	Out     io.Writer
	Theme   string // auto, dark, light or notty
	profile termenv.Profile
	tty     bool
	width   int
}

// NewTerminal inspects f for a TTY and its width.
func NewTerminal(f *os.File, theme string) *Terminal {
	t := &Terminal{Out: f, Theme: theme, profile: termenv.Ascii, width: defaultWidth}
	if term.IsTerminal(int(f.Fd())) {
		t.tty = true
		t.profile = termenv.NewOutput(f).ColorProfile()
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			t.width = w
		}
	}
	return t
}

// NewPlainTerminal writes uncolored output of the default width to w.
func NewPlainTerminal(w io.Writer) *Terminal {
	return &Terminal{Out: w, Theme: "notty", profile: termenv.Ascii, width: defaultWidth}
}

// Width is the wrap width for rendered reports.
func (t *Terminal) Width() int { return t.width }

// Printf writes to Out.
func (t *Terminal) Printf(format string, args ...any) {
	fmt.Fprintf(t.Out, format, args...)
}

// Status is the colored one-line outcome of a solve.
func (t *Terminal) Status(d domain.Diagnostics) string {
	color := "#eab308"
	switch {
	case d.Converged:
		color = "#22c55e"
	case d.Aborted:
		color = "#ef4444"
	}
	text := strings.ReplaceAll(report.Status(d), "**", "")
	return t.profile.String(text).Foreground(t.profile.Color(color)).String()
}

// Markdown renders md with glamour, or writes it raw when styling fails.
func (t *Terminal) Markdown(md string) {
	style := t.Theme
	switch {
	case !t.tty:
		style = "notty"
	case style == "auto":
		style = ""
	}
	out, err := report.Render(md, style, t.width)
	if err != nil {
		out = md
	}
	fmt.Fprint(t.Out, out)
}

// Banner prints the tower logo.
func (t *Terminal) Banner() {
	lines := []struct{ text, color string }{
		{"  _____                      ", "#38bdf8"},
		{" |_   _|____      _____ _ __ ", "#60a5fa"},
		{"   | |/ _ \\ \\ /\\ / / _ \\ '__|", "#818cf8"},
		{"   | | (_) \\ V  V /  __/ |   ", "#a78bfa"},
		{"   |_|\\___/ \\_/\\_/ \\___|_|   ", "#c084fc"},
	}
	fmt.Fprintln(t.Out)
	for _, l := range lines {
		fmt.Fprintln(t.Out, t.profile.String(l.text).Foreground(t.profile.Color(l.color)))
	}
	fmt.Fprintln(t.Out)
}
