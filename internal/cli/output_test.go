package cli

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/tower/pkg/domain"
)

func TestTerminal_Status(t *testing.T) {
	term := NewPlainTerminal(&bytes.Buffer{})
	tests := []struct {
		name string
		d    domain.Diagnostics
		want string
	}{
		{"converged", domain.Diagnostics{Converged: true, Solver: domain.SolverDamped, Iterations: 12}, "Converged with damped in 12 iterations"},
		{"aborted", domain.Diagnostics{Aborted: true, Iterations: 3, AbortReason: "stalled"}, "Aborted with direct after 3 iterations: stalled."},
		{"open", domain.Diagnostics{Iterations: 7}, "Not converged with direct after 7 iterations."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := term.Status(tt.d)
			assert.Contains(t, out, tt.want)
			assert.NotContains(t, out, "**")
		})
	}
}

func TestTerminal_MarkdownAndBanner(t *testing.T) {
	var buf bytes.Buffer
	term := NewPlainTerminal(&buf)
	term.Markdown("# depropanizer\n\n| stage | T |\n|---|---|\n| 0 | 260 |\n")
	assert.Contains(t, buf.String(), "depropanizer")
	assert.NotContains(t, buf.String(), "\x1b[")

	buf.Reset()
	term.Banner()
	assert.Contains(t, buf.String(), "|_|")
	assert.Equal(t, defaultWidth, term.Width())
}

func TestNewTerminal_NotATerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	term := NewTerminal(f, "dark")
	assert.Equal(t, defaultWidth, term.Width())
	assert.False(t, term.tty)
}
