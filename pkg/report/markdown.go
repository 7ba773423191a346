package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/aretw0/tower/pkg/domain"
	"github.com/aretw0/tower/pkg/runner"
)

// Markdown summarises a result: outcome, residuals, products and the stage profile.
func Markdown(res *domain.Result) string {
	var b strings.Builder
	d := res.Diagnostics

	title := res.Column
	if title == "" {
		title = "column"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	b.WriteString(Status(d))
	b.WriteString("\n\n")
	if d.RunID != "" {
		fmt.Fprintf(&b, "Run `%s`, %d stage fallbacks.\n\n", d.RunID, d.StageFallbacks)
	}

	b.WriteString("## Residuals\n\n")
	b.WriteString("| Residual | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Temperature (K) | %.3g |\n", d.TemperatureResidual)
	fmt.Fprintf(&b, "| Mass | %.3g |\n", d.MassResidual)
	fmt.Fprintf(&b, "| Energy | %.3g |\n\n", d.EnergyResidual)

	b.WriteString("## Products\n\n")
	b.WriteString("| | Top | Bottom |\n|---|---:|---:|\n")
	for _, name := range res.Top.Components {
		fmt.Fprintf(&b, "| %s | %.4f | %.4f |\n", name, res.Top.MoleFraction(name), res.Bottom.MoleFraction(name))
	}
	fmt.Fprintf(&b, "| Flow (mol/s) | %.3f | %.3f |\n", res.Top.TotalFlow(), res.Bottom.TotalFlow())
	fmt.Fprintf(&b, "| Temperature (K) | %.2f | %.2f |\n\n", res.Top.Temperature, res.Bottom.Temperature)

	b.WriteString("## Stage profile\n\n")
	b.WriteString("| Stage | Kind | T (K) | P (bar) | V (mol/s) | L (mol/s) | Duty (W) |\n")
	b.WriteString("|---:|---|---:|---:|---:|---:|---:|\n")
	for i := len(res.Stages) - 1; i >= 0; i-- {
		s := res.Stages[i]
		fmt.Fprintf(&b, "| %d | %s | %.2f | %.3f | %.3f | %.3f | %.4g |\n",
			s.Index, s.Kind, s.Temperature, s.Pressure, s.VaporFlow, s.LiquidFlow, s.Duty)
	}
	return b.String()
}

// Status is the one-line outcome of a solve.
func Status(d domain.Diagnostics) string {
	switch {
	case d.Converged && d.Polished:
		return fmt.Sprintf("**Converged** (polished) with %s in %d iterations (%s).", d.Solver, d.Iterations, d.Elapsed)
	case d.Converged:
		return fmt.Sprintf("**Converged** with %s in %d iterations (%s).", d.Solver, d.Iterations, d.Elapsed)
	case d.Aborted:
		return fmt.Sprintf("**Aborted** with %s after %d iterations: %s.", d.Solver, d.Iterations, d.AbortReason)
	default:
		return fmt.Sprintf("**Not converged** with %s after %d iterations.", d.Solver, d.Iterations)
	}
}

// ComparisonMarkdown tabulates a strategy comparison.
func ComparisonMarkdown(column string, comparisons []runner.Comparison) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s: strategy comparison\n\n", column)
	b.WriteString("| Solver | Outcome | Iterations | Elapsed | Combined residual |\n")
	b.WriteString("|---|---|---:|---:|---:|\n")
	for _, c := range comparisons {
		d := c.Result.Diagnostics
		outcome := "converged"
		if !d.Converged {
			outcome = "aborted: " + d.AbortReason
		}
		combined := 0.0
		if n := len(d.History); n > 0 {
			combined = d.History[n-1].Combined
		}
		fmt.Fprintf(&b, "| %s | %s | %d | %s | %.3g |\n", c.Solver, outcome, d.Iterations, d.Elapsed, combined)
	}
	if best, ok := runner.Best(comparisons); ok {
		fmt.Fprintf(&b, "\nFastest: **%s**.\n", best.Solver)
	}
	return b.String()
}

// Render styles markdown for a terminal. An empty style picks dark or light
// from the terminal background; "notty" produces plain text.
func Render(markdown, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to build markdown renderer: %w", err)
	}
	return r.Render(markdown)
}
