package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/aretw0/tower/pkg/domain"
)

// ConvergenceChart renders the residual history as a standalone HTML page.
// Residuals are drawn on a logarithmic axis; zero values are left out of the log scale.
func ConvergenceChart(res *domain.Result, w io.Writer) error {
	history := res.Diagnostics.History

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("%s convergence", res.Column),
			Theme:     types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s convergence", res.Column),
			Subtitle: fmt.Sprintf("%s, %d iterations", res.Diagnostics.Solver, res.Diagnostics.Iterations),
		}),
		charts.WithLegendOpts(opts.Legend{
			Type:   "scroll",
			Orient: "vertical",
			Right:  "10",
			Top:    "20",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "iteration"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "residual", Type: "log"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside", XAxisIndex: []int{0}}),
	)

	iterations := make([]int, len(history))
	series := map[string][]opts.LineData{}
	names := []string{"temperature", "mass", "energy", "combined"}
	for i, r := range history {
		iterations[i] = r.Iteration
		for _, name := range names {
			series[name] = append(series[name], point(pick(r, name)))
		}
	}

	line.SetXAxis(iterations)
	for _, name := range names {
		line.AddSeries(name, series[name])
	}
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(len(history) < 60)}))

	return line.Render(w)
}

func pick(r domain.IterationRecord, name string) float64 {
	switch name {
	case "temperature":
		return r.TemperatureResidual
	case "mass":
		return r.MassResidual
	case "energy":
		return r.EnergyResidual
	default:
		return r.Combined
	}
}

func point(v float64) opts.LineData {
	if v <= 0 {
		return opts.LineData{Value: "-"}
	}
	return opts.LineData{Value: v}
}
