package report

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/aretw0/tower/pkg/domain"
)

// ErrEmptyResult is returned when a result has no stages to draw.
var ErrEmptyResult = errors.New("result has no stages")

// Plot image size.
const (
	PlotWidth  = 6 * vg.Inch
	PlotHeight = 4 * vg.Inch
)

// PlotProfile draws the stage temperature profile, stage index on the vertical axis,
// and writes it in the given format ("png", "svg", "pdf").
func PlotProfile(res *domain.Result, w io.Writer, format string) error {
	if len(res.Stages) == 0 {
		return ErrEmptyResult
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s temperature profile", res.Column)
	p.X.Label.Text = "Temperature (K)"
	p.Y.Label.Text = "Stage"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(res.Stages))
	for i, s := range res.Stages {
		pts[i].X = s.Temperature
		pts[i].Y = float64(s.Index)
	}
	if err := addLine(p, "temperature", pts, 0); err != nil {
		return err
	}
	return write(p, w, format)
}

// PlotFlows draws the vapor and liquid flow leaving each stage.
func PlotFlows(res *domain.Result, w io.Writer, format string) error {
	if len(res.Stages) == 0 {
		return ErrEmptyResult
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s flow profile", res.Column)
	p.X.Label.Text = "Flow (mol/s)"
	p.Y.Label.Text = "Stage"
	p.Add(plotter.NewGrid())

	vapor := make(plotter.XYs, len(res.Stages))
	liquid := make(plotter.XYs, len(res.Stages))
	for i, s := range res.Stages {
		vapor[i] = plotter.XY{X: s.VaporFlow, Y: float64(s.Index)}
		liquid[i] = plotter.XY{X: s.LiquidFlow, Y: float64(s.Index)}
	}
	if err := addLine(p, "vapor", vapor, 0); err != nil {
		return err
	}
	if err := addLine(p, "liquid", liquid, 1); err != nil {
		return err
	}
	return write(p, w, format)
}

func addLine(p *plot.Plot, name string, pts plotter.XYs, style int) error {
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return fmt.Errorf("failed to plot %s: %w", name, err)
	}
	line.Color = plotutil.Color(style)
	points.Color = line.Color
	p.Add(line, points)
	p.Legend.Add(name, line, points)
	return nil
}

func write(p *plot.Plot, w io.Writer, format string) error {
	wt, err := p.WriterTo(PlotWidth, PlotHeight, format)
	if err != nil {
		return fmt.Errorf("unsupported plot format %q: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}
