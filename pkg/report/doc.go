/*
Package report renders solve results for people.

# Key Components

  - Markdown: Outcome, residuals, products and stage profile as a markdown document.
  - Render: Terminal styling of that document with glamour.
  - PlotProfile, PlotFlows: Stage profiles as PNG, SVG or PDF images (gonum/plot).
  - ConvergenceChart: Interactive HTML page of the residual history (go-echarts).
*/
package report
