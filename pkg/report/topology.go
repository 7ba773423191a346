package report

import (
	"fmt"
	"strings"

	"github.com/aretw0/tower/pkg/column"
	"github.com/aretw0/tower/pkg/domain"
)

// Topology produces a Mermaid flowchart of the column, reboiler at the bottom.
// Shapes follow the stage kind:
// - Reboiler: [[Subroutine]]
// - Condenser: [(Cylinder)]
// - Tray: [Rectangle]
// - Feed: [/Parallelogram/]
// When res is given, each stage is annotated with its solved temperature.
func Topology(col *column.Column, res *domain.Result) string {
	var sb strings.Builder
	sb.WriteString("graph BT\n")

	n := col.NumberOfStages()
	for i := 0; i < n; i++ {
		opener, closer := "[", "]"
		switch col.Stage(i).Kind() {
		case domain.StageReboiler:
			opener, closer = "[[", "]]"
		case domain.StageCondenser:
			opener, closer = "[(", ")]"
		}
		label := stageLabel(col, i)
		if res != nil && i < len(res.Stages) {
			label = fmt.Sprintf("%s <br/> %.1f K", label, res.Stages[i].Temperature)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", stageID(i), opener, label, closer)
	}

	for i := 0; i+1 < n; i++ {
		fmt.Fprintf(&sb, "    %s -- \"V\" --> %s\n", stageID(i), stageID(i+1))
	}
	fmt.Fprintf(&sb, "    %s -- \"D\" --> top((\"top\"))\n", stageID(n-1))
	fmt.Fprintf(&sb, "    %s -- \"B\" --> bottom((\"bottom\"))\n", stageID(0))

	stages := col.FeedStages()
	for _, i := range stages {
		for k, feed := range col.FeedStreams(i) {
			id := fmt.Sprintf("feed_%d_%d", i, k)
			name := strings.ReplaceAll(feed.Name, "\"", "'")
			fmt.Fprintf(&sb, "    %s[/\"%s <br/> %.4g mol/s\"/] --> %s\n", id, name, feed.TotalFlow(), stageID(i))
		}
	}

	if len(stages) > 0 {
		sb.WriteString("\n    %% Feed stages\n")
		sb.WriteString("    classDef feed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		for _, i := range stages {
			fmt.Fprintf(&sb, "    class %s feed;\n", stageID(i))
		}
	}
	return sb.String()
}

func stageID(i int) string {
	return fmt.Sprintf("stage_%d", i)
}

func stageLabel(col *column.Column, i int) string {
	switch col.Stage(i).Kind() {
	case domain.StageReboiler:
		return "Reboiler"
	case domain.StageCondenser:
		return "Condenser"
	}
	tray := i
	if col.Config().HasReboiler {
		tray--
	}
	return fmt.Sprintf("Tray %d", tray+1)
}
