package column

import (
	"math"

	"github.com/aretw0/tower/pkg/domain"
)

// ComponentBalance returns, per component, (feed − top − bottom)/feed for the last solve.
// Components absent from every feed report zero.
func ComponentBalance(c *Column) map[string]float64 {
	feed := c.TotalFeed()
	top, bottom := c.TopProduct(), c.BottomProduct()
	out := make(map[string]float64, len(c.components))
	for i, name := range c.components {
		in := flowAt(feed, i)
		if in <= domain.FlowEpsilon {
			out[name] = 0
			continue
		}
		out[name] = (in - flowAt(top, i) - flowAt(bottom, i)) / in
	}
	return out
}

// MaxComponentImbalance is the largest absolute entry of ComponentBalance.
func MaxComponentImbalance(c *Column) float64 {
	worst := 0.0
	for _, v := range ComponentBalance(c) {
		worst = math.Max(worst, math.Abs(v))
	}
	return worst
}

func flowAt(s domain.Stream, i int) float64 {
	if i >= len(s.Flows) {
		return 0
	}
	return s.Flows[i]
}
