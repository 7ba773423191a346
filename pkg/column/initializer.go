package column

import "github.com/aretw0/tower/pkg/domain"

// initialize builds a first guess: it solves the lowest feed stage alone, seeds both
// ends, interpolates temperatures and runs every stage once with its neighbours wired.
// The result is a reasonable starting point, not a balanced column.
func (c *Column) initialize() {
	n := len(c.stages)
	for _, s := range c.stages {
		s.clearConnections()
	}

	f := c.FeedStage()
	feedStage := c.stages[f]
	c.solveStage(feedStage)

	if !c.twoPhase(feedStage) {
		c.forceTwoPhase(feedStage)
	}

	feedT := feedStage.temperature
	bottomT, topT := feedT, feedT-1

	if liquid := feedStage.LiquidOutlet(); f > 0 && !liquid.IsEmpty() {
		reboiler := c.stages[0]
		reboiler.SetLiquidIn(liquid)
		c.solveStage(reboiler)
		if reboiler.temperature > 0 {
			bottomT = reboiler.temperature
		}
		reboiler.clearConnections()
	}
	if top := c.stages[n-1]; n-1 != f && len(top.feeds) > 0 {
		c.solveStage(top)
		topT = top.temperature
	}

	for i := 0; i < f; i++ {
		c.stages[i].temperature = bottomT + (feedT-bottomT)*float64(i)/float64(f)
	}
	for i := f + 1; i < n; i++ {
		c.stages[i].temperature = feedT + (topT-feedT)*float64(i-f)/float64(n-1-f)
	}
	for _, s := range c.stages {
		if s.fixedTemperature > 0 {
			s.temperature = s.fixedTemperature
		}
	}

	for i := f + 1; i < n; i++ {
		c.stages[i].SetVaporIn(c.stages[i-1].VaporOutlet())
		c.solveStage(c.stages[i])
	}
	for i := n - 2; i >= 0; i-- {
		c.stages[i].SetLiquidIn(c.stages[i+1].LiquidOutlet())
		c.solveStage(c.stages[i])
	}

	c.logger.Debug("column initialized", "feed_stage", f, "temperatures", c.Temperatures())
}

// forceTwoPhase re-solves a single-phase feed stage with one extra feed at a time, in
// stage order: the first feed of every other feed stage, or a second copy of the stage's
// own second feed. The extra feed is always removed again; the stage keeps the first
// two-phase state found.
func (c *Column) forceTwoPhase(feedStage *Stage) {
	f := feedStage.index
	own := feedStage.feeds
	for j := range c.stages {
		list := c.feeds[j]
		var extra domain.Stream
		switch {
		case j != f && len(list) > 0:
			extra = list[0]
		case j == f && len(list) > 1:
			extra = list[1]
		default:
			continue
		}
		feedStage.feeds = append(cloneStreams(own), extra.Clone())
		c.solveStage(feedStage)
		feedStage.feeds = own
		if c.twoPhase(feedStage) {
			c.logger.Debug("feed stage forced two-phase with an extra feed", "stage", f, "borrowed_from", j)
			return
		}
	}
}

func (c *Column) twoPhase(s *Stage) bool {
	return s.state != nil && s.state.TwoPhase()
}
