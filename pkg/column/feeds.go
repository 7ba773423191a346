package column

import (
	"fmt"
	"math"
	"sort"

	"github.com/aretw0/tower/pkg/domain"
)

// AddFeed equilibrates feed at its own temperature and pressure and registers it on stage.
// The registry is rebuilt rather than edited, and the next solve re-initializes the column.
func (c *Column) AddFeed(feed domain.Stream, stage int) error {
	if stage < 0 || stage >= len(c.stages) {
		return fmt.Errorf("%w: stage %d, column has %d stages", domain.ErrFeedStageOutOfRange, stage, len(c.stages))
	}
	eq, err := c.equilibrateFeed(feed)
	if err != nil {
		return err
	}

	next := make(map[int][]domain.Stream, len(c.feeds)+1)
	for k, v := range c.feeds {
		next[k] = v
	}
	list := make([]domain.Stream, 0, len(c.feeds[stage])+1)
	list = append(list, c.feeds[stage]...)
	next[stage] = append(list, eq)
	c.feeds = next
	c.initialized = false
	c.logger.Debug("feed registered", "stage", stage, "feed", feed.Name, "flow", eq.TotalFlow())
	return nil
}

// AddUnassignedFeed registers a feed whose stage is chosen at the next solve: the middle
// stage of a column that was never initialized, otherwise the stage whose temperature is
// closest to the feed temperature.
func (c *Column) AddUnassignedFeed(feed domain.Stream) error {
	eq, err := c.equilibrateFeed(feed)
	if err != nil {
		return err
	}
	c.unassigned = append(cloneStreams(c.unassigned), eq)
	c.initialized = false
	return nil
}

// FeedStreams returns copies of the feeds registered on stage.
func (c *Column) FeedStreams(stage int) []domain.Stream {
	return cloneStreams(c.feeds[stage])
}

// FeedStages returns the stages that carry at least one feed, in ascending order.
func (c *Column) FeedStages() []int {
	out := make([]int, 0, len(c.feeds))
	for k, v := range c.feeds {
		if len(v) > 0 {
			out = append(out, k)
		}
	}
	sort.Ints(out)
	return out
}

// FeedStage returns the lowest stage carrying a feed, or -1.
func (c *Column) FeedStage() int {
	stages := c.FeedStages()
	if len(stages) == 0 {
		return -1
	}
	return stages[0]
}

// TotalFeed mixes every registered feed.
func (c *Column) TotalFeed() domain.Stream {
	var all []domain.Stream
	for _, k := range c.FeedStages() {
		all = append(all, c.feeds[k]...)
	}
	return domain.Mix("feed", all...)
}

func (c *Column) equilibrateFeed(feed domain.Stream) (domain.Stream, error) {
	if len(feed.Flows) == 0 || len(feed.Flows) != len(feed.Components) {
		return domain.Stream{}, fmt.Errorf("%w: feed %q has %d components and %d flows",
			domain.ErrComponentMismatch, feed.Name, len(feed.Components), len(feed.Flows))
	}
	if c.components != nil && !feed.SameComponents(domain.Stream{Components: c.components}) {
		return domain.Stream{}, fmt.Errorf("%w: feed %q uses %v, column uses %v",
			domain.ErrComponentMismatch, feed.Name, feed.Components, c.components)
	}
	for _, f := range feed.Flows {
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return domain.Stream{}, &domain.ConfigError{Field: "feed.flows", Value: feed.Flows, Reason: "must be finite and non-negative"}
		}
	}
	if feed.TotalFlow() <= domain.FlowEpsilon {
		return domain.Stream{}, &domain.ConfigError{Field: "feed.flows", Value: feed.Flows, Reason: "feed carries no material"}
	}
	if !(feed.Temperature > 0) || !(feed.Pressure > 0) {
		return domain.Stream{}, &domain.ConfigError{
			Field:  "feed.state",
			Value:  [2]float64{feed.Temperature, feed.Pressure},
			Reason: "temperature and pressure must be positive",
		}
	}

	eq, err := c.flasher.Equilibrate(feed, domain.TP(feed.Temperature, feed.Pressure))
	if err != nil {
		return domain.Stream{}, fmt.Errorf("failed to equilibrate feed %q: %w", feed.Name, err)
	}
	out := feed.Clone()
	out.Enthalpy = eq.Enthalpy
	out.VaporFraction = eq.VaporFraction

	if c.components == nil {
		c.components = feed.Components
		for _, s := range c.stages {
			s.components = feed.Components
		}
	}
	return out, nil
}

// assignUnassignedFeeds moves pending feeds into the registry.
func (c *Column) assignUnassignedFeeds() {
	if len(c.unassigned) == 0 {
		return
	}
	pending := c.unassigned
	c.unassigned = nil
	for _, feed := range pending {
		stage := len(c.stages) / 2
		if c.everInitialized {
			best := math.Inf(1)
			for i, s := range c.stages {
				if d := math.Abs(s.temperature - feed.Temperature); d < best {
					best, stage = d, i
				}
			}
		}
		next := make(map[int][]domain.Stream, len(c.feeds)+1)
		for k, v := range c.feeds {
			next[k] = v
		}
		next[stage] = append(cloneStreams(c.feeds[stage]), feed)
		c.feeds = next
		c.logger.Info("unassigned feed placed", "stage", stage, "feed", feed.Name)
	}
}

// loadFeeds copies the registry into the stage feed slots.
func (c *Column) loadFeeds() {
	for i, s := range c.stages {
		s.SetFeeds(c.feeds[i]...)
	}
}
