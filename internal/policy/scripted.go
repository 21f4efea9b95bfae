package policy

import (
	"github.com/talgya/gridworld/internal/actions"
	"github.com/talgya/gridworld/internal/agents"
	"github.com/talgya/gridworld/internal/entropy"
	"github.com/talgya/gridworld/internal/env"
	"github.com/talgya/gridworld/internal/resources"
)

// Gatherer harvests the cell it stands on, otherwise walks toward the
// nearest visible resource. Fully deterministic: ties break by scan order.
type Gatherer struct {
	numResources int
	total        float64
}

// NewGatherer creates a gatherer over a catalog with the given kind count.
func NewGatherer(numResources int) *Gatherer {
	return &Gatherer{numResources: numResources}
}

// SelectAction implements Policy.
func (g *Gatherer) SelectAction(obs *env.Observation, self *agents.Agent) int {
	x, y := self.Position()
	if onResource(obs, g.numResources, x, y) {
		return actions.CodeHarvest
	}

	tx, ty, found := nearestResource(obs, g.numResources, x, y)
	if !found {
		// Barren grid: drift toward the center until something regrows.
		tx, ty = obs.Width/2, obs.Height/2
	}
	return moveToward(x, y, tx, ty)
}

// NotifyReward implements Policy.
func (g *Gatherer) NotifyReward(v float64) {
	g.total += v
}

// Random picks uniformly from the action space using its own seeded stream,
// so rollouts stay reproducible.
type Random struct {
	size int
	src  *entropy.Source
}

// NewRandom creates a random policy over an action space of the given size.
func NewRandom(size int, src *entropy.Source) *Random {
	return &Random{size: size, src: src}
}

// SelectAction implements Policy.
func (r *Random) SelectAction(_ *env.Observation, _ *agents.Agent) int {
	return r.src.Intn(r.size)
}

// NotifyReward implements Policy.
func (r *Random) NotifyReward(float64) {}

// Trader gathers like a Gatherer but keeps only a small stock of each
// resource, selling the surplus and buying back when it runs dry.
type Trader struct {
	gatherer *Gatherer
	space    actions.Space
	kinds    []resources.ID

	// keep is how many of each resource the trader holds before selling;
	// below restock it posts a buy instead of walking.
	keep    int
	restock int
}

// NewTrader creates a trader over the given action space.
func NewTrader(space actions.Space, catalog *resources.Catalog) *Trader {
	return &Trader{
		gatherer: NewGatherer(catalog.Len()),
		space:    space,
		kinds:    catalog.IDs(),
		keep:     2,
		restock:  1,
	}
}

// SelectAction implements Policy. Selling surplus takes priority, then
// restocking, then gathering.
func (t *Trader) SelectAction(obs *env.Observation, self *agents.Agent) int {
	for _, id := range t.kinds {
		if self.Count(id) > t.keep {
			return t.space.SellCode(id)
		}
	}
	if self.Balance > 0 {
		for _, id := range t.kinds {
			if self.Count(id) < t.restock {
				return t.space.BuyCode(id)
			}
		}
	}
	return t.gatherer.SelectAction(obs, self)
}

// NotifyReward implements Policy.
func (t *Trader) NotifyReward(v float64) {
	t.gatherer.NotifyReward(v)
}

// onResource reports whether any resource channel is set at (x, y).
func onResource(obs *env.Observation, numResources, x, y int) bool {
	for c := 0; c < numResources; c++ {
		if obs.At(c, x, y) == 1 {
			return true
		}
	}
	return false
}

// nearestResource scans all resource channels for the closest occupied cell
// by Manhattan distance, ties broken by scan order.
func nearestResource(obs *env.Observation, numResources, x, y int) (int, int, bool) {
	bestDist := -1
	bestX, bestY := 0, 0
	for cx := 0; cx < obs.Width; cx++ {
		for cy := 0; cy < obs.Height; cy++ {
			if !onResource(obs, numResources, cx, cy) {
				continue
			}
			d := abs(cx-x) + abs(cy-y)
			if bestDist < 0 || d < bestDist {
				bestDist = d
				bestX, bestY = cx, cy
			}
		}
	}
	return bestX, bestY, bestDist >= 0
}

// moveToward returns the move code reducing Manhattan distance, x-axis
// first.
func moveToward(x, y, tx, ty int) int {
	switch {
	case tx > x:
		return actions.CodeMoveEast
	case tx < x:
		return actions.CodeMoveWest
	case ty > y:
		return actions.CodeMoveSouth
	default:
		return actions.CodeMoveNorth
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
