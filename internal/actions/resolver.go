package actions

import (
	"fmt"
	"log/slog"

	"github.com/talgya/gridworld/internal/agents"
	"github.com/talgya/gridworld/internal/grid"
	"github.com/talgya/gridworld/internal/market"
	"github.com/talgya/gridworld/internal/resources"
)

// Resolver applies a batch of action codes, one per agent, for a single
// timestep. Agents are processed in ascending ID order so outcomes are
// reproducible given the same seed and action sequence.
type Resolver struct {
	space         Space
	catalog       *resources.Catalog
	harvestReward float64
}

// NewResolver creates a resolver over the given action space.
func NewResolver(space Space, catalog *resources.Catalog, harvestReward float64) *Resolver {
	return &Resolver{
		space:         space,
		catalog:       catalog,
		harvestReward: harvestReward,
	}
}

// Space returns the resolver's action space.
func (r *Resolver) Space() Space {
	return r.space
}

// Apply mutates the grid, agents, and order book according to codes. The
// caller guarantees len(codes) == len(ags) and that ags is sorted by ID.
// The whole batch is decoded before anything mutates, so a bad code leaves
// the world untouched. A snapshot is recorded into every agent's history,
// whatever its action.
func (r *Resolver) Apply(g *grid.Grid, ags []*agents.Agent, book *market.Book, codes []int, step int) error {
	decoded := make([]Action, len(codes))
	for i, code := range codes {
		act, err := r.space.Decode(code)
		if err != nil {
			return fmt.Errorf("agent %d: %w", ags[i].ID, err)
		}
		decoded[i] = act
	}
	for i, a := range ags {
		r.applyOne(g, a, book, decoded[i], step)
		a.RecordStep()
	}
	return nil
}

func (r *Resolver) applyOne(g *grid.Grid, a *agents.Agent, book *market.Book, act Action, step int) {
	switch act.Kind {
	case KindMoveNorth, KindMoveSouth, KindMoveEast, KindMoveWest:
		// Out-of-bounds moves are rejected, not clamped: the agent stays
		// put. Clamping would silently pile agents along the edges.
		nx, ny := a.X, a.Y
		switch act.Kind {
		case KindMoveNorth:
			ny--
		case KindMoveSouth:
			ny++
		case KindMoveEast:
			nx++
		case KindMoveWest:
			nx--
		}
		if g.InBounds(nx, ny) {
			a.X, a.Y = nx, ny
		}

	case KindHarvest:
		// Harvesting a bare cell is a plain no-op here; any penalty for it
		// belongs to reward computation, not action resolution.
		if id := g.Harvest(a.X, a.Y); id != resources.Empty {
			a.Inventory[id]++
			a.AddReward(r.harvestReward)
		}

	case KindSell, KindBuy:
		side := market.SideSell
		if act.Kind == KindBuy {
			side = market.SideBuy
		}
		kind, ok := r.catalog.Get(act.Resource)
		if !ok {
			return
		}
		// Unit orders at the catalog's reference price. A rejected order
		// (e.g. selling with an empty inventory) wastes the turn, same as a
		// failed harvest.
		_, err := book.Submit(a, market.Order{
			Resource: act.Resource,
			Qty:      1,
			Price:    kind.BasePrice,
			Side:     side,
			Step:     step,
		})
		if err != nil {
			slog.Debug("order rejected",
				"agent", a.ID,
				"resource", kind.Name,
				"side", side.String(),
				"error", err,
			)
		}
	}
}
