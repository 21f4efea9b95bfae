package actions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/gridworld/internal/agents"
	"github.com/talgya/gridworld/internal/entropy"
	"github.com/talgya/gridworld/internal/grid"
	"github.com/talgya/gridworld/internal/market"
	"github.com/talgya/gridworld/internal/resources"
)

// fullCatalog is a single kind covering every cell, so harvests always hit.
func fullCatalog(t *testing.T) *resources.Catalog {
	t.Helper()
	cat, err := resources.NewCatalog([]resources.Kind{
		{ID: 1, Name: "moss", SpawnDensity: 1, BasePrice: 2},
	})
	require.NoError(t, err)
	return cat
}

func newWorld(t *testing.T, cat *resources.Catalog, w, h int) (*grid.Grid, *market.Book, *Resolver) {
	t.Helper()
	g, err := grid.New(w, h, cat, entropy.NewSource(11), grid.PlacementUniform)
	require.NoError(t, err)
	book := market.NewBook(market.Rules{})
	return g, book, NewResolver(NewSpace(cat), cat, 1)
}

func registered(names ...string) []*agents.Agent {
	out := make([]*agents.Agent, len(names))
	for i, n := range names {
		a := agents.New(n, "")
		a.ID = i + 1
		out[i] = a
	}
	return out
}

func TestMovementRejectedAtBoundary(t *testing.T) {
	cat := fullCatalog(t)
	g, book, r := newWorld(t, cat, 3, 3)
	ags := registered("edge")
	ags[0].X, ags[0].Y = 0, 0

	require.NoError(t, r.Apply(g, ags, book, []int{CodeMoveWest}, 0))
	require.Equal(t, 0, ags[0].X, "out-of-bounds move must leave the agent in place")
	require.Equal(t, 0, ags[0].Y)

	require.NoError(t, r.Apply(g, ags, book, []int{CodeMoveNorth}, 1))
	require.Equal(t, 0, ags[0].Y)

	require.NoError(t, r.Apply(g, ags, book, []int{CodeMoveEast}, 2))
	require.Equal(t, 1, ags[0].X)
}

func TestAgentsMayShareACell(t *testing.T) {
	cat := fullCatalog(t)
	g, book, r := newWorld(t, cat, 3, 1)
	ags := registered("a", "b")
	ags[0].X, ags[0].Y = 0, 0
	ags[1].X, ags[1].Y = 2, 0

	// Both walk to (1,0); neither move is blocked.
	require.NoError(t, r.Apply(g, ags, book, []int{CodeMoveEast, CodeMoveWest}, 0))
	require.Equal(t, [2]int{1, 0}, [2]int{ags[0].X, ags[0].Y})
	require.Equal(t, [2]int{1, 0}, [2]int{ags[1].X, ags[1].Y})
}

func TestHarvestFillsInventoryAndEmptiesCell(t *testing.T) {
	cat := fullCatalog(t)
	g, book, r := newWorld(t, cat, 2, 2)
	ags := registered("picker")

	require.NoError(t, r.Apply(g, ags, book, []int{CodeHarvest}, 0))
	require.Equal(t, 1, ags[0].Count(1))
	require.Equal(t, resources.Empty, g.CellAt(0, 0))
	require.Equal(t, 1.0, ags[0].TakePending(), "successful harvest credits reward")

	// Second harvest on the now-empty cell: no change, no reward.
	require.NoError(t, r.Apply(g, ags, book, []int{CodeHarvest}, 1))
	require.Equal(t, 1, ags[0].Count(1))
	require.Zero(t, ags[0].TakePending())
}

func TestResolutionOrderIsByAscendingID(t *testing.T) {
	cat := fullCatalog(t)
	g, book, r := newWorld(t, cat, 2, 1)
	ags := registered("first", "second")
	ags[0].X, ags[0].Y = 0, 0
	ags[1].X, ags[1].Y = 0, 0

	// Both harvest the same cell: only the lower ID can succeed.
	require.NoError(t, r.Apply(g, ags, book, []int{CodeHarvest, CodeHarvest}, 0))
	require.Equal(t, 1, ags[0].Count(1))
	require.Equal(t, 0, ags[1].Count(1))
}

func TestSellActionSubmitsOrder(t *testing.T) {
	cat := fullCatalog(t)
	g, book, r := newWorld(t, cat, 2, 2)
	ags := registered("vendor")
	ags[0].Inventory[1] = 3

	space := r.Space()
	require.NoError(t, r.Apply(g, ags, book, []int{space.SellCode(1)}, 0))

	orders := book.OpenOrders()
	require.Len(t, orders, 1)
	require.Equal(t, market.SideSell, orders[0].Side)
	require.Equal(t, 1, orders[0].Qty)
	require.Equal(t, 2.0, orders[0].Price, "orders price at the catalog base price")
}

func TestSellWithoutInventoryIsNoOp(t *testing.T) {
	cat := fullCatalog(t)
	g, book, r := newWorld(t, cat, 2, 2)
	ags := registered("broke")

	space := r.Space()
	require.NoError(t, r.Apply(g, ags, book, []int{space.SellCode(1)}, 0))
	require.Empty(t, book.OpenOrders(), "rejected order wastes the turn without failing the step")
}

func TestBadCodeLeavesWorldUntouched(t *testing.T) {
	cat := fullCatalog(t)
	g, book, r := newWorld(t, cat, 2, 2)
	ags := registered("a", "b")
	ags[1].X = 1

	err := r.Apply(g, ags, book, []int{CodeHarvest, 99}, 0)
	require.Error(t, err)
	require.Equal(t, 0, ags[0].Count(1), "batch with a bad code must not partially apply")
	require.NotEqual(t, resources.Empty, g.CellAt(0, 0))
	require.Empty(t, ags[0].Positions, "no history recorded for a rejected batch")
}

func TestEveryActionRecordsHistory(t *testing.T) {
	cat := fullCatalog(t)
	g, book, r := newWorld(t, cat, 3, 3)
	ags := registered("a", "b")

	require.NoError(t, r.Apply(g, ags, book, []int{CodeMoveEast, CodeHarvest}, 0))
	require.NoError(t, r.Apply(g, ags, book, []int{CodeHarvest, CodeMoveSouth}, 1))

	for _, a := range ags {
		require.Len(t, a.Positions, 2)
		require.Len(t, a.InventoryHistory, 2)
	}
}
