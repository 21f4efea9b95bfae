package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/gridworld/internal/actions"
	"github.com/talgya/gridworld/internal/agents"
	"github.com/talgya/gridworld/internal/entropy"
	"github.com/talgya/gridworld/internal/env"
	"github.com/talgya/gridworld/internal/resources"
)

// obsWith builds an observation of the given shape with the first resource
// channel set at the listed cells.
func obsWith(channels, width, height int, cells ...[2]int) *env.Observation {
	obs := &env.Observation{
		Channels: channels,
		Width:    width,
		Height:   height,
		Data:     make([]float64, channels*width*height),
	}
	for _, c := range cells {
		obs.Data[c[0]*height+c[1]] = 1
	}
	return obs
}

func placed(x, y int) *agents.Agent {
	a := agents.New("p", "")
	a.X, a.Y = x, y
	return a
}

func TestGathererHarvestsInPlace(t *testing.T) {
	g := NewGatherer(1)
	obs := obsWith(2, 5, 5, [2]int{2, 2})
	require.Equal(t, actions.CodeHarvest, g.SelectAction(obs, placed(2, 2)))
}

func TestGathererWalksTowardNearest(t *testing.T) {
	g := NewGatherer(1)

	obs := obsWith(2, 5, 5, [2]int{4, 2})
	require.Equal(t, actions.CodeMoveEast, g.SelectAction(obs, placed(1, 2)))

	obs = obsWith(2, 5, 5, [2]int{1, 0})
	require.Equal(t, actions.CodeMoveNorth, g.SelectAction(obs, placed(1, 3)))

	// Closer target wins even when another is scanned first.
	obs = obsWith(2, 5, 5, [2]int{0, 0}, [2]int{3, 3})
	require.Equal(t, actions.CodeMoveEast, g.SelectAction(obs, placed(2, 3)))
}

func TestGathererDriftsOnBarrenGrid(t *testing.T) {
	g := NewGatherer(1)
	obs := obsWith(2, 5, 5)
	require.Equal(t, actions.CodeMoveEast, g.SelectAction(obs, placed(0, 2)))
}

func TestRandomIsReproducible(t *testing.T) {
	a, b := NewRandom(11, entropy.NewSource(5)), NewRandom(11, entropy.NewSource(5))
	for i := 0; i < 20; i++ {
		got := a.SelectAction(nil, nil)
		require.Equal(t, got, b.SelectAction(nil, nil))
		require.GreaterOrEqual(t, got, 0)
		require.Less(t, got, 11)
	}
}

func TestTraderSellsSurplusAndRestocks(t *testing.T) {
	catalog, err := resources.DefaultCatalog()
	require.NoError(t, err)
	space := actions.NewSpace(catalog)
	tr := NewTrader(space, catalog)
	obs := obsWith(4, 5, 5)

	a := placed(2, 2)
	a.Inventory[1] = 3
	require.Equal(t, space.SellCode(1), tr.SelectAction(obs, a), "surplus is sold first")

	a.Inventory[1] = 2
	a.Balance = 10
	require.Equal(t, space.BuyCode(2), tr.SelectAction(obs, a), "first depleted kind is restocked")

	a.Balance = 0
	got := tr.SelectAction(obs, a)
	require.Contains(t, []int{
		actions.CodeMoveNorth, actions.CodeMoveSouth,
		actions.CodeMoveEast, actions.CodeMoveWest, actions.CodeHarvest,
	}, got, "broke traders fall back to gathering")
}
