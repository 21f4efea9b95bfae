package grid

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/gridworld/internal/config"
	"github.com/talgya/gridworld/internal/entropy"
	"github.com/talgya/gridworld/internal/resources"
)

func testCatalog(t *testing.T) *resources.Catalog {
	t.Helper()
	cat, err := resources.NewCatalog([]resources.Kind{
		{ID: 1, Name: "wood", SpawnDensity: 0.08, RegenRate: 0.02, Color: "#966F33", BasePrice: 3},
		{ID: 2, Name: "stone", SpawnDensity: 0.06, RegenRate: 0.01, Color: "#8D8D8D", BasePrice: 4},
	})
	require.NoError(t, err)
	return cat
}

func TestNewRejectsBadDimensions(t *testing.T) {
	cat := testCatalog(t)
	_, err := New(0, 10, cat, entropy.NewSource(1), PlacementUniform)
	require.ErrorIs(t, err, config.ErrConfiguration)

	_, err = New(10, -1, cat, entropy.NewSource(1), PlacementUniform)
	require.ErrorIs(t, err, config.ErrConfiguration)
}

func TestUniformDensityWithinTolerance(t *testing.T) {
	cat := testCatalog(t)
	g, err := New(60, 60, cat, entropy.NewSource(42), PlacementUniform)
	require.NoError(t, err)

	frac := float64(g.CountNonEmpty()) / float64(60*60)
	require.InDelta(t, 0.14, frac, 0.05, "occupied fraction should approximate density sum")
}

func TestInitializationDeterministicPerSeed(t *testing.T) {
	cat := testCatalog(t)
	for _, placement := range []Placement{PlacementUniform, PlacementClustered} {
		a, err := New(30, 20, cat, entropy.NewSource(7), placement)
		require.NoError(t, err)
		b, err := New(30, 20, cat, entropy.NewSource(7), placement)
		require.NoError(t, err)
		require.True(t, a.Equal(b), "same seed must reproduce the same grid")

		c, err := New(30, 20, cat, entropy.NewSource(8), placement)
		require.NoError(t, err)
		require.False(t, a.Equal(c), "different seeds should differ")
	}
}

func TestClusteredPreservesDensity(t *testing.T) {
	cat, err := resources.NewCatalog([]resources.Kind{
		{ID: 1, Name: "wood", SpawnDensity: 0.1},
	})
	require.NoError(t, err)

	g, err := New(50, 50, cat, entropy.NewSource(3), PlacementClustered)
	require.NoError(t, err)

	want := int(0.1 * 50 * 50)
	require.Equal(t, want, g.CountNonEmpty())
}

func TestHarvestIdempotentOnEmptyCell(t *testing.T) {
	cat := testCatalog(t)
	g, err := New(10, 10, cat, entropy.NewSource(42), PlacementUniform)
	require.NoError(t, err)

	// Find an occupied cell.
	fx, fy := -1, -1
	for x := 0; x < 10 && fx < 0; x++ {
		for y := 0; y < 10; y++ {
			if g.CellAt(x, y) != resources.Empty {
				fx, fy = x, y
				break
			}
		}
	}
	require.GreaterOrEqual(t, fx, 0, "expected at least one occupied cell")

	first := g.Harvest(fx, fy)
	require.NotEqual(t, resources.Empty, first)
	require.Equal(t, resources.Empty, g.CellAt(fx, fy))

	before := g.CountNonEmpty()
	require.Equal(t, resources.Empty, g.Harvest(fx, fy), "second harvest must be a no-op")
	require.Equal(t, before, g.CountNonEmpty())
}

func TestHarvestOutOfBounds(t *testing.T) {
	cat := testCatalog(t)
	g, err := New(5, 5, cat, entropy.NewSource(1), PlacementUniform)
	require.NoError(t, err)
	require.Equal(t, resources.Empty, g.Harvest(-1, 0))
	require.Equal(t, resources.Empty, g.Harvest(5, 5))
}

func TestInBounds(t *testing.T) {
	cat := testCatalog(t)
	g, err := New(4, 3, cat, entropy.NewSource(1), PlacementUniform)
	require.NoError(t, err)

	require.True(t, g.InBounds(0, 0))
	require.True(t, g.InBounds(3, 2))
	require.False(t, g.InBounds(4, 0))
	require.False(t, g.InBounds(0, 3))
	require.False(t, g.InBounds(-1, 1))
}

func TestRegenerateRestoresCells(t *testing.T) {
	cat, err := resources.NewCatalog([]resources.Kind{
		{ID: 1, Name: "moss", SpawnDensity: 0, RegenRate: 1},
	})
	require.NoError(t, err)

	g, err := New(6, 6, cat, entropy.NewSource(5), PlacementUniform)
	require.NoError(t, err)
	require.Equal(t, 0, g.CountNonEmpty())

	g.Regenerate(entropy.NewSource(5))
	require.Equal(t, 36, g.CountNonEmpty(), "regen rate 1 must restore every empty cell")
}

func TestRegenerateZeroRateIsNoOp(t *testing.T) {
	cat, err := resources.NewCatalog([]resources.Kind{
		{ID: 1, Name: "moss", SpawnDensity: 0.5, RegenRate: 0},
	})
	require.NoError(t, err)

	g, err := New(10, 10, cat, entropy.NewSource(5), PlacementUniform)
	require.NoError(t, err)
	before := g.CountNonEmpty()
	g.Regenerate(entropy.NewSource(9))
	require.Equal(t, before, g.CountNonEmpty())
}

func TestSnapshotShape(t *testing.T) {
	cat := testCatalog(t)
	g, err := New(7, 4, cat, entropy.NewSource(2), PlacementUniform)
	require.NoError(t, err)

	snap := g.Snapshot()
	require.Len(t, snap, 7)
	for _, col := range snap {
		require.Len(t, col, 4)
	}

	occupied := 0
	for _, col := range snap {
		for _, v := range col {
			if v != 0 {
				occupied++
			}
		}
	}
	require.Equal(t, g.CountNonEmpty(), occupied)
}
