package resources

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/gridworld/internal/config"
)

func TestNewCatalogRejectsDuplicateID(t *testing.T) {
	_, err := NewCatalog([]Kind{
		{ID: 1, Name: "wood", SpawnDensity: 0.1},
		{ID: 1, Name: "stone", SpawnDensity: 0.1},
	})
	require.ErrorIs(t, err, config.ErrConfiguration)
}

func TestNewCatalogRejectsReservedID(t *testing.T) {
	_, err := NewCatalog([]Kind{{ID: 0, Name: "void", SpawnDensity: 0.1}})
	require.ErrorIs(t, err, config.ErrConfiguration)
}

func TestNewCatalogRejectsDensitySumOverOne(t *testing.T) {
	_, err := NewCatalog([]Kind{
		{ID: 1, Name: "wood", SpawnDensity: 0.6},
		{ID: 2, Name: "stone", SpawnDensity: 0.5},
	})
	require.ErrorIs(t, err, config.ErrConfiguration)
}

func TestKindsSortedAscending(t *testing.T) {
	cat, err := NewCatalog([]Kind{
		{ID: 3, Name: "gold", SpawnDensity: 0.1},
		{ID: 1, Name: "wood", SpawnDensity: 0.1},
		{ID: 2, Name: "stone", SpawnDensity: 0.1},
	})
	require.NoError(t, err)
	require.Equal(t, []ID{1, 2, 3}, cat.IDs())
	require.Equal(t, "wood", cat.Kinds()[0].Name)
}

func TestDefaultCatalog(t *testing.T) {
	cat, err := DefaultCatalog()
	require.NoError(t, err)
	require.Equal(t, 3, cat.Len())

	lookup := cat.ColorLookup()
	require.Equal(t, EmptyColor, lookup[0])
	require.Len(t, lookup, 4)
}

func TestFromSpecs(t *testing.T) {
	cat, err := FromSpecs([]config.ResourceSpec{
		{ID: 5, Name: "moss", SpawnDensity: 0.2, RegenRate: 0.01, Color: "#00FF00", BasePrice: 2},
	})
	require.NoError(t, err)
	k, ok := cat.Get(5)
	require.True(t, ok)
	require.Equal(t, "moss", k.Name)
	require.Equal(t, 0.2, k.SpawnDensity)
}
