package actions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/gridworld/internal/resources"
)

func testCatalog(t *testing.T) *resources.Catalog {
	t.Helper()
	cat, err := resources.NewCatalog([]resources.Kind{
		{ID: 1, Name: "wood", SpawnDensity: 0.1, BasePrice: 3},
		{ID: 2, Name: "stone", SpawnDensity: 0.1, BasePrice: 4},
	})
	require.NoError(t, err)
	return cat
}

func TestSpaceSize(t *testing.T) {
	space := NewSpace(testCatalog(t))
	// 4 moves + harvest + (sell, buy) per kind.
	require.Equal(t, 9, space.Size())
}

func TestDecodeMovementAndHarvest(t *testing.T) {
	space := NewSpace(testCatalog(t))

	cases := []struct {
		code int
		kind Kind
	}{
		{CodeMoveNorth, KindMoveNorth},
		{CodeMoveSouth, KindMoveSouth},
		{CodeMoveEast, KindMoveEast},
		{CodeMoveWest, KindMoveWest},
		{CodeHarvest, KindHarvest},
	}
	for _, tc := range cases {
		act, err := space.Decode(tc.code)
		require.NoError(t, err)
		require.Equal(t, tc.kind, act.Kind)
	}
}

func TestDecodeTradeCodes(t *testing.T) {
	space := NewSpace(testCatalog(t))

	sell, err := space.Decode(space.SellCode(2))
	require.NoError(t, err)
	require.Equal(t, KindSell, sell.Kind)
	require.Equal(t, resources.ID(2), sell.Resource)

	buy, err := space.Decode(space.BuyCode(1))
	require.NoError(t, err)
	require.Equal(t, KindBuy, buy.Kind)
	require.Equal(t, resources.ID(1), buy.Resource)
}

func TestDecodeRejectsOutOfRange(t *testing.T) {
	space := NewSpace(testCatalog(t))
	_, err := space.Decode(space.Size())
	require.ErrorIs(t, err, ErrCode)
	_, err = space.Decode(-1)
	require.ErrorIs(t, err, ErrCode)
}
