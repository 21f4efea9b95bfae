package agents

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAgentUnplaced(t *testing.T) {
	a := New("scout", "#FF0000")
	require.False(t, a.HasSpawn())
	a.SpawnX, a.SpawnY = 3, 4
	require.True(t, a.HasSpawn())
}

func TestPendingReward(t *testing.T) {
	a := New("scout", "")
	a.AddReward(2)
	a.AddReward(0.5)
	require.Equal(t, 2.5, a.TakePending())
	require.Equal(t, 0.0, a.TakePending(), "pending drains on take")
}

func TestRecordStepCopiesInventory(t *testing.T) {
	a := New("scout", "")
	a.X, a.Y = 1, 2
	a.Inventory[7] = 3
	a.RecordStep()

	// Later mutation must not leak into the recorded snapshot.
	a.Inventory[7] = 9
	require.Len(t, a.InventoryHistory, 1)
	require.Equal(t, 3, a.InventoryHistory[0][7])
	require.Equal(t, [2]int{1, 2}, a.Positions[0])
}

func TestResetEpisodePreservesIdentity(t *testing.T) {
	a := New("scout", "#00FF00")
	a.ID = 4
	a.SpawnX, a.SpawnY = 2, 2
	a.Inventory[1] = 5
	a.Balance = 12
	a.CumulativeReward = 33
	a.AddReward(1)
	a.RecordStep()

	a.ResetEpisode()

	require.Equal(t, 4, a.ID)
	require.Equal(t, "scout", a.Name)
	require.Equal(t, "#00FF00", a.Color)
	require.True(t, a.HasSpawn())
	require.Empty(t, a.Inventory)
	require.Zero(t, a.Balance)
	require.Zero(t, a.CumulativeReward)
	require.Zero(t, a.TakePending())
	require.Empty(t, a.Rewards)
	require.Empty(t, a.Positions)
	require.Empty(t, a.InventoryHistory)
}
