package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 15, cfg.Grid.Width)
	require.Equal(t, 500, cfg.Episode.MaxSteps)
	require.True(t, cfg.Reward.EmptyCellPenalty.Enabled)
	require.Equal(t, 5.0, cfg.Reward.EmptyCellPenalty.Amount)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
grid:
  width: 25
  height: 10
  seed: 42
  placement: clustered
episode:
  max_steps: 100
reward:
  empty_cell_penalty:
    enabled: false
    amount: 2
market:
  order_ttl: 5
agents:
  - name: alpha
    policy: gatherer
  - name: beta
    policy: trader
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 25, cfg.Grid.Width)
	require.Equal(t, 10, cfg.Grid.Height)
	require.Equal(t, int64(42), cfg.Grid.Seed)
	require.Equal(t, "clustered", cfg.Grid.Placement)
	require.Equal(t, 100, cfg.Episode.MaxSteps)
	require.False(t, cfg.Reward.EmptyCellPenalty.Enabled)
	require.Equal(t, 2.0, cfg.Reward.EmptyCellPenalty.Amount)
	require.Equal(t, 5, cfg.Market.OrderTTL)
	require.Len(t, cfg.Agents, 2)
}

func TestValidateRejectsBadDimensions(t *testing.T) {
	cfg := Default()
	cfg.Grid.Width = 0
	require.ErrorIs(t, cfg.Validate(), ErrConfiguration)

	cfg = Default()
	cfg.Grid.Height = -3
	require.ErrorIs(t, cfg.Validate(), ErrConfiguration)
}

func TestValidateRejectsDensitySum(t *testing.T) {
	cfg := Default()
	cfg.Resources = []ResourceSpec{
		{ID: 1, Name: "a", SpawnDensity: 0.7},
		{ID: 2, Name: "b", SpawnDensity: 0.4},
	}
	require.ErrorIs(t, cfg.Validate(), ErrConfiguration)
}

func TestValidateRejectsReservedResourceID(t *testing.T) {
	cfg := Default()
	cfg.Resources = []ResourceSpec{{ID: 0, Name: "void", SpawnDensity: 0.1}}
	require.ErrorIs(t, cfg.Validate(), ErrConfiguration)
}

func TestValidateRejectsUnknownPolicy(t *testing.T) {
	cfg := Default()
	cfg.Agents = []AgentSpec{{Name: "x", Policy: "ppo"}}
	require.ErrorIs(t, cfg.Validate(), ErrConfiguration)
}

func TestValidateRejectsUnknownPlacement(t *testing.T) {
	cfg := Default()
	cfg.Grid.Placement = "spiral"
	require.ErrorIs(t, cfg.Validate(), ErrConfiguration)
}
