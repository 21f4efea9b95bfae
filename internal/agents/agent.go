// Package agents provides the per-agent mutable record: identity, position,
// inventory, and reward bookkeeping.
package agents

import (
	"github.com/talgya/gridworld/internal/resources"
)

// unplaced marks an agent with no configured spawn position.
const unplaced = -1

// Agent is one participant in the environment. Identity (ID, Name, Color)
// is assigned at registration and survives resets; everything else is
// episode state.
type Agent struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`

	X int `json:"x"`
	Y int `json:"y"`

	// SpawnX/SpawnY pin the reset position when non-negative; otherwise the
	// environment picks a cell from the episode's random stream.
	SpawnX int `json:"spawn_x"`
	SpawnY int `json:"spawn_y"`

	Inventory map[resources.ID]int `json:"inventory"`
	Balance   float64              `json:"balance"` // Currency from marketplace trades

	CumulativeReward float64 `json:"cumulative_reward"`

	// Per-step histories, indexed by timestep within the current episode.
	// Append-only; cleared at reset, so growth is bounded by episode length.
	Rewards          []float64              `json:"-"`
	Positions        [][2]int               `json:"-"`
	InventoryHistory []map[resources.ID]int `json:"-"`

	// pending accumulates reward events (harvests, trades) within the
	// current step; the orchestrator drains it when scoring.
	pending float64
}

// New creates an unregistered agent. ID, and final name and color, are
// assigned by the environment at registration.
func New(name, color string) *Agent {
	return &Agent{
		Name:      name,
		Color:     color,
		SpawnX:    unplaced,
		SpawnY:    unplaced,
		Inventory: make(map[resources.ID]int),
	}
}

// HasSpawn reports whether the agent has a pinned reset position.
func (a *Agent) HasSpawn() bool {
	return a.SpawnX >= 0 && a.SpawnY >= 0
}

// Position returns the agent's current cell.
func (a *Agent) Position() (int, int) {
	return a.X, a.Y
}

// AddReward credits a reward event to the current step.
func (a *Agent) AddReward(v float64) {
	a.pending += v
}

// TakePending drains and returns the step's accumulated reward events.
func (a *Agent) TakePending() float64 {
	v := a.pending
	a.pending = 0
	return v
}

// Count returns the held quantity of a resource.
func (a *Agent) Count(id resources.ID) int {
	return a.Inventory[id]
}

// RecordStep appends the current position and an inventory copy to the
// per-step histories. Called once per agent per timestep.
func (a *Agent) RecordStep() {
	a.Positions = append(a.Positions, [2]int{a.X, a.Y})
	inv := make(map[resources.ID]int, len(a.Inventory))
	for id, qty := range a.Inventory {
		inv[id] = qty
	}
	a.InventoryHistory = append(a.InventoryHistory, inv)
}

// ResetEpisode clears all episode state while preserving identity and the
// configured spawn position.
func (a *Agent) ResetEpisode() {
	a.Inventory = make(map[resources.ID]int)
	a.Balance = 0
	a.CumulativeReward = 0
	a.Rewards = nil
	a.Positions = nil
	a.InventoryHistory = nil
	a.pending = 0
}
