package env

import (
	"log/slog"

	"github.com/talgya/gridworld/internal/resources"
)

// Frame is the render/telemetry payload pushed to the visualization
// collaborator. Reset frames carry the full lookup tables; step frames
// carry histories.
type Frame struct {
	AgentNames     map[int]string `json:"agent_names,omitempty"`
	ColorLookup    map[int]string `json:"gridworld_color_lookup,omitempty"`
	GridY          int            `json:"gridworld_y,omitempty"`
	GridX          int            `json:"gridworld_x,omitempty"`
	Grid           [][]int        `json:"gridworld"`
	AgentLocations [][2]int       `json:"agent_locations"`

	// Step-only histories.
	AgentTotals []map[string]float64     `json:"agent_totals,omitempty"`
	AgentData   [][]map[resources.ID]int `json:"agent_data,omitempty"`
}

// Snapshot is the persistence payload: the full world state after a reset
// or step. The core writes it and never reads it back.
type Snapshot struct {
	RunID    string       `json:"run_id"`
	Episode  int          `json:"episode"`
	Timestep int          `json:"timestep"`
	Grid     [][]int      `json:"grid"`
	Agents   []AgentState `json:"agents"`
}

// AgentState is one agent's row in a snapshot.
type AgentState struct {
	ID               int                  `json:"id"`
	Name             string               `json:"name"`
	Color            string               `json:"color"`
	X                int                  `json:"x"`
	Y                int                  `json:"y"`
	StepReward       float64              `json:"step_reward"`
	CumulativeReward float64              `json:"cumulative_reward"`
	Balance          float64              `json:"balance"`
	Inventory        map[resources.ID]int `json:"inventory"`
}

// TelemetrySink receives render frames. Sink pushes are one-way and
// best-effort: a slow or broken sink is logged and ignored, never allowed
// to fail or block a step. Implementations must not block.
type TelemetrySink interface {
	SendReset(Frame) error
	SendStep(Frame) error
}

// PersistenceSink receives world snapshots after every reset and step.
type PersistenceSink interface {
	SaveSnapshot(Snapshot) error
}

// safeSend runs one sink call behind a panic/error barrier so a collaborator
// fault can never corrupt or abort the step that triggered it.
func safeSend(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("sink panicked", "sink", name, "panic", r)
		}
	}()
	if err := fn(); err != nil {
		slog.Warn("sink send failed", "sink", name, "error", err)
	}
}

func (e *Env) sendResetSinks() {
	if e.telemetry != nil {
		frame := e.resetFrame()
		safeSend("telemetry", func() error { return e.telemetry.SendReset(frame) })
	}
	if e.persistence != nil {
		snap := e.snapshot(nil)
		safeSend("persistence", func() error { return e.persistence.SaveSnapshot(snap) })
	}
}

func (e *Env) sendStepSinks(rewards []float64) {
	if e.telemetry != nil {
		frame := e.stepFrame()
		safeSend("telemetry", func() error { return e.telemetry.SendStep(frame) })
	}
	if e.persistence != nil {
		snap := e.snapshot(rewards)
		safeSend("persistence", func() error { return e.persistence.SaveSnapshot(snap) })
	}
}

// resetFrame builds the full payload sent at episode start.
func (e *Env) resetFrame() Frame {
	names := make(map[int]string, len(e.ags))
	locations := make([][2]int, len(e.ags))
	for i, a := range e.ags {
		names[i] = a.Name
		locations[i] = [2]int{a.X, a.Y}
	}
	return Frame{
		AgentNames:     names,
		ColorLookup:    e.catalog.ColorLookup(),
		GridY:          e.height,
		GridX:          e.width,
		Grid:           e.grid.Snapshot(),
		AgentLocations: locations,
	}
}

// stepFrame builds the incremental payload sent after each step, including
// per-step reward totals and inventory histories for charting.
func (e *Env) stepFrame() Frame {
	locations := make([][2]int, len(e.ags))
	data := make([][]map[resources.ID]int, len(e.ags))
	for i, a := range e.ags {
		locations[i] = [2]int{a.X, a.Y}
		data[i] = a.InventoryHistory
	}

	totals := make([]map[string]float64, e.timestep)
	running := make([]float64, len(e.ags))
	for t := 0; t < e.timestep; t++ {
		row := make(map[string]float64, len(e.ags))
		for i, a := range e.ags {
			if t < len(a.Rewards) {
				running[i] += a.Rewards[t]
			}
			row[a.Name] = running[i]
		}
		totals[t] = row
	}

	return Frame{
		Grid:           e.grid.Snapshot(),
		AgentLocations: locations,
		AgentTotals:    totals,
		AgentData:      data,
	}
}

// snapshot captures the full world state for the persistence sink.
// rewards is nil for reset snapshots.
func (e *Env) snapshot(rewards []float64) Snapshot {
	states := make([]AgentState, len(e.ags))
	for i, a := range e.ags {
		inv := make(map[resources.ID]int, len(a.Inventory))
		for id, qty := range a.Inventory {
			inv[id] = qty
		}
		stepReward := 0.0
		if rewards != nil {
			stepReward = rewards[i]
		}
		states[i] = AgentState{
			ID:               a.ID,
			Name:             a.Name,
			Color:            a.Color,
			X:                a.X,
			Y:                a.Y,
			StepReward:       stepReward,
			CumulativeReward: a.CumulativeReward,
			Balance:          a.Balance,
			Inventory:        inv,
		}
	}
	var cells [][]int
	if e.grid != nil {
		cells = e.grid.Snapshot()
	}
	return Snapshot{
		RunID:    e.runID,
		Episode:  e.episode,
		Timestep: e.timestep,
		Grid:     cells,
		Agents:   states,
	}
}
