// Package env provides the environment orchestrator: the public reset/step
// loop that ties the grid, agents, action resolver, and marketplace into one
// deterministic simulation kernel.
package env

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/talgya/gridworld/internal/actions"
	"github.com/talgya/gridworld/internal/agents"
	"github.com/talgya/gridworld/internal/config"
	"github.com/talgya/gridworld/internal/entropy"
	"github.com/talgya/gridworld/internal/grid"
	"github.com/talgya/gridworld/internal/market"
	"github.com/talgya/gridworld/internal/resources"
)

// ErrInvalidState rejects an operation called in the wrong lifecycle phase
// (step before reset, reset before SetAgents, SetAgents mid-episode).
var ErrInvalidState = errors.New("invalid lifecycle state")

// ErrActionCount rejects a Step whose action batch length differs from the
// number of registered agents.
var ErrActionCount = errors.New("action count does not match agent count")

// Phase is the environment lifecycle state.
type Phase uint8

const (
	PhaseUnconfigured Phase = iota // No agents registered yet
	PhaseReady                     // Agents set, no episode running
	PhaseRunning                   // Inside an episode
	PhaseDone                      // Episode finished, awaiting reset
)

// String names the phase for logs and the status API.
func (p Phase) String() string {
	switch p {
	case PhaseUnconfigured:
		return "unconfigured"
	case PhaseReady:
		return "ready"
	case PhaseRunning:
		return "running"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Info is the reset info mapping. Currently always empty; reserved for
// future diagnostics.
type Info map[string]any

// TerminationFunc is an optional per-agent early-termination hook, checked
// each step in addition to the max-steps cutoff.
type TerminationFunc func(a *agents.Agent, timestep int) bool

// Options configure an environment.
type Options struct {
	Width     int
	Height    int
	MaxSteps  int
	Seed      int64 // 0 = draw one at construction and log it
	Placement grid.Placement
	Catalog   *resources.Catalog
	Reward    config.RewardConfig
	Market    config.MarketConfig

	Telemetry   TelemetrySink   // nil = disabled
	Persistence PersistenceSink // nil = disabled
	Terminate   TerminationFunc // nil = max-steps only
}

// Env is the environment orchestrator. All mutation happens inside a single
// Step or Reset call; the mutex only serializes those against read-only
// snapshot accessors used by the status API.
type Env struct {
	mu sync.Mutex

	runID    string
	catalog  *resources.Catalog
	space    actions.Space
	resolver *actions.Resolver
	book     *market.Book

	width     int
	height    int
	maxSteps  int
	seed      int64
	placement grid.Placement
	reward    config.RewardConfig

	grid  *grid.Grid
	ags   []*agents.Agent
	index map[int]*agents.Agent

	phase    Phase
	episode  int // Monotonic across resets
	timestep int

	telemetry   TelemetrySink
	persistence PersistenceSink
	terminate   TerminationFunc

	src *entropy.Source // Per-episode stream: grid init, spawns, regen
}

// New constructs an environment in the Unconfigured phase.
func New(opts Options) (*Env, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: grid dimensions must be positive, got %dx%d",
			config.ErrConfiguration, opts.Width, opts.Height)
	}
	if opts.MaxSteps <= 0 {
		return nil, fmt.Errorf("%w: max steps must be positive", config.ErrConfiguration)
	}
	if opts.Catalog == nil {
		cat, err := resources.DefaultCatalog()
		if err != nil {
			return nil, err
		}
		opts.Catalog = cat
	}
	seed := opts.Seed
	if seed == 0 {
		seed = entropy.CryptoSeed()
	}

	space := actions.NewSpace(opts.Catalog)
	e := &Env{
		runID:    uuid.NewString(),
		catalog:  opts.Catalog,
		space:    space,
		resolver: actions.NewResolver(space, opts.Catalog, opts.Reward.Harvest),
		book: market.NewBook(market.Rules{
			TTL:             opts.Market.OrderTTL,
			RequireBuyFunds: opts.Market.RequireBuyFunds,
			TradeReward:     opts.Reward.Trade,
		}),
		width:       opts.Width,
		height:      opts.Height,
		maxSteps:    opts.MaxSteps,
		seed:        seed,
		placement:   opts.Placement,
		reward:      opts.Reward,
		phase:       PhaseUnconfigured,
		telemetry:   opts.Telemetry,
		persistence: opts.Persistence,
		terminate:   opts.Terminate,
	}
	return e, nil
}

// FromConfig builds Options from a loaded configuration. Sinks are wired by
// the caller.
func FromConfig(cfg config.Config) (Options, error) {
	catalog, err := resources.FromSpecs(cfg.Resources)
	if err != nil {
		return Options{}, err
	}
	placement, err := grid.ParsePlacement(cfg.Grid.Placement)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Width:     cfg.Grid.Width,
		Height:    cfg.Grid.Height,
		MaxSteps:  cfg.Episode.MaxSteps,
		Seed:      cfg.Grid.Seed,
		Placement: placement,
		Catalog:   catalog,
		Reward:    cfg.Reward,
		Market:    cfg.Market,
	}, nil
}

// SetAgents registers the agent roster: IDs assigned in list order starting
// at 1, names disambiguated with numeric suffixes, colors resolved unique
// against the palette. Rejected mid-episode; a non-empty list is required.
func (e *Env) SetAgents(list []*agents.Agent) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase == PhaseRunning {
		return fmt.Errorf("%w: cannot set agents mid-episode", ErrInvalidState)
	}
	if len(list) == 0 {
		return fmt.Errorf("%w: agent list must be non-empty", config.ErrConfiguration)
	}

	// Validate every entry before touching any of them, so a rejected list
	// leaves the caller's roster exactly as it was.
	for _, a := range list {
		if (a.SpawnX >= 0) != (a.SpawnY >= 0) {
			return fmt.Errorf("%w: agent %s spawn (%d,%d) sets one coordinate only",
				config.ErrConfiguration, a.Name, a.SpawnX, a.SpawnY)
		}
		if a.HasSpawn() && (a.SpawnX >= e.width || a.SpawnY >= e.height) {
			return fmt.Errorf("%w: agent %s spawn (%d,%d) outside %dx%d grid",
				config.ErrConfiguration, a.Name, a.SpawnX, a.SpawnY, e.width, e.height)
		}
	}

	nameCounts := make(map[string]int, len(list))
	usedColors := make(map[string]bool, len(list))

	for i, a := range list {
		a.ID = i + 1

		// First agent with a name keeps it; later duplicates get a numeric
		// suffix, skipping suffixes already claimed explicitly.
		if n, seen := nameCounts[a.Name]; seen {
			base := a.Name
			for {
				n++
				candidate := fmt.Sprintf("%s_%d", base, n)
				if _, taken := nameCounts[candidate]; !taken {
					a.Name = candidate
					break
				}
			}
			nameCounts[base] = n
		}
		nameCounts[a.Name] = 0

		if a.Color == "" || usedColors[a.Color] {
			a.Color = nextPaletteColor(usedColors)
		}
		usedColors[a.Color] = true
	}

	e.ags = list
	e.index = make(map[int]*agents.Agent, len(list))
	for _, a := range list {
		e.index[a.ID] = a
	}
	e.phase = PhaseReady
	return nil
}

// Reset begins a new episode: agents cleared and respawned, grid rebuilt
// from the per-episode seed, order book emptied, episode counter advanced.
// Returns the initial observation and an (empty) info mapping.
func (e *Env) Reset() (*Observation, Info, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase == PhaseUnconfigured {
		return nil, nil, fmt.Errorf("%w: SetAgents must be called before the first reset", ErrInvalidState)
	}

	e.episode++
	e.timestep = 0
	e.src = entropy.NewSource(entropy.DeriveSeed(e.seed, int64(e.episode)))

	g, err := grid.New(e.width, e.height, e.catalog, e.src, e.placement)
	if err != nil {
		return nil, nil, err
	}
	e.grid = g
	e.book.Reset()

	for _, a := range e.ags {
		a.ResetEpisode()
		if a.HasSpawn() {
			a.X, a.Y = a.SpawnX, a.SpawnY
		} else {
			a.X = e.src.Intn(e.width)
			a.Y = e.src.Intn(e.height)
		}
	}

	e.phase = PhaseRunning
	e.sendResetSinks()
	return e.observe(), Info{}, nil
}

// Step advances the simulation one timestep: actions resolve, the market
// matches, rewards are scored against the post-resolution layout, done
// flags are computed, and only then does the grid regenerate. Returns the
// next observation, per-agent rewards, and per-agent done flags.
func (e *Env) Step(codes []int) (*Observation, []float64, []bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.phase {
	case PhaseUnconfigured, PhaseReady:
		return nil, nil, nil, fmt.Errorf("%w: step requires a running episode (call Reset)", ErrInvalidState)
	case PhaseDone:
		return nil, nil, nil, fmt.Errorf("%w: episode is done (call Reset)", ErrInvalidState)
	}
	if len(codes) != len(e.ags) {
		return nil, nil, nil, fmt.Errorf("%w: got %d actions for %d agents",
			ErrActionCount, len(codes), len(e.ags))
	}

	if err := e.resolver.Apply(e.grid, e.ags, e.book, codes, e.timestep); err != nil {
		return nil, nil, nil, err
	}

	e.book.ExpireBefore(e.timestep)
	e.book.Match(e.index, e.timestep)

	// Rewards are scored now, before regeneration, so agents are judged on
	// the world their actions produced rather than on stochastic regrowth.
	rewards := make([]float64, len(e.ags))
	for i, a := range e.ags {
		r := a.TakePending()
		if e.reward.EmptyCellPenalty.Enabled && e.grid.CellAt(a.X, a.Y) == resources.Empty {
			r -= e.reward.EmptyCellPenalty.Amount
		}
		a.Rewards = append(a.Rewards, r)
		a.CumulativeReward += r
		rewards[i] = r
	}

	dones := make([]bool, len(e.ags))
	maxReached := e.timestep+1 >= e.maxSteps
	allDone := true
	for i, a := range e.ags {
		dones[i] = maxReached || (e.terminate != nil && e.terminate(a, e.timestep))
		allDone = allDone && dones[i]
	}

	e.grid.Regenerate(e.src)
	e.timestep++
	if allDone {
		e.phase = PhaseDone
	}

	e.sendStepSinks(rewards)
	return e.observe(), rewards, dones, nil
}

// Episode returns the episode counter (monotonic across resets).
func (e *Env) Episode() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.episode
}

// Timestep returns the current timestep within the episode.
func (e *Env) Timestep() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timestep
}

// Phase returns the current lifecycle phase.
func (e *Env) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Seed returns the resolved environment seed.
func (e *Env) Seed() int64 {
	return e.seed
}

// RunID returns the unique identifier for this environment instance.
func (e *Env) RunID() string {
	return e.runID
}

// ActionSpaceSize returns the number of discrete action codes.
func (e *Env) ActionSpaceSize() int {
	return e.space.Size()
}

// Space returns the action space, for policies that need to encode actions.
func (e *Env) Space() actions.Space {
	return e.space
}

// Catalog returns the resource catalog.
func (e *Env) Catalog() *resources.Catalog {
	return e.catalog
}

// StateSpaceSize returns the flattened observation size:
// (num resources + num agents) * width * height.
func (e *Env) StateSpaceSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return (e.catalog.Len() + len(e.ags)) * e.width * e.height
}

// CumulativeRewards returns each agent's episode total, in agent order.
func (e *Env) CumulativeRewards() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]float64, len(e.ags))
	for i, a := range e.ags {
		out[i] = a.CumulativeReward
	}
	return out
}

// State returns the current observation. Safe to call between steps.
func (e *Env) State() *Observation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.observe()
}

// AgentStates returns a copy of every agent's current state.
func (e *Env) AgentStates() []AgentState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot(nil).Agents
}

// GridSnapshot returns the current cell layout, or nil before the first
// reset.
func (e *Env) GridSnapshot() [][]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.grid == nil {
		return nil
	}
	return e.grid.Snapshot()
}

// OpenOrders returns all resting marketplace orders.
func (e *Env) OpenOrders() []market.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.OpenOrders()
}
