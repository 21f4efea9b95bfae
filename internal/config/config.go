// Package config loads and validates simulation configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks any rejected constructor or config argument.
// Callers test for it with errors.Is.
var ErrConfiguration = errors.New("invalid configuration")

// Config is the full simulation configuration.
type Config struct {
	Grid    GridConfig    `yaml:"grid"`
	Episode EpisodeConfig `yaml:"episode"`
	Reward  RewardConfig  `yaml:"reward"`
	Market  MarketConfig  `yaml:"market"`

	// Resources overrides the default catalog when non-empty.
	Resources []ResourceSpec `yaml:"resources,omitempty"`

	// Agents to register at startup (scripted policies).
	Agents []AgentSpec `yaml:"agents,omitempty"`

	Sinks SinkConfig `yaml:"sinks"`
	API   APIConfig  `yaml:"api"`
}

// GridConfig controls gridworld construction.
type GridConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Seed      int64  `yaml:"seed"`      // 0 = draw a random seed at startup
	Placement string `yaml:"placement"` // "uniform" or "clustered"
}

// EpisodeConfig controls episode lifecycle.
type EpisodeConfig struct {
	MaxSteps int `yaml:"max_steps"`
	Count    int `yaml:"count"` // Episodes to run before exiting (0 = run forever)
}

// RewardConfig names every tunable of the reward policy.
type RewardConfig struct {
	Harvest float64 `yaml:"harvest"` // Credited per successful harvest
	Trade   float64 `yaml:"trade"`   // Credited to each side of a matched trade

	// EmptyCellPenalty is subtracted when an agent ends a step standing on
	// an empty cell. Off by flag rather than by zeroing the amount, so the
	// amount survives toggling.
	EmptyCellPenalty PenaltyConfig `yaml:"empty_cell_penalty"`
}

// PenaltyConfig is an on/off switch plus a magnitude.
type PenaltyConfig struct {
	Enabled bool    `yaml:"enabled"`
	Amount  float64 `yaml:"amount"`
}

// MarketConfig controls order book behavior.
type MarketConfig struct {
	// OrderTTL is how many timesteps an unmatched order rests before
	// expiring. 0 = orders never expire.
	OrderTTL int `yaml:"order_ttl"`

	// RequireBuyFunds rejects buy orders the agent cannot cover from its
	// balance. Off by default: the reference economy lets buyers run a
	// negative balance.
	RequireBuyFunds bool `yaml:"require_buy_funds"`
}

// ResourceSpec declares one resource kind in the catalog.
type ResourceSpec struct {
	ID           uint8   `yaml:"id"`
	Name         string  `yaml:"name"`
	SpawnDensity float64 `yaml:"spawn_density"`
	RegenRate    float64 `yaml:"regen_rate"`
	Color        string  `yaml:"color"`
	BasePrice    float64 `yaml:"base_price"`
}

// AgentSpec declares one scripted agent.
type AgentSpec struct {
	Name   string `yaml:"name"`
	Color  string `yaml:"color,omitempty"`
	Policy string `yaml:"policy"` // "gatherer", "random", or "trader"
}

// SinkConfig wires optional external collaborators. Empty values disable
// the sink.
type SinkConfig struct {
	Telemetry TelemetrySinkConfig `yaml:"telemetry"`
	SQLite    SQLiteSinkConfig    `yaml:"sqlite"`
	Mongo     MongoSinkConfig     `yaml:"mongo"`
}

// TelemetrySinkConfig points at the external visualization server.
type TelemetrySinkConfig struct {
	URL string `yaml:"url"` // ws:// endpoint, e.g. ws://localhost:8765/ingest
}

// SQLiteSinkConfig points at the local snapshot store.
type SQLiteSinkConfig struct {
	Path string `yaml:"path"`
}

// MongoSinkConfig points at a MongoDB snapshot store.
type MongoSinkConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// APIConfig controls the read-only HTTP status surface.
type APIConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Grid: GridConfig{
			Width:     15,
			Height:    15,
			Seed:      0,
			Placement: "uniform",
		},
		Episode: EpisodeConfig{
			MaxSteps: 500,
			Count:    1,
		},
		Reward: RewardConfig{
			Harvest: 1,
			Trade:   1,
			EmptyCellPenalty: PenaltyConfig{
				Enabled: true,
				Amount:  5,
			},
		},
		Market: MarketConfig{
			OrderTTL: 0,
		},
		API: APIConfig{
			Enabled: false,
			Port:    8080,
		},
	}
}

// Load reads a YAML config file, applying defaults for anything unset.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the simulation cannot run with.
func (c *Config) Validate() error {
	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		return fmt.Errorf("%w: grid dimensions must be positive, got %dx%d",
			ErrConfiguration, c.Grid.Width, c.Grid.Height)
	}
	if c.Episode.MaxSteps <= 0 {
		return fmt.Errorf("%w: episode max_steps must be positive", ErrConfiguration)
	}
	switch c.Grid.Placement {
	case "", "uniform", "clustered":
	default:
		return fmt.Errorf("%w: unknown placement policy %q", ErrConfiguration, c.Grid.Placement)
	}
	if c.Reward.EmptyCellPenalty.Amount < 0 {
		return fmt.Errorf("%w: empty_cell_penalty amount must be non-negative", ErrConfiguration)
	}
	if c.Market.OrderTTL < 0 {
		return fmt.Errorf("%w: order_ttl must be non-negative", ErrConfiguration)
	}
	densitySum := 0.0
	seen := make(map[uint8]bool, len(c.Resources))
	for _, r := range c.Resources {
		if r.ID == 0 {
			return fmt.Errorf("%w: resource id 0 is reserved for empty cells", ErrConfiguration)
		}
		if seen[r.ID] {
			return fmt.Errorf("%w: duplicate resource id %d", ErrConfiguration, r.ID)
		}
		seen[r.ID] = true
		if r.SpawnDensity < 0 || r.SpawnDensity > 1 {
			return fmt.Errorf("%w: resource %q spawn_density out of [0,1]", ErrConfiguration, r.Name)
		}
		densitySum += r.SpawnDensity
	}
	if densitySum > 1 {
		return fmt.Errorf("%w: resource spawn densities sum to %.3f (> 1)", ErrConfiguration, densitySum)
	}
	for _, a := range c.Agents {
		switch a.Policy {
		case "gatherer", "random", "trader":
		default:
			return fmt.Errorf("%w: agent %q has unknown policy %q", ErrConfiguration, a.Name, a.Policy)
		}
	}
	return nil
}
