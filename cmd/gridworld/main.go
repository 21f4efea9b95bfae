// Command gridworld runs the multi-agent gridworld environment with
// scripted policies: the reset/step episode loop an RL trainer would drive,
// wired to the configured telemetry and persistence sinks.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talgya/gridworld/internal/agents"
	"github.com/talgya/gridworld/internal/api"
	"github.com/talgya/gridworld/internal/config"
	"github.com/talgya/gridworld/internal/entropy"
	"github.com/talgya/gridworld/internal/env"
	"github.com/talgya/gridworld/internal/persistence"
	"github.com/talgya/gridworld/internal/policy"
	"github.com/talgya/gridworld/internal/telemetry"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	configPath := flag.String("config", "", "path to YAML config (empty = defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	opts, err := env.FromConfig(cfg)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// ── Sinks ─────────────────────────────────────────────────────────
	var telemetrySinks telemetry.Multi
	if cfg.Sinks.Telemetry.URL != "" {
		ws := telemetry.NewWS(cfg.Sinks.Telemetry.URL)
		defer ws.Close()
		telemetrySinks = append(telemetrySinks, ws)
		slog.Info("telemetry sink enabled", "url", cfg.Sinks.Telemetry.URL)
	}
	if len(telemetrySinks) > 0 {
		opts.Telemetry = telemetrySinks
	}

	var store *persistence.SQLite
	if cfg.Sinks.SQLite.Path != "" {
		store, err = persistence.OpenSQLite(cfg.Sinks.SQLite.Path)
		if err != nil {
			slog.Error("failed to open snapshot store", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		opts.Persistence = store
		slog.Info("sqlite sink enabled", "path", cfg.Sinks.SQLite.Path)
	}
	if cfg.Sinks.Mongo.URI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), persistenceConnectTimeout)
		mongoStore, err := persistence.OpenMongo(ctx, cfg.Sinks.Mongo.URI, cfg.Sinks.Mongo.Database)
		cancel()
		if err != nil {
			slog.Error("failed to connect mongo sink", "error", err)
			os.Exit(1)
		}
		defer mongoStore.Close(context.Background())
		opts.Persistence = mongoStore
		slog.Info("mongo sink enabled", "database", cfg.Sinks.Mongo.Database)
	}

	// ── Environment and roster ────────────────────────────────────────
	e, err := env.New(opts)
	if err != nil {
		slog.Error("failed to build environment", "error", err)
		os.Exit(1)
	}

	if store != nil {
		if err := store.RegisterRun(e.RunID(), e.Seed()); err != nil {
			slog.Warn("failed to register run", "error", err)
		}
	}

	roster, policies := buildRoster(cfg, e)
	if err := e.SetAgents(roster); err != nil {
		slog.Error("failed to set agents", "error", err)
		os.Exit(1)
	}

	slog.Info("environment ready",
		"run_id", e.RunID(),
		"seed", e.Seed(),
		"grid", fmt.Sprintf("%dx%d", cfg.Grid.Width, cfg.Grid.Height),
		"agents", len(roster),
		"action_space", e.ActionSpaceSize(),
		"state_space", e.StateSpaceSize(),
	)

	if cfg.API.Enabled {
		apiServer := &api.Server{Env: e, Port: cfg.API.Port}
		apiServer.Start()
	}

	// ── Episode loop ──────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	episodes := cfg.Episode.Count
	for ep := 0; episodes == 0 || ep < episodes; ep++ {
		obs, _, err := e.Reset()
		if err != nil {
			slog.Error("reset failed", "error", err)
			os.Exit(1)
		}

		for {
			// Interruptions land between steps only; a step always
			// completes once started.
			if ctx.Err() != nil {
				slog.Info("interrupted, stopping", "episode", e.Episode(), "timestep", e.Timestep())
				return
			}

			codes := make([]int, len(roster))
			for i, p := range policies {
				codes[i] = p.SelectAction(obs, roster[i])
			}

			next, rewards, dones, err := e.Step(codes)
			if err != nil {
				slog.Error("step failed", "error", err)
				os.Exit(1)
			}
			obs = next

			for i, p := range policies {
				p.NotifyReward(rewards[i])
			}

			if allTrue(dones) {
				break
			}
		}

		totals := e.CumulativeRewards()
		attrs := []any{"episode", e.Episode()}
		for i, a := range roster {
			attrs = append(attrs, a.Name, fmt.Sprintf("%.1f", totals[i]))
		}
		slog.Info("episode finished", attrs...)
	}

	slog.Info("run complete", "episodes", e.Episode())
}

const persistenceConnectTimeout = 10 * time.Second

// buildRoster creates agents and their policies from config, falling back
// to a stock roster of two gatherers, a trader, and a random walker.
func buildRoster(cfg config.Config, e *env.Env) ([]*agents.Agent, []policy.Policy) {
	specs := cfg.Agents
	if len(specs) == 0 {
		specs = []config.AgentSpec{
			{Name: "gatherer", Policy: "gatherer"},
			{Name: "gatherer", Policy: "gatherer"},
			{Name: "trader", Policy: "trader"},
			{Name: "wanderer", Policy: "random"},
		}
	}

	roster := make([]*agents.Agent, 0, len(specs))
	policies := make([]policy.Policy, 0, len(specs))
	for i, spec := range specs {
		roster = append(roster, agents.New(spec.Name, spec.Color))
		switch spec.Policy {
		case "random":
			src := entropy.NewSource(entropy.DeriveSeed(e.Seed(), int64(1000+i)))
			policies = append(policies, policy.NewRandom(e.ActionSpaceSize(), src))
		case "trader":
			policies = append(policies, policy.NewTrader(e.Space(), e.Catalog()))
		default:
			policies = append(policies, policy.NewGatherer(e.Catalog().Len()))
		}
	}
	return roster, policies
}

func allTrue(flags []bool) bool {
	for _, f := range flags {
		if !f {
			return false
		}
	}
	return true
}
