// Package persistence stores world snapshots sent by the environment after
// every reset and step. The core only ever writes; nothing here feeds back
// into simulation state.
package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/gridworld/internal/env"
)

// SQLite is a snapshot store backed by a local SQLite file.
type SQLite struct {
	conn *sqlx.DB
}

// OpenSQLite opens or creates the store at the given path.
func OpenSQLite(path string) (*SQLite, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &SQLite{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *SQLite) Close() error {
	return db.conn.Close()
}

func (db *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		episode INTEGER NOT NULL,
		timestep INTEGER NOT NULL,
		grid_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agent_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		episode INTEGER NOT NULL,
		timestep INTEGER NOT NULL,
		agent_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		step_reward REAL NOT NULL,
		cumulative_reward REAL NOT NULL,
		balance REAL NOT NULL,
		inventory_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_run_episode ON snapshots(run_id, episode);
	CREATE INDEX IF NOT EXISTS idx_agent_snapshots_run_episode ON agent_snapshots(run_id, episode, agent_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RegisterRun records a run's identity and seed, once at startup.
func (db *SQLite) RegisterRun(runID string, seed int64) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO runs (run_id, seed, started_at) VALUES (?, ?, ?)",
		runID, seed, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// SaveSnapshot implements env.PersistenceSink: one grid row plus one row
// per agent, in a single transaction.
func (db *SQLite) SaveSnapshot(s env.Snapshot) error {
	gridJSON, err := json.Marshal(s.Grid)
	if err != nil {
		return fmt.Errorf("marshal grid: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO snapshots (run_id, episode, timestep, grid_json) VALUES (?, ?, ?, ?)",
		s.RunID, s.Episode, s.Timestep, string(gridJSON),
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	stmt, err := tx.Preparex(`INSERT INTO agent_snapshots
		(run_id, episode, timestep, agent_id, name, x, y, step_reward, cumulative_reward, balance, inventory_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range s.Agents {
		invJSON, _ := json.Marshal(a.Inventory)
		if _, err := stmt.Exec(
			s.RunID, s.Episode, s.Timestep,
			a.ID, a.Name, a.X, a.Y,
			a.StepReward, a.CumulativeReward, a.Balance, string(invJSON),
		); err != nil {
			return fmt.Errorf("insert agent %d: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// EpisodeSummary is one agent's final standing in one episode.
type EpisodeSummary struct {
	RunID            string  `db:"run_id"`
	Episode          int     `db:"episode"`
	Steps            int     `db:"steps"`
	AgentID          int     `db:"agent_id"`
	Name             string  `db:"name"`
	CumulativeReward float64 `db:"cumulative_reward"`
}

// EpisodeSummaries returns each agent's final cumulative reward per
// episode, across all stored runs.
func (db *SQLite) EpisodeSummaries() ([]EpisodeSummary, error) {
	var out []EpisodeSummary
	err := db.conn.Select(&out, `
		SELECT a.run_id, a.episode, a.timestep AS steps, a.agent_id, a.name, a.cumulative_reward
		FROM agent_snapshots a
		JOIN (
			SELECT run_id, episode, agent_id, MAX(timestep) AS last_step
			FROM agent_snapshots
			GROUP BY run_id, episode, agent_id
		) latest
		ON a.run_id = latest.run_id
			AND a.episode = latest.episode
			AND a.agent_id = latest.agent_id
			AND a.timestep = latest.last_step
		ORDER BY a.run_id, a.episode, a.agent_id`)
	return out, err
}
