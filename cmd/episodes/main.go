// Command episodes prints per-episode reward summaries from a snapshot
// store written by the gridworld binary.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/talgya/gridworld/internal/persistence"
)

func main() {
	dbPath := flag.String("db", "data/gridworld.db", "path to the SQLite snapshot store")
	flag.Parse()

	db, err := persistence.OpenSQLite(*dbPath)
	if err != nil {
		slog.Error("failed to open snapshot store", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	summaries, err := db.EpisodeSummaries()
	if err != nil {
		slog.Error("failed to query summaries", "error", err)
		os.Exit(1)
	}
	if len(summaries) == 0 {
		fmt.Println("no episodes recorded")
		return
	}

	fmt.Printf("%-36s  %-8s  %-6s  %-16s  %s\n", "RUN", "EPISODE", "STEPS", "AGENT", "REWARD")
	for _, s := range summaries {
		fmt.Printf("%-36s  %-8d  %-6d  %-16s  %.1f\n",
			s.RunID, s.Episode, s.Steps, s.Name, s.CumulativeReward)
	}
}
