// Package api provides a small read-only HTTP surface for inspecting a
// running environment: lifecycle phase, agents, grid, and the order book.
// Strictly observational; nothing here can mutate simulation state.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/talgya/gridworld/internal/env"
)

// Server serves environment state over HTTP.
type Server struct {
	Env  *env.Env
	Port int
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("/api/v1/grid", s.handleGrid)
	mux.HandleFunc("/api/v1/market", s.handleMarket)

	addr := fmt.Sprintf(":%d", s.Port)
	go func() {
		slog.Info("status API listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("status API stopped", "error", err)
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"run_id":            s.Env.RunID(),
		"phase":             s.Env.Phase().String(),
		"episode":           s.Env.Episode(),
		"timestep":          s.Env.Timestep(),
		"seed":              s.Env.Seed(),
		"action_space_size": s.Env.ActionSpaceSize(),
		"state_space_size":  s.Env.StateSpaceSize(),
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Env.AgentStates())
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	cells := s.Env.GridSnapshot()
	if cells == nil {
		http.Error(w, "no episode has started", http.StatusConflict)
		return
	}
	writeJSON(w, map[string]any{
		"gridworld":              cells,
		"gridworld_color_lookup": s.Env.Catalog().ColorLookup(),
	})
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	orders := s.Env.OpenOrders()
	writeJSON(w, map[string]any{
		"open_orders": orders,
		"count":       len(orders),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("api encode failed", "error", err)
	}
}
