package api

import (
	"encoding/json"
	"net/http"

	"snowfight/internal/arena"
)

// stateResponse is the read-only JSON snapshot served at /api/state:
// worker count, grid dimensions, total indexed objects and per-cell
// occupancy, for operational visibility (spec SPEC_FULL.md §12).
type stateResponse struct {
	WorkerCount int                  `json:"workerCount"`
	Cols        int                  `json:"cols,omitempty"`
	Rows        int                  `json:"rows,omitempty"`
	Objects     int                  `json:"objects"`
	Occupied    []occupancyResponse `json:"occupiedCells"`
}

type occupancyResponse struct {
	Row   int `json:"row"`
	Col   int `json:"col"`
	Count int `json:"count"`
}

// handleGetState builds the /api/state handler over a given arena.
func handleGetState(a *arena.Arena) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, objects := a.Grid().Snapshot()

		resp := stateResponse{
			WorkerCount: a.WorkerCount(),
			Cols:        stats.Cols,
			Rows:        stats.Rows,
			Objects:     len(objects),
		}
		for _, c := range stats.Occupied {
			resp.Occupied = append(resp.Occupied, occupancyResponse{Row: c.Row, Col: c.Col, Count: c.Count})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
