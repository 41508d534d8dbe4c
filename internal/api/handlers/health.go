// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Jordan-Tam/mini-wiki-sub000/internal/realtime"
	"github.com/Jordan-Tam/mini-wiki-sub000/internal/storage"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.Ping() == nil

		status := "healthy"
		if !dbConnected {
			status = "degraded"
		}

		response := HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
		}

		w.Header().Set("Content-Type", "application/json")
		if status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(response)
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	PagesCount  int            `json:"pages_count"`
	ActiveRooms int            `json:"active_rooms"`
	Occupancy   map[string]int `json:"occupancy"`
}

// Status returns a handler that reports page counts and live gateway
// occupancy.
func Status(db *storage.DB, registry *realtime.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var pagesCount int
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages").Scan(&pagesCount)

		occupancy := registry.Rooms()

		response := StatusResponse{
			PagesCount:  pagesCount,
			ActiveRooms: len(occupancy),
			Occupancy:   occupancy,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}
