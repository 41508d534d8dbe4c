package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Jordan-Tam/mini-wiki-sub000/internal/api/middleware"
	"github.com/Jordan-Tam/mini-wiki-sub000/internal/cache"
)

const defaultLeaderboardSize = 10

// Leaderboard returns the most active chat rooms, ranked by message count.
// Responds 503 when no cache is configured.
func Leaderboard(c *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c == nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, middleware.ErrInternalError, "Leaderboard is not configured")
			return
		}

		n := int64(defaultLeaderboardSize)
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed < 1 {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "limit must be a positive integer")
				return
			}
			n = parsed
		}

		top, err := c.Top(r.Context(), n)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to read leaderboard")
			return
		}
		if top == nil {
			top = []cache.RoomActivity{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(top)
	}
}
