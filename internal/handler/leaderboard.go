package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mkrale/grindstone/internal/domain"
	"github.com/mkrale/grindstone/internal/service"
)

// LeaderboardHandler handles leaderboard HTTP requests.
type LeaderboardHandler struct {
	leaderboards *service.LeaderboardService
	rooms        *service.RoomService
}

// NewLeaderboardHandler creates a new LeaderboardHandler.
func NewLeaderboardHandler(leaderboards *service.LeaderboardService, rooms *service.RoomService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboards: leaderboards, rooms: rooms}
}

// HandleGet returns the ranked leaderboard of a room the caller belongs to.
// An unknown period value falls back to the week window.
// GET /api/rooms/{id}/leaderboard?period=day|week|month|all-time
func (h *LeaderboardHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized.")
		return
	}

	roomID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid room id.")
		return
	}

	member, err := h.rooms.IsMember(r.Context(), user.ID, roomID)
	if err != nil {
		slog.Error("check membership", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	if !member {
		writeError(w, http.StatusForbidden, "You are not a member of this room.")
		return
	}

	period := domain.Period(r.URL.Query().Get("period"))
	entries, err := h.leaderboards.Compute(r.Context(), roomID, period)
	if err != nil {
		slog.Error("compute leaderboard", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"period":      string(period),
		"leaderboard": toLeaderboardEntryDTOs(entries),
	})
}
