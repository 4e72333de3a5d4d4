package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mkrale/grindstone/internal/domain"
	"github.com/mkrale/grindstone/internal/service"
)

// SessionHandler accepts finished session records from the client-side
// timer and serves the caller's session history and personal stats.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// HandleRecord appends a finished session for the caller.
// POST /api/sessions
// Request: {"startedAt":"RFC3339","endedAt":"RFC3339"?,"durationSeconds":N,"roomId":N?}
func (h *SessionHandler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized.")
		return
	}

	var req struct {
		StartedAt       string `json:"startedAt"`
		EndedAt         string `json:"endedAt"`
		DurationSeconds int64  `json:"durationSeconds"`
		RoomID          *int64 `json:"roomId"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	startedAt, err := time.Parse(time.RFC3339, req.StartedAt)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "startedAt must be an RFC 3339 timestamp.")
		return
	}

	var endedAt *time.Time
	if req.EndedAt != "" {
		t, err := time.Parse(time.RFC3339, req.EndedAt)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "endedAt must be an RFC 3339 timestamp.")
			return
		}
		endedAt = &t
	}

	session, err := h.sessions.Record(r.Context(), user.ID, startedAt, endedAt, req.DurationSeconds, req.RoomID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if errors.Is(err, domain.ErrNotAMember) {
			writeError(w, http.StatusForbidden, "You are not a member of this room.")
			return
		}
		slog.Error("record session", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"session": toSessionDTO(session)})
}

// HandleList returns the caller's sessions, newest first.
// GET /api/sessions
func (h *SessionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized.")
		return
	}

	sessions, err := h.sessions.ListByUser(r.Context(), user.ID)
	if err != nil {
		slog.Error("list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": toSessionDTOs(sessions)})
}

// HandleStats returns the caller's personal statistics.
// GET /api/stats
func (h *SessionHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized.")
		return
	}

	stats, err := h.sessions.Stats(r.Context(), user.ID)
	if err != nil {
		slog.Error("compute user stats", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"stats": toUserStatsDTO(stats)})
}
