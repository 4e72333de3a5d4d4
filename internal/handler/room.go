package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mkrale/grindstone/internal/domain"
	"github.com/mkrale/grindstone/internal/service"
)

// RoomHandler handles room and membership HTTP requests. It owns request
// shape validation; the service layer trusts validated input.
type RoomHandler struct {
	rooms *service.RoomService
}

// NewRoomHandler creates a new RoomHandler.
func NewRoomHandler(rooms *service.RoomService) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

// HandleList returns the caller's rooms with members and stats.
// GET /api/rooms
func (h *RoomHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized.")
		return
	}

	details, err := h.rooms.GetUserRooms(r.Context(), user.ID)
	if err != nil {
		slog.Error("list user rooms", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"rooms": toRoomDetailsDTOs(details)})
}

// HandleCreate creates a room owned by the caller.
// POST /api/rooms
// Request: {"name":"...","description":"..."}
func (h *RoomHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized.")
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 100 {
		writeError(w, http.StatusUnprocessableEntity, "Room name must be between 1 and 100 characters.")
		return
	}
	if len(req.Description) > 500 {
		writeError(w, http.StatusUnprocessableEntity, "Description must be at most 500 characters.")
		return
	}

	room, err := h.rooms.CreateRoom(r.Context(), user.ID, name, req.Description)
	if err != nil {
		slog.Error("create room", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"room": toRoomDTO(room)})
}

// HandleGet returns details of a single room the caller belongs to.
// GET /api/rooms/{id}
func (h *RoomHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
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

	details, err := h.rooms.GetRoomDetails(r.Context(), roomID, user.ID)
	if err != nil {
		writeRoomError(w, err, "get room details")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"room": toRoomDetailsDTO(details)})
}

// HandleMembers returns the member list of a room the caller belongs to.
// GET /api/rooms/{id}/members
func (h *RoomHandler) HandleMembers(w http.ResponseWriter, r *http.Request) {
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

	members, err := h.rooms.GetRoomMembers(r.Context(), roomID)
	if err != nil {
		slog.Error("list room members", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"members": toMemberDTOs(members)})
}

// HandleJoin adds the caller to a room.
// POST /api/rooms/{id}/join
func (h *RoomHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
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

	if err := h.rooms.JoinRoom(r.Context(), user.ID, roomID); err != nil {
		writeRoomError(w, err, "join room")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleLeave removes the caller from a room. A sole-member owner leaving
// deletes the room.
// POST /api/rooms/{id}/leave
func (h *RoomHandler) HandleLeave(w http.ResponseWriter, r *http.Request) {
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

	if err := h.rooms.LeaveRoom(r.Context(), user.ID, roomID); err != nil {
		writeRoomError(w, err, "leave room")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleInvitePreview returns a room preview for an invite code. No
// authentication or membership is required.
// GET /api/invites/{code}
func (h *RoomHandler) HandleInvitePreview(w http.ResponseWriter, r *http.Request) {
	info, err := h.rooms.GetRoomByInviteCode(r.Context(), r.PathValue("code"))
	if err != nil {
		writeRoomError(w, err, "preview invite")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"room": toRoomInfoDTO(info)})
}

// HandleInviteJoin joins the caller to the room behind an invite code.
// POST /api/invites/{code}/join
func (h *RoomHandler) HandleInviteJoin(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized.")
		return
	}

	info, err := h.rooms.GetRoomByInviteCode(r.Context(), r.PathValue("code"))
	if err != nil {
		writeRoomError(w, err, "resolve invite")
		return
	}

	if err := h.rooms.JoinRoom(r.Context(), user.ID, info.ID); err != nil {
		writeRoomError(w, err, "join room by invite")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeRoomError maps domain errors from room operations to HTTP statuses.
func writeRoomError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "Room not found.")
	case errors.Is(err, domain.ErrNotAMember):
		writeError(w, http.StatusForbidden, "You are not a member of this room.")
	case errors.Is(err, domain.ErrAlreadyMember):
		writeError(w, http.StatusConflict, "You are already a member of this room.")
	case errors.Is(err, domain.ErrOwnerCannotLeave):
		writeError(w, http.StatusConflict, "Transfer or empty the room before leaving; owners cannot leave a room that still has members.")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}
