package handler

import (
	"net/http"

	"github.com/mkrale/grindstone/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(
	mux *http.ServeMux,
	auth *service.AuthService,
	rooms *service.RoomService,
	leaderboards *service.LeaderboardService,
	sessions *service.SessionService,
	cookieSecure bool,
) {
	authHandler := NewAuthHandler(auth, cookieSecure)
	roomHandler := NewRoomHandler(rooms)
	leaderboardHandler := NewLeaderboardHandler(leaderboards, rooms)
	sessionHandler := NewSessionHandler(sessions)

	mux.HandleFunc("GET /healthz", HandleHealthz)
	mux.Handle("GET /metrics", HandleMetrics())

	mux.HandleFunc("POST /api/auth/register", authHandler.HandleRegister)
	mux.HandleFunc("POST /api/auth/login", authHandler.HandleLogin)
	mux.HandleFunc("POST /api/auth/logout", authHandler.HandleLogout)
	mux.Handle("GET /api/me", RequireAuth(auth, http.HandlerFunc(authHandler.HandleMe)))

	mux.Handle("GET /api/rooms", RequireAuth(auth, http.HandlerFunc(roomHandler.HandleList)))
	mux.Handle("POST /api/rooms", RequireAuth(auth, http.HandlerFunc(roomHandler.HandleCreate)))
	mux.Handle("GET /api/rooms/{id}", RequireAuth(auth, http.HandlerFunc(roomHandler.HandleGet)))
	mux.Handle("GET /api/rooms/{id}/members", RequireAuth(auth, http.HandlerFunc(roomHandler.HandleMembers)))
	mux.Handle("POST /api/rooms/{id}/join", RequireAuth(auth, http.HandlerFunc(roomHandler.HandleJoin)))
	mux.Handle("POST /api/rooms/{id}/leave", RequireAuth(auth, http.HandlerFunc(roomHandler.HandleLeave)))
	mux.Handle("GET /api/rooms/{id}/leaderboard", RequireAuth(auth, http.HandlerFunc(leaderboardHandler.HandleGet)))

	// Invite previews are reachable without an account.
	mux.HandleFunc("GET /api/invites/{code}", roomHandler.HandleInvitePreview)
	mux.Handle("POST /api/invites/{code}/join", RequireAuth(auth, http.HandlerFunc(roomHandler.HandleInviteJoin)))

	mux.Handle("POST /api/sessions", RequireAuth(auth, http.HandlerFunc(sessionHandler.HandleRecord)))
	mux.Handle("GET /api/sessions", RequireAuth(auth, http.HandlerFunc(sessionHandler.HandleList)))
	mux.Handle("GET /api/stats", RequireAuth(auth, http.HandlerFunc(sessionHandler.HandleStats)))
}
