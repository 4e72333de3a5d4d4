package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/mkrale/grindstone/internal/handler"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	auth, rooms, leaderboards, sessions := newTestServices(t)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, auth, rooms, leaderboards, sessions, false)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("create cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// registerAndLogin creates an account and logs the client in, leaving the
// auth cookie in its jar.
func registerAndLogin(t *testing.T, client *http.Client, srvURL, email string) {
	t.Helper()
	resp := postJSON(t, client, srvURL+"/api/auth/register", map[string]string{
		"email":           email,
		"displayName":     "User " + email,
		"password":        "password123",
		"confirmPassword": "password123",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d", email, resp.StatusCode)
	}

	resp = postJSON(t, client, srvURL+"/api/auth/login", map[string]string{
		"email":    email,
		"password": "password123",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d", email, resp.StatusCode)
	}
}

func createRoom(t *testing.T, client *http.Client, srvURL, name string) (id int64, inviteCode string) {
	t.Helper()
	resp := postJSON(t, client, srvURL+"/api/rooms", map[string]string{
		"name":        name,
		"description": "integration test room",
	})
	if resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		t.Fatalf("create room: expected 201, got %d", resp.StatusCode)
	}
	var body struct {
		Room struct {
			ID         int64  `json:"id"`
			InviteCode string `json:"inviteCode"`
		} `json:"room"`
	}
	decodeJSON(t, resp, &body)
	return body.Room.ID, body.Room.InviteCode
}

func TestIntegration_RegisterLoginMeLogout(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	registerAndLogin(t, client, srv.URL, "integ@example.com")

	// The auth cookie should have landed in the jar.
	srvURL, _ := url.Parse(srv.URL)
	var hasAuthToken bool
	for _, c := range client.Jar.Cookies(srvURL) {
		if c.Name == "auth_token" {
			hasAuthToken = true
		}
	}
	if !hasAuthToken {
		t.Fatal("expected auth_token cookie to be set after login")
	}

	resp, err := client.Get(srv.URL + "/api/me")
	if err != nil {
		t.Fatalf("GET /api/me: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("me: expected 200, got %d", resp.StatusCode)
	}
	var me struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	decodeJSON(t, resp, &me)
	if me.User.Email != "integ@example.com" {
		t.Fatalf("expected email integ@example.com, got %s", me.User.Email)
	}

	resp = postJSON(t, client, srv.URL+"/api/auth/logout", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", resp.StatusCode)
	}

	// The cleared cookie means /api/me is now unauthorized.
	resp, err = client.Get(srv.URL + "/api/me")
	if err != nil {
		t.Fatalf("GET /api/me after logout: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", resp.StatusCode)
	}
}

func TestIntegration_Unauthenticated(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/rooms", "/api/sessions", "/api/stats", "/api/me"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("GET %s: expected 401, got %d", path, resp.StatusCode)
		}
	}
}

func TestIntegration_RoomLifecycle(t *testing.T) {
	srv := newTestServer(t)
	owner := newClient(t)
	member := newClient(t)

	registerAndLogin(t, owner, srv.URL, "owner@example.com")
	registerAndLogin(t, member, srv.URL, "member@example.com")

	roomID, _ := createRoom(t, owner, srv.URL, "Focus Room")
	roomPath := fmt.Sprintf("%s/api/rooms/%d", srv.URL, roomID)

	// A non-member cannot see room details or members.
	resp, err := member.Get(roomPath)
	if err != nil {
		t.Fatalf("GET room as non-member: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-member, got %d", resp.StatusCode)
	}

	// Join.
	resp = postJSON(t, member, roomPath+"/join", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("join: expected 204, got %d", resp.StatusCode)
	}

	// Joining again conflicts.
	resp = postJSON(t, member, roomPath+"/join", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("rejoin: expected 409, got %d", resp.StatusCode)
	}

	// Both members appear in the member list.
	resp, err = member.Get(roomPath + "/members")
	if err != nil {
		t.Fatalf("GET members: %v", err)
	}
	var membersBody struct {
		Members []struct {
			Role string `json:"role"`
		} `json:"members"`
	}
	decodeJSON(t, resp, &membersBody)
	if len(membersBody.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(membersBody.Members))
	}
	if membersBody.Members[0].Role != "owner" {
		t.Fatalf("expected the creator listed first as owner, got %s", membersBody.Members[0].Role)
	}

	// The owner cannot leave while the room has other members.
	resp = postJSON(t, owner, roomPath+"/leave", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("owner leave with members: expected 409, got %d", resp.StatusCode)
	}

	// The member leaves, then the sole owner leaves and the room is gone.
	resp = postJSON(t, member, roomPath+"/leave", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("member leave: expected 204, got %d", resp.StatusCode)
	}

	resp = postJSON(t, owner, roomPath+"/leave", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("owner leave: expected 204, got %d", resp.StatusCode)
	}

	resp, err = owner.Get(roomPath)
	if err != nil {
		t.Fatalf("GET deleted room: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after deletion, got %d", resp.StatusCode)
	}
}

func TestIntegration_RoomValidation(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, client, srv.URL, "validate@example.com")

	resp := postJSON(t, client, srv.URL+"/api/rooms", map[string]string{
		"name": "   ",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("blank name: expected 422, got %d", resp.StatusCode)
	}
}

func TestIntegration_InviteFlow(t *testing.T) {
	srv := newTestServer(t)
	owner := newClient(t)
	joiner := newClient(t)

	registerAndLogin(t, owner, srv.URL, "owner@example.com")
	registerAndLogin(t, joiner, srv.URL, "joiner@example.com")

	_, code := createRoom(t, owner, srv.URL, "Invite Room")
	if code == "" {
		t.Fatal("expected a non-empty invite code")
	}

	// The preview is public and must not leak the invite code.
	resp, err := http.Get(srv.URL + "/api/invites/" + code)
	if err != nil {
		t.Fatalf("GET invite preview: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("preview: expected 200, got %d", resp.StatusCode)
	}
	var preview struct {
		Room map[string]any `json:"room"`
	}
	decodeJSON(t, resp, &preview)
	if preview.Room["name"] != "Invite Room" {
		t.Fatalf("expected room name in preview, got %v", preview.Room["name"])
	}
	if _, leaked := preview.Room["inviteCode"]; leaked {
		t.Fatal("invite preview must not include the invite code")
	}
	if preview.Room["memberCount"] != float64(1) {
		t.Fatalf("expected member count 1, got %v", preview.Room["memberCount"])
	}

	// Joining through the code works once.
	resp = postJSON(t, joiner, srv.URL+"/api/invites/"+code+"/join", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("invite join: expected 204, got %d", resp.StatusCode)
	}

	// An unknown code is a 404.
	resp, err = http.Get(srv.URL + "/api/invites/bogus-code")
	if err != nil {
		t.Fatalf("GET bogus invite: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("bogus invite: expected 404, got %d", resp.StatusCode)
	}
}

func TestIntegration_SessionsAndLeaderboard(t *testing.T) {
	srv := newTestServer(t)
	alice := newClient(t)
	bob := newClient(t)
	outsider := newClient(t)

	registerAndLogin(t, alice, srv.URL, "alice@example.com")
	registerAndLogin(t, bob, srv.URL, "bob@example.com")
	registerAndLogin(t, outsider, srv.URL, "outsider@example.com")

	roomID, _ := createRoom(t, alice, srv.URL, "Grind Room")
	roomPath := fmt.Sprintf("%s/api/rooms/%d", srv.URL, roomID)

	resp := postJSON(t, bob, roomPath+"/join", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("join: expected 204, got %d", resp.StatusCode)
	}

	now := time.Now().UTC()
	record := func(client *http.Client, startedAt time.Time, seconds int64) *http.Response {
		return postJSON(t, client, srv.URL+"/api/sessions", map[string]any{
			"startedAt":       startedAt.Format(time.RFC3339),
			"durationSeconds": seconds,
			"roomId":          roomID,
		})
	}

	// Alice 5400s total, Bob 7200s.
	resp = record(alice, now.Add(-3*time.Hour), 3600)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("record: expected 201, got %d", resp.StatusCode)
	}
	resp = record(alice, now.Add(-time.Hour), 1800)
	resp.Body.Close()
	resp = record(bob, now.Add(-2*time.Hour), 7200)
	resp.Body.Close()

	// An outsider cannot tag the room.
	resp = record(outsider, now.Add(-time.Hour), 600)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("outsider record: expected 403, got %d", resp.StatusCode)
	}

	// Nor read its leaderboard.
	resp, err := outsider.Get(roomPath + "/leaderboard?period=week")
	if err != nil {
		t.Fatalf("GET leaderboard as outsider: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("outsider leaderboard: expected 403, got %d", resp.StatusCode)
	}

	resp, err = alice.Get(roomPath + "/leaderboard?period=week")
	if err != nil {
		t.Fatalf("GET leaderboard: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("leaderboard: expected 200, got %d", resp.StatusCode)
	}
	var lb struct {
		Leaderboard []struct {
			DisplayName  string `json:"displayName"`
			TotalSeconds int64  `json:"totalSeconds"`
			Rank         int    `json:"rank"`
		} `json:"leaderboard"`
	}
	decodeJSON(t, resp, &lb)
	if len(lb.Leaderboard) != 2 {
		t.Fatalf("expected 2 leaderboard entries, got %d", len(lb.Leaderboard))
	}
	if lb.Leaderboard[0].TotalSeconds != 7200 || lb.Leaderboard[0].Rank != 1 {
		t.Fatalf("expected 7200s at rank 1, got %+v", lb.Leaderboard[0])
	}
	if lb.Leaderboard[1].TotalSeconds != 5400 || lb.Leaderboard[1].Rank != 2 {
		t.Fatalf("expected 5400s at rank 2, got %+v", lb.Leaderboard[1])
	}

	// Personal stats reflect the recorded sessions.
	resp, err = alice.Get(srv.URL + "/api/stats")
	if err != nil {
		t.Fatalf("GET /api/stats: %v", err)
	}
	var statsBody struct {
		Stats struct {
			TotalSeconds  int64 `json:"totalSeconds"`
			TotalSessions int   `json:"totalSessions"`
		} `json:"stats"`
	}
	decodeJSON(t, resp, &statsBody)
	if statsBody.Stats.TotalSessions != 2 || statsBody.Stats.TotalSeconds != 5400 {
		t.Fatalf("expected 2 sessions and 5400s, got %+v", statsBody.Stats)
	}
}

func TestIntegration_SessionValidation(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, client, srv.URL, "sessions@example.com")

	// Bad timestamp.
	resp := postJSON(t, client, srv.URL+"/api/sessions", map[string]any{
		"startedAt":       "yesterday",
		"durationSeconds": 600,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("bad timestamp: expected 422, got %d", resp.StatusCode)
	}

	// Non-positive duration.
	resp = postJSON(t, client, srv.URL+"/api/sessions", map[string]any{
		"startedAt":       time.Now().UTC().Format(time.RFC3339),
		"durationSeconds": 0,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("zero duration: expected 422, got %d", resp.StatusCode)
	}
}
