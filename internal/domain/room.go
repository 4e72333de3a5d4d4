package domain

import (
	"context"
	"time"
)

// Role is the closed set of membership roles. "admin" is reserved for a
// future permission model and carries no differentiated behavior yet.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Room is a named group users join to share a leaderboard.
type Room struct {
	ID          int64
	Name        string
	Description string
	InviteCode  string
	CreatedBy   int64
	CreatedAt   time.Time
}

// Membership binds a user to a room with a role. Exactly one membership
// exists per (room, user) pair, and every existing room has exactly one
// owner membership.
type Membership struct {
	RoomID   int64
	UserID   int64
	Role     Role
	JoinedAt time.Time
}

// Member is a room membership joined with the member's profile.
type Member struct {
	Membership
	DisplayName string
	AvatarURL   *string
}

// RoomStats are derived on demand from the sessions of a room's current
// members; they are never persisted.
type RoomStats struct {
	TotalHours        float64
	TotalSessions     int
	ActiveToday       int
	AvgHoursPerMember float64
}

// RoomInfo is a room enriched with its member count, used to preview a
// room to non-members (e.g. through an invite link).
type RoomInfo struct {
	Room
	MemberCount int
}

// RoomDetails is a room enriched with the caller's role, its members, and
// derived statistics.
type RoomDetails struct {
	Room
	Role    Role
	Members []Member
	Stats   RoomStats
}

// RoomRepository defines persistence operations for rooms. CreateWithOwner
// and DeleteIfSoleMember are transactional: the former inserts the room row
// and the owner membership row as one unit, the latter deletes the room only
// while the owner is the sole remaining member (memberships cascade).
type RoomRepository interface {
	CreateWithOwner(ctx context.Context, room *Room, ownerID int64) error
	GetByID(ctx context.Context, id int64) (*Room, error)
	GetByInviteCode(ctx context.Context, code string) (*Room, error)
	DeleteIfSoleMember(ctx context.Context, roomID, userID int64) error
}

// MembershipRepository defines persistence operations for room memberships.
// The (room_id, user_id) primary key is the correctness backstop for
// concurrent joins; Create maps a constraint violation to ErrAlreadyMember.
type MembershipRepository interface {
	Create(ctx context.Context, m *Membership) error
	Get(ctx context.Context, roomID, userID int64) (*Membership, error)
	Delete(ctx context.Context, roomID, userID int64) error
	ListByRoom(ctx context.Context, roomID int64) ([]Member, error)
	ListRoomIDsByUser(ctx context.Context, userID int64) ([]int64, error)
	CountByRoom(ctx context.Context, roomID int64) (int, error)
}
