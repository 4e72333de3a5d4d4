package domain

import (
	"context"
	"time"
)

// Session is a completed unit of tracked work, produced by the client-side
// timer and append-only from the backend's point of view.
type Session struct {
	ID              int64
	UserID          int64
	RoomID          *int64
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationSeconds int64
	CreatedAt       time.Time
}

// RoomSession is a session joined with its owner's profile, as fetched for
// leaderboard computation.
type RoomSession struct {
	Session
	DisplayName string
	AvatarURL   *string
}

// SessionRepository defines persistence operations for sessions.
type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	ListByUser(ctx context.Context, userID int64) ([]Session, error)
	// ListByUsers returns all sessions belonging to any of the given users,
	// regardless of room tag. Room statistics are computed over these.
	ListByUsers(ctx context.Context, userIDs []int64) ([]Session, error)
	// ListByRoomWithin returns the sessions tagged to a room whose start time
	// falls inside [start, end), joined with the owning user's profile.
	ListByRoomWithin(ctx context.Context, roomID int64, start, end time.Time) ([]RoomSession, error)
}
