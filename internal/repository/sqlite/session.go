package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mkrale/grindstone/internal/domain"
)

// SessionRepository implements domain.SessionRepository using SQLite.
// Sessions are append-only; there is no update or delete.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SQLite-backed SessionRepository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db.SqlDB}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, room_id, started_at, ended_at, duration_seconds, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.UserID, s.RoomID, s.StartedAt, s.EndedAt, s.DurationSeconds, now,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get session id: %w", err)
	}

	s.ID = id
	s.CreatedAt = now
	return nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, room_id, started_at, ended_at, duration_seconds, created_at
		 FROM sessions WHERE user_id = ?
		 ORDER BY started_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions by user: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// ListByUsers returns all sessions belonging to any of the given users,
// regardless of the room tag. Room statistics aggregate over these.
func (r *SessionRepository) ListByUsers(ctx context.Context, userIDs []int64) ([]domain.Session, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(userIDs)-1) + "?"
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, room_id, started_at, ended_at, duration_seconds, created_at
		 FROM sessions WHERE user_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions by users: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// ListByRoomWithin returns the sessions tagged to a room whose start time
// falls inside [start, end), joined with the owning user's profile.
func (r *SessionRepository) ListByRoomWithin(ctx context.Context, roomID int64, start, end time.Time) ([]domain.RoomSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.id, s.user_id, s.room_id, s.started_at, s.ended_at, s.duration_seconds, s.created_at,
		        u.display_name, u.avatar_url
		 FROM sessions s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.room_id = ? AND s.started_at >= ? AND s.started_at < ?`,
		roomID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list sessions by room: %w", err)
	}
	defer rows.Close()

	var sessions []domain.RoomSession
	for rows.Next() {
		var s domain.RoomSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.RoomID, &s.StartedAt, &s.EndedAt,
			&s.DurationSeconds, &s.CreatedAt, &s.DisplayName, &s.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan room session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func scanSessions(rows *sql.Rows) ([]domain.Session, error) {
	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.RoomID, &s.StartedAt, &s.EndedAt,
			&s.DurationSeconds, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
