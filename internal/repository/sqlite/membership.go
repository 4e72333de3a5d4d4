package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkrale/grindstone/internal/domain"
)

// MembershipRepository implements domain.MembershipRepository using SQLite.
type MembershipRepository struct {
	db *sql.DB
}

// NewMembershipRepository creates a new SQLite-backed MembershipRepository.
func NewMembershipRepository(db *DB) *MembershipRepository {
	return &MembershipRepository{db: db.SqlDB}
}

// Create inserts a membership row. The (room_id, user_id) primary key is the
// backstop against concurrent duplicate joins; a constraint violation maps
// to ErrAlreadyMember.
func (r *MembershipRepository) Create(ctx context.Context, m *domain.Membership) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO room_memberships (room_id, user_id, role, joined_at)
		 VALUES (?, ?, ?, ?)`,
		m.RoomID, m.UserID, m.Role, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrAlreadyMember
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	m.JoinedAt = now
	return nil
}

func (r *MembershipRepository) Get(ctx context.Context, roomID, userID int64) (*domain.Membership, error) {
	m := &domain.Membership{}
	err := r.db.QueryRowContext(ctx,
		`SELECT room_id, user_id, role, joined_at
		 FROM room_memberships WHERE room_id = ? AND user_id = ?`, roomID, userID,
	).Scan(&m.RoomID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query membership: %w", err)
	}
	return m, nil
}

func (r *MembershipRepository) Delete(ctx context.Context, roomID, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM room_memberships WHERE room_id = ? AND user_id = ?", roomID, userID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByRoom returns all memberships for a room joined with profile data,
// oldest join first.
func (r *MembershipRepository) ListByRoom(ctx context.Context, roomID int64) ([]domain.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.room_id, m.user_id, m.role, m.joined_at, u.display_name, u.avatar_url
		 FROM room_memberships m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.room_id = ?
		 ORDER BY m.joined_at ASC, m.user_id ASC`, roomID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.RoomID, &m.UserID, &m.Role, &m.JoinedAt, &m.DisplayName, &m.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListRoomIDsByUser returns the ids of all rooms the user belongs to,
// oldest membership first.
func (r *MembershipRepository) ListRoomIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT room_id FROM room_memberships WHERE user_id = ? ORDER BY joined_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list room ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan room id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *MembershipRepository) CountByRoom(ctx context.Context, roomID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM room_memberships WHERE room_id = ?", roomID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count memberships: %w", err)
	}
	return count, nil
}
