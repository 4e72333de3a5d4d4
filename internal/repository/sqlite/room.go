package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkrale/grindstone/internal/domain"
)

// RoomRepository implements domain.RoomRepository using SQLite.
type RoomRepository struct {
	db *sql.DB
}

// NewRoomRepository creates a new SQLite-backed RoomRepository.
func NewRoomRepository(db *DB) *RoomRepository {
	return &RoomRepository{db: db.SqlDB}
}

// CreateWithOwner inserts the room row and the owner membership row in a
// single transaction. A failure in either step rolls back both, so an
// orphaned room can never leak; the error still identifies the failed step.
func (r *RoomRepository) CreateWithOwner(ctx context.Context, room *domain.Room, ownerID int64) error {
	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO rooms (name, description, invite_code, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		room.Name, room.Description, room.InviteCode, ownerID, now,
	)
	if err != nil {
		return fmt.Errorf("%w: insert room: %v", domain.ErrRoomCreationFailed, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("%w: get room id: %v", domain.ErrRoomCreationFailed, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO room_memberships (room_id, user_id, role, joined_at)
		 VALUES (?, ?, ?, ?)`,
		id, ownerID, domain.RoleOwner, now,
	); err != nil {
		return fmt.Errorf("%w: insert owner membership: %v", domain.ErrMembershipCreationFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit room creation: %w", err)
	}

	room.ID = id
	room.CreatedBy = ownerID
	room.CreatedAt = now
	return nil
}

func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	room := &domain.Room{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, invite_code, created_by, created_at
		 FROM rooms WHERE id = ?`, id,
	).Scan(&room.ID, &room.Name, &room.Description, &room.InviteCode, &room.CreatedBy, &room.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, fmt.Errorf("query room by id: %w", err)
	}
	return room, nil
}

func (r *RoomRepository) GetByInviteCode(ctx context.Context, code string) (*domain.Room, error) {
	room := &domain.Room{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, invite_code, created_by, created_at
		 FROM rooms WHERE invite_code = ?`, code,
	).Scan(&room.ID, &room.Name, &room.Description, &room.InviteCode, &room.CreatedBy, &room.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, fmt.Errorf("query room by invite code: %w", err)
	}
	return room, nil
}

// DeleteIfSoleMember deletes the room only while the given owner is its sole
// remaining member. The count and the delete run in one transaction, so a
// concurrent join cannot slip in between the decision and the deletion.
// Membership rows go away through the ON DELETE CASCADE on room_id.
func (r *RoomRepository) DeleteIfSoleMember(ctx context.Context, roomID, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM room_memberships WHERE room_id = ?", roomID,
	).Scan(&count); err != nil {
		return fmt.Errorf("count memberships: %w", err)
	}
	if count > 1 {
		return domain.ErrOwnerCannotLeave
	}

	result, err := tx.ExecContext(ctx,
		"DELETE FROM rooms WHERE id = ? AND created_by = ?", roomID, userID)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrRoomNotFound
	}

	return tx.Commit()
}
