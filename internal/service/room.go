package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mkrale/grindstone/internal/domain"
)

// RoomService owns the room entity and the membership state machine, and
// computes per-room statistics from session rows.
type RoomService struct {
	rooms       domain.RoomRepository
	memberships domain.MembershipRepository
	sessions    domain.SessionRepository
}

// NewRoomService creates a new RoomService.
func NewRoomService(rooms domain.RoomRepository, memberships domain.MembershipRepository, sessions domain.SessionRepository) *RoomService {
	return &RoomService{rooms: rooms, memberships: memberships, sessions: sessions}
}

// IsMember reports whether a membership exists for the (user, room) pair.
func (s *RoomService) IsMember(ctx context.Context, userID, roomID int64) (bool, error) {
	_, err := s.memberships.Get(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get membership: %w", err)
	}
	return true, nil
}

// CreateRoom creates a room owned by the given user. The room row and the
// owner membership are written as one transactional unit. Name and
// description shape validation is the caller's responsibility; the service
// trusts already-validated input.
func (s *RoomService) CreateRoom(ctx context.Context, userID int64, name, description string) (*domain.Room, error) {
	room := &domain.Room{
		Name:        name,
		Description: description,
		InviteCode:  uuid.NewString(),
	}

	if err := s.rooms.CreateWithOwner(ctx, room, userID); err != nil {
		return nil, err
	}

	return room, nil
}

// JoinRoom adds the user to a room with the member role. Existence is
// checked before membership, so a nonexistent room always reports
// ErrRoomNotFound rather than ErrAlreadyMember.
func (s *RoomService) JoinRoom(ctx context.Context, userID, roomID int64) error {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return err
	}

	member, err := s.IsMember(ctx, userID, roomID)
	if err != nil {
		return err
	}
	if member {
		return domain.ErrAlreadyMember
	}

	// The unique membership key is the backstop for the race between the
	// check above and this insert; the repository maps a constraint
	// violation to ErrAlreadyMember.
	m := &domain.Membership{RoomID: roomID, UserID: userID, Role: domain.RoleMember}
	if err := s.memberships.Create(ctx, m); err != nil {
		return err
	}
	return nil
}

// LeaveRoom removes the caller's membership. An owner may only leave once
// they are the sole remaining member, which deletes the room (memberships
// cascade with it). Ownership transfer is not supported.
func (s *RoomService) LeaveRoom(ctx context.Context, userID, roomID int64) error {
	m, err := s.memberships.Get(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotAMember
		}
		return fmt.Errorf("get membership: %w", err)
	}

	if m.Role == domain.RoleOwner {
		return s.rooms.DeleteIfSoleMember(ctx, roomID, userID)
	}

	if err := s.memberships.Delete(ctx, roomID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotAMember
		}
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

// GetRoomMembers returns all memberships for a room joined with profile
// data, oldest join first.
func (s *RoomService) GetRoomMembers(ctx context.Context, roomID int64) ([]domain.Member, error) {
	return s.memberships.ListByRoom(ctx, roomID)
}

// GetBasicRoomInfo returns a room with its member count. Used to preview a
// room to non-members, so no membership check is performed.
func (s *RoomService) GetBasicRoomInfo(ctx context.Context, roomID int64) (*domain.RoomInfo, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return s.infoFor(ctx, room)
}

// GetRoomByInviteCode resolves an invite code to the same preview shape as
// GetBasicRoomInfo.
func (s *RoomService) GetRoomByInviteCode(ctx context.Context, code string) (*domain.RoomInfo, error) {
	room, err := s.rooms.GetByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.infoFor(ctx, room)
}

func (s *RoomService) infoFor(ctx context.Context, room *domain.Room) (*domain.RoomInfo, error) {
	count, err := s.memberships.CountByRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	return &domain.RoomInfo{Room: *room, MemberCount: count}, nil
}

// GetUserRooms returns all rooms the user belongs to, each enriched with
// members and stats.
func (s *RoomService) GetUserRooms(ctx context.Context, userID int64) ([]domain.RoomDetails, error) {
	roomIDs, err := s.memberships.ListRoomIDsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	details := make([]domain.RoomDetails, 0, len(roomIDs))
	for _, roomID := range roomIDs {
		d, err := s.roomDetails(ctx, roomID, userID)
		if err != nil {
			return nil, fmt.Errorf("room %d details: %w", roomID, err)
		}
		details = append(details, *d)
	}
	return details, nil
}

// GetRoomDetails returns a single room enriched with members and stats.
// Existence and membership are verified first, so detail computation never
// runs for a nonexistent or unauthorized room.
func (s *RoomService) GetRoomDetails(ctx context.Context, roomID, userID int64) (*domain.RoomDetails, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, err
	}
	if _, err := s.memberships.Get(ctx, roomID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotAMember
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}

	return s.roomDetails(ctx, roomID, userID)
}

func (s *RoomService) roomDetails(ctx context.Context, roomID, userID int64) (*domain.RoomDetails, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	members, err := s.memberships.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	stats, err := s.roomStats(ctx, members)
	if err != nil {
		return nil, err
	}

	d := &domain.RoomDetails{
		Room:    *room,
		Members: members,
		Stats:   stats,
	}
	for _, m := range members {
		if m.UserID == userID {
			d.Role = m.Role
			break
		}
	}
	return d, nil
}

// roomStats aggregates over all sessions belonging to the room's current
// members, regardless of which room (if any) each session was tagged to.
func (s *RoomService) roomStats(ctx context.Context, members []domain.Member) (domain.RoomStats, error) {
	memberIDs := make([]int64, len(members))
	for i, m := range members {
		memberIDs[i] = m.UserID
	}

	sessions, err := s.sessions.ListByUsers(ctx, memberIDs)
	if err != nil {
		return domain.RoomStats{}, err
	}

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var totalSeconds int64
	activeToday := make(map[int64]struct{})
	for _, sess := range sessions {
		totalSeconds += sess.DurationSeconds
		if !sess.StartedAt.Before(midnight) {
			activeToday[sess.UserID] = struct{}{}
		}
	}

	stats := domain.RoomStats{
		TotalHours:    float64(totalSeconds) / 3600,
		TotalSessions: len(sessions),
		ActiveToday:   len(activeToday),
	}
	if len(members) > 0 {
		stats.AvgHoursPerMember = stats.TotalHours / float64(len(members))
	}
	return stats, nil
}
