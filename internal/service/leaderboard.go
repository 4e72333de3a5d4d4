package service

import (
	"context"
	"sort"
	"time"

	"github.com/mkrale/grindstone/internal/domain"
)

// LeaderboardService computes a ranked, period-filtered view of member
// activity for a room. It reads only session rows; no state is persisted.
type LeaderboardService struct {
	sessions domain.SessionRepository
}

// NewLeaderboardService creates a new LeaderboardService.
func NewLeaderboardService(sessions domain.SessionRepository) *LeaderboardService {
	return &LeaderboardService{sessions: sessions}
}

// Compute returns the leaderboard for a room over the given period: one
// entry per user with at least one qualifying session, ordered by total
// time descending with last-activity as the tie break, ranked 1..N with no
// gaps or shared ranks.
func (s *LeaderboardService) Compute(ctx context.Context, roomID int64, period domain.Period) ([]domain.LeaderboardEntry, error) {
	start, end := period.Window(time.Now().UTC())

	sessions, err := s.sessions.ListByRoomWithin(ctx, roomID, start, end)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return []domain.LeaderboardEntry{}, nil
	}

	byUser := make(map[int64]*domain.LeaderboardEntry)
	for _, sess := range sessions {
		e, ok := byUser[sess.UserID]
		if !ok {
			e = &domain.LeaderboardEntry{
				UserID:      sess.UserID,
				DisplayName: sess.DisplayName,
				AvatarURL:   sess.AvatarURL,
				RoomID:      roomID,
			}
			byUser[sess.UserID] = e
		}
		e.TotalSeconds += sess.DurationSeconds
		if sess.StartedAt.After(e.LastActiveAt) {
			e.LastActiveAt = sess.StartedAt
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(byUser))
	for _, e := range byUser {
		entries = append(entries, *e)
	}

	// Total order: time desc, then last activity desc, then user id. The
	// final key never decides in practice (one entry per user), but keeps
	// the ordering independent of map iteration order.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalSeconds != entries[j].TotalSeconds {
			return entries[i].TotalSeconds > entries[j].TotalSeconds
		}
		if !entries[i].LastActiveAt.Equal(entries[j].LastActiveAt) {
			return entries[i].LastActiveAt.After(entries[j].LastActiveAt)
		}
		return entries[i].UserID < entries[j].UserID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
