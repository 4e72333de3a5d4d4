package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mkrale/grindstone/internal/domain"
)

// maxSessionSeconds rejects obviously bogus timer submissions.
const maxSessionSeconds = 24 * 60 * 60

// SessionService accepts finished session records from the client-side
// timer and computes per-user statistics. Sessions are append-only; the
// room and leaderboard core only ever reads them.
type SessionService struct {
	sessions    domain.SessionRepository
	memberships domain.MembershipRepository
}

// NewSessionService creates a new SessionService.
func NewSessionService(sessions domain.SessionRepository, memberships domain.MembershipRepository) *SessionService {
	return &SessionService{sessions: sessions, memberships: memberships}
}

// Record validates and appends a finished session. A session tagged to a
// room requires the caller to be a member of that room.
func (s *SessionService) Record(ctx context.Context, userID int64, startedAt time.Time, endedAt *time.Time, durationSeconds int64, roomID *int64) (*domain.Session, error) {
	if startedAt.IsZero() {
		return nil, fmt.Errorf("%w: startedAt is required", domain.ErrInvalidInput)
	}
	if durationSeconds <= 0 {
		return nil, fmt.Errorf("%w: durationSeconds must be positive", domain.ErrInvalidInput)
	}
	if durationSeconds > maxSessionSeconds {
		return nil, fmt.Errorf("%w: durationSeconds exceeds 24 hours", domain.ErrInvalidInput)
	}
	if endedAt != nil && endedAt.Before(startedAt) {
		return nil, fmt.Errorf("%w: endedAt precedes startedAt", domain.ErrInvalidInput)
	}

	if roomID != nil {
		if _, err := s.memberships.Get(ctx, *roomID, userID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotAMember
			}
			return nil, fmt.Errorf("get membership: %w", err)
		}
	}

	session := &domain.Session{
		UserID:          userID,
		RoomID:          roomID,
		StartedAt:       startedAt.UTC(),
		DurationSeconds: durationSeconds,
	}
	if endedAt != nil {
		t := endedAt.UTC()
		session.EndedAt = &t
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// ListByUser returns the caller's sessions, newest first.
func (s *SessionService) ListByUser(ctx context.Context, userID int64) ([]domain.Session, error) {
	return s.sessions.ListByUser(ctx, userID)
}

// UserStats are per-user aggregates over the user's own sessions.
type UserStats struct {
	TotalSeconds  int64
	TotalSessions int
	SessionsToday int
	CurrentStreak int
	LongestStreak int
}

// Stats computes the caller's personal statistics, including calendar-day
// streaks. Streaks live here on purpose; the leaderboard does not use them.
func (s *SessionService) Stats(ctx context.Context, userID int64) (UserStats, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return UserStats{}, err
	}

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	stats := UserStats{TotalSessions: len(sessions)}
	for _, sess := range sessions {
		stats.TotalSeconds += sess.DurationSeconds
		if !sess.StartedAt.Before(midnight) {
			stats.SessionsToday++
		}
	}
	stats.CurrentStreak = CurrentStreak(sessions, now)
	stats.LongestStreak = LongestStreak(sessions)
	return stats, nil
}

// CurrentStreak returns the length of the run of consecutive calendar days
// with at least one session, ending today or yesterday (a streak is not
// broken until a full day passes without a session).
func CurrentStreak(sessions []domain.Session, now time.Time) int {
	days := sessionDays(sessions)
	if len(days) == 0 {
		return 0
	}

	day := dateOf(now)
	if !days[day] {
		day = day.AddDate(0, 0, -1)
		if !days[day] {
			return 0
		}
	}

	streak := 0
	for days[day] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// LongestStreak returns the longest run of consecutive calendar days with
// at least one session.
func LongestStreak(sessions []domain.Session) int {
	days := sessionDays(sessions)
	if len(days) == 0 {
		return 0
	}

	sorted := make([]time.Time, 0, len(days))
	for day := range days {
		sorted = append(sorted, day)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Sub(sorted[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// sessionDays collects the distinct UTC calendar days that have a session.
func sessionDays(sessions []domain.Session) map[time.Time]bool {
	days := make(map[time.Time]bool, len(sessions))
	for _, s := range sessions {
		days[dateOf(s.StartedAt)] = true
	}
	return days
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
