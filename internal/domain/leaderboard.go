package domain

import "time"

// Period selects the time window a leaderboard is computed over.
type Period string

const (
	PeriodDay     Period = "day"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodAllTime Period = "all-time"
)

// Window resolves the period to a [start, end) range anchored at now.
// Day is midnight-to-now; week and month are rolling windows, not calendar
// ones. An unrecognized period falls back to the week window on purpose.
func (p Period) Window(now time.Time) (start, end time.Time) {
	switch p {
	case PeriodDay:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), now
	case PeriodMonth:
		return now.AddDate(0, 0, -30), now
	case PeriodAllTime:
		return time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC), now
	case PeriodWeek:
		fallthrough
	default:
		return now.AddDate(0, 0, -7), now
	}
}

// LeaderboardEntry is a per-user, per-period aggregate of session time with
// a computed rank. Derived on demand, never persisted.
//
// StreakDays is part of the shape but is not computed here; it stays zero
// until streaks get a product definition on the leaderboard.
type LeaderboardEntry struct {
	UserID       int64
	DisplayName  string
	AvatarURL    *string
	RoomID       int64
	TotalSeconds int64
	LastActiveAt time.Time
	StreakDays   int
	Rank         int
}
