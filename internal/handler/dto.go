package handler

import (
	"time"

	"github.com/mkrale/grindstone/internal/domain"
	"github.com/mkrale/grindstone/internal/service"
)

// UserDTO is the JSON representation of a user.
type UserDTO struct {
	ID          int64   `json:"id"`
	Email       string  `json:"email"`
	DisplayName string  `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl"`
	CreatedAt   string  `json:"createdAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
}

// RoomDTO is the JSON representation of a room.
type RoomDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	InviteCode  string `json:"inviteCode"`
	CreatedBy   int64  `json:"createdBy"`
	CreatedAt   string `json:"createdAt"`
}

func toRoomDTO(r *domain.Room) RoomDTO {
	return RoomDTO{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		InviteCode:  r.InviteCode,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
}

// RoomInfoDTO is the preview shape shown to non-members. The invite code is
// deliberately absent; a preview must not leak the ability to invite.
type RoomInfoDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MemberCount int    `json:"memberCount"`
	CreatedAt   string `json:"createdAt"`
}

func toRoomInfoDTO(info *domain.RoomInfo) RoomInfoDTO {
	return RoomInfoDTO{
		ID:          info.ID,
		Name:        info.Name,
		Description: info.Description,
		MemberCount: info.MemberCount,
		CreatedAt:   info.CreatedAt.Format(time.RFC3339),
	}
}

// MemberDTO is the JSON representation of a room member with profile data.
type MemberDTO struct {
	UserID      int64   `json:"userId"`
	DisplayName string  `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl"`
	Role        string  `json:"role"`
	JoinedAt    string  `json:"joinedAt"`
}

func toMemberDTO(m domain.Member) MemberDTO {
	return MemberDTO{
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		AvatarURL:   m.AvatarURL,
		Role:        string(m.Role),
		JoinedAt:    m.JoinedAt.Format(time.RFC3339),
	}
}

func toMemberDTOs(members []domain.Member) []MemberDTO {
	dtos := make([]MemberDTO, len(members))
	for i, m := range members {
		dtos[i] = toMemberDTO(m)
	}
	return dtos
}

// RoomStatsDTO is the JSON representation of derived room statistics.
type RoomStatsDTO struct {
	TotalHours        float64 `json:"totalHours"`
	TotalSessions     int     `json:"totalSessions"`
	ActiveToday       int     `json:"activeToday"`
	AvgHoursPerMember float64 `json:"avgHoursPerMember"`
}

func toRoomStatsDTO(s domain.RoomStats) RoomStatsDTO {
	return RoomStatsDTO{
		TotalHours:        s.TotalHours,
		TotalSessions:     s.TotalSessions,
		ActiveToday:       s.ActiveToday,
		AvgHoursPerMember: s.AvgHoursPerMember,
	}
}

// RoomDetailsDTO is a room enriched with the caller's role, members, and stats.
type RoomDetailsDTO struct {
	RoomDTO
	Role    string       `json:"role"`
	Members []MemberDTO  `json:"members"`
	Stats   RoomStatsDTO `json:"stats"`
}

func toRoomDetailsDTO(d *domain.RoomDetails) RoomDetailsDTO {
	return RoomDetailsDTO{
		RoomDTO: toRoomDTO(&d.Room),
		Role:    string(d.Role),
		Members: toMemberDTOs(d.Members),
		Stats:   toRoomStatsDTO(d.Stats),
	}
}

func toRoomDetailsDTOs(details []domain.RoomDetails) []RoomDetailsDTO {
	dtos := make([]RoomDetailsDTO, len(details))
	for i := range details {
		dtos[i] = toRoomDetailsDTO(&details[i])
	}
	return dtos
}

// SessionDTO is the JSON representation of a finished session.
type SessionDTO struct {
	ID              int64   `json:"id"`
	UserID          int64   `json:"userId"`
	RoomID          *int64  `json:"roomId"`
	StartedAt       string  `json:"startedAt"`
	EndedAt         *string `json:"endedAt"`
	DurationSeconds int64   `json:"durationSeconds"`
	CreatedAt       string  `json:"createdAt"`
}

func toSessionDTO(s *domain.Session) SessionDTO {
	dto := SessionDTO{
		ID:              s.ID,
		UserID:          s.UserID,
		RoomID:          s.RoomID,
		StartedAt:       s.StartedAt.Format(time.RFC3339),
		DurationSeconds: s.DurationSeconds,
		CreatedAt:       s.CreatedAt.Format(time.RFC3339),
	}
	if s.EndedAt != nil {
		t := s.EndedAt.Format(time.RFC3339)
		dto.EndedAt = &t
	}
	return dto
}

func toSessionDTOs(sessions []domain.Session) []SessionDTO {
	dtos := make([]SessionDTO, len(sessions))
	for i := range sessions {
		dtos[i] = toSessionDTO(&sessions[i])
	}
	return dtos
}

// LeaderboardEntryDTO is the JSON representation of a leaderboard entry.
type LeaderboardEntryDTO struct {
	UserID       int64   `json:"userId"`
	DisplayName  string  `json:"displayName"`
	AvatarURL    *string `json:"avatarUrl"`
	RoomID       int64   `json:"roomId"`
	TotalSeconds int64   `json:"totalSeconds"`
	LastActiveAt string  `json:"lastActiveAt"`
	StreakDays   int     `json:"streakDays"`
	Rank         int     `json:"rank"`
}

func toLeaderboardEntryDTOs(entries []domain.LeaderboardEntry) []LeaderboardEntryDTO {
	dtos := make([]LeaderboardEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = LeaderboardEntryDTO{
			UserID:       e.UserID,
			DisplayName:  e.DisplayName,
			AvatarURL:    e.AvatarURL,
			RoomID:       e.RoomID,
			TotalSeconds: e.TotalSeconds,
			LastActiveAt: e.LastActiveAt.Format(time.RFC3339),
			StreakDays:   e.StreakDays,
			Rank:         e.Rank,
		}
	}
	return dtos
}

// UserStatsDTO is the JSON representation of personal statistics.
type UserStatsDTO struct {
	TotalSeconds  int64 `json:"totalSeconds"`
	TotalSessions int   `json:"totalSessions"`
	SessionsToday int   `json:"sessionsToday"`
	CurrentStreak int   `json:"currentStreak"`
	LongestStreak int   `json:"longestStreak"`
}

func toUserStatsDTO(s service.UserStats) UserStatsDTO {
	return UserStatsDTO{
		TotalSeconds:  s.TotalSeconds,
		TotalSessions: s.TotalSessions,
		SessionsToday: s.SessionsToday,
		CurrentStreak: s.CurrentStreak,
		LongestStreak: s.LongestStreak,
	}
}
