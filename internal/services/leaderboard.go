package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"dsagrinders/internal/models"

	"gorm.io/gorm"
)

// LeaderboardMode selects the primary sort key
type LeaderboardMode string

const (
	ModeDaily   LeaderboardMode = "daily"
	ModeAllTime LeaderboardMode = "allTime"
)

// ParseLeaderboardMode maps the ?type= query value to a mode; anything unknown is daily
func ParseLeaderboardMode(v string) LeaderboardMode {
	if LeaderboardMode(v) == ModeAllTime {
		return ModeAllTime
	}
	return ModeDaily
}

// LeaderboardEntry is one ranked row of a leaderboard
type LeaderboardEntry struct {
	ID               uint                   `json:"id"`
	Name             string                 `json:"name"`
	Email            string                 `json:"email"`
	LeetcodeUsername string                 `json:"leetcodeUsername"`
	TodayPoints      int                    `json:"todayPoints"`
	TotalScore       int                    `json:"totalScore"`
	TotalProblems    int                    `json:"totalProblems"`
	Easy             int                    `json:"easy"`
	Medium           int                    `json:"medium"`
	Hard             int                    `json:"hard"`
	Ranking          int                    `json:"ranking"`
	Avatar           string                 `json:"avatar"`
	Country          string                 `json:"country"`
	Streak           int                    `json:"streak"`
	LastSubmission   *string                `json:"lastSubmission"`
	RecentProblems   []models.RecentProblem `json:"recentProblems"`
	LastUpdated      *string                `json:"lastUpdated"`
	Github           *string                `json:"github"`
	Linkedin         *string                `json:"linkedin"`
	Rank             int                    `json:"rank"`
}

// BuildEntry derives an unranked entry from a user and its snapshots.
// Either snapshot may be nil.
func BuildEntry(u models.User, today, latest *models.DailyStat) LeaderboardEntry {
	e := LeaderboardEntry{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		LeetcodeUsername: u.LeetcodeUsername,
		TotalScore:       latest.Score(),
		RecentProblems:   []models.RecentProblem{},
		Linkedin:         u.Linkedin,
	}
	if u.Github != "" {
		gh := u.Github
		e.Github = &gh
	}
	if today != nil {
		e.TodayPoints = today.TodayPoints
	}
	if latest != nil {
		e.TotalProblems = latest.Total
		e.Easy = latest.Easy
		e.Medium = latest.Medium
		e.Hard = latest.Hard
		e.Ranking = latest.Ranking
		e.Avatar = latest.Avatar
		e.Country = latest.Country
		e.Streak = latest.Streak
		if latest.LastSubmission != "" {
			ls := latest.LastSubmission
			e.LastSubmission = &ls
		}
		if len(latest.RecentProblems) > 0 {
			e.RecentProblems = latest.RecentProblems
		}
		date := latest.Date
		e.LastUpdated = &date
	}
	return e
}

// RankEntries sorts entries in place for the given mode and assigns ranks 1..N.
// Ties on both score keys fall back to ascending user id so the order is total.
func RankEntries(entries []LeaderboardEntry, mode LeaderboardMode) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		first, second := [2]int{a.TodayPoints, a.TotalScore}, [2]int{b.TodayPoints, b.TotalScore}
		if mode == ModeAllTime {
			first, second = [2]int{a.TotalScore, a.TodayPoints}, [2]int{b.TotalScore, b.TodayPoints}
		}
		if first[0] != second[0] {
			return first[0] > second[0]
		}
		if first[1] != second[1] {
			return first[1] > second[1]
		}
		return a.ID < b.ID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

// LeaderboardService builds global and group-scoped rankings
type LeaderboardService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{db: db, now: time.Now}
}

// GroupLeaderboard is the response body of a group-scoped ranking
type GroupLeaderboard struct {
	GroupName   string             `json:"groupName"`
	GroupCode   string             `json:"groupCode"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// Global ranks every eligible user
func (s *LeaderboardService) Global(ctx context.Context, mode LeaderboardMode) ([]LeaderboardEntry, error) {
	var users []models.User
	if err := eligibleUsers(s.db.WithContext(ctx)).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	return s.rank(ctx, users, mode)
}

// ForGroup ranks the members of a group. The caller must be a member.
func (s *LeaderboardService) ForGroup(ctx context.Context, groupID, callerID uint, mode LeaderboardMode) (*GroupLeaderboard, error) {
	var group models.Group
	if err := s.db.WithContext(ctx).First(&group, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("group %d: %w", groupID, ErrNotFound)
		}
		return nil, fmt.Errorf("loading group: %w", err)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, callerID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("checking membership: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("user %d is not a member of group %d: %w", callerID, groupID, ErrForbidden)
	}

	var users []models.User
	if err := eligibleUsers(s.db.WithContext(ctx)).
		Joins("JOIN group_member ON group_member.user_id = \"user\".id").
		Where("group_member.group_id = ?", groupID).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("loading members: %w", err)
	}

	entries, err := s.rank(ctx, users, mode)
	if err != nil {
		return nil, err
	}
	return &GroupLeaderboard{GroupName: group.Name, GroupCode: group.Code, Leaderboard: entries}, nil
}

func eligibleUsers(db *gorm.DB) *gorm.DB {
	return db.Model(&models.User{}).
		Where("\"user\".role <> ?", models.RoleAdmin).
		Where("\"user\".leetcode_username NOT LIKE ?", models.PendingHandlePrefix+"%")
}

func (s *LeaderboardService) rank(ctx context.Context, users []models.User, mode LeaderboardMode) ([]LeaderboardEntry, error) {
	entries := make([]LeaderboardEntry, 0, len(users))
	if len(users) == 0 {
		return entries, nil
	}

	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	var todayRows []models.DailyStat
	if err := s.db.WithContext(ctx).
		Where("user_id IN ? AND date = ?", ids, models.TodayUTC(s.now())).
		Find(&todayRows).Error; err != nil {
		return nil, fmt.Errorf("loading today's stats: %w", err)
	}

	var latestRows []models.DailyStat
	if err := s.db.WithContext(ctx).Model(&models.DailyStat{}).
		Joins("JOIN (SELECT user_id, MAX(date) AS max_date FROM daily_stat WHERE user_id IN ? GROUP BY user_id) latest "+
			"ON latest.user_id = daily_stat.user_id AND latest.max_date = daily_stat.date", ids).
		Find(&latestRows).Error; err != nil {
		return nil, fmt.Errorf("loading latest stats: %w", err)
	}

	today := make(map[uint]*models.DailyStat, len(todayRows))
	for i := range todayRows {
		today[todayRows[i].UserID] = &todayRows[i]
	}
	latest := make(map[uint]*models.DailyStat, len(latestRows))
	for i := range latestRows {
		latest[latestRows[i].UserID] = &latestRows[i]
	}

	for _, u := range users {
		entries = append(entries, BuildEntry(u, today[u.ID], latest[u.ID]))
	}
	RankEntries(entries, mode)
	return entries, nil
}
