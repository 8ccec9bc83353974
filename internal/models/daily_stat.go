package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DateLayout is the calendar-day key used for snapshots and skip dates
const DateLayout = "2006-01-02"

// RecentProblem is one recently accepted submission copied from the profile source
type RecentProblem struct {
	Title     string `json:"title"`
	TitleSlug string `json:"titleSlug"`
	Timestamp string `json:"timestamp"`
}

// DailyStat is a point-in-time capture of a user's LeetCode statistics for one UTC day
type DailyStat struct {
	ID             uint                               `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uint                               `gorm:"not null;uniqueIndex:idx_daily_stat_user_date" json:"userId"`
	Date           string                             `gorm:"size:10;not null;uniqueIndex:idx_daily_stat_user_date;index" json:"date"`
	Easy           int                                `gorm:"not null;default:0" json:"easy"`
	Medium         int                                `gorm:"not null;default:0" json:"medium"`
	Hard           int                                `gorm:"not null;default:0" json:"hard"`
	Total          int                                `gorm:"not null;default:0" json:"total"`
	TodayPoints    int                                `gorm:"not null;default:0" json:"todayPoints"`
	Ranking        int                                `gorm:"not null;default:0" json:"ranking"`
	Avatar         string                             `gorm:"size:512" json:"avatar"`
	Country        string                             `gorm:"size:128" json:"country"`
	Streak         int                                `gorm:"not null;default:0" json:"streak"`
	LastSubmission string                             `gorm:"size:32" json:"lastSubmission"`
	RecentProblems datatypes.JSONSlice[RecentProblem] `json:"recentProblems"`
	CreatedAt      time.Time                          `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time                          `gorm:"not null" json:"updatedAt"`
}

// TableName specifies the table name for the DailyStat model
func (DailyStat) TableName() string {
	return "daily_stat"
}

// BeforeCreate hook is called before creating a new snapshot
func (d *DailyStat) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = now
	}
	return nil
}

// Score weights per difficulty tier
const (
	EasyWeight   = 1
	MediumWeight = 3
	HardWeight   = 6
)

// WeightedScore returns easy*1 + medium*3 + hard*6 for the given counts.
// Negative counts are treated as zero.
func WeightedScore(easy, medium, hard int) int {
	return max(easy, 0)*EasyWeight + max(medium, 0)*MediumWeight + max(hard, 0)*HardWeight
}

// Score returns the weighted score of this snapshot
func (d *DailyStat) Score() int {
	if d == nil {
		return 0
	}
	return WeightedScore(d.Easy, d.Medium, d.Hard)
}

// TodayUTC returns the calendar day key for t in UTC
func TodayUTC(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
