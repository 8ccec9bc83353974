package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dsagrinders/internal/metrics"
	"dsagrinders/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatsSyncer refreshes the snapshot of one user for the current day
type StatsSyncer interface {
	Sync(ctx context.Context, userID uint, handle string) (*models.DailyStat, error)
}

// Synchronizer stores provider statistics as one DailyStat row per (user, UTC day)
type Synchronizer struct {
	db       *gorm.DB
	provider StatsProvider
	now      func() time.Time
}

func NewSynchronizer(db *gorm.DB, provider StatsProvider) *Synchronizer {
	return &Synchronizer{db: db, provider: provider, now: time.Now}
}

// Sync fetches the profile and upserts today's row. Any provider failure is
// reported as ErrSyncFailed.
func (s *Synchronizer) Sync(ctx context.Context, userID uint, handle string) (*models.DailyStat, error) {
	profile, err := s.provider.FetchProfile(ctx, handle)
	if err != nil {
		metrics.StatsSyncs.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("%w for %s: %v", ErrSyncFailed, handle, err)
	}

	today := models.TodayUTC(s.now())
	stat := models.DailyStat{
		UserID:         userID,
		Date:           today,
		Easy:           profile.Easy,
		Medium:         profile.Medium,
		Hard:           profile.Hard,
		Total:          profile.Total,
		Ranking:        profile.Ranking,
		Avatar:         profile.Avatar,
		Country:        profile.Country,
		Streak:         profile.Streak,
		LastSubmission: profile.LastSubmission,
		RecentProblems: profile.RecentProblems,
		UpdatedAt:      s.now(),
	}

	var previous models.DailyStat
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND date < ?", userID, today).
		Order("date DESC").
		First(&previous).Error
	switch {
	case err == nil:
		stat.TodayPoints = max(stat.Score()-previous.Score(), 0)
	case errors.Is(err, gorm.ErrRecordNotFound):
		stat.TodayPoints = 0
	default:
		return nil, fmt.Errorf("loading previous snapshot: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"easy", "medium", "hard", "total", "today_points", "ranking",
				"avatar", "country", "streak", "last_submission", "recent_problems", "updated_at",
			}),
		}).
		Create(&stat).Error; err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}

	metrics.StatsSyncs.WithLabelValues("success").Inc()
	return &stat, nil
}

// History returns every snapshot of a user, oldest first
func (s *Synchronizer) History(ctx context.Context, userID uint) ([]models.DailyStat, error) {
	var stats []models.DailyStat
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date ASC").
		Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return stats, nil
}
