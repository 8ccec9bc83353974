package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"dsagrinders/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var timeOfDayPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// SchedulePreset is the suggested send times for a given daily cap
type SchedulePreset struct {
	Email    []string
	Whatsapp []string
}

// SchedulePresets are applied when an admin sets a cap between 1 and 5
var SchedulePresets = map[int]SchedulePreset{
	1: {Email: []string{"09:00"}, Whatsapp: []string{"09:30"}},
	2: {Email: []string{"09:00", "18:00"}, Whatsapp: []string{"09:30", "18:30"}},
	3: {Email: []string{"08:00", "13:00", "19:00"}, Whatsapp: []string{"08:30", "13:30", "19:30"}},
	4: {Email: []string{"08:00", "12:00", "16:00", "20:00"}, Whatsapp: []string{"08:30", "12:30", "16:30", "20:30"}},
	5: {Email: []string{"08:00", "11:00", "14:00", "17:00", "20:00"}, Whatsapp: []string{"08:30", "11:30", "14:30", "17:30", "20:30"}},
}

// IsTimeOfDay reports whether v is a valid HH:MM value
func IsTimeOfDay(v string) bool {
	return timeOfDayPattern.MatchString(v)
}

// SettingsView is the admin representation of the settings row
type SettingsView struct {
	models.Settings
	DailyEmailTime    string `json:"dailyEmailTime"`
	DailyWhatsappTime string `json:"dailyWhatsappTime"`
}

// NewSettingsView flattens the first slot of each schedule for the dashboard
func NewSettingsView(s *models.Settings) SettingsView {
	v := SettingsView{Settings: *s, DailyEmailTime: models.DefaultEmailTime, DailyWhatsappTime: models.DefaultWhatsappTime}
	if len(s.EmailSchedule) > 0 {
		v.DailyEmailTime = s.EmailSchedule[0]
	}
	if len(s.WhatsappSchedule) > 0 {
		v.DailyWhatsappTime = s.WhatsappSchedule[0]
	}
	return v
}

// SettingsStore owns reads and writes of the singleton settings row
type SettingsStore struct {
	db *gorm.DB
}

func NewSettingsStore(db *gorm.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get loads the settings row, creating it with defaults on first access
func (s *SettingsStore) Get(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	err := s.db.WithContext(ctx).Order("id ASC").First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	created := models.NewDefaultSettings()
	if err := s.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, fmt.Errorf("creating default settings: %w", err)
	}
	logrus.Info("Created default settings")
	return created, nil
}

// EnsureSchedules backfills empty channel schedules with the default time slot
func (s *SettingsStore) EnsureSchedules(ctx context.Context, settings *models.Settings) error {
	updates := map[string]any{}
	if len(settings.EmailSchedule) == 0 {
		settings.EmailSchedule = models.StringList{models.DefaultEmailTime}
		updates["email_schedule"] = settings.EmailSchedule
	}
	if len(settings.WhatsappSchedule) == 0 {
		settings.WhatsappSchedule = models.StringList{models.DefaultWhatsappTime}
		updates["whatsapp_schedule"] = settings.WhatsappSchedule
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(&models.Settings{}).Where("id = ?", settings.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("backfilling schedules: %w", err)
	}
	return nil
}

// ResetIfNewDay zeroes both counters when the last reset happened on an
// earlier calendar day in the settings timezone. It reports whether a reset happened.
func (s *SettingsStore) ResetIfNewDay(ctx context.Context, settings *models.Settings, now time.Time) (bool, error) {
	loc := settings.Location()
	today := now.In(loc).Format(models.DateLayout)
	if settings.LastResetDate != nil && settings.LastResetDate.In(loc).Format(models.DateLayout) == today {
		return false, nil
	}

	if err := s.reset(ctx, settings.ID, now); err != nil {
		return false, err
	}
	settings.EmailsSentToday = 0
	settings.WhatsappSentToday = 0
	settings.LastResetDate = &now
	logrus.Infof("Daily counters reset for %s", today)
	return true, nil
}

// ResetCounters zeroes both counters unconditionally
func (s *SettingsStore) ResetCounters(ctx context.Context) error {
	settings, err := s.Get(ctx)
	if err != nil {
		return err
	}
	return s.reset(ctx, settings.ID, time.Now())
}

func (s *SettingsStore) reset(ctx context.Context, id uint, now time.Time) error {
	err := s.db.WithContext(ctx).Model(&models.Settings{}).Where("id = ?", id).Updates(map[string]any{
		"emails_sent_today":   0,
		"whatsapp_sent_today": 0,
		"last_reset_date":     now,
		"updated_at":          now,
	}).Error
	if err != nil {
		return fmt.Errorf("resetting counters: %w", err)
	}
	return nil
}

// SaveRoast caches the roast of the day
func (s *SettingsStore) SaveRoast(ctx context.Context, id uint, roast models.DailyRoast) error {
	err := s.db.WithContext(ctx).Model(&models.Settings{}).Where("id = ?", id).
		Update("ai_roast", datatypes.NewJSONType(roast)).Error
	if err != nil {
		return fmt.Errorf("saving roast: %w", err)
	}
	return nil
}

// CommitRun adds the sends of one scheduler run to the stored counters.
// Counters are incremented in SQL so concurrent runs never lose updates.
func (s *SettingsStore) CommitRun(ctx context.Context, id uint, emailsSent, whatsappSent int, at time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"updated_at": at}
		if emailsSent > 0 {
			updates["emails_sent_today"] = gorm.Expr("emails_sent_today + ?", emailsSent)
			updates["last_email_sent"] = at
		}
		if whatsappSent > 0 {
			updates["whatsapp_sent_today"] = gorm.Expr("whatsapp_sent_today + ?", whatsappSent)
			updates["last_whatsapp_sent"] = at
		}
		if err := tx.Model(&models.Settings{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("committing counters: %w", err)
		}
		return nil
	})
}

// Update applies an admin patch and returns the stored result
func (s *SettingsStore) Update(ctx context.Context, patch models.SettingsPatch) (*models.Settings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	updates, err := buildSettingsUpdates(patch)
	if err != nil {
		return nil, err
	}
	updates["updated_at"] = time.Now()

	if err := s.db.WithContext(ctx).Model(&models.Settings{}).Where("id = ?", settings.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("updating settings: %w", err)
	}

	var updated models.Settings
	if err := s.db.WithContext(ctx).First(&updated, settings.ID).Error; err != nil {
		return nil, fmt.Errorf("reloading settings: %w", err)
	}
	return &updated, nil
}

func buildSettingsUpdates(p models.SettingsPatch) (map[string]any, error) {
	updates := map[string]any{}

	if p.AutomationEnabled != nil {
		updates["automation_enabled"] = *p.AutomationEnabled
	}
	if p.EmailAutomationEnabled != nil {
		updates["email_automation_enabled"] = *p.EmailAutomationEnabled
	}
	if p.WhatsappAutomationEnabled != nil {
		updates["whatsapp_automation_enabled"] = *p.WhatsappAutomationEnabled
	}

	if p.DailyEmailTime != nil && *p.DailyEmailTime != "" {
		if !IsTimeOfDay(*p.DailyEmailTime) {
			return nil, fmt.Errorf("invalid email time format: %w", ErrValidation)
		}
		updates["email_schedule"] = models.StringList{*p.DailyEmailTime}
	}
	if p.DailyWhatsappTime != nil && *p.DailyWhatsappTime != "" {
		if !IsTimeOfDay(*p.DailyWhatsappTime) {
			return nil, fmt.Errorf("invalid WhatsApp time format: %w", ErrValidation)
		}
		updates["whatsapp_schedule"] = models.StringList{*p.DailyWhatsappTime}
	}

	if p.Timezone != nil && *p.Timezone != "" {
		if _, err := time.LoadLocation(*p.Timezone); err != nil {
			return nil, fmt.Errorf("unknown timezone %q: %w", *p.Timezone, ErrValidation)
		}
		updates["timezone"] = *p.Timezone
	}

	if p.MaxDailyEmails != nil {
		if *p.MaxDailyEmails < 0 {
			return nil, fmt.Errorf("maxDailyEmails must not be negative: %w", ErrValidation)
		}
		updates["max_daily_emails"] = *p.MaxDailyEmails
		if preset, ok := SchedulePresets[*p.MaxDailyEmails]; ok {
			updates["email_schedule"] = models.StringList(preset.Email)
		}
	}
	if p.MaxDailyWhatsapp != nil {
		if *p.MaxDailyWhatsapp < 0 {
			return nil, fmt.Errorf("maxDailyWhatsapp must not be negative: %w", ErrValidation)
		}
		updates["max_daily_whatsapp"] = *p.MaxDailyWhatsapp
		if preset, ok := SchedulePresets[*p.MaxDailyWhatsapp]; ok {
			updates["whatsapp_schedule"] = models.StringList(preset.Whatsapp)
		}
	}

	if p.SkipWeekends != nil {
		updates["skip_weekends"] = *p.SkipWeekends
	}
	if p.SkipHolidays != nil {
		updates["skip_holidays"] = *p.SkipHolidays
	}
	if p.CustomSkipDates != nil {
		dates := make(models.StringList, 0, len(p.CustomSkipDates))
		for _, d := range p.CustomSkipDates {
			day, err := parseSkipDate(d)
			if err != nil {
				return nil, err
			}
			dates = append(dates, day)
		}
		updates["custom_skip_dates"] = dates
	}

	return updates, nil
}

// parseSkipDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the day key
func parseSkipDate(v string) (string, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(models.DateLayout, v); err == nil {
		return t.Format(models.DateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.Format(models.DateLayout), nil
	}
	return "", fmt.Errorf("invalid skip date %q: %w", v, ErrValidation)
}

// IsSkipDay reports whether no reminders go out on the calendar day of now
// in the settings timezone.
func IsSkipDay(settings *models.Settings, now time.Time) (bool, string) {
	local := now.In(settings.Location())
	if settings.SkipWeekends {
		if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return true, "weekend"
		}
	}
	day := local.Format(models.DateLayout)
	for _, d := range settings.CustomSkipDates {
		if d == day {
			return true, "custom skip date"
		}
	}
	return false, ""
}
