package models

import (
	"time"
	_ "time/tzdata"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Default values applied when the settings row is first created
const (
	DefaultEmailTime    = "09:00"
	DefaultWhatsappTime = "09:30"
	DefaultTimezone     = "Asia/Kolkata"
)

// DailyRoast is the generated roast cached for the dashboard
type DailyRoast struct {
	Roast       string `json:"roast"`
	FullMessage string `json:"fullMessage"`
	Date        string `json:"date"`
}

// Settings is the singleton automation configuration row
type Settings struct {
	ID                        uint                            `gorm:"primaryKey;autoIncrement" json:"id"`
	AutomationEnabled         bool                            `gorm:"not null" json:"automationEnabled"`
	EmailAutomationEnabled    bool                            `gorm:"not null" json:"emailAutomationEnabled"`
	WhatsappAutomationEnabled bool                            `gorm:"not null" json:"whatsappAutomationEnabled"`
	EmailSchedule             StringList                      `json:"emailSchedule"`
	WhatsappSchedule          StringList                      `json:"whatsappSchedule"`
	Timezone                  string                          `gorm:"size:64;not null" json:"timezone"`
	MaxDailyEmails            int                             `gorm:"not null" json:"maxDailyEmails"`
	MaxDailyWhatsapp          int                             `gorm:"not null" json:"maxDailyWhatsapp"`
	EmailsSentToday           int                             `gorm:"not null;default:0" json:"emailsSentToday"`
	WhatsappSentToday         int                             `gorm:"not null;default:0" json:"whatsappSentToday"`
	LastResetDate             *time.Time                      `json:"lastResetDate"`
	SkipWeekends              bool                            `gorm:"not null" json:"skipWeekends"`
	SkipHolidays              bool                            `gorm:"not null" json:"skipHolidays"`
	CustomSkipDates           StringList                      `json:"customSkipDates"`
	LastEmailSent             *time.Time                      `json:"lastEmailSent"`
	LastWhatsappSent          *time.Time                      `json:"lastWhatsappSent"`
	AIRoast                   *datatypes.JSONType[DailyRoast] `json:"aiRoast"`
	CreatedAt                 time.Time                       `gorm:"not null" json:"createdAt"`
	UpdatedAt                 time.Time                       `gorm:"not null" json:"updatedAt"`
}

// TableName specifies the table name for the Settings model
func (Settings) TableName() string {
	return "settings"
}

// NewDefaultSettings returns the configuration used on first access
func NewDefaultSettings() *Settings {
	return &Settings{
		AutomationEnabled:         true,
		EmailAutomationEnabled:    true,
		WhatsappAutomationEnabled: true,
		EmailSchedule:             StringList{DefaultEmailTime},
		WhatsappSchedule:          StringList{DefaultWhatsappTime},
		Timezone:                  DefaultTimezone,
		MaxDailyEmails:            1,
		MaxDailyWhatsapp:          1,
		CustomSkipDates:           StringList{},
	}
}

// BeforeCreate hook is called before creating the settings row
func (s *Settings) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	return nil
}

// Location resolves the configured timezone, falling back to UTC
func (s *Settings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Roast returns the cached roast, if any
func (s *Settings) Roast() *DailyRoast {
	if s.AIRoast == nil {
		return nil
	}
	r := s.AIRoast.Data()
	return &r
}

// SettingsPatch is a partial admin update. Nil fields are left untouched.
type SettingsPatch struct {
	AutomationEnabled         *bool    `json:"automationEnabled"`
	EmailAutomationEnabled    *bool    `json:"emailAutomationEnabled"`
	WhatsappAutomationEnabled *bool    `json:"whatsappAutomationEnabled"`
	DailyEmailTime            *string  `json:"dailyEmailTime"`
	DailyWhatsappTime         *string  `json:"dailyWhatsappTime"`
	Timezone                  *string  `json:"timezone"`
	MaxDailyEmails            *int     `json:"maxDailyEmails"`
	MaxDailyWhatsapp          *int     `json:"maxDailyWhatsapp"`
	SkipWeekends              *bool    `json:"skipWeekends"`
	SkipHolidays              *bool    `json:"skipHolidays"`
	CustomSkipDates           []string `json:"customSkipDates"`
}
