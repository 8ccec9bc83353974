package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Role values stored on User.Role
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// PendingHandlePrefix marks a LeetCode handle that was generated on first login
// and still has to be replaced during onboarding.
const PendingHandlePrefix = "pending_"

// PendingGithub is the github value stored for freshly provisioned accounts.
const PendingGithub = "pending"

// User represents a dashboard account linked to a LeetCode profile
type User struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name             string    `gorm:"size:255;not null" json:"name"`
	Email            string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	LeetcodeUsername string    `gorm:"uniqueIndex;size:255;not null" json:"leetcodeUsername"`
	PhoneNumber      *string   `gorm:"size:32" json:"phoneNumber"`
	Github           string    `gorm:"size:255;not null" json:"github"`
	Linkedin         *string   `gorm:"size:255" json:"linkedin"`
	Role             string    `gorm:"size:16;not null;default:user;index" json:"role"`
	CreatedAt        time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"not null" json:"updatedAt"`

	Stats []DailyStat `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "user"
}

// BeforeCreate hook is called before creating a new user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return nil
}

// BeforeSave hook is called before saving the user
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}

// IsAdmin reports whether the account carries the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsPlaceholder reports whether the LeetCode handle is still the generated one
func (u *User) IsPlaceholder() bool {
	return u.LeetcodeUsername == "" || strings.HasPrefix(u.LeetcodeUsername, PendingHandlePrefix)
}

// IsProfileIncomplete gates most of the API until onboarding is finished.
// A profile is complete once it has a real handle, a github link, a phone
// number and a linkedin link.
func (u *User) IsProfileIncomplete() bool {
	return u.IsPlaceholder() ||
		u.Github == "" || u.Github == PendingGithub ||
		u.PhoneNumber == nil || *u.PhoneNumber == "" ||
		u.Linkedin == nil || *u.Linkedin == ""
}

// FirstName returns the first word of the display name
func (u *User) FirstName() string {
	fields := strings.Fields(u.Name)
	if len(fields) == 0 {
		return u.Name
	}
	return fields[0]
}

// HasPhone reports whether a WhatsApp number is on file
func (u *User) HasPhone() bool {
	return u.PhoneNumber != nil && strings.TrimSpace(*u.PhoneNumber) != ""
}

// ProfileResponse is the public view of a user returned by profile endpoints
type ProfileResponse struct {
	ID                  uint    `json:"id"`
	Name                string  `json:"name"`
	Email               string  `json:"email"`
	LeetcodeUsername    string  `json:"leetcodeUsername"`
	Github              string  `json:"github"`
	Linkedin            *string `json:"linkedin"`
	PhoneNumber         *string `json:"phoneNumber"`
	Role                string  `json:"role"`
	IsProfileIncomplete bool    `json:"isProfileIncomplete"`
}

// ToProfile converts the user to its API representation
func (u *User) ToProfile() ProfileResponse {
	return ProfileResponse{
		ID:                  u.ID,
		Name:                u.Name,
		Email:               u.Email,
		LeetcodeUsername:    u.LeetcodeUsername,
		Github:              u.Github,
		Linkedin:            u.Linkedin,
		PhoneNumber:         u.PhoneNumber,
		Role:                u.Role,
		IsProfileIncomplete: u.IsProfileIncomplete(),
	}
}

// CreateUserRequest represents the data needed to register a user directly
type CreateUserRequest struct {
	Name             string `json:"name"`
	LeetcodeUsername string `json:"leetcodeUsername"`
	Email            string `json:"email"`
	Github           string `json:"github"`
}

// UpdateProfileRequest is a partial profile update. Nil fields are left untouched.
type UpdateProfileRequest struct {
	Name             *string `json:"name"`
	PhoneNumber      *string `json:"phoneNumber" binding:"omitempty,intlphone"`
	Github           *string `json:"github"`
	Linkedin         *string `json:"linkedin"`
	LeetcodeUsername *string `json:"leetcodeUsername"`
}
