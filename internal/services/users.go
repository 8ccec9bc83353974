package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"dsagrinders/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)

// ErrInvalidPhone is returned for numbers outside the international format
var ErrInvalidPhone = fmt.Errorf("invalid phone number format. Use international format (e.g., +1234567890): %w", ErrValidation)

// NormalizePhone removes spaces from a phone number
func NormalizePhone(phone string) string {
	return strings.ReplaceAll(phone, " ", "")
}

// ValidPhoneNumber reports whether phone matches the international format once spaces are removed
func ValidPhoneNumber(phone string) bool {
	return phonePattern.MatchString(NormalizePhone(phone))
}

// Identity is a user as asserted by an external identity provider
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// UserService manages accounts and their onboarding state
type UserService struct {
	db    *gorm.DB
	stats StatsSyncer
}

func NewUserService(db *gorm.DB, stats StatsSyncer) *UserService {
	return &UserService{db: db, stats: stats}
}

// GetByID loads one user
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return &user, nil
}

// GetByEmail loads one user by (case-insensitive) email
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return &user, nil
}

// CreateUser registers an account and fetches its first snapshot. When the
// first sync fails the account is removed again.
func (s *UserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.LeetcodeUsername = strings.TrimSpace(req.LeetcodeUsername)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Github = strings.TrimSpace(req.Github)
	if req.Name == "" || req.LeetcodeUsername == "" || req.Email == "" || req.Github == "" {
		return nil, fmt.Errorf("name, LeetCode username, email, and github are required: %w", ErrValidation)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("leetcode_username = ? OR email = ?", req.LeetcodeUsername, req.Email).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("checking existing user: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("user already exists: %w", ErrConflict)
	}

	user := &models.User{
		Name:             req.Name,
		Email:            req.Email,
		LeetcodeUsername: req.LeetcodeUsername,
		Github:           req.Github,
		Role:             models.RoleUser,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	if _, err := s.stats.Sync(ctx, user.ID, user.LeetcodeUsername); err != nil {
		if delErr := s.db.WithContext(ctx).Select("Stats").Delete(user).Error; delErr != nil {
			logrus.Errorf("Failed to roll back user %d after sync failure: %v", user.ID, delErr)
		}
		return nil, err
	}

	logrus.Infof("User %s registered with handle %s", user.Email, user.LeetcodeUsername)
	return user, nil
}

// GithubURL expands a bare handle to a profile URL
func GithubURL(v string) string {
	if strings.HasPrefix(v, "http") {
		return v
	}
	return "https://github.com/" + strings.ReplaceAll(v, "@", "")
}

// LinkedinURL expands a bare handle to a profile URL
func LinkedinURL(v string) string {
	if strings.HasPrefix(v, "http") {
		return v
	}
	return "https://linkedin.com/in/" + strings.ReplaceAll(v, "@", "")
}

// UpdateProfile applies a partial update. A changed handle triggers a resync
// whose failure is only logged.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.PhoneNumber != nil && *req.PhoneNumber != "" && !ValidPhoneNumber(*req.PhoneNumber) {
		return nil, ErrInvalidPhone
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Github != nil && strings.TrimSpace(*req.Github) != "" {
		user.Github = GithubURL(strings.TrimSpace(*req.Github))
	}
	if req.Linkedin != nil {
		if v := strings.TrimSpace(*req.Linkedin); v == "" {
			user.Linkedin = nil
		} else {
			link := LinkedinURL(v)
			user.Linkedin = &link
		}
	}
	if req.PhoneNumber != nil {
		if v := NormalizePhone(*req.PhoneNumber); v == "" {
			user.PhoneNumber = nil
		} else {
			user.PhoneNumber = &v
		}
	}

	handleChanged := false
	if req.LeetcodeUsername != nil {
		if v := strings.TrimSpace(*req.LeetcodeUsername); v != "" && v != user.LeetcodeUsername {
			var count int64
			if err := s.db.WithContext(ctx).Model(&models.User{}).
				Where("leetcode_username = ? AND id <> ?", v, user.ID).
				Count(&count).Error; err != nil {
				return nil, fmt.Errorf("checking handle: %w", err)
			}
			if count > 0 {
				return nil, fmt.Errorf("LeetCode username %s is already linked: %w", v, ErrConflict)
			}
			user.LeetcodeUsername = v
			handleChanged = true
		}
	}

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	if handleChanged {
		if _, err := s.stats.Sync(ctx, user.ID, user.LeetcodeUsername); err != nil {
			logrus.Warnf("Initial LeetCode sync failed for user %d: %v", user.ID, err)
		}
	}
	return user, nil
}

// placeholderHandle returns a unique pending_ handle for a new account
func placeholderHandle() string {
	return models.PendingHandlePrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// SyncIdentity maps an external identity to a local account, provisioning a
// placeholder account on first sight. It reports whether the account was created.
func (s *UserService) SyncIdentity(ctx context.Context, identity Identity) (*models.User, bool, error) {
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return nil, false, fmt.Errorf("email not found in identity: %w", ErrValidation)
	}

	user, err := s.GetByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = "New User"
	}
	user = &models.User{
		Name:             name,
		Email:            email,
		LeetcodeUsername: placeholderHandle(),
		Github:           models.PendingGithub,
		Role:             models.RoleUser,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, false, fmt.Errorf("provisioning user: %w", err)
	}
	logrus.Infof("Provisioned placeholder account for %s", email)
	return user, true, nil
}

// Promote grants the admin role
func (s *UserService) Promote(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("role", models.RoleAdmin).Error; err != nil {
		return nil, fmt.Errorf("promoting user: %w", err)
	}
	user.Role = models.RoleAdmin
	logrus.Infof("User %s promoted to admin", user.Email)
	return user, nil
}

// UserStats are the counters shown on the admin users page
type UserStats struct {
	Total           int `json:"total"`
	WithWhatsApp    int `json:"withWhatsApp"`
	WithoutWhatsApp int `json:"withoutWhatsApp"`
	Admins          int `json:"admins"`
}

// ListAll returns every user, newest first, with aggregate counters
func (s *UserService) ListAll(ctx context.Context) ([]models.User, UserStats, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		return nil, UserStats{}, fmt.Errorf("listing users: %w", err)
	}

	stats := UserStats{Total: len(users)}
	for i := range users {
		if users[i].HasPhone() {
			stats.WithWhatsApp++
		} else {
			stats.WithoutWhatsApp++
		}
		if users[i].IsAdmin() {
			stats.Admins++
		}
	}
	return users, stats, nil
}
