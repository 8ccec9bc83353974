package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"

	"dsagrinders/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	codeAlphabet        = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts     = 10
	codeRejectThreshold = 256 - 256%len(codeAlphabet)
)

// GroupService manages groups and their memberships
type GroupService struct {
	db   *gorm.DB
	rand io.Reader
}

func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{db: db, rand: rand.Reader}
}

// WithRandom replaces the source of randomness used for join codes
func (s *GroupService) WithRandom(r io.Reader) *GroupService {
	s.rand = r
	return s
}

// generateCode draws GroupCodeLength characters uniformly from codeAlphabet.
// Bytes that would bias the distribution are rejected.
func (s *GroupService) generateCode() (string, error) {
	code := make([]byte, 0, models.GroupCodeLength)
	buf := make([]byte, 1)
	for len(code) < models.GroupCodeLength {
		if _, err := io.ReadFull(s.rand, buf); err != nil {
			return "", fmt.Errorf("reading random source: %w", err)
		}
		if int(buf[0]) >= codeRejectThreshold {
			continue
		}
		code = append(code, codeAlphabet[int(buf[0])%len(codeAlphabet)])
	}
	return string(code), nil
}

func (s *GroupService) uniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.generateCode()
		if err != nil {
			return "", err
		}

		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Group{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("checking code: %w", err)
		}
		if count == 0 {
			return code, nil
		}
		logrus.Debugf("Join code collision on attempt %d", attempt+1)
	}
	return "", ErrCodeGenerationExhausted
}

// CreateGroup creates a group owned by ownerID and adds the owner as its first member
func (s *GroupService) CreateGroup(ctx context.Context, name, description string, ownerID uint) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("group name is required: %w", ErrValidation)
	}

	code, err := s.uniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:        name,
		Code:        code,
		Description: strings.TrimSpace(description),
		OwnerID:     ownerID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return fmt.Errorf("creating group: %w", err)
		}
		member := &models.GroupMember{GroupID: group.ID, UserID: ownerID}
		if err := tx.Create(member).Error; err != nil {
			return fmt.Errorf("adding owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.Infof("Group %s created by user %d with code %s", group.Name, ownerID, group.Code)
	return group, nil
}

// JoinGroup adds userID to the group identified by code (case-insensitive)
func (s *GroupService) JoinGroup(ctx context.Context, code string, userID uint) (*models.Group, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("group code is required: %w", ErrValidation)
	}

	var group models.Group
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("code %s: %w", code, ErrNotFound)
		}
		return nil, fmt.Errorf("finding group: %w", err)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", group.ID, userID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("checking membership: %w", err)
	}
	if count > 0 {
		return nil, ErrAlreadyMember
	}

	if err := s.db.WithContext(ctx).Create(&models.GroupMember{GroupID: group.ID, UserID: userID}).Error; err != nil {
		return nil, fmt.Errorf("joining group: %w", err)
	}
	return &group, nil
}

// ListGroups returns the groups userID belongs to, newest first
func (s *GroupService) ListGroups(ctx context.Context, userID uint) ([]models.GroupSummary, error) {
	groups := []models.GroupSummary{}
	err := s.db.WithContext(ctx).
		Model(&models.Group{}).
		Select(`"group".id, "group".name, "group".code, "group".description, "group".owner_id AS owner, "user".name AS owner_name, "group".created_at`).
		Joins(`JOIN group_member ON group_member.group_id = "group".id`).
		Joins(`LEFT JOIN "user" ON "user".id = "group".owner_id`).
		Where("group_member.user_id = ?", userID).
		Order(`"group".created_at DESC, "group".id DESC`).
		Scan(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	return groups, nil
}
