package models

import (
	"time"

	"gorm.io/gorm"
)

// GroupCodeLength is the number of characters in a join code
const GroupCodeLength = 6

// Group is a named set of users sharing a private leaderboard
type Group struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Code        string    `gorm:"size:16;not null;uniqueIndex" json:"code"`
	Description string    `gorm:"type:text" json:"description"`
	OwnerID     uint      `gorm:"not null;index" json:"owner"`
	CreatedAt   time.Time `gorm:"not null" json:"createdAt"`

	Members []GroupMember `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for the Group model
func (Group) TableName() string {
	return "group"
}

// BeforeCreate hook is called before creating a new group
func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	return nil
}

// GroupMember links a user to a group
type GroupMember struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	GroupID  uint      `gorm:"not null;uniqueIndex:idx_group_member_pair" json:"groupId"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_group_member_pair;index" json:"userId"`
	JoinedAt time.Time `gorm:"not null" json:"joinedAt"`
}

// TableName specifies the table name for the GroupMember model
func (GroupMember) TableName() string {
	return "group_member"
}

// BeforeCreate hook is called before creating a new membership
func (m *GroupMember) BeforeCreate(tx *gorm.DB) error {
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	return nil
}

// GroupSummary is a group as listed for one of its members
type GroupSummary struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Owner       uint      `json:"owner"`
	OwnerName   string    `json:"ownerName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateGroupRequest represents the data needed to create a new group
type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// JoinGroupRequest carries the join code typed by the user
type JoinGroupRequest struct {
	Code string `json:"code" binding:"required"`
}
