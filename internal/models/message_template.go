package models

import (
	"time"

	"gorm.io/gorm"
)

// Template types recognised by the dispatchers
const (
	TemplateEmailRoast    = "email_roast"
	TemplateWhatsappRoast = "whatsapp_roast"
)

// MessageTemplate is an admin-editable message body with {placeholder} tokens
type MessageTemplate struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Type      string     `gorm:"size:64;not null;index" json:"type"`
	Name      string     `gorm:"size:255;not null" json:"name"`
	Subject   string     `gorm:"size:512" json:"subject"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	Variables StringList `json:"variables"`
	IsActive  bool       `gorm:"not null" json:"isActive"`
	CreatedAt time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"not null" json:"updatedAt"`
}

// TableName specifies the table name for the MessageTemplate model
func (MessageTemplate) TableName() string {
	return "message_template"
}

// BeforeCreate hook is called before creating a new template
func (t *MessageTemplate) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	if t.Variables == nil {
		t.Variables = StringList{}
	}
	return nil
}

// TemplateRequest is used by the admin endpoints to create or update templates
type TemplateRequest struct {
	ID        uint     `json:"id"`
	Type      string   `json:"type"`
	Name      string   `json:"name"`
	Subject   string   `json:"subject"`
	Content   string   `json:"content"`
	Variables []string `json:"variables"`
	IsActive  *bool    `json:"isActive"`
}
