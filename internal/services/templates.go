package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"dsagrinders/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TemplateVars carries the values a template may reference
type TemplateVars struct {
	User   *models.User
	Roast  string
	Insult string
}

// Resolver returns the value for one placeholder, or false when it is unavailable
type Resolver func(v TemplateVars) (string, bool)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z][A-Za-z0-9_]*)\}`)

func nonEmpty(s string) (string, bool) {
	return s, s != ""
}

// DefaultResolvers is the set of placeholders understood by message templates
var DefaultResolvers = map[string]Resolver{
	"userName": func(v TemplateVars) (string, bool) {
		if v.User == nil {
			return "", false
		}
		return nonEmpty(v.User.Name)
	},
	"email": func(v TemplateVars) (string, bool) {
		if v.User == nil {
			return "", false
		}
		return nonEmpty(v.User.Email)
	},
	"leetcodeUsername": func(v TemplateVars) (string, bool) {
		if v.User == nil {
			return "", false
		}
		return nonEmpty(v.User.LeetcodeUsername)
	},
	"roast":  func(v TemplateVars) (string, bool) { return nonEmpty(v.Roast) },
	"insult": func(v TemplateVars) (string, bool) { return nonEmpty(v.Insult) },
}

// Renderer substitutes {placeholder} tokens in a single pass. Tokens without
// a resolver, or whose resolver has no value, are kept verbatim, and
// substituted values are never scanned again.
type Renderer struct {
	resolvers map[string]Resolver
}

func NewRenderer() *Renderer {
	return &Renderer{resolvers: DefaultResolvers}
}

// NewRendererWith builds a renderer over a custom resolver set
func NewRendererWith(resolvers map[string]Resolver) *Renderer {
	return &Renderer{resolvers: resolvers}
}

func (r *Renderer) Render(content string, vars TemplateVars) string {
	return placeholderPattern.ReplaceAllStringFunc(content, func(token string) string {
		resolve, ok := r.resolvers[token[1:len(token)-1]]
		if !ok {
			return token
		}
		if value, ok := resolve(vars); ok {
			return value
		}
		return token
	})
}

// DefaultTemplates are seeded the first time templates are listed
func DefaultTemplates() []models.MessageTemplate {
	return []models.MessageTemplate{
		{
			Type: models.TemplateWhatsappRoast,
			Name: "Daily Roast",
			Content: `🔥 *WAKE UP CALL FOR {userName}* 🔥

*REALITY CHECK:*
{roast}

*HARSH TRUTH:* {insult}

While you're scrolling through WhatsApp, your competition is grinding LeetCode problems and getting closer to their dream jobs! 💼

🎯 *TODAY'S MISSION:*
• Solve at least 2 problems
• Focus on Medium difficulty

🚀 *GET TO WORK:* https://leetcode.com/problemset/

---
DSA Grinders - Where weak coders become strong! 💀`,
			Variables: models.StringList{"userName", "roast", "insult"},
			IsActive:  true,
		},
		{
			Type:    models.TemplateEmailRoast,
			Name:    "Daily Roast Email",
			Subject: "Daily Reality Check - Time to Grind DSA",
			Content: `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background: #1a1a2e; border-radius: 16px;">
  <h1 style="color: #ff4444; text-align: center;">DSA GRINDERS</h1>
  <div style="background: rgba(255,80,80,0.15); border-radius: 12px; padding: 24px; margin-bottom: 20px;">
    <h2 style="color: #ff6b6b; text-align: center;">WAKE UP CALL</h2>
    <p style="color: #ff9999; text-align: center; font-size: 18px; font-weight: bold;">{roast}</p>
  </div>
  <p style="color: #ffa500; text-align: center;">Harsh Truth: {insult}</p>
  <p style="color: #e0e0e0; text-align: center;">
    Hey <strong style="color: #00d4ff;">{userName}</strong>!<br><br>
    Your competitors are grinding LeetCode right now and you're here reading emails?<br><br>
    <strong style="color: #ff6b6b;">Solve one problem first, then do other stuff!</strong>
  </p>
  <div style="text-align: center; margin-top: 24px;">
    <a href="https://leetcode.com/problemset/" style="background: #ff4444; color: #fff; padding: 16px 40px; border-radius: 8px; text-decoration: none; font-weight: bold;">OPEN LEETCODE NOW</a>
  </div>
</div>`,
			Variables: models.StringList{"userName", "roast", "insult"},
			IsActive:  true,
		},
	}
}

// TemplateService stores admin-editable message templates
type TemplateService struct {
	db *gorm.DB
}

func NewTemplateService(db *gorm.DB) *TemplateService {
	return &TemplateService{db: db}
}

// List returns every template ordered by type and name, seeding defaults into an empty table
func (s *TemplateService) List(ctx context.Context) ([]models.MessageTemplate, error) {
	var templates []models.MessageTemplate
	if err := s.db.WithContext(ctx).Order("type ASC, name ASC").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	if len(templates) > 0 {
		return templates, nil
	}

	templates = DefaultTemplates()
	if err := s.db.WithContext(ctx).Create(&templates).Error; err != nil {
		return nil, fmt.Errorf("seeding default templates: %w", err)
	}
	logrus.Infof("Seeded %d default message templates", len(templates))
	return templates, nil
}

// Create stores a new active template
func (s *TemplateService) Create(ctx context.Context, req models.TemplateRequest) (*models.MessageTemplate, error) {
	if strings.TrimSpace(req.Type) == "" || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("type, name, and content are required: %w", ErrValidation)
	}

	tmpl := &models.MessageTemplate{
		Type:      req.Type,
		Name:      req.Name,
		Subject:   req.Subject,
		Content:   req.Content,
		Variables: models.StringList(req.Variables),
		IsActive:  true,
	}
	if err := s.db.WithContext(ctx).Create(tmpl).Error; err != nil {
		return nil, fmt.Errorf("creating template: %w", err)
	}
	return tmpl, nil
}

// Update replaces the editable fields of an existing template
func (s *TemplateService) Update(ctx context.Context, req models.TemplateRequest) (*models.MessageTemplate, error) {
	if req.ID == 0 {
		return nil, fmt.Errorf("template ID is required: %w", ErrValidation)
	}

	var tmpl models.MessageTemplate
	if err := s.db.WithContext(ctx).First(&tmpl, req.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("template %d: %w", req.ID, ErrNotFound)
		}
		return nil, fmt.Errorf("loading template: %w", err)
	}

	if req.Type != "" {
		tmpl.Type = req.Type
	}
	if req.Name != "" {
		tmpl.Name = req.Name
	}
	if req.Content != "" {
		tmpl.Content = req.Content
	}
	tmpl.Subject = req.Subject
	tmpl.Variables = models.StringList(req.Variables)
	if tmpl.Variables == nil {
		tmpl.Variables = models.StringList{}
	}
	tmpl.IsActive = req.IsActive == nil || *req.IsActive

	if err := s.db.WithContext(ctx).Save(&tmpl).Error; err != nil {
		return nil, fmt.Errorf("updating template: %w", err)
	}
	return &tmpl, nil
}

// Active returns the most recently updated active template of the given type, or nil
func (s *TemplateService) Active(ctx context.Context, templateType string) (*models.MessageTemplate, error) {
	var tmpl models.MessageTemplate
	err := s.db.WithContext(ctx).
		Where("type = ? AND is_active = ?", templateType, true).
		Order("updated_at DESC, id DESC").
		First(&tmpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s template: %w", templateType, err)
	}
	return &tmpl, nil
}
