package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"dsagrinders/internal/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailContent is the per-send input of an email
type EmailContent struct {
	Template    *models.MessageTemplate
	Vars        TemplateVars
	FullMessage string
}

// EmailSender delivers one rendered email to a user
type EmailSender interface {
	SendEmail(ctx context.Context, user *models.User, content EmailContent) error
}

type EmailService struct {
	client       *sendgrid.Client
	apiKey       string
	fromEmail    string
	fromName     string
	dashboardURL string
	renderer     *Renderer
}

func NewEmailService(apiKey, fromEmail, fromName, dashboardURL string, renderer *Renderer) *EmailService {
	return &EmailService{
		client:       sendgrid.NewSendClient(apiKey),
		apiKey:       apiKey,
		fromEmail:    fromEmail,
		fromName:     fromName,
		dashboardURL: dashboardURL,
		renderer:     renderer,
	}
}

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// Compose renders the subject and HTML body for a user. Without a template the
// built-in reminder is used.
func (s *EmailService) Compose(user *models.User, content EmailContent) (string, string) {
	vars := content.Vars
	vars.User = user

	if content.Template == nil {
		return DefaultEmailSubject(user.Name),
			DefaultEmailHTML(user.Name, vars.Roast, vars.Insult, content.FullMessage, s.dashboardURL)
	}

	subject := content.Template.Subject
	if subject == "" {
		subject = "DSA Grinders - Daily Reminder"
	}
	return s.renderer.Render(subject, vars), s.renderer.Render(content.Template.Content, vars)
}

// SendEmail implements EmailSender through SendGrid
func (s *EmailService) SendEmail(ctx context.Context, user *models.User, content EmailContent) error {
	if s.apiKey == "" || s.fromEmail == "" {
		return fmt.Errorf("email provider is not configured: %w", ErrConfiguration)
	}

	subject, htmlContent := s.Compose(user, content)
	plainContent := strings.TrimSpace(htmlTagPattern.ReplaceAllString(htmlContent, " "))

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(user.Name, user.Email)
	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("%w: sending email to %s: %v", ErrUpstream, user.Email, err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("%w: failed to send email to %s: %d %s", ErrUpstream, user.Email, response.StatusCode, response.Body)
	}
	return nil
}
