package services

import (
	"context"

	"dsagrinders/internal/metrics"
	"dsagrinders/internal/models"

	"github.com/sirupsen/logrus"
)

// SendResult is the outcome of one best-effort external call
type SendResult struct {
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}

func skipped(reason string) SendResult {
	return SendResult{Skipped: true, Reason: reason}
}

func resultOf(err error) SendResult {
	if err != nil {
		return SendResult{Error: err.Error()}
	}
	return SendResult{Success: true}
}

// Dispatcher renders and sends reminders over both channels without returning errors
type Dispatcher struct {
	email    EmailSender
	chat     ChatSender
	renderer *Renderer
}

func NewDispatcher(email EmailSender, chat ChatSender, renderer *Renderer) *Dispatcher {
	return &Dispatcher{email: email, chat: chat, renderer: renderer}
}

// Email sends one email reminder
func (d *Dispatcher) Email(ctx context.Context, user *models.User, content EmailContent) SendResult {
	err := d.email.SendEmail(ctx, user, content)
	metrics.ObserveSend("email", err == nil)
	if err != nil {
		logrus.Warnf("Email to %s failed: %v", user.Email, err)
	}
	return resultOf(err)
}

// WhatsappBody renders the chat message for a user. A template wins over the
// built-in body, and a non-empty fullMessage wins over both.
func (d *Dispatcher) WhatsappBody(user *models.User, tmpl *models.MessageTemplate, vars TemplateVars, fullMessage string) string {
	vars.User = user
	if fullMessage == "" && tmpl != nil {
		return d.renderer.Render(tmpl.Content, vars)
	}
	return DefaultWhatsappMessage(user.Name, vars.Roast, vars.Insult, fullMessage)
}

// WhatsApp sends one chat reminder. Users without a phone number are skipped.
func (d *Dispatcher) WhatsApp(ctx context.Context, user *models.User, tmpl *models.MessageTemplate, vars TemplateVars, fullMessage string) SendResult {
	if !user.HasPhone() {
		return skipped("No phone number")
	}
	err := d.chat.SendWhatsApp(ctx, *user.PhoneNumber, d.WhatsappBody(user, tmpl, vars, fullMessage))
	metrics.ObserveSend("whatsapp", err == nil)
	if err != nil {
		logrus.Warnf("WhatsApp to user %d failed: %v", user.ID, err)
	}
	return resultOf(err)
}
