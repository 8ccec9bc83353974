package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"dsagrinders/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// BroadcastResults counts the outcome of an ad-hoc roast send
type BroadcastResults struct {
	EmailsSent      int      `json:"emailsSent"`
	EmailsFailed    int      `json:"emailsFailed"`
	WhatsappSent    int      `json:"whatsappSent"`
	WhatsappFailed  int      `json:"whatsappFailed"`
	WhatsappSkipped int      `json:"whatsappSkipped"`
	Errors          []string `json:"errors"`
}

// BroadcastReport is returned by SendRoasts
type BroadcastReport struct {
	Results           BroadcastResults `json:"results"`
	Summary           string           `json:"summary"`
	TotalUsers        int              `json:"totalUsers"`
	UsersWithWhatsApp int              `json:"usersWithWhatsApp"`
}

// SendRoasts sends one roast to every eligible user over both channels using
// the active templates. Daily caps and counters are not involved.
func (s *Scheduler) SendRoasts(ctx context.Context) (*BroadcastReport, error) {
	var users []models.User
	if err := eligibleUsers(s.db.WithContext(ctx)).Order("\"user\".id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("no users found: %w", ErrValidation)
	}

	emailTmpl := s.activeTemplate(ctx, models.TemplateEmailRoast)
	chatTmpl := s.activeTemplate(ctx, models.TemplateWhatsappRoast)
	vars := TemplateVars{Roast: RandomRoast(), Insult: RandomInsult()}

	var (
		mu      sync.Mutex
		results = BroadcastResults{Errors: []string{}}
	)
	record := func(user *models.User, email, chat SendResult) {
		mu.Lock()
		defer mu.Unlock()
		if email.Success {
			results.EmailsSent++
		} else {
			results.EmailsFailed++
			results.Errors = append(results.Errors, fmt.Sprintf("Email failed for %s: %s", user.Name, email.Error))
		}
		switch {
		case chat.Success:
			results.WhatsappSent++
		case chat.Skipped:
			results.WhatsappSkipped++
		default:
			results.WhatsappFailed++
			results.Errors = append(results.Errors, fmt.Sprintf("WhatsApp failed for %s: %s", user.Name, chat.Error))
		}
	}

	withPhone := 0
	for begin := 0; begin < len(users); begin += s.batchSize {
		end := min(begin+s.batchSize, len(users))
		g, gctx := errgroup.WithContext(ctx)
		for i := begin; i < end; i++ {
			user := &users[i]
			if user.HasPhone() {
				withPhone++
			}
			g.Go(func() error {
				email := s.dispatcher.Email(gctx, user, EmailContent{Template: emailTmpl, Vars: vars})
				chat := s.dispatcher.WhatsApp(gctx, user, chatTmpl, vars, "")
				record(user, email, chat)
				return nil
			})
		}
		_ = g.Wait()
	}

	summary := broadcastSummary(results)
	logrus.Infof("Manual roast sending completed: %s", summary)
	return &BroadcastReport{
		Results:           results,
		Summary:           summary,
		TotalUsers:        len(users),
		UsersWithWhatsApp: withPhone,
	}, nil
}

func broadcastSummary(r BroadcastResults) string {
	var parts []string
	if r.EmailsSent > 0 {
		parts = append(parts, fmt.Sprintf("%d email roasts sent", r.EmailsSent))
	}
	if r.EmailsFailed > 0 {
		parts = append(parts, fmt.Sprintf("%d email roasts failed", r.EmailsFailed))
	}
	if r.WhatsappSent > 0 {
		parts = append(parts, fmt.Sprintf("%d WhatsApp roasts sent", r.WhatsappSent))
	}
	if r.WhatsappFailed > 0 {
		parts = append(parts, fmt.Sprintf("%d WhatsApp roasts failed", r.WhatsappFailed))
	}
	if r.WhatsappSkipped > 0 {
		parts = append(parts, fmt.Sprintf("%d WhatsApp skipped (no phone)", r.WhatsappSkipped))
	}
	return strings.Join(parts, ", ")
}
