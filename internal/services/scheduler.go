package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"dsagrinders/internal/metrics"
	"dsagrinders/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// DefaultBatchSize is the number of users processed concurrently
const DefaultBatchSize = 5

const resultSampleSize = 5

// RunStatus is the terminal state of one scheduler run
type RunStatus string

const (
	RunCompleted     RunStatus = "completed"
	RunDisabled      RunStatus = "disabled"
	RunSkipped       RunStatus = "skipped"
	RunLimitsReached RunStatus = "limits reached"
)

// RunOptions tunes a single run
type RunOptions struct {
	// TestEmail restricts the run to one address and bypasses the daily caps
	TestEmail string
}

// UserResult is the per-user outcome of a run
type UserResult struct {
	UserID       uint       `json:"userId"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PhoneNumber  *string    `json:"phoneNumber"`
	StatsUpdate  SendResult `json:"statsUpdate"`
	EmailSent    SendResult `json:"emailSent"`
	WhatsappSent SendResult `json:"whatsappSent"`
}

// RunSummary aggregates the per-user results
type RunSummary struct {
	TotalUsers      int `json:"totalUsers"`
	StatsUpdated    int `json:"statsUpdated"`
	EmailsSent      int `json:"emailsSent"`
	EmailsFailed    int `json:"emailsFailed"`
	EmailsSkipped   int `json:"emailsSkipped"`
	WhatsappSent    int `json:"whatsappSent"`
	WhatsappFailed  int `json:"whatsappFailed"`
	WhatsappSkipped int `json:"whatsappSkipped"`
}

// RunReport is returned by Scheduler.Run
type RunReport struct {
	Status  RunStatus    `json:"status"`
	Message string       `json:"message"`
	Reason  string       `json:"reason,omitempty"`
	Summary *RunSummary  `json:"summary,omitempty"`
	Results []UserResult `json:"results,omitempty"`

	EmailsSentToday   int `json:"emailsSentToday"`
	WhatsappSentToday int `json:"whatsappSentToday"`
	MaxDailyEmails    int `json:"maxDailyEmails"`
	MaxDailyWhatsapp  int `json:"maxDailyWhatsapp"`
}

// BatchRunner runs one notification batch
type BatchRunner interface {
	Run(ctx context.Context, opts RunOptions) (*RunReport, error)
}

// Scheduler resyncs stats and dispatches reminders within the daily caps
type Scheduler struct {
	db         *gorm.DB
	settings   *SettingsStore
	stats      StatsSyncer
	dispatcher *Dispatcher
	templates  *TemplateService
	roasts     RoastGenerator
	batchSize  int
	now        func() time.Time
}

func NewScheduler(db *gorm.DB, settings *SettingsStore, stats StatsSyncer, dispatcher *Dispatcher, templates *TemplateService, roasts RoastGenerator, batchSize int) *Scheduler {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Scheduler{
		db:         db,
		settings:   settings,
		stats:      stats,
		dispatcher: dispatcher,
		templates:  templates,
		roasts:     roasts,
		batchSize:  batchSize,
		now:        time.Now,
	}
}

// channelQuota hands out send slots for one channel. A slot is reserved
// before the send and kept only when the send succeeds.
type channelQuota struct {
	mu      sync.Mutex
	allowed bool
	bypass  bool
	already int
	limit   int
	pending int
	sent    int
}

func (q *channelQuota) reserve() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.bypass && (!q.allowed || q.already+q.sent+q.pending >= q.limit) {
		return false
	}
	q.pending++
	return true
}

func (q *channelQuota) release(success bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending--
	if success {
		q.sent++
	}
}

// runPlan is the state shared by every user of one run
type runPlan struct {
	roast         *Roast
	emailTemplate *models.MessageTemplate
	chatTemplate  *models.MessageTemplate
	email         *channelQuota
	whatsapp      *channelQuota
}

func (s *Scheduler) report(status RunStatus, message string, settings *models.Settings) *RunReport {
	return &RunReport{
		Status:            status,
		Message:           message,
		EmailsSentToday:   settings.EmailsSentToday,
		WhatsappSentToday: settings.WhatsappSentToday,
		MaxDailyEmails:    settings.MaxDailyEmails,
		MaxDailyWhatsapp:  settings.MaxDailyWhatsapp,
	}
}

// Run executes one notification run. Only store failures are returned as
// errors; provider failures are recorded per user.
func (s *Scheduler) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	start := s.now()
	report, err := s.run(ctx, opts)
	switch {
	case err != nil:
		metrics.CronRuns.WithLabelValues("error").Inc()
	default:
		metrics.CronRuns.WithLabelValues(string(report.Status)).Inc()
		if report.Status == RunCompleted {
			metrics.CronDuration.Observe(s.now().Sub(start).Seconds())
		}
	}
	return report, err
}

func (s *Scheduler) run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	now := s.now()

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.settings.EnsureSchedules(ctx, settings); err != nil {
		return nil, err
	}
	if _, err := s.settings.ResetIfNewDay(ctx, settings, now); err != nil {
		return nil, err
	}

	if !settings.AutomationEnabled {
		return s.report(RunDisabled, "Automation disabled", settings), nil
	}

	if skip, reason := IsSkipDay(settings, now); skip {
		r := s.report(RunSkipped, "Day skipped due to settings", settings)
		r.Reason = reason
		return r, nil
	}

	testEmail := strings.TrimSpace(opts.TestEmail)
	plan := &runPlan{
		email: &channelQuota{
			allowed: settings.EmailAutomationEnabled && settings.EmailsSentToday < settings.MaxDailyEmails,
			bypass:  testEmail != "",
			already: settings.EmailsSentToday,
			limit:   settings.MaxDailyEmails,
		},
		whatsapp: &channelQuota{
			allowed: settings.WhatsappAutomationEnabled && settings.WhatsappSentToday < settings.MaxDailyWhatsapp,
			bypass:  testEmail != "",
			already: settings.WhatsappSentToday,
			limit:   settings.MaxDailyWhatsapp,
		},
	}

	if !plan.email.allowed && !plan.whatsapp.allowed && testEmail == "" {
		return s.report(RunLimitsReached, "Daily limits reached for both Email and WhatsApp", settings), nil
	}

	users, err := s.candidates(ctx, testEmail)
	if err != nil {
		return nil, err
	}

	plan.roast = s.generateRoast(ctx, settings, users, now)
	if plan.roast.FullMessage == "" {
		plan.emailTemplate = s.activeTemplate(ctx, models.TemplateEmailRoast)
		plan.chatTemplate = s.activeTemplate(ctx, models.TemplateWhatsappRoast)
	}

	results := make([]UserResult, len(users))
	for begin := 0; begin < len(users); begin += s.batchSize {
		end := min(begin+s.batchSize, len(users))
		g, gctx := errgroup.WithContext(ctx)
		for i := begin; i < end; i++ {
			i := i
			g.Go(func() error {
				results[i] = s.processUser(gctx, &users[i], plan)
				return nil
			})
		}
		_ = g.Wait()
	}

	if err := s.settings.CommitRun(ctx, settings.ID, plan.email.sent, plan.whatsapp.sent, s.now()); err != nil {
		return nil, err
	}

	summary := summarize(results)
	logrus.Infof("Notification run finished: %d users, %d stats updated, %d emails, %d WhatsApp messages",
		summary.TotalUsers, summary.StatsUpdated, summary.EmailsSent, summary.WhatsappSent)

	report := s.report(RunCompleted, "Cron job completed successfully", settings)
	report.EmailsSentToday = settings.EmailsSentToday + plan.email.sent
	report.WhatsappSentToday = settings.WhatsappSentToday + plan.whatsapp.sent
	report.Summary = &summary
	report.Results = results[:min(len(results), resultSampleSize)]
	return report, nil
}

func (s *Scheduler) candidates(ctx context.Context, testEmail string) ([]models.User, error) {
	query := eligibleUsers(s.db.WithContext(ctx)).Order("\"user\".id ASC")
	if testEmail != "" {
		query = query.Where("LOWER(\"user\".email) = ?", strings.ToLower(testEmail))
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	if testEmail != "" && len(users) == 0 {
		return nil, fmt.Errorf("no user found with email %s: %w", testEmail, ErrNotFound)
	}
	return users, nil
}

// generateRoast never fails; generator errors fall back to the static pools
// and leave the cached roast untouched
func (s *Scheduler) generateRoast(ctx context.Context, settings *models.Settings, users []models.User, now time.Time) *Roast {
	sample := "Grinder"
	if len(users) > 0 {
		sample = users[0].FirstName()
	}

	roast, err := s.roasts.Generate(ctx, sample)
	if err != nil || roast == nil {
		logrus.Warnf("Roast generation failed, using built-in roasts: %v", err)
		roast, _ = StaticRoastGenerator{}.Generate(ctx, sample)
		if roast.Insult == "" {
			roast.Insult = RandomInsult()
		}
		// fallback lines are not the roast of the day
		return roast
	}
	if roast.Insult == "" {
		roast.Insult = RandomInsult()
	}

	cached := models.DailyRoast{
		Roast:       roast.DashboardRoast,
		FullMessage: roast.FullMessage,
		Date:        now.In(settings.Location()).Format(models.DateLayout),
	}
	if err := s.settings.SaveRoast(ctx, settings.ID, cached); err != nil {
		logrus.Warnf("Caching roast failed: %v", err)
	}
	return roast
}

func (s *Scheduler) activeTemplate(ctx context.Context, templateType string) *models.MessageTemplate {
	if s.templates == nil {
		return nil
	}
	tmpl, err := s.templates.Active(ctx, templateType)
	if err != nil {
		logrus.Warnf("Loading %s template failed, using built-in message: %v", templateType, err)
		return nil
	}
	return tmpl
}

func (s *Scheduler) processUser(ctx context.Context, user *models.User, plan *runPlan) UserResult {
	result := UserResult{
		UserID:      user.ID,
		Username:    user.LeetcodeUsername,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
	}

	if _, err := s.stats.Sync(ctx, user.ID, user.LeetcodeUsername); err != nil {
		result.StatsUpdate = SendResult{Error: err.Error()}
	} else {
		result.StatsUpdate = SendResult{Success: true}
	}

	first := user.FirstName()
	vars := TemplateVars{
		Roast:  Personalize(plan.roast.DashboardRoast, first),
		Insult: plan.roast.Insult,
	}
	fullMessage := Personalize(plan.roast.FullMessage, first)

	if plan.email.reserve() {
		result.EmailSent = s.dispatcher.Email(ctx, user, EmailContent{
			Template:    plan.emailTemplate,
			Vars:        vars,
			FullMessage: fullMessage,
		})
		plan.email.release(result.EmailSent.Success)
	} else {
		result.EmailSent = skipped("Limit reached or disabled")
	}

	switch {
	case !user.HasPhone():
		result.WhatsappSent = skipped("No phone number")
	case plan.whatsapp.reserve():
		result.WhatsappSent = s.dispatcher.WhatsApp(ctx, user, plan.chatTemplate, vars, fullMessage)
		plan.whatsapp.release(result.WhatsappSent.Success)
	default:
		result.WhatsappSent = skipped("Limit reached or disabled")
	}

	return result
}

func summarize(results []UserResult) RunSummary {
	summary := RunSummary{TotalUsers: len(results)}
	for _, r := range results {
		if r.StatsUpdate.Success {
			summary.StatsUpdated++
		}
		switch {
		case r.EmailSent.Success:
			summary.EmailsSent++
		case r.EmailSent.Skipped:
			summary.EmailsSkipped++
		default:
			summary.EmailsFailed++
		}
		switch {
		case r.WhatsappSent.Success:
			summary.WhatsappSent++
		case r.WhatsappSent.Skipped:
			summary.WhatsappSkipped++
		default:
			summary.WhatsappFailed++
		}
	}
	return summary
}
