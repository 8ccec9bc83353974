package services

import (
	"context"
	"time"

	"dsagrinders/internal/models"

	"github.com/sirupsen/logrus"
)

// ReminderWorker triggers the scheduler in-process when a configured
// schedule slot comes up. Each slot fires at most once per day.
type ReminderWorker struct {
	runner   BatchRunner
	settings *SettingsStore
	interval time.Duration
	fired    map[string]bool
	now      func() time.Time
}

func NewReminderWorker(runner BatchRunner, settings *SettingsStore) *ReminderWorker {
	return &ReminderWorker{
		runner:   runner,
		settings: settings,
		interval: time.Minute,
		fired:    make(map[string]bool),
		now:      time.Now,
	}
}

func (w *ReminderWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *ReminderWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.checkSchedule(ctx)
		}
	}
}

// dueSlot returns the first schedule entry whose start lies within
// (local-window, local]. Malformed entries are ignored.
func dueSlot(schedule []string, local time.Time, window time.Duration) (string, bool) {
	for _, slot := range schedule {
		if !IsTimeOfDay(slot) {
			continue
		}
		t, err := time.Parse("15:04", slot)
		if err != nil {
			continue
		}
		at := time.Date(local.Year(), local.Month(), local.Day(), t.Hour(), t.Minute(), 0, 0, local.Location())
		if d := local.Sub(at); d >= 0 && d < window {
			return slot, true
		}
	}
	return "", false
}

func (w *ReminderWorker) checkSchedule(ctx context.Context) {
	settings, err := w.settings.Get(ctx)
	if err != nil {
		logrus.Errorf("Reminder worker failed to load settings: %v", err)
		return
	}

	local := w.now().In(settings.Location())
	day := local.Format(models.DateLayout)

	var slots []string
	slots = append(slots, settings.EmailSchedule...)
	slots = append(slots, settings.WhatsappSchedule...)

	slot, ok := dueSlot(slots, local, w.interval)
	if !ok {
		return
	}
	key := day + " " + slot
	if w.fired[key] {
		return
	}
	w.fired[key] = true
	w.forgetBefore(day)

	report, err := w.runner.Run(ctx, RunOptions{})
	if err != nil {
		logrus.Errorf("Scheduled run at %s failed: %v", slot, err)
		return
	}
	logrus.Infof("Scheduled run at %s: %s", slot, report.Message)
}

// forgetBefore drops fired keys of earlier days
func (w *ReminderWorker) forgetBefore(day string) {
	for key := range w.fired {
		if key[:len(models.DateLayout)] < day {
			delete(w.fired, key)
		}
	}
}
