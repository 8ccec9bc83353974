package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dsagrinders/internal/database/dbtest"
	"dsagrinders/internal/models"

	"gorm.io/gorm"
)

type fakeProvider struct {
	mu       sync.Mutex
	profiles map[string]*ProfileStats
	calls    int
}

func (f *fakeProvider) FetchProfile(ctx context.Context, handle string) (*ProfileStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	p, ok := f.profiles[handle]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

type fakeSyncer struct {
	mu    sync.Mutex
	fail  bool
	calls []string
}

func (f *fakeSyncer) Sync(ctx context.Context, userID uint, handle string) (*models.DailyStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, handle)
	if f.fail {
		return nil, errors.Join(ErrSyncFailed, errors.New("provider down"))
	}
	return &models.DailyStat{UserID: userID}, nil
}

type fakeEmail struct {
	mu   sync.Mutex
	fail bool
	sent []string
	last EmailContent
}

func (f *fakeEmail) SendEmail(ctx context.Context, user *models.User, content EmailContent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return ErrUpstream
	}
	f.sent = append(f.sent, user.Email)
	f.last = content
	return nil
}

func (f *fakeEmail) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeChat struct {
	mu     sync.Mutex
	phones []string
	bodies []string
}

func (f *fakeChat) SendWhatsApp(ctx context.Context, phone, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phones = append(f.phones, phone)
	f.bodies = append(f.bodies, body)
	return nil
}

func (f *fakeChat) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.phones)
}

type fakeRoasts struct {
	roast *Roast
	err   error
}

func (f fakeRoasts) Generate(ctx context.Context, sampleName string) (*Roast, error) {
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.roast
	return &cp, nil
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func boolPtr(b bool) *bool { return &b }

// createUser inserts a complete, non-admin user
func createUser(t *testing.T, db *gorm.DB, name, handle string, phone *string) *models.User {
	t.Helper()
	u := &models.User{
		Name:             name,
		Email:            handle + "@example.com",
		LeetcodeUsername: handle,
		Github:           "https://github.com/" + handle,
		Linkedin:         strPtr("https://linkedin.com/in/" + handle),
		PhoneNumber:      phone,
		Role:             models.RoleUser,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("creating user %s: %v", handle, err)
	}
	return u
}

func createStat(t *testing.T, db *gorm.DB, userID uint, date string, easy, medium, hard, todayPoints int) {
	t.Helper()
	stat := &models.DailyStat{
		UserID:      userID,
		Date:        date,
		Easy:        easy,
		Medium:      medium,
		Hard:        hard,
		Total:       easy + medium + hard,
		TodayPoints: todayPoints,
	}
	if err := db.Create(stat).Error; err != nil {
		t.Fatalf("creating stat: %v", err)
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func openDB(t *testing.T) *gorm.DB {
	return dbtest.Open(t)
}
