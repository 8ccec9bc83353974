package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dsagrinders/internal/models"
)

func TestValidPhoneNumber(t *testing.T) {
	valid := []string{"+919876543210", "+1 555 123 4567", "15551234567"}
	invalid := []string{"123", "+0123456789", "phone", "+1234567890123456", ""}
	for _, p := range valid {
		if !ValidPhoneNumber(p) {
			t.Errorf("%q should be valid", p)
		}
	}
	for _, p := range invalid {
		if ValidPhoneNumber(p) {
			t.Errorf("%q should be invalid", p)
		}
	}
}

func TestCreateUser(t *testing.T) {
	db := openDB(t)
	syncer := &fakeSyncer{}
	svc := NewUserService(db, syncer)
	ctx := context.Background()

	req := models.CreateUserRequest{Name: "Ada", LeetcodeUsername: "ada", Email: "Ada@Example.com", Github: "ada"}
	user, err := svc.CreateUser(ctx, req)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Email != "ada@example.com" || user.Role != models.RoleUser {
		t.Fatalf("user = %+v", user)
	}
	if len(syncer.calls) != 1 || syncer.calls[0] != "ada" {
		t.Fatalf("sync calls = %v", syncer.calls)
	}

	if _, err := svc.CreateUser(ctx, req); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate err = %v", err)
	}
	if _, err := svc.CreateUser(ctx, models.CreateUserRequest{Name: "x"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing fields err = %v", err)
	}
}

func TestCreateUserRollsBackOnSyncFailure(t *testing.T) {
	db := openDB(t)
	svc := NewUserService(db, &fakeSyncer{fail: true})

	_, err := svc.CreateUser(context.Background(), models.CreateUserRequest{Name: "Bad", LeetcodeUsername: "ghost", Email: "bad@example.com", Github: "bad"})
	if !errors.Is(err, ErrSyncFailed) {
		t.Fatalf("err = %v, want ErrSyncFailed", err)
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Fatalf("user kept after failed sync (%d rows)", count)
	}
}

func TestSyncIdentityProvisionsPlaceholder(t *testing.T) {
	db := openDB(t)
	svc := NewUserService(db, &fakeSyncer{})
	ctx := context.Background()

	user, created, err := svc.SyncIdentity(ctx, Identity{Email: "New@Example.com", Name: "New Person"})
	if err != nil || !created {
		t.Fatalf("SyncIdentity = %v, %v", created, err)
	}
	if !strings.HasPrefix(user.LeetcodeUsername, models.PendingHandlePrefix) || len(user.LeetcodeUsername) != len(models.PendingHandlePrefix)+12 {
		t.Errorf("placeholder handle = %q", user.LeetcodeUsername)
	}
	if user.Github != models.PendingGithub || !user.IsProfileIncomplete() {
		t.Errorf("user = %+v", user)
	}

	again, created, err := svc.SyncIdentity(ctx, Identity{Email: "new@example.com"})
	if err != nil || created || again.ID != user.ID {
		t.Fatalf("second SyncIdentity = %v, %v, %v", again, created, err)
	}

	if _, _, err := svc.SyncIdentity(ctx, Identity{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing email err = %v", err)
	}
}

func TestUpdateProfileCompletesOnboarding(t *testing.T) {
	db := openDB(t)
	syncer := &fakeSyncer{}
	svc := NewUserService(db, syncer)
	ctx := context.Background()

	user, _, err := svc.SyncIdentity(ctx, Identity{Email: "ada@example.com", Name: "Ada"})
	if err != nil {
		t.Fatalf("SyncIdentity: %v", err)
	}

	updated, err := svc.UpdateProfile(ctx, user.ID, models.UpdateProfileRequest{
		LeetcodeUsername: strPtr("ada_codes"),
		Github:           strPtr("@ada"),
		Linkedin:         strPtr("ada-l"),
		PhoneNumber:      strPtr("+91 98765 43210"),
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.IsProfileIncomplete() {
		t.Fatalf("profile still incomplete: %+v", updated)
	}
	if updated.Github != "https://github.com/ada" || *updated.Linkedin != "https://linkedin.com/in/ada-l" || *updated.PhoneNumber != "+919876543210" {
		t.Errorf("links = %s %s %s", updated.Github, *updated.Linkedin, *updated.PhoneNumber)
	}
	if len(syncer.calls) != 1 || syncer.calls[0] != "ada_codes" {
		t.Errorf("sync calls = %v", syncer.calls)
	}

	if _, err := svc.UpdateProfile(ctx, user.ID, models.UpdateProfileRequest{PhoneNumber: strPtr("123")}); !errors.Is(err, ErrInvalidPhone) {
		t.Errorf("short phone err = %v", err)
	}
}

func TestUpdateProfileHandleConflict(t *testing.T) {
	db := openDB(t)
	svc := NewUserService(db, &fakeSyncer{})
	createUser(t, db, "Taken", "taken", nil)
	other := createUser(t, db, "Other", "other", nil)

	_, err := svc.UpdateProfile(context.Background(), other.ID, models.UpdateProfileRequest{LeetcodeUsername: strPtr("taken")})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestPromoteAndListAll(t *testing.T) {
	db := openDB(t)
	svc := NewUserService(db, &fakeSyncer{})
	ctx := context.Background()
	a := createUser(t, db, "A", "a", strPtr("+15551234567"))
	createUser(t, db, "B", "b", nil)

	promoted, err := svc.Promote(ctx, a.ID)
	if err != nil || !promoted.IsAdmin() {
		t.Fatalf("Promote = %+v, %v", promoted, err)
	}
	if _, err := svc.Promote(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Promote unknown err = %v", err)
	}

	users, stats, err := svc.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(users) != 2 || stats != (UserStats{Total: 2, WithWhatsApp: 1, WithoutWhatsApp: 1, Admins: 1}) {
		t.Fatalf("users %d, stats %+v", len(users), stats)
	}
}
