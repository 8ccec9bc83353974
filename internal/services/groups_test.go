package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"dsagrinders/internal/models"
)

func TestCreateGroupCodesAreUnique(t *testing.T) {
	db := openDB(t)
	owner := createUser(t, db, "Owner", "owner", nil)
	svc := NewGroupService(db)

	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		g, err := svc.CreateGroup(context.Background(), "group", "", owner.ID)
		if err != nil {
			t.Fatalf("CreateGroup #%d: %v", i, err)
		}
		if len(g.Code) != models.GroupCodeLength {
			t.Fatalf("code %q has wrong length", g.Code)
		}
		for _, r := range g.Code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("code %q contains %q", g.Code, r)
			}
		}
		if seen[g.Code] {
			t.Fatalf("duplicate code %s", g.Code)
		}
		seen[g.Code] = true
	}
}

func TestCreateGroupRetriesOnCollision(t *testing.T) {
	db := openDB(t)
	owner := createUser(t, db, "Owner", "owner", nil)

	zeros := make([]byte, models.GroupCodeLength)
	ones := bytes.Repeat([]byte{1}, models.GroupCodeLength)

	first, err := NewGroupService(db).WithRandom(bytes.NewReader(zeros)).
		CreateGroup(context.Background(), "first", "", owner.ID)
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if first.Code != "AAAAAA" {
		t.Fatalf("first code = %s", first.Code)
	}

	source := bytes.NewReader(append(append([]byte{}, zeros...), ones...))
	second, err := NewGroupService(db).WithRandom(source).
		CreateGroup(context.Background(), "second", "", owner.ID)
	if err != nil {
		t.Fatalf("CreateGroup after collision: %v", err)
	}
	if second.Code != "BBBBBB" {
		t.Fatalf("second code = %s, want BBBBBB", second.Code)
	}
}

func TestCreateGroupGivesUpAfterTenCollisions(t *testing.T) {
	db := openDB(t)
	owner := createUser(t, db, "Owner", "owner", nil)

	zeros := make([]byte, models.GroupCodeLength)
	if _, err := NewGroupService(db).WithRandom(bytes.NewReader(zeros)).
		CreateGroup(context.Background(), "first", "", owner.ID); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	source := bytes.NewReader(make([]byte, models.GroupCodeLength*maxCodeAttempts))
	_, err := NewGroupService(db).WithRandom(source).CreateGroup(context.Background(), "second", "", owner.ID)
	if !errors.Is(err, ErrCodeGenerationExhausted) {
		t.Fatalf("err = %v, want ErrCodeGenerationExhausted", err)
	}
}

func TestGenerateCodeRejectsBiasedBytes(t *testing.T) {
	svc := NewGroupService(nil).WithRandom(bytes.NewReader([]byte{255, 252, 0, 1, 2, 3, 4, 35}))
	code, err := svc.generateCode()
	if err != nil {
		t.Fatalf("generateCode: %v", err)
	}
	if code != "ABCDE9" {
		t.Fatalf("code = %s, want ABCDE9", code)
	}
}

func TestJoinGroup(t *testing.T) {
	db := openDB(t)
	owner := createUser(t, db, "Owner", "owner", nil)
	joiner := createUser(t, db, "Joiner", "joiner", nil)
	svc := NewGroupService(db)
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, "  Night Owls ", "late grinders", owner.ID)
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if group.Name != "Night Owls" {
		t.Errorf("name not trimmed: %q", group.Name)
	}

	if _, err := svc.JoinGroup(ctx, "zzzzzz", joiner.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown code err = %v", err)
	}
	joined, err := svc.JoinGroup(ctx, strings.ToLower(group.Code), joiner.ID)
	if err != nil {
		t.Fatalf("JoinGroup: %v", err)
	}
	if joined.ID != group.ID {
		t.Fatalf("joined group %d, want %d", joined.ID, group.ID)
	}
	if _, err := svc.JoinGroup(ctx, group.Code, joiner.ID); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("second join err = %v", err)
	}
	if _, err := svc.JoinGroup(ctx, group.Code, owner.ID); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("owner join err = %v", err)
	}

	list, err := svc.ListGroups(ctx, joiner.ID)
	if err != nil {
		t.Fatalf("ListGroups: %v", err)
	}
	if len(list) != 1 || list[0].Code != group.Code || list[0].OwnerName != "Owner" || list[0].Owner != owner.ID {
		t.Fatalf("ListGroups = %+v", list)
	}
}

func TestCreateGroupRequiresName(t *testing.T) {
	db := openDB(t)
	_, err := NewGroupService(db).CreateGroup(context.Background(), "   ", "", 1)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestListGroupsNewestFirst(t *testing.T) {
	db := openDB(t)
	owner := createUser(t, db, "Owner", "owner", nil)
	other := createUser(t, db, "Other", "other", nil)
	svc := NewGroupService(db)
	ctx := context.Background()

	older, err := svc.CreateGroup(ctx, "Older", "", owner.ID)
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	newer, err := svc.CreateGroup(ctx, "Newer", "", owner.ID)
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if _, err := svc.CreateGroup(ctx, "Elsewhere", "", other.ID); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if err := db.Model(&models.Group{}).Where("id = ?", older.ID).
		Update("created_at", newer.CreatedAt.Add(-time.Hour)).Error; err != nil {
		t.Fatalf("backdating group: %v", err)
	}

	list, err := svc.ListGroups(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListGroups: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID || list[1].ID != older.ID {
		t.Fatalf("ListGroups = %+v", list)
	}
	if list[0].OwnerName != "Owner" || list[0].Name != "Newer" {
		t.Fatalf("summary = %+v", list[0])
	}

	empty, err := svc.ListGroups(ctx, 9999)
	if err != nil || len(empty) != 0 {
		t.Fatalf("ListGroups for non-member = %v, %v", empty, err)
	}
}
