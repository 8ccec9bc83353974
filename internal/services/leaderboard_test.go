package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"dsagrinders/internal/models"
)

func entry(id uint, today, total int) LeaderboardEntry {
	return LeaderboardEntry{ID: id, TodayPoints: today, TotalScore: total}
}

func ids(entries []LeaderboardEntry) []uint {
	out := make([]uint, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func equalIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRankEntriesDaily(t *testing.T) {
	entries := []LeaderboardEntry{
		entry(1, 5, 100),
		entry(2, 9, 10),
		entry(3, 5, 200),
		entry(4, 0, 500),
	}
	RankEntries(entries, ModeDaily)

	if got, want := ids(entries), []uint{2, 3, 1, 4}; !equalIDs(got, want) {
		t.Fatalf("daily order = %v, want %v", got, want)
	}
	for i, e := range entries {
		if e.Rank != i+1 {
			t.Errorf("entry %d has rank %d", e.ID, e.Rank)
		}
	}
}

func TestRankEntriesAllTime(t *testing.T) {
	entries := []LeaderboardEntry{
		entry(1, 5, 100),
		entry(2, 9, 10),
		entry(3, 1, 100),
		entry(4, 0, 500),
	}
	RankEntries(entries, ModeAllTime)

	if got, want := ids(entries), []uint{4, 1, 3, 2}; !equalIDs(got, want) {
		t.Fatalf("allTime order = %v, want %v", got, want)
	}
}

func TestRankEntriesTotalOrderOnTies(t *testing.T) {
	forward := []LeaderboardEntry{entry(7, 3, 30), entry(2, 3, 30), entry(5, 3, 30)}
	backward := []LeaderboardEntry{entry(5, 3, 30), entry(2, 3, 30), entry(7, 3, 30)}
	RankEntries(forward, ModeDaily)
	RankEntries(backward, ModeDaily)

	want := []uint{2, 5, 7}
	if !equalIDs(ids(forward), want) || !equalIDs(ids(backward), want) {
		t.Fatalf("tied entries ordered %v and %v, want %v", ids(forward), ids(backward), want)
	}
}

func TestParseLeaderboardMode(t *testing.T) {
	if ParseLeaderboardMode("allTime") != ModeAllTime {
		t.Error("allTime not recognised")
	}
	for _, v := range []string{"", "daily", "weekly"} {
		if ParseLeaderboardMode(v) != ModeDaily {
			t.Errorf("%q should default to daily", v)
		}
	}
}

func TestBuildEntryWithoutSnapshots(t *testing.T) {
	e := BuildEntry(models.User{ID: 3, Name: "New"}, nil, nil)
	if e.TodayPoints != 0 || e.TotalScore != 0 || e.LastUpdated != nil {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.RecentProblems == nil {
		t.Fatal("recent problems should serialise as an empty list")
	}
}

func TestGlobalLeaderboard(t *testing.T) {
	db := openDB(t)
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	alice := createUser(t, db, "Alice", "alice", nil)
	bob := createUser(t, db, "Bob", "bob", nil)
	admin := createUser(t, db, "Root", "root", nil)
	db.Model(admin).Update("role", models.RoleAdmin)
	pending := createUser(t, db, "Pending", models.PendingHandlePrefix+"abcdef123456", nil)

	createStat(t, db, alice.ID, "2026-05-09", 100, 0, 0, 0)
	createStat(t, db, alice.ID, "2026-05-10", 102, 0, 0, 2)
	createStat(t, db, bob.ID, "2026-05-08", 10, 10, 0, 5)
	createStat(t, db, admin.ID, "2026-05-10", 500, 0, 0, 50)
	createStat(t, db, pending.ID, "2026-05-10", 500, 0, 0, 50)

	svc := NewLeaderboardService(db)
	svc.now = fixedClock(now)

	daily, err := svc.Global(context.Background(), ModeDaily)
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if got, want := ids(daily), []uint{alice.ID, bob.ID}; !equalIDs(got, want) {
		t.Fatalf("daily ids = %v, want %v", got, want)
	}
	if daily[0].TodayPoints != 2 || daily[0].TotalScore != 102 {
		t.Errorf("alice entry = %+v", daily[0])
	}
	// bob has no row today: zero points, score from his latest row
	if daily[1].TodayPoints != 0 || daily[1].TotalScore != 40 {
		t.Errorf("bob entry = %+v", daily[1])
	}
	if daily[1].LastUpdated == nil || *daily[1].LastUpdated != "2026-05-08" {
		t.Errorf("bob lastUpdated = %v", daily[1].LastUpdated)
	}

	allTime, err := svc.Global(context.Background(), ModeAllTime)
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if allTime[0].ID != alice.ID || allTime[1].Rank != 2 {
		t.Fatalf("allTime = %v", ids(allTime))
	}
}

func TestGroupLeaderboardAccess(t *testing.T) {
	db := openDB(t)
	owner := createUser(t, db, "Owner", "owner", nil)
	member := createUser(t, db, "Member", "member", nil)
	outsider := createUser(t, db, "Outsider", "outsider", nil)

	groups := NewGroupService(db)
	group, err := groups.CreateGroup(context.Background(), "Grinders", "", owner.ID)
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if _, err := groups.JoinGroup(context.Background(), group.Code, member.ID); err != nil {
		t.Fatalf("JoinGroup: %v", err)
	}

	svc := NewLeaderboardService(db)

	board, err := svc.ForGroup(context.Background(), group.ID, member.ID, ModeDaily)
	if err != nil {
		t.Fatalf("ForGroup: %v", err)
	}
	if board.GroupName != "Grinders" || board.GroupCode != group.Code || len(board.Leaderboard) != 2 {
		t.Fatalf("board = %+v", board)
	}

	board, err = svc.ForGroup(context.Background(), group.ID, outsider.ID, ModeDaily)
	if !errors.Is(err, ErrForbidden) || board != nil {
		t.Fatalf("outsider got %v, %v", board, err)
	}

	if _, err := svc.ForGroup(context.Background(), group.ID+100, member.ID, ModeDaily); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing group err = %v", err)
	}
}
