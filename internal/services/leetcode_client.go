package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"dsagrinders/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

// ErrProfileNotFound is returned when LeetCode has no user with the given handle
var ErrProfileNotFound = errors.New("leetcode profile not found")

// ProfileStats is the subset of a LeetCode profile stored in a snapshot
type ProfileStats struct {
	Easy           int
	Medium         int
	Hard           int
	Total          int
	Ranking        int
	Avatar         string
	Country        string
	Streak         int
	LastSubmission string
	RecentProblems []models.RecentProblem
}

// StatsProvider fetches the current statistics of a profile handle
type StatsProvider interface {
	FetchProfile(ctx context.Context, handle string) (*ProfileStats, error)
}

const profileQuery = `query userProfile($username: String!) {
  matchedUser(username: $username) {
    username
    profile { ranking userAvatar countryName }
    submitStatsGlobal { acSubmissionNum { difficulty count } }
    userCalendar { streak }
  }
  recentAcSubmissionList(username: $username, limit: 10) { title titleSlug timestamp }
}`

type graphQLResponse struct {
	Data struct {
		MatchedUser *struct {
			Username string `json:"username"`
			Profile  struct {
				Ranking     int    `json:"ranking"`
				UserAvatar  string `json:"userAvatar"`
				CountryName string `json:"countryName"`
			} `json:"profile"`
			SubmitStatsGlobal struct {
				AcSubmissionNum []struct {
					Difficulty string `json:"difficulty"`
					Count      int    `json:"count"`
				} `json:"acSubmissionNum"`
			} `json:"submitStatsGlobal"`
			UserCalendar *struct {
				Streak int `json:"streak"`
			} `json:"userCalendar"`
		} `json:"matchedUser"`
		RecentAcSubmissionList []models.RecentProblem `json:"recentAcSubmissionList"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// LeetCodeClient talks to the public LeetCode GraphQL endpoint
type LeetCodeClient struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker[*ProfileStats]
}

func NewLeetCodeClient(graphQLURL string, timeout time.Duration) *LeetCodeClient {
	settings := gobreaker.Settings{
		Name:        "leetcode",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.Warnf("circuit breaker %s: %s -> %s", name, from, to)
		},
		// unknown handles are user errors, not provider failures
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrProfileNotFound)
		},
	}

	return &LeetCodeClient{
		client: resty.New().
			SetBaseURL(graphQLURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Referer", "https://leetcode.com").
			SetRetryCount(1),
		breaker: gobreaker.NewCircuitBreaker[*ProfileStats](settings),
	}
}

// FetchProfile implements StatsProvider
func (c *LeetCodeClient) FetchProfile(ctx context.Context, handle string) (*ProfileStats, error) {
	return c.breaker.Execute(func() (*ProfileStats, error) {
		return c.fetch(ctx, handle)
	})
}

func (c *LeetCodeClient) fetch(ctx context.Context, handle string) (*ProfileStats, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"query":     profileQuery,
			"variables": map[string]string{"username": handle},
		}).
		SetResult(&graphQLResponse{}).
		Post("")
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d %s", resp.StatusCode(), string(resp.Body()))
	}

	result := resp.Result().(*graphQLResponse)
	if result.Data.MatchedUser == nil {
		if len(result.Errors) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, result.Errors[0].Message)
		}
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, handle)
	}

	return toProfileStats(result), nil
}

func toProfileStats(r *graphQLResponse) *ProfileStats {
	u := r.Data.MatchedUser
	stats := &ProfileStats{
		Ranking:        u.Profile.Ranking,
		Avatar:         u.Profile.UserAvatar,
		Country:        u.Profile.CountryName,
		RecentProblems: r.Data.RecentAcSubmissionList,
	}
	if u.UserCalendar != nil {
		stats.Streak = u.UserCalendar.Streak
	}

	for _, n := range u.SubmitStatsGlobal.AcSubmissionNum {
		switch n.Difficulty {
		case "All":
			stats.Total = n.Count
		case "Easy":
			stats.Easy = n.Count
		case "Medium":
			stats.Medium = n.Count
		case "Hard":
			stats.Hard = n.Count
		}
	}
	if stats.Total == 0 {
		stats.Total = stats.Easy + stats.Medium + stats.Hard
	}

	// timestamps are unix seconds encoded as strings
	var latest int64
	for _, p := range stats.RecentProblems {
		if ts, err := strconv.ParseInt(p.Timestamp, 10, 64); err == nil && ts > latest {
			latest = ts
			stats.LastSubmission = p.Timestamp
		}
	}
	if stats.RecentProblems == nil {
		stats.RecentProblems = []models.RecentProblem{}
	}

	return stats
}
