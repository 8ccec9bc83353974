package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Roast is the shared content of one notification run. Any field may contain [NAME].
type Roast struct {
	DashboardRoast string `json:"dashboardRoast"`
	FullMessage    string `json:"fullMessage"`
	Insult         string `json:"-"`
}

// RoastGenerator produces the roast of the day
type RoastGenerator interface {
	Generate(ctx context.Context, sampleName string) (*Roast, error)
}

// StaticRoastGenerator picks from the built-in pools
type StaticRoastGenerator struct{}

func (StaticRoastGenerator) Generate(ctx context.Context, sampleName string) (*Roast, error) {
	return &Roast{DashboardRoast: RandomRoast(), Insult: RandomInsult()}, nil
}

// AIRoastGenerator asks an OpenAI-compatible chat completions endpoint for a roast
type AIRoastGenerator struct {
	client *resty.Client
	model  string
}

func NewAIRoastGenerator(url, apiKey, model string) *AIRoastGenerator {
	return &AIRoastGenerator{
		client: resty.New().
			SetBaseURL(url).
			SetAuthToken(apiKey).
			SetTimeout(20 * time.Second).
			SetHeader("Content-Type", "application/json"),
		model: model,
	}
}

// NewRoastGenerator returns the AI generator when an API key is configured
func NewRoastGenerator(url, apiKey, model string) RoastGenerator {
	if apiKey == "" {
		return StaticRoastGenerator{}
	}
	return NewAIRoastGenerator(url, apiKey, model)
}

const roastPrompt = `You write short, savage but harmless motivational roasts for people preparing for coding interviews on LeetCode.
Use the literal token [NAME] wherever the recipient's first name belongs (example name: %s).
Reply with JSON only: {"dashboardRoast": "<one sentence>", "fullMessage": "<3 to 5 sentences pushing them to solve problems today>"}`

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *AIRoastGenerator) Generate(ctx context.Context, sampleName string) (*Roast, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(chatCompletionRequest{
			Model:       g.model,
			Messages:    []chatMessage{{Role: "user", Content: fmt.Sprintf(roastPrompt, sampleName)}},
			Temperature: 1.0,
		}).
		SetResult(&chatCompletionResponse{}).
		Post("")
	if err != nil {
		return nil, fmt.Errorf("%w: generating roast: %v", ErrUpstream, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: roast generation returned %d", ErrUpstream, resp.StatusCode())
	}

	result := resp.Result().(*chatCompletionResponse)
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("%w: roast generation returned no choices", ErrUpstream)
	}

	roast, err := parseRoast(result.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	roast.Insult = RandomInsult()
	return roast, nil
}

// parseRoast extracts the JSON object from a model reply, tolerating code fences
func parseRoast(content string) (*Roast, error) {
	start, end := strings.Index(content, "{"), strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, errors.New("roast reply contains no JSON object")
	}

	var roast Roast
	if err := json.Unmarshal([]byte(content[start:end+1]), &roast); err != nil {
		return nil, fmt.Errorf("decoding roast reply: %w", err)
	}
	if roast.DashboardRoast == "" && roast.FullMessage == "" {
		return nil, errors.New("roast reply is empty")
	}
	if roast.DashboardRoast == "" {
		roast.DashboardRoast = roast.FullMessage
	}
	return &roast, nil
}
