package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ChatSender delivers one WhatsApp message
type ChatSender interface {
	SendWhatsApp(ctx context.Context, phoneNumber, body string) error
}

// WhatsAppService sends messages through the rpayconnect text API
type WhatsAppService struct {
	client  *resty.Client
	apiKey  string
	limiter *rate.Limiter
}

func NewWhatsAppService(baseURL, apiKey string, perSecond float64) *WhatsAppService {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &WhatsAppService{
		client:  resty.New().SetBaseURL(strings.TrimRight(baseURL, "/")),
		apiKey:  apiKey,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// CleanPhoneNumber keeps only the digits of phone
func CleanPhoneNumber(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
}

type sendTextResponse struct {
	Status  *bool  `json:"status"`
	Message string `json:"message"`
}

// SendWhatsApp implements ChatSender
func (s *WhatsAppService) SendWhatsApp(ctx context.Context, phoneNumber, body string) error {
	if s.apiKey == "" {
		return fmt.Errorf("WhatsApp API key is not configured: %w", ErrConfiguration)
	}

	number := CleanPhoneNumber(phoneNumber)
	if number == "" {
		return fmt.Errorf("empty phone number: %w", ErrValidation)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_key": s.apiKey,
			"number":  number,
			"msg":     body,
		}).
		Get("/api/send-text")
	if err != nil {
		return fmt.Errorf("%w: sending WhatsApp message: %v", ErrUpstream, err)
	}

	var result sendTextResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		logrus.Debugf("Decoding WhatsApp API response (status %d): %v", resp.StatusCode(), err)
	}

	if !resp.IsSuccess() || (result.Status != nil && !*result.Status) {
		msg := result.Message
		if msg == "" {
			msg = "WhatsApp API error"
		}
		return fmt.Errorf("%w: %s (status %d)", ErrUpstream, msg, resp.StatusCode())
	}
	return nil
}
