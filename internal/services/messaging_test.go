package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"dsagrinders/internal/models"
)

func TestCleanPhoneNumber(t *testing.T) {
	cases := map[string]string{
		"+91 98765-43210":         "919876543210",
		"+1\t(555) 123\u00a04567": "15551234567",
		"+44.20.7946.0958":        "442079460958",
		"":                        "",
	}
	for in, want := range cases {
		if got := CleanPhoneNumber(in); got != want {
			t.Errorf("CleanPhoneNumber(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWhatsAppServiceSend(t *testing.T) {
	var query atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/send-text" {
			http.NotFound(w, r)
			return
		}
		query.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status": true, "message": "sent"}`)
	}))
	defer srv.Close()

	svc := NewWhatsAppService(srv.URL+"/", "key-123", 0)
	if err := svc.SendWhatsApp(context.Background(), "+91 98765-43210", "grind time"); err != nil {
		t.Fatalf("SendWhatsApp: %v", err)
	}

	q := query.Load().(url.Values)
	if q.Get("number") != "919876543210" || q.Get("api_key") != "key-123" || q.Get("msg") != "grind time" {
		t.Fatalf("query = %v", q)
	}
}

func TestWhatsAppServiceFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"status false", http.StatusOK, `{"status": false, "message": "invalid number"}`, "invalid number"},
		{"server error", http.StatusBadGateway, `oops`, "WhatsApp API error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			err := NewWhatsAppService(srv.URL, "key", 0).SendWhatsApp(context.Background(), "+15551234567", "hi")
			if !errors.Is(err, ErrUpstream) || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestWhatsAppServiceRequiresKey(t *testing.T) {
	err := NewWhatsAppService("http://127.0.0.1:1", "", 0).SendWhatsApp(context.Background(), "+15551234567", "hi")
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("err = %v", err)
	}
}

func TestEmailCompose(t *testing.T) {
	svc := NewEmailService("", "", "DSA Grinders", "https://dash.example.com", NewRenderer())
	user := &models.User{Name: "Ada Lovelace", Email: "ada@example.com"}

	subject, body := svc.Compose(user, EmailContent{Vars: TemplateVars{Roast: "roast <b>", Insult: "insult"}})
	if subject != DefaultEmailSubject("Ada Lovelace") {
		t.Errorf("subject = %q", subject)
	}
	if !strings.Contains(body, "roast &lt;b&gt;") || !strings.Contains(body, "https://dash.example.com") {
		t.Errorf("default body = %s", body)
	}

	tmpl := &models.MessageTemplate{Subject: "Hey {userName}", Content: "<p>{roast} / {insult}</p>"}
	subject, body = svc.Compose(user, EmailContent{Template: tmpl, Vars: TemplateVars{Roast: "r", Insult: "i"}})
	if subject != "Hey Ada Lovelace" || body != "<p>r / i</p>" {
		t.Errorf("template render = %q / %q", subject, body)
	}

	if err := svc.SendEmail(context.Background(), user, EmailContent{}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("unconfigured send err = %v", err)
	}
}

func TestDispatcherWhatsAppSkipsWithoutPhone(t *testing.T) {
	chat := &fakeChat{}
	d := NewDispatcher(&fakeEmail{}, chat, NewRenderer())

	res := d.WhatsApp(context.Background(), &models.User{Name: "Ada"}, nil, TemplateVars{}, "")
	if !res.Skipped || res.Reason != "No phone number" || chat.count() != 0 {
		t.Fatalf("result = %+v", res)
	}

	user := &models.User{Name: "Ada", PhoneNumber: strPtr("+15551234567")}
	tmpl := &models.MessageTemplate{Content: "{userName}: {roast}"}
	res = d.WhatsApp(context.Background(), user, tmpl, TemplateVars{Roast: "wake up"}, "")
	if !res.Success || chat.bodies[0] != "Ada: wake up" {
		t.Fatalf("result = %+v, body %q", res, chat.bodies)
	}
}

func TestParseRoast(t *testing.T) {
	reply := "```json\n{\"dashboardRoast\": \"[NAME] naps\", \"fullMessage\": \"Get up [NAME].\"}\n```"
	roast, err := parseRoast(reply)
	if err != nil {
		t.Fatalf("parseRoast: %v", err)
	}
	if roast.DashboardRoast != "[NAME] naps" || roast.FullMessage != "Get up [NAME]." {
		t.Fatalf("roast = %+v", roast)
	}

	for _, bad := range []string{"no json here", "{}", "{not json}"} {
		if _, err := parseRoast(bad); err == nil {
			t.Errorf("parseRoast(%q) succeeded", bad)
		}
	}
}

func TestAIRoastGenerator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer ai-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req chatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "test-model" || !strings.Contains(req.Messages[0].Content, "Ada") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"{\"dashboardRoast\":\"[NAME] rests\",\"fullMessage\":\"Solve two today, [NAME].\"}"}}]}`)
	}))
	defer srv.Close()

	roast, err := NewRoastGenerator(srv.URL, "ai-key", "test-model").Generate(context.Background(), "Ada")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if roast.DashboardRoast != "[NAME] rests" || roast.Insult == "" {
		t.Fatalf("roast = %+v", roast)
	}

	if _, ok := NewRoastGenerator(srv.URL, "", "m").(StaticRoastGenerator); !ok {
		t.Fatal("empty key should select the static generator")
	}
}

func TestLeetCodeClientFetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables map[string]string `json:"variables"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		if req.Variables["username"] != "ada" {
			_, _ = io.WriteString(w, `{"data":{"matchedUser":null,"recentAcSubmissionList":null},"errors":[{"message":"That user does not exist."}]}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":{
			"matchedUser":{"username":"ada","profile":{"ranking":1234,"userAvatar":"a.png","countryName":"UK"},
				"submitStatsGlobal":{"acSubmissionNum":[{"difficulty":"All","count":17},{"difficulty":"Easy","count":10},{"difficulty":"Medium","count":5},{"difficulty":"Hard","count":2}]},
				"userCalendar":{"streak":4}},
			"recentAcSubmissionList":[{"title":"Two Sum","titleSlug":"two-sum","timestamp":"1700000000"},{"title":"LRU Cache","titleSlug":"lru-cache","timestamp":"1700000500"}]}}`)
	}))
	defer srv.Close()

	client := NewLeetCodeClient(srv.URL, 0)
	stats, err := client.FetchProfile(context.Background(), "ada")
	if err != nil {
		t.Fatalf("FetchProfile: %v", err)
	}
	if stats.Easy != 10 || stats.Medium != 5 || stats.Hard != 2 || stats.Total != 17 {
		t.Errorf("counts = %+v", stats)
	}
	if stats.Ranking != 1234 || stats.Streak != 4 || stats.LastSubmission != "1700000500" || len(stats.RecentProblems) != 2 {
		t.Errorf("profile = %+v", stats)
	}

	if _, err := client.FetchProfile(context.Background(), "ghost"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("unknown handle err = %v", err)
	}
}

func TestWhatsAppServiceNonJSONResponse(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, "<html>gateway</html>")
	}))
	defer srv.Close()

	svc := NewWhatsAppService(srv.URL, "key-123", 0)
	if err := svc.SendWhatsApp(context.Background(), "+15551234567", "hi"); err != nil {
		t.Fatalf("plain 200 body: %v", err)
	}

	status = http.StatusServiceUnavailable
	err := svc.SendWhatsApp(context.Background(), "+15551234567", "hi")
	if !errors.Is(err, ErrUpstream) || !strings.Contains(err.Error(), "WhatsApp API error") {
		t.Fatalf("err = %v", err)
	}
}
