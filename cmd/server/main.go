package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"dsagrinders/internal/auth"
	"dsagrinders/internal/config"
	"dsagrinders/internal/database"
	"dsagrinders/internal/handlers"
	"dsagrinders/internal/logging"
	"dsagrinders/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	userSessionTTL  = 7 * 24 * time.Hour
	adminSessionTTL = 24 * time.Hour
)

func main() {
	// A missing .env is fine; real deployments use the environment
	_ = godotenv.Load()

	config.SetupCommon()
	cfg := config.New()
	logging.Init(cfg.LogLevel)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	db := database.GetDB()

	leetcode := services.NewLeetCodeClient(cfg.LeetcodeGraphQLURL, cfg.LeetcodeTimeout)
	stats := services.NewSynchronizer(db, leetcode)
	users := services.NewUserService(db, stats)
	settings := services.NewSettingsStore(db)
	templates := services.NewTemplateService(db)

	renderer := services.NewRenderer()
	email := services.NewEmailService(cfg.SendgridAPIKey, cfg.SendgridFromEmail, cfg.SendgridFromName, cfg.DashboardURL, renderer)
	whatsapp := services.NewWhatsAppService(cfg.WhatsappAPIURL, cfg.WhatsappAPIKey, cfg.WhatsappRatePerSecond)
	dispatcher := services.NewDispatcher(email, whatsapp, renderer)
	roasts := services.NewRoastGenerator(cfg.AIAPIURL, cfg.AIAPIKey, cfg.AIModel)
	scheduler := services.NewScheduler(db, settings, stats, dispatcher, templates, roasts, cfg.SchedulerBatchSize)

	var verifier auth.IdentityVerifier
	switch cfg.IdentityProvider {
	case "google":
		verifier = auth.NewGoogleVerifier(cfg.GoogleClientID)
	default:
		verifier = auth.NewSupabaseVerifier(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	}
	userTokens := auth.NewTokenIssuer(cfg.UserSessionSecret, userSessionTTL)
	adminTokens := auth.NewTokenIssuer(cfg.AdminSessionSecret, adminSessionTTL)

	h := handlers.New(handlers.Deps{
		Config:      cfg,
		Users:       users,
		Stats:       stats,
		Leaderboard: services.NewLeaderboardService(db),
		Groups:      services.NewGroupService(db),
		Settings:    settings,
		Templates:   templates,
		Notifier:    scheduler,
		Auth:        auth.NewAuthenticator(users, verifier, userTokens, adminTokens),
		Verifier:    verifier,
		UserTokens:  userTokens,
		AdminTokens: adminTokens,
		OAuth:       auth.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL),
	})
	router := handlers.NewRouter(h, cfg.AllowedOrigins())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.SchedulerInternal {
		services.NewReminderWorker(scheduler, settings).Start(ctx)
		logrus.Info("In-process reminder scheduler started")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.Infof("Server starting on port %s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server shutdown: %v", err)
	}
}
