package handlers

import (
	"time"

	"dsagrinders/internal/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the gin engine with middleware and every route registered
func NewRouter(h *Handler, allowedOrigins []string) *gin.Engine {
	RegisterValidators()

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// Configure trusted proxies
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	if len(allowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	h.Register(router)
	return router
}

// Register mounts the API routes on router
func (h *Handler) Register(router *gin.Engine) {
	router.GET("/health", HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	// Public routes
	api.POST("/users", h.CreateUser)
	api.GET("/users/:id/history", h.GetUserHistory)
	api.GET("/leaderboard", h.GetLeaderboard)
	api.GET("/roast", h.GetDailyRoast)

	api.POST("/auth/sync", h.SyncAuth)
	api.GET("/auth/google/login", h.GoogleLogin)
	api.GET("/auth/google/callback", h.GoogleCallback)
	api.POST("/auth/logout", h.Logout)
	api.POST("/admin/login", h.AdminLogin)

	api.GET("/cron", auth.RequireCronSecret(h.Config.CronSecret, h.Config.IsProduction()), h.RunCron)

	// Authenticated routes; incomplete profiles may only reach these
	authed := api.Group("")
	authed.Use(h.Auth.RequireUser())
	{
		authed.GET("/users/profile", h.GetProfile)
		authed.PUT("/users/profile", h.UpdateProfile)
		authed.GET("/admin/setup", h.AdminSetup)
	}

	// Routes requiring a completed profile
	complete := api.Group("")
	complete.Use(h.Auth.RequireUser(), auth.RequireCompleteProfile())
	{
		complete.POST("/groups", h.CreateGroup)
		complete.GET("/groups", h.ListGroups)
		complete.POST("/groups/join", h.JoinGroup)
		complete.GET("/groups/:id/leaderboard", h.GetGroupLeaderboard)
	}

	admin := api.Group("/admin")
	admin.Use(h.Auth.RequireAdmin())
	{
		admin.GET("/settings", h.GetSettings)
		admin.PUT("/settings", h.UpdateSettings)
		admin.POST("/settings", h.ResetCounters)
		admin.GET("/templates", h.ListTemplates)
		admin.POST("/templates", h.CreateTemplate)
		admin.PUT("/templates", h.UpdateTemplate)
		admin.GET("/users", h.ListUsers)
		admin.POST("/users/:id/promote", h.PromoteUser)
		admin.POST("/send-roasts", h.SendRoasts)
	}
}
