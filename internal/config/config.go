package config

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds every setting the server reads from the environment
type Config struct {
	AppEnv   string `mapstructure:"app_env"`
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	DatabaseURL string `mapstructure:"database_url"`
	DBHost      string `mapstructure:"db_host"`
	DBUser      string `mapstructure:"db_user"`
	DBPassword  string `mapstructure:"db_password"`
	DBName      string `mapstructure:"db_name"`
	DBPort      string `mapstructure:"db_port"`
	DBSSLMode   string `mapstructure:"db_ssl_mode"`

	CronSecret         string `mapstructure:"cron_secret"`
	AdminID            string `mapstructure:"admin_id"`
	AdminPassword      string `mapstructure:"admin_password"`
	AdminSessionSecret string `mapstructure:"admin_session_secret"`
	AdminSetupSecret   string `mapstructure:"admin_setup_secret"`
	UserSessionSecret  string `mapstructure:"user_session_secret"`

	IdentityProvider   string `mapstructure:"identity_provider"`
	SupabaseURL        string `mapstructure:"supabase_url"`
	SupabaseAnonKey    string `mapstructure:"supabase_anon_key"`
	GoogleClientID     string `mapstructure:"google_client_id"`
	GoogleClientSecret string `mapstructure:"google_client_secret"`
	GoogleRedirectURL  string `mapstructure:"google_redirect_url"`

	SendgridAPIKey    string `mapstructure:"sendgrid_api_key"`
	SendgridFromEmail string `mapstructure:"sendgrid_from_email"`
	SendgridFromName  string `mapstructure:"sendgrid_from_name"`

	WhatsappAPIKey        string  `mapstructure:"rpay_api_key"`
	WhatsappAPIURL        string  `mapstructure:"whatsapp_api_url"`
	WhatsappRatePerSecond float64 `mapstructure:"whatsapp_rate_per_second"`

	LeetcodeGraphQLURL string        `mapstructure:"leetcode_graphql_url"`
	LeetcodeTimeout    time.Duration `mapstructure:"leetcode_timeout"`

	AIAPIURL string `mapstructure:"ai_api_url"`
	AIAPIKey string `mapstructure:"ai_api_key"`
	AIModel  string `mapstructure:"ai_model"`

	SchedulerBatchSize int  `mapstructure:"scheduler_batch_size"`
	SchedulerInternal  bool `mapstructure:"scheduler_internal"`

	CORSOrigins  string `mapstructure:"cors_origins"`
	DashboardURL string `mapstructure:"dashboard_url"`
}

func New() *Config {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		logrus.Fatalf("unmarshalling config: %v", err)
	}
	return cfg
}

// SetupCommon registers defaults and binds every key to its upper-case env var
func SetupCommon() {
	viper.SetDefault("app_env", "development")
	viper.SetDefault("port", "8080")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("db_ssl_mode", "disable")
	viper.SetDefault("admin_id", "admin")
	viper.SetDefault("identity_provider", "supabase")
	viper.SetDefault("sendgrid_from_name", "DSA Grinders")
	viper.SetDefault("whatsapp_api_url", "https://rpayconnect.com")
	viper.SetDefault("whatsapp_rate_per_second", 2.0)
	viper.SetDefault("leetcode_graphql_url", "https://leetcode.com/graphql")
	viper.SetDefault("leetcode_timeout", 15*time.Second)
	viper.SetDefault("ai_api_url", "https://api.openai.com/v1/chat/completions")
	viper.SetDefault("ai_model", "gpt-4o-mini")
	viper.SetDefault("scheduler_batch_size", 5)
	viper.SetDefault("scheduler_internal", false)
	viper.SetDefault("cors_origins", "http://localhost:3000")
	viper.SetDefault("dashboard_url", "https://dsa-grinders.vercel.app")

	for _, key := range []string{
		"database_url", "db_host", "db_user", "db_password", "db_name", "db_port",
		"cron_secret", "admin_password", "admin_session_secret", "admin_setup_secret",
		"user_session_secret", "supabase_url", "supabase_anon_key",
		"google_client_id", "google_client_secret", "google_redirect_url",
		"sendgrid_api_key", "sendgrid_from_email", "rpay_api_key", "ai_api_key",
	} {
		viper.MustBindEnv(key)
	}
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// IsProduction reports whether the server runs in a production deployment
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.AppEnv)
	return env == "production" || env == "prod"
}

// AllowedOrigins splits CORS_ORIGINS on commas
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
