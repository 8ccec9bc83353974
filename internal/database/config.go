package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"dsagrinders/internal/config"
	"dsagrinders/internal/models"
	"dsagrinders/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var DB *gorm.DB

// InitDB initializes the database connection
func InitDB(cfg *config.Config) error {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return err
	}

	logLevel := logger.Warn
	if !cfg.IsProduction() {
		logLevel = logger.Info
	}

	// Create base logger
	baseLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second, // Log queries slower than 1 second
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true, // Ignore ErrRecordNotFound error for logger
			Colorful:                  !cfg.IsProduction(),
		},
	)

	queryLogger := utils.NewQueryLogger(baseLogger, time.Second, utils.DefaultQuietQueries...)

	// Open connection with retry logic
	maxRetries := 5
	retryDelay := time.Second * 5

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(postgres.Open(dsn), GormConfig(queryLogger))
		if err == nil {
			break
		}
		logrus.Warnf("Database connection attempt %d failed: %v", i+1, err)
		if i < maxRetries-1 {
			logrus.Infof("Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	// Configure connection pool
	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(DB); err != nil {
		return err
	}

	logrus.Info("Database connection established and migrations completed")
	return nil
}

// GormConfig is shared by the server and the test harness
func GormConfig(l logger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger: l,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true, // Use singular table names
		},
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: false,
	}
}

// Migrate creates or updates every table owned by the service
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.DailyStat{},
		&models.Group{},
		&models.GroupMember{},
		&models.Settings{},
		&models.MessageTemplate{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func buildDSN(cfg *config.Config) (string, error) {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL, nil
	}
	if cfg.IsProduction() {
		return "", fmt.Errorf("DATABASE_URL must be set in production")
	}

	for name, value := range map[string]string{
		"DB_HOST":     cfg.DBHost,
		"DB_USER":     cfg.DBUser,
		"DB_PASSWORD": cfg.DBPassword,
		"DB_NAME":     cfg.DBName,
		"DB_PORT":     cfg.DBPort,
	} {
		if value == "" {
			return "", fmt.Errorf("required environment variable %s is not set", name)
		}
	}

	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable" // Default to disable for local development
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC connect_timeout=10",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, sslMode), nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
