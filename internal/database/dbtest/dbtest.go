package dbtest

import (
	"testing"

	"dsagrinders/internal/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated in-memory SQLite database and installs it as database.DB
// for the lifetime of the test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := database.GormConfig(logger.Default.LogMode(logger.Silent))
	cfg.PrepareStmt = false
	gdb, err := gorm.Open(sqlite.Open(":memory:"), cfg)
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access underlying DB: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	prev := database.DB
	database.DB = gdb
	t.Cleanup(func() {
		if err := sqlDB.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
		database.DB = prev
	})
	return gdb
}
