package testutil

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"vendorhub/internal/config"
	"vendorhub/internal/database"
)

// NewDB opens a migrated SQLite database in a per-test temp directory
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(&config.DatabaseConfig{URL: "sqlite:///" + path})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
