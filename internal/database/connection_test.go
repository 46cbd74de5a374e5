package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendorhub/internal/config"
	"vendorhub/internal/domain"
)

func TestOpen_SQLiteMigratesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendorhub.db")
	conn, err := Open(&config.DatabaseConfig{URL: "sqlite:///" + path})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	for _, model := range []any{&domain.User{}, &domain.Vendor{}, &domain.Inquiry{}, &domain.Query{}, &domain.EscalationEvent{}} {
		assert.True(t, conn.Migrator().HasTable(model))
	}
	assert.True(t, conn.Migrator().HasColumn(&domain.Query{}, "escalated_to_ceo_at"))
	assert.True(t, conn.Migrator().HasColumn(&domain.Query{}, "last_escalation_check"))
}

func TestHealthCheck_Uninitialized(t *testing.T) {
	db = nil
	assert.Error(t, HealthCheck())
	assert.NoError(t, Close())
}

func TestInit_UsesGivenConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "init.db")
	require.NoError(t, Init(&config.DatabaseConfig{URL: "sqlite:///" + path}))
	t.Cleanup(func() {
		assert.NoError(t, Close())
		db = nil
	})

	assert.NoError(t, HealthCheck())
	assert.FileExists(t, path)
	assert.True(t, GetDB().Migrator().HasTable(&domain.Query{}))
}

func TestInit_RequiresConfig(t *testing.T) {
	assert.Error(t, Init(nil))
}
