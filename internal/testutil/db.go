// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"anoa.com/rewardshub/internal/bootstrap"
	"anoa.com/rewardshub/internal/entity"
	"anoa.com/rewardshub/pkg/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated, seeded in-memory database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Connect(database.Options{
		Driver:   database.DriverSQLite,
		DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, bootstrap.Migrate(db))
	require.NoError(t, bootstrap.SeedRoles(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return db
}

// CreateUser inserts a user with the given role and referral code.
func CreateUser(t *testing.T, db *gorm.DB, role, referralCode string) *entity.User {
	t.Helper()

	var r entity.Role
	require.NoError(t, db.Where("name = ?", role).First(&r).Error)

	u := &entity.User{
		Email:       fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		DisplayName: "Test User",
		RoleID:      &r.ID,
		Role:        r,
	}
	if referralCode != "" {
		u.ReferralCode = &referralCode
	}
	require.NoError(t, db.Omit("Role").Create(u).Error)
	return u
}

// CreateSpotlight inserts an active spotlight.
func CreateSpotlight(t *testing.T, db *gorm.DB, reward int64) *entity.SpotlightCandidate {
	t.Helper()

	s := &entity.SpotlightCandidate{
		Title:        "Try it",
		ToolName:     "ToolX",
		CTAURL:       "https://toolx.example/signup",
		PointsReward: reward,
		IsActive:     true,
	}
	require.NoError(t, db.Create(s).Error)
	return s
}
