package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(5), cfg.Rewards.DailyCheckinPoints)
	assert.Equal(t, int64(10000), cfg.Rewards.ReferralBonusPoints)
	assert.Equal(t, int64(50), cfg.Rewards.DefaultSpotlightReward)
	assert.Equal(t, 10*time.Second, cfg.Rewards.ClaimRateLimit)
	assert.Equal(t, "12345", cfg.JWTSecret)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DAILY_CHECKIN_POINTS", "7")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("SITE_URL", "https://rewards.example/")
	t.Setenv("ORPHAN_SWEEP_INTERVAL", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.Rewards.DailyCheckinPoints)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "https://rewards.example", cfg.SiteURL)
	assert.Equal(t, time.Minute, cfg.Jobs.OrphanSweepInterval)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("REFERRAL_BONUS_POINTS", "-1")
	_, err := Load()
	assert.ErrorContains(t, err, "REFERRAL_BONUS_POINTS")
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}
