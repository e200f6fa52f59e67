package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string
	SiteURL        string

	DBDriver string
	DBDSN    string
	RedisURL string

	JWTSecret string

	// AdminUserID is promoted to admin on startup outside production.
	AdminUserID string
	AdminEmail  string

	LogLevel string
	LogFile  string

	Rewards Rewards
	Storage Storage
	Jobs    Jobs
}

// Rewards holds the point amounts and limits of the rewards engine.
type Rewards struct {
	DailyCheckinPoints     int64
	ReferralBonusPoints    int64
	DefaultSpotlightReward int64
	MaxEvidenceBytes       int64
	ClaimRateLimit         time.Duration
	SpotlightCacheTTL      time.Duration
}

type Storage struct {
	Driver   string // local, s3, cloudinary
	LocalDir string

	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3AccessKeyID   string
	S3SecretKey     string
	S3PublicBaseURL string
	S3UsePathStyle  bool

	CloudinaryFolder string
}

type Jobs struct {
	OrphanSweepInterval  time.Duration
	BalanceAuditInterval time.Duration
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		SiteURL:        strings.TrimRight(getEnv("SITE_URL", "http://localhost:3000"), "/"),

		DBDriver: getEnv("DB_DRIVER", "postgres"),
		DBDSN:    os.Getenv("DB_DSN"),
		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		AdminUserID: os.Getenv("ADMIN_USER_ID"),
		AdminEmail:  getEnv("ADMIN_EMAIL", "admin@rewards.local"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),

		Storage: Storage{
			Driver:           getEnv("STORAGE_DRIVER", "local"),
			LocalDir:         getEnv("STORAGE_LOCAL_DIR", "uploads"),
			S3Bucket:         os.Getenv("S3_BUCKET"),
			S3Region:         getEnv("S3_REGION", "auto"),
			S3Endpoint:       os.Getenv("S3_ENDPOINT"),
			S3AccessKeyID:    os.Getenv("S3_ACCESS_KEY_ID"),
			S3SecretKey:      os.Getenv("S3_SECRET_ACCESS_KEY"),
			S3PublicBaseURL:  os.Getenv("S3_PUBLIC_BASE_URL"),
			S3UsePathStyle:   getEnv("S3_USE_PATH_STYLE", "false") == "true",
			CloudinaryFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "spotlight_evidence"),
		},
	}

	var err error
	if cfg.Rewards.DailyCheckinPoints, err = getEnvInt("DAILY_CHECKIN_POINTS", 5); err != nil {
		return nil, err
	}
	if cfg.Rewards.ReferralBonusPoints, err = getEnvInt("REFERRAL_BONUS_POINTS", 10000); err != nil {
		return nil, err
	}
	if cfg.Rewards.DefaultSpotlightReward, err = getEnvInt("DEFAULT_SPOTLIGHT_REWARD", 50); err != nil {
		return nil, err
	}
	if cfg.Rewards.MaxEvidenceBytes, err = getEnvInt("MAX_EVIDENCE_BYTES", 5<<20); err != nil {
		return nil, err
	}

	if cfg.Rewards.ClaimRateLimit, err = parseDuration("CLAIM_RATE_LIMIT", "10s"); err != nil {
		return nil, err
	}
	if cfg.Rewards.SpotlightCacheTTL, err = parseDuration("SPOTLIGHT_CACHE_TTL", "5m"); err != nil {
		return nil, err
	}
	if cfg.Jobs.OrphanSweepInterval, err = parseDuration("ORPHAN_SWEEP_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.Jobs.BalanceAuditInterval, err = parseDuration("BALANCE_AUDIT_INTERVAL", "6h"); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		if cfg.AppEnv == "production" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "12345"
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int64) (int64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return v, nil
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
