package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"anoa.com/rewardshub/internal/config"
	"anoa.com/rewardshub/internal/jobs"
	"anoa.com/rewardshub/internal/middleware"
	"anoa.com/rewardshub/pkg/metrics"
	"anoa.com/rewardshub/pkg/storage"

	userRepo "anoa.com/rewardshub/internal/modules/account/repository"
	accountService "anoa.com/rewardshub/internal/modules/account/service"

	checkinHttp "anoa.com/rewardshub/internal/modules/checkin/delivery/http"
	checkinRepo "anoa.com/rewardshub/internal/modules/checkin/repository"
	checkinService "anoa.com/rewardshub/internal/modules/checkin/service"

	leaderboardHttp "anoa.com/rewardshub/internal/modules/leaderboard/delivery/http"
	leaderboardService "anoa.com/rewardshub/internal/modules/leaderboard/service"

	ledgerHttp "anoa.com/rewardshub/internal/modules/ledger/delivery/http"
	ledgerRepo "anoa.com/rewardshub/internal/modules/ledger/repository"
	ledgerService "anoa.com/rewardshub/internal/modules/ledger/service"

	notiHttp "anoa.com/rewardshub/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/rewardshub/internal/modules/notification/repository"
	notifService "anoa.com/rewardshub/internal/modules/notification/service"

	referralHttp "anoa.com/rewardshub/internal/modules/referral/delivery/http"
	referralRepo "anoa.com/rewardshub/internal/modules/referral/repository"
	referralService "anoa.com/rewardshub/internal/modules/referral/service"

	rewardsHttp "anoa.com/rewardshub/internal/modules/rewards/delivery/http"
	rewardsService "anoa.com/rewardshub/internal/modules/rewards/service"

	spotlightHttp "anoa.com/rewardshub/internal/modules/spotlight/delivery/http"
	spotlightRepo "anoa.com/rewardshub/internal/modules/spotlight/repository"
	spotlightService "anoa.com/rewardshub/internal/modules/spotlight/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client

	claims spotlightService.ClaimService
	ledger ledgerService.LedgerService
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, objectStorage storage.ObjectStorage) *Server {
	// Register collectors before the first request hits /metrics.
	metrics.Rewards()

	accounts := accountService.NewAccountService(userRepo.NewUserRepository(db), cfg.SiteURL)

	ledgerRepository := ledgerRepo.NewLedgerRepository(db)
	ledgerSvc := ledgerService.NewLedgerService(ledgerRepository)
	ledgerHandler := ledgerHttp.NewLedgerHandler(ledgerSvc)

	checkinSvc := checkinService.NewCheckinService(db, checkinRepo.NewCheckinRepository(db), ledgerSvc, cfg.Rewards.DailyCheckinPoints)
	checkinHandler := checkinHttp.NewCheckinHandler(checkinSvc)

	notificationSvc := notifService.NewNotificationService(notifRepo.NewNotificationRepository(db), redisClient)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient, cfg.AllowedOrigins)

	referralSvc := referralService.NewReferralService(db, referralRepo.NewReferralRepository(db), accounts, ledgerSvc, notificationSvc, cfg.Rewards.ReferralBonusPoints)
	referralHandler := referralHttp.NewReferralHandler(referralSvc)

	catalogSvc := spotlightService.NewCatalogService(spotlightRepo.NewSpotlightRepository(db), redisClient, cfg.Rewards.SpotlightCacheTTL, cfg.Rewards.DefaultSpotlightReward)
	claimSvc := spotlightService.NewClaimService(db, spotlightRepo.NewClaimRepository(db), catalogSvc, accounts, ledgerSvc, objectStorage, notificationSvc, redisClient, spotlightService.ClaimOptions{
		MaxEvidenceBytes: cfg.Rewards.MaxEvidenceBytes,
		RateLimit:        cfg.Rewards.ClaimRateLimit,
		DefaultReward:    cfg.Rewards.DefaultSpotlightReward,
	})
	spotlightHandler := spotlightHttp.NewSpotlightHandler(catalogSvc, claimSvc, cfg.Rewards.MaxEvidenceBytes)

	rewardsSvc := rewardsService.NewRewardsService(accounts, ledgerSvc, checkinSvc, referralSvc, catalogSvc, claimSvc)
	rewardsHandler := rewardsHttp.NewRewardsHandler(rewardsSvc)

	leaderboardSvc := leaderboardService.NewLeaderboardService(ledgerRepository, userRepo.NewUserRepository(db))
	leaderboardHandler := leaderboardHttp.NewLeaderboardHandler(leaderboardSvc)

	router := gin.New()
	// Multipart bodies beyond this spill to disk instead of memory.
	router.MaxMultipartMemory = cfg.Rewards.MaxEvidenceBytes + 1<<20

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	authMiddleware := middleware.NewAuthMiddleware(accounts, cfg.JWTSecret)

	router.GET("/healthz", healthz(db, redisClient))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	// Public routes (no auth required)
	api.GET("/spotlights/active", spotlightHandler.GetActiveSpotlight)
	api.GET("/leaderboard", leaderboardHandler.GetLeaderboard)

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Moderator routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireModerator())
		{
			adminGroup.GET("/spotlight-claims", spotlightHandler.ListClaims)
			adminGroup.POST("/spotlight-claims/:claim_id/review", spotlightHandler.ReviewClaim)
			adminGroup.POST("/spotlights", spotlightHandler.CreateSpotlight)
			adminGroup.PATCH("/spotlights/:spotlight_id", spotlightHandler.SetSpotlightActive)
			adminGroup.POST("/balances/rebuild", ledgerHandler.RebuildBalances)
		}

		// Rewards routes
		protected.GET("/rewards", rewardsHandler.GetSnapshot)
		protected.POST("/rewards/daily-claim", checkinHandler.ClaimDailyPoints)
		protected.GET("/rewards/checkins", checkinHandler.GetStatus)
		protected.POST("/rewards/referral", referralHandler.ApplyReferral)
		protected.GET("/rewards/ws", notificationHandler.HandleWebSocket)
		protected.GET("/referrals/stats", referralHandler.GetStats)
		protected.GET("/leaderboard/me", leaderboardHandler.GetMyStanding)

		// Points routes
		protected.GET("/points/balance", ledgerHandler.GetBalance)
		protected.GET("/points/history", ledgerHandler.GetHistory)

		// Spotlight routes
		protected.POST("/spotlights/:spotlight_id/claims", spotlightHandler.SubmitClaim)
		protected.GET("/spotlights/:spotlight_id/claims/latest", spotlightHandler.GetLatestClaim)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PATCH("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PATCH("/notifications/read-all", notificationHandler.MarkAllAsRead)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		claims:      claimSvc,
		ledger:      ledgerSvc,
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Sweeper and Auditor expose the maintenance entry points to the scheduler.
func (s *Server) Sweeper() jobs.OrphanSweeper {
	return s.claims
}

func (s *Server) Auditor() jobs.BalanceAuditor {
	return s.ledger
}

// Run serves until Shutdown is called.
func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func healthz(db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"database": "ok"}
		code := http.StatusOK

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			status["database"] = "unavailable"
			code = http.StatusServiceUnavailable
		}

		if redisClient != nil {
			status["redis"] = "ok"
			if err := redisClient.Ping(ctx).Err(); err != nil {
				// Redis only backs caching and live updates.
				status["redis"] = "degraded"
			}
		}

		c.JSON(code, status)
	}
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
