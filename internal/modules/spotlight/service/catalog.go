package spotlight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"anoa.com/rewardshub/internal/entity"
	spotlightDto "anoa.com/rewardshub/internal/modules/spotlight/dto"
	spotlightRepo "anoa.com/rewardshub/internal/modules/spotlight/repository"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
)

// Writers bump the version instead of deleting the entry, so a fill that read the
// database before the write lands under a key nobody reads again.
const activeSpotlightVersionKey = "spotlight:active:version"

func activeSpotlightCacheKey(version int64) string {
	return fmt.Sprintf("spotlight:active:v%d", version)
}

type CatalogService interface {
	// GetActiveSpotlight returns the newest active spotlight, or nil when none is active.
	GetActiveSpotlight(ctx context.Context) (*spotlightDto.SpotlightResponse, error)
	GetSpotlight(ctx context.Context, id uuid.UUID) (*entity.SpotlightCandidate, error)
	CreateSpotlight(ctx context.Context, req spotlightDto.CreateSpotlightRequest) (*spotlightDto.SpotlightResponse, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type catalogService struct {
	repo          spotlightRepo.SpotlightRepository
	redisClient   *redis.Client
	cacheTTL      time.Duration
	defaultReward int64
	textPolicy    *bluemonday.Policy
	htmlPolicy    *bluemonday.Policy
}

func NewCatalogService(repo spotlightRepo.SpotlightRepository, redisClient *redis.Client, cacheTTL time.Duration, defaultReward int64) CatalogService {
	return &catalogService{
		repo:          repo,
		redisClient:   redisClient,
		cacheTTL:      cacheTTL,
		defaultReward: defaultReward,
		textPolicy:    bluemonday.StrictPolicy(),
		htmlPolicy:    bluemonday.UGCPolicy(),
	}
}

func (s *catalogService) GetActiveSpotlight(ctx context.Context) (*spotlightDto.SpotlightResponse, error) {
	version, cacheable := s.cacheVersion(ctx)
	if cacheable {
		if cached, ok := s.readCache(ctx, version); ok {
			return cached, nil
		}
	}

	active, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	resp := spotlightDto.NewSpotlightResponse(active)
	if cacheable {
		s.writeCache(ctx, version, resp)
	}
	return resp, nil
}

func (s *catalogService) GetSpotlight(ctx context.Context, id uuid.UUID) (*entity.SpotlightCandidate, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *catalogService) CreateSpotlight(ctx context.Context, req spotlightDto.CreateSpotlightRequest) (*spotlightDto.SpotlightResponse, error) {
	reward := req.PointsReward
	if reward <= 0 {
		reward = s.defaultReward
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	spotlight := &entity.SpotlightCandidate{
		Title:        strings.TrimSpace(s.textPolicy.Sanitize(req.Title)),
		ToolName:     strings.TrimSpace(s.textPolicy.Sanitize(req.ToolName)),
		Description:  s.htmlPolicy.Sanitize(req.Description),
		CTAURL:       strings.TrimSpace(req.CTAURL),
		PointsReward: reward,
		IsActive:     active,
	}
	if err := s.repo.Create(ctx, spotlight); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	slog.Info("spotlight created", "spotlight_id", spotlight.ID, "active", active)
	return spotlightDto.NewSpotlightResponse(spotlight), nil
}

func (s *catalogService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// cacheVersion reports false when the cache is disabled or unreachable.
func (s *catalogService) cacheVersion(ctx context.Context) (int64, bool) {
	if s.redisClient == nil || s.cacheTTL <= 0 {
		return 0, false
	}

	version, err := s.redisClient.Get(ctx, activeSpotlightVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		slog.Warn("spotlight cache version read failed", "error", err)
		return 0, false
	}
	return version, true
}

func (s *catalogService) readCache(ctx context.Context, version int64) (*spotlightDto.SpotlightResponse, bool) {
	raw, err := s.redisClient.Get(ctx, activeSpotlightCacheKey(version)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("spotlight cache read failed", "error", err)
		}
		return nil, false
	}

	// "null" caches the absence of an active spotlight.
	var resp *spotlightDto.SpotlightResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false
	}
	return resp, true
}

func (s *catalogService) writeCache(ctx context.Context, version int64, resp *spotlightDto.SpotlightResponse) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, activeSpotlightCacheKey(version), payload, s.cacheTTL).Err(); err != nil {
		slog.Warn("spotlight cache write failed", "error", err)
	}
}

func (s *catalogService) invalidate(ctx context.Context) {
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.Incr(ctx, activeSpotlightVersionKey).Err(); err != nil {
		slog.Warn("spotlight cache invalidation failed", "error", err)
	}
}
