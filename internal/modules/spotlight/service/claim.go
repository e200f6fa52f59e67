package spotlight

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"anoa.com/rewardshub/internal/entity"
	accountService "anoa.com/rewardshub/internal/modules/account/service"
	ledgerService "anoa.com/rewardshub/internal/modules/ledger/service"
	notifService "anoa.com/rewardshub/internal/modules/notification/service"
	spotlightDto "anoa.com/rewardshub/internal/modules/spotlight/dto"
	spotlightRepo "anoa.com/rewardshub/internal/modules/spotlight/repository"
	"anoa.com/rewardshub/pkg/apperror"
	"anoa.com/rewardshub/pkg/dto"
	"anoa.com/rewardshub/pkg/metrics"
	"anoa.com/rewardshub/pkg/ratelimit"
	"anoa.com/rewardshub/pkg/storage"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	claimRateLimitAction = "spotlight_claim"
	compensationTimeout  = 30 * time.Second
	orphanSweepBatch     = 100
)

type ClaimOptions struct {
	MaxEvidenceBytes int64
	RateLimit        time.Duration
	DefaultReward    int64
}

type ClaimService interface {
	// SubmitSpotlightClaim stores the evidence and records a pending claim. When the
	// record cannot be written the uploaded object is removed again.
	SubmitSpotlightClaim(ctx context.Context, userID, spotlightID uuid.UUID, externalEmail string, evidence dto.EvidenceFile) (*spotlightDto.ClaimResponse, error)
	// GetLatestClaimStatus returns nil when the user has no claim for the spotlight.
	GetLatestClaimStatus(ctx context.Context, userID, spotlightID uuid.UUID) (*spotlightDto.ClaimResponse, error)
	ListClaims(ctx context.Context, q spotlightDto.ListClaimsQuery) (*spotlightDto.ClaimListResponse, error)
	// ReviewClaim moves a pending claim to approved or rejected. Approval pays the
	// spotlight reward exactly once.
	ReviewClaim(ctx context.Context, moderatorID, claimID uuid.UUID, decision entity.ClaimStatus, note string) (*spotlightDto.ClaimResponse, error)
	// SweepOrphanEvidence retries deletes that failed during compensation.
	SweepOrphanEvidence(ctx context.Context) (int, error)
}

type claimService struct {
	db          *gorm.DB
	repo        spotlightRepo.ClaimRepository
	catalog     CatalogService
	accounts    accountService.AccountService
	ledger      ledgerService.LedgerService
	storage     storage.ObjectStorage
	notifier    notifService.NotificationService
	redisClient *redis.Client
	validate    *validator.Validate
	opts        ClaimOptions
	now         func() time.Time
}

func NewClaimService(
	db *gorm.DB,
	repo spotlightRepo.ClaimRepository,
	catalog CatalogService,
	accounts accountService.AccountService,
	ledger ledgerService.LedgerService,
	objectStorage storage.ObjectStorage,
	notifier notifService.NotificationService,
	redisClient *redis.Client,
	opts ClaimOptions,
) ClaimService {
	return &claimService{
		db:          db,
		repo:        repo,
		catalog:     catalog,
		accounts:    accounts,
		ledger:      ledger,
		storage:     objectStorage,
		notifier:    notifier,
		redisClient: redisClient,
		validate:    validator.New(),
		opts:        opts,
		now:         time.Now,
	}
}

func (s *claimService) SubmitSpotlightClaim(ctx context.Context, userID, spotlightID uuid.UUID, externalEmail string, evidence dto.EvidenceFile) (*spotlightDto.ClaimResponse, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrNotAuthenticated
	}

	email := strings.TrimSpace(externalEmail)
	if err := s.validate.Var(email, "required,email,max=255"); err != nil {
		return nil, apperror.New(http.StatusBadRequest, "a valid email is required", apperror.ErrInvalidInput)
	}
	if len(evidence.Data) == 0 {
		return nil, apperror.New(http.StatusBadRequest, "an evidence file is required", apperror.ErrInvalidInput)
	}
	if s.opts.MaxEvidenceBytes > 0 && int64(len(evidence.Data)) > s.opts.MaxEvidenceBytes {
		return nil, apperror.New(http.StatusBadRequest, fmt.Sprintf("evidence must be at most %d bytes", s.opts.MaxEvidenceBytes), apperror.ErrInvalidInput)
	}
	contentType := evidenceContentType(evidence.ContentType, evidence.Data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperror.New(http.StatusBadRequest, "evidence must be an image", apperror.ErrInvalidInput)
	}

	if _, err := s.catalog.GetSpotlight(ctx, spotlightID); err != nil {
		return nil, err
	}

	allowed, err := ratelimit.CheckAndSet(ctx, s.redisClient, userID, claimRateLimitAction, s.opts.RateLimit)
	if err != nil {
		slog.Warn("rate limit unavailable, continuing", "user_id", userID, "error", err)
		allowed = true
	}
	if !allowed {
		return nil, s.rateLimited(ctx, userID)
	}

	now := s.now().UTC()
	key := EvidenceKey(userID, spotlightID, now, evidence.FileName)

	uri, err := s.storage.Put(ctx, key, bytes.NewReader(evidence.Data), int64(len(evidence.Data)), contentType)
	if err != nil {
		s.releaseRateLimit(ctx, userID)
		slog.Error("evidence upload failed", "user_id", userID, "key", key, "error", err)
		return nil, fmt.Errorf("%w: %w", apperror.ErrEvidenceUploadFailed, err)
	}

	claim := &entity.SpotlightClaimRequest{
		UserID:        userID,
		SpotlightID:   spotlightID,
		ExternalEmail: email,
		EvidenceKey:   key,
		EvidenceURI:   uri,
		Status:        entity.ClaimPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, claim); err != nil {
		s.compensate(ctx, key, err)
		s.releaseRateLimit(ctx, userID)
		slog.Error("claim insert failed", "user_id", userID, "spotlight_id", spotlightID, "error", err)
		return nil, fmt.Errorf("%w: %w", apperror.ErrClaimRecordFailed, err)
	}

	metrics.Rewards().ObserveClaimSubmitted()
	slog.Info("spotlight claim submitted", "claim_id", claim.ID, "user_id", userID, "spotlight_id", spotlightID)
	return spotlightDto.NewClaimResponse(claim), nil
}

// compensate removes an upload whose claim row was never written. It runs on a
// detached context so a cancelled request still cleans up.
func (s *claimService) compensate(ctx context.Context, key string, cause error) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := s.storage.Delete(cctx, key); err != nil {
		metrics.Rewards().ObserveCompensation("failed")
		slog.Error("evidence compensation failed", "key", key, "error", err)
		reason := fmt.Sprintf("claim insert failed: %v; delete failed: %v", cause, err)
		if rerr := s.repo.RecordOrphan(cctx, key, reason); rerr != nil {
			slog.Error("failed to record orphan evidence", "key", key, "error", rerr)
		}
		return
	}
	metrics.Rewards().ObserveCompensation("deleted")
}

// rateLimited reports the time left in the caller's submit window.
func (s *claimService) rateLimited(ctx context.Context, userID uuid.UUID) error {
	left, err := ratelimit.Remaining(ctx, s.redisClient, userID, claimRateLimitAction)
	if err != nil {
		slog.Warn("failed to read rate limit window", "user_id", userID, "error", err)
	}
	if left <= 0 {
		return apperror.New(http.StatusTooManyRequests, "you are submitting claims too fast, please try again shortly", apperror.ErrRateLimitExceeded)
	}
	return apperror.New(http.StatusTooManyRequests,
		fmt.Sprintf("you can submit one claim every %.0f seconds, please try again in %.0f seconds", s.opts.RateLimit.Seconds(), left.Seconds()),
		apperror.ErrRateLimitExceeded)
}

func (s *claimService) releaseRateLimit(ctx context.Context, userID uuid.UUID) {
	if err := ratelimit.Clear(context.WithoutCancel(ctx), s.redisClient, userID, claimRateLimitAction); err != nil {
		slog.Warn("failed to release rate limit", "user_id", userID, "error", err)
	}
}

func (s *claimService) GetLatestClaimStatus(ctx context.Context, userID, spotlightID uuid.UUID) (*spotlightDto.ClaimResponse, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrNotAuthenticated
	}
	claim, err := s.repo.Latest(ctx, userID, spotlightID)
	if err != nil {
		return nil, err
	}
	return spotlightDto.NewClaimResponse(claim), nil
}

func (s *claimService) ListClaims(ctx context.Context, q spotlightDto.ListClaimsQuery) (*spotlightDto.ClaimListResponse, error) {
	page := q.PageQuery.Normalize()
	claims, total, err := s.repo.List(ctx, entity.ClaimStatus(q.Status), page.Offset(), page.Limit)
	if err != nil {
		return nil, err
	}

	data := make([]spotlightDto.ClaimResponse, 0, len(claims))
	for i := range claims {
		data = append(data, *spotlightDto.NewClaimResponse(&claims[i]))
	}
	return &spotlightDto.ClaimListResponse{
		Data: data,
		Meta: dto.NewPaginationMeta(page, total),
	}, nil
}

func (s *claimService) ReviewClaim(ctx context.Context, moderatorID, claimID uuid.UUID, decision entity.ClaimStatus, note string) (*spotlightDto.ClaimResponse, error) {
	moderator, err := s.accounts.GetUser(ctx, moderatorID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	if !moderator.CanModerate() {
		return nil, apperror.ErrForbidden
	}

	if decision != entity.ClaimApproved && decision != entity.ClaimRejected {
		return nil, apperror.New(http.StatusBadRequest, "decision must be approved or rejected", apperror.ErrInvalidInput)
	}

	claim, err := s.repo.FindByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.Status != entity.ClaimPending {
		return nil, apperror.ErrInvalidTransition
	}

	reward := s.opts.DefaultReward
	if spotlight, err := s.catalog.GetSpotlight(ctx, claim.SpotlightID); err == nil && spotlight.PointsReward > 0 {
		reward = spotlight.PointsReward
	} else if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	var notePtr *string
	if trimmed := strings.TrimSpace(note); trimmed != "" {
		notePtr = &trimmed
	}
	now := s.now().UTC()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		moved, err := s.repo.WithTx(tx).Transition(ctx, claimID, decision, moderatorID, notePtr, now)
		if err != nil {
			return err
		}
		if !moved {
			return apperror.ErrInvalidTransition
		}
		if decision != entity.ClaimApproved {
			return nil
		}
		return s.ledger.Append(ctx, tx, &entity.AwardEvent{
			UserID:      claim.UserID,
			Amount:      reward,
			Kind:        entity.AwardSpotlightClaim,
			SourceKey:   entity.AwardSourceKey(entity.AwardSpotlightClaim, claimID.String()),
			ReferenceID: claimID.String(),
			CreatedAt:   now,
		})
	})
	if errors.Is(err, apperror.ErrConstraintConflict) {
		metrics.Rewards().ObserveDuplicate("review_claim", "constraint_conflict")
		return nil, apperror.ErrInvalidTransition
	}
	if errors.Is(err, apperror.ErrInvalidTransition) {
		metrics.Rewards().ObserveDuplicate("review_claim", "already_reviewed")
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	claim.Status = decision
	claim.ReviewedBy = &moderatorID
	claim.ReviewNote = notePtr
	claim.ReviewedAt = &now
	claim.UpdatedAt = now

	metrics.Rewards().ObserveClaimReviewed(string(decision))
	if decision == entity.ClaimApproved {
		metrics.Rewards().ObserveAward(string(entity.AwardSpotlightClaim), reward)
	}
	slog.Info("spotlight claim reviewed", "claim_id", claimID, "decision", decision, "moderator_id", moderatorID)

	s.notifyReview(ctx, claim, reward)
	return spotlightDto.NewClaimResponse(claim), nil
}

func (s *claimService) notifyReview(ctx context.Context, claim *entity.SpotlightClaimRequest, reward int64) {
	if s.notifier == nil {
		return
	}

	n := &entity.Notification{
		UserID:      claim.UserID,
		ReferenceID: claim.ID.String(),
	}
	if claim.Status == entity.ClaimApproved {
		n.Type = entity.NotificationClaimApproved
		n.Points = reward
		n.Message = fmt.Sprintf("Your spotlight claim was approved: +%d points", reward)
	} else {
		n.Type = entity.NotificationClaimRejected
		n.Message = "Your spotlight claim was not approved"
	}

	if err := s.notifier.CreateNotification(context.WithoutCancel(ctx), n); err != nil {
		slog.Warn("failed to notify claim review", "claim_id", claim.ID, "error", err)
	}
}

func (s *claimService) SweepOrphanEvidence(ctx context.Context) (int, error) {
	orphans, err := s.repo.ListOrphans(ctx, orphanSweepBatch)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, orphan := range orphans {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := s.storage.Delete(ctx, orphan.Key); err != nil {
			slog.Warn("orphan evidence delete failed", "key", orphan.Key, "attempts", orphan.Attempts+1, "error", err)
			if merr := s.repo.MarkOrphanAttempt(ctx, orphan.ID, err.Error()); merr != nil {
				return removed, merr
			}
			continue
		}
		if err := s.repo.DeleteOrphan(ctx, orphan.ID); err != nil {
			return removed, err
		}
		metrics.Rewards().ObserveCompensation("swept")
		removed++
	}
	return removed, nil
}
