package referral

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"anoa.com/rewardshub/internal/entity"
	accountService "anoa.com/rewardshub/internal/modules/account/service"
	ledgerService "anoa.com/rewardshub/internal/modules/ledger/service"
	notifService "anoa.com/rewardshub/internal/modules/notification/service"
	referralDto "anoa.com/rewardshub/internal/modules/referral/dto"
	referralRepo "anoa.com/rewardshub/internal/modules/referral/repository"
	"anoa.com/rewardshub/pkg/apperror"
	"anoa.com/rewardshub/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReferralService interface {
	// ApplyReferral credits the owner of refCode once per referred account, ever.
	// Later calls succeed with applied = false.
	ApplyReferral(ctx context.Context, referredID uuid.UUID, refCode string) (*referralDto.ApplyReferralResponse, error)
	GetStats(ctx context.Context, userID uuid.UUID) (*referralDto.ReferralStats, error)
}

type referralService struct {
	db       *gorm.DB
	repo     referralRepo.ReferralRepository
	accounts accountService.AccountService
	ledger   ledgerService.LedgerService
	notifier notifService.NotificationService
	bonus    int64
}

func NewReferralService(db *gorm.DB, repo referralRepo.ReferralRepository, accounts accountService.AccountService, ledger ledgerService.LedgerService, notifier notifService.NotificationService, bonus int64) ReferralService {
	return &referralService{
		db:       db,
		repo:     repo,
		accounts: accounts,
		ledger:   ledger,
		notifier: notifier,
		bonus:    bonus,
	}
}

func (s *referralService) ApplyReferral(ctx context.Context, referredID uuid.UUID, refCode string) (*referralDto.ApplyReferralResponse, error) {
	if referredID == uuid.Nil {
		return nil, apperror.ErrNotAuthenticated
	}

	code := accountService.NormalizeReferralCode(refCode)
	if code == "" {
		return nil, apperror.ErrInvalidReferralCode
	}

	referrer, err := s.accounts.FindByReferralCode(ctx, code)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.ErrInvalidReferralCode
	}
	if err != nil {
		return nil, err
	}
	if referrer.ID == referredID {
		return nil, apperror.ErrSelfReferral
	}

	existing, err := s.repo.FindByReferred(ctx, referredID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		metrics.Rewards().ObserveDuplicate("apply_referral", "already_applied")
		return &referralDto.ApplyReferralResponse{Applied: false}, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, &entity.ReferralApplication{
			ReferredUserID: referredID,
			ReferrerUserID: referrer.ID,
			RefCode:        code,
		}); err != nil {
			return err
		}
		return s.ledger.Append(ctx, tx, &entity.AwardEvent{
			UserID:      referrer.ID,
			Amount:      s.bonus,
			Kind:        entity.AwardReferralBonus,
			SourceKey:   entity.AwardSourceKey(entity.AwardReferralBonus, referredID.String()),
			ReferenceID: referredID.String(),
		})
	})
	if errors.Is(err, apperror.ErrConstraintConflict) {
		metrics.Rewards().ObserveDuplicate("apply_referral", "constraint_conflict")
		return &referralDto.ApplyReferralResponse{Applied: false}, nil
	}
	if err != nil {
		return nil, err
	}

	metrics.Rewards().ObserveAward(string(entity.AwardReferralBonus), s.bonus)
	slog.Info("referral applied", "referred_user_id", referredID, "referrer_user_id", referrer.ID)

	s.notifyReferrer(ctx, referrer.ID, referredID)
	return &referralDto.ApplyReferralResponse{Applied: true}, nil
}

func (s *referralService) notifyReferrer(ctx context.Context, referrerID, referredID uuid.UUID) {
	if s.notifier == nil {
		return
	}

	n := &entity.Notification{
		UserID:      referrerID,
		Type:        entity.NotificationReferralBonus,
		Message:     fmt.Sprintf("Someone joined with your referral code: +%d points", s.bonus),
		Points:      s.bonus,
		ReferenceID: referredID.String(),
	}
	if err := s.notifier.CreateNotification(context.WithoutCancel(ctx), n); err != nil {
		slog.Warn("failed to notify referrer", "referrer_user_id", referrerID, "error", err)
	}
}

func (s *referralService) GetStats(ctx context.Context, userID uuid.UUID) (*referralDto.ReferralStats, error) {
	user, err := s.accounts.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountByReferrer(ctx, userID)
	if err != nil {
		return nil, err
	}
	earned, err := s.ledger.EarnedByKind(ctx, userID, entity.AwardReferralBonus)
	if err != nil {
		return nil, err
	}

	stats := &referralDto.ReferralStats{
		Referrals:    count,
		PointsEarned: earned,
	}
	if user.ReferralCode != nil {
		stats.ReferralCode = *user.ReferralCode
		stats.ReferralLink = s.accounts.ReferralLink(*user.ReferralCode)
	}
	return stats, nil
}
