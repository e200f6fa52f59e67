package checkin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"anoa.com/rewardshub/internal/entity"
	checkinDto "anoa.com/rewardshub/internal/modules/checkin/dto"
	checkinRepo "anoa.com/rewardshub/internal/modules/checkin/repository"
	ledgerService "anoa.com/rewardshub/internal/modules/ledger/service"
	"anoa.com/rewardshub/pkg/apperror"
	"anoa.com/rewardshub/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CheckinService interface {
	// ClaimDailyPoints awards the daily points at most once per UTC day. Repeated calls
	// on the same day return awarded = 0 and the current balance and streak.
	ClaimDailyPoints(ctx context.Context, userID uuid.UUID) (*checkinDto.ClaimDailyResponse, error)
	GetStatus(ctx context.Context, userID uuid.UUID) (*checkinDto.CheckinStatus, error)
}

type checkinService struct {
	db     *gorm.DB
	repo   checkinRepo.CheckinRepository
	ledger ledgerService.LedgerService
	points int64
	now    func() time.Time
}

func NewCheckinService(db *gorm.DB, repo checkinRepo.CheckinRepository, ledger ledgerService.LedgerService, points int64) CheckinService {
	return &checkinService{
		db:     db,
		repo:   repo,
		ledger: ledger,
		points: points,
		now:    time.Now,
	}
}

func (s *checkinService) ClaimDailyPoints(ctx context.Context, userID uuid.UUID) (*checkinDto.ClaimDailyResponse, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrNotAuthenticated
	}

	today := UTCDay(s.now())
	day := today.Format(entity.DateLayout)

	exists, err := s.repo.Exists(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if exists {
		metrics.Rewards().ObserveDuplicate("claim_daily_points", "already_claimed")
		return s.summary(ctx, userID, today, 0)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, &entity.DailyCheckin{
			UserID:      userID,
			CheckinDate: day,
			CreatedAt:   s.now().UTC(),
		}); err != nil {
			return err
		}
		return s.ledger.Append(ctx, tx, &entity.AwardEvent{
			UserID:      userID,
			Amount:      s.points,
			Kind:        entity.AwardDailyCheckin,
			SourceKey:   entity.AwardSourceKey(entity.AwardDailyCheckin, userID.String(), day),
			ReferenceID: day,
		})
	})
	if errors.Is(err, apperror.ErrConstraintConflict) {
		// A concurrent claim for the same day won the race.
		metrics.Rewards().ObserveDuplicate("claim_daily_points", "constraint_conflict")
		return s.summary(ctx, userID, today, 0)
	}
	if err != nil {
		return nil, err
	}

	metrics.Rewards().ObserveAward(string(entity.AwardDailyCheckin), s.points)
	slog.Info("daily points claimed", "user_id", userID, "date", day, "points", s.points)

	return s.summary(ctx, userID, today, s.points)
}

func (s *checkinService) summary(ctx context.Context, userID uuid.UUID, today time.Time, awarded int64) (*checkinDto.ClaimDailyResponse, error) {
	balance, err := s.ledger.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	dates, err := s.repo.ListDates(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	return &checkinDto.ClaimDailyResponse{
		Awarded: awarded,
		Balance: balance,
		Streak:  ComputeStreak(dates, today),
	}, nil
}

func (s *checkinService) GetStatus(ctx context.Context, userID uuid.UUID) (*checkinDto.CheckinStatus, error) {
	today := UTCDay(s.now())
	dates, err := s.repo.ListDates(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	set := dateSet(dates)
	_, claimed := set[today.Format(entity.DateLayout)]

	return &checkinDto.CheckinStatus{
		Last7Days:    RecentDays(dates, today),
		Streak:       ComputeStreak(dates, today),
		ClaimedToday: claimed,
		Week:         WeekStrip(dates, today),
	}, nil
}
