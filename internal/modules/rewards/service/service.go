package rewards

import (
	"context"

	accountService "anoa.com/rewardshub/internal/modules/account/service"
	checkinService "anoa.com/rewardshub/internal/modules/checkin/service"
	leaderboard "anoa.com/rewardshub/internal/modules/leaderboard/service"
	ledgerService "anoa.com/rewardshub/internal/modules/ledger/service"
	referralService "anoa.com/rewardshub/internal/modules/referral/service"
	rewardsDto "anoa.com/rewardshub/internal/modules/rewards/dto"
	spotlightService "anoa.com/rewardshub/internal/modules/spotlight/service"
	"anoa.com/rewardshub/pkg/apperror"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type RewardsService interface {
	GetRewardsSnapshot(ctx context.Context, userID uuid.UUID) (*rewardsDto.RewardsSnapshot, error)
}

type rewardsService struct {
	accounts  accountService.AccountService
	ledger    ledgerService.LedgerService
	checkins  checkinService.CheckinService
	referrals referralService.ReferralService
	catalog   spotlightService.CatalogService
	claims    spotlightService.ClaimService
}

func NewRewardsService(
	accounts accountService.AccountService,
	ledger ledgerService.LedgerService,
	checkins checkinService.CheckinService,
	referrals referralService.ReferralService,
	catalog spotlightService.CatalogService,
	claims spotlightService.ClaimService,
) RewardsService {
	return &rewardsService{
		accounts:  accounts,
		ledger:    ledger,
		checkins:  checkins,
		referrals: referrals,
		catalog:   catalog,
		claims:    claims,
	}
}

// GetRewardsSnapshot reads every part of the dashboard concurrently. Each part is a
// committed read, so the balance always includes every award already recorded.
func (s *rewardsService) GetRewardsSnapshot(ctx context.Context, userID uuid.UUID) (*rewardsDto.RewardsSnapshot, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrNotAuthenticated
	}

	snapshot := &rewardsDto.RewardsSnapshot{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		profile, err := s.accounts.GetProfile(gctx, userID)
		if err != nil {
			return err
		}
		snapshot.Profile = profile
		return nil
	})

	g.Go(func() error {
		balance, err := s.ledger.GetBalance(gctx, userID)
		if err != nil {
			return err
		}
		snapshot.Balance = balance
		return nil
	})

	g.Go(func() error {
		status, err := s.checkins.GetStatus(gctx, userID)
		if err != nil {
			return err
		}
		snapshot.Last7DaysCheckins = status.Last7Days
		snapshot.Streak = status.Streak
		snapshot.ClaimedToday = status.ClaimedToday
		snapshot.Week = status.Week
		return nil
	})

	g.Go(func() error {
		active, err := s.catalog.GetActiveSpotlight(gctx)
		if err != nil {
			return err
		}
		snapshot.ActiveSpotlight = active
		if active == nil {
			return nil
		}
		latest, err := s.claims.GetLatestClaimStatus(gctx, userID, active.ID)
		if err != nil {
			return err
		}
		snapshot.LatestSpotlightClaim = latest
		return nil
	})

	g.Go(func() error {
		stats, err := s.referrals.GetStats(gctx, userID)
		if err != nil {
			return err
		}
		snapshot.Referral = stats
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	snapshot.Tier = leaderboard.GetTierStatus(snapshot.Balance)
	return snapshot, nil
}
