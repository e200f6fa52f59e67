package leaderboard

import (
	"context"

	userRepo "anoa.com/rewardshub/internal/modules/account/repository"
	leaderboardDto "anoa.com/rewardshub/internal/modules/leaderboard/dto"
	ledgerRepo "anoa.com/rewardshub/internal/modules/ledger/repository"
	"github.com/google/uuid"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, limit int) ([]leaderboardDto.LeaderboardEntry, error)
	// GetStanding returns the caller's own row. Position is 0 until the user has points.
	GetStanding(ctx context.Context, userID uuid.UUID) (*leaderboardDto.LeaderboardEntry, error)
}

type leaderboardService struct {
	ledgerRepo ledgerRepo.LedgerRepository
	userRepo   userRepo.UserRepository
}

func NewLeaderboardService(ledgerRepo ledgerRepo.LedgerRepository, userRepo userRepo.UserRepository) LeaderboardService {
	return &leaderboardService{
		ledgerRepo: ledgerRepo,
		userRepo:   userRepo,
	}
}

// GetLeaderboard ranks users by their cached balance. Ties go to whoever reached the
// balance first.
func (s *leaderboardService) GetLeaderboard(ctx context.Context, limit int) ([]leaderboardDto.LeaderboardEntry, error) {
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	balances, err := s.ledgerRepo.TopBalances(ctx, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(balances))
	for _, b := range balances {
		ids = append(ids, b.UserID)
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.DisplayName
	}

	entries := make([]leaderboardDto.LeaderboardEntry, 0, len(balances))
	for i, b := range balances {
		status := GetTierStatus(b.Balance)
		entries = append(entries, leaderboardDto.LeaderboardEntry{
			Position:    i + 1,
			UserID:      b.UserID,
			DisplayName: names[b.UserID],
			Balance:     b.Balance,
			Tier:        status.Tier,
		})
	}
	return entries, nil
}

func (s *leaderboardService) GetStanding(ctx context.Context, userID uuid.UUID) (*leaderboardDto.LeaderboardEntry, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	cached, err := s.ledgerRepo.GetCachedBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry := &leaderboardDto.LeaderboardEntry{
		UserID:      userID,
		DisplayName: user.DisplayName,
		Balance:     cached.Balance,
		Tier:        GetTierStatus(cached.Balance).Tier,
	}
	if cached.Balance <= 0 {
		return entry, nil
	}

	ahead, err := s.ledgerRepo.CountAhead(ctx, cached)
	if err != nil {
		return nil, err
	}
	entry.Position = int(ahead) + 1
	return entry, nil
}
