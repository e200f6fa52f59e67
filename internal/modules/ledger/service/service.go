package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"anoa.com/rewardshub/internal/entity"
	ledgerDto "anoa.com/rewardshub/internal/modules/ledger/dto"
	ledgerRepo "anoa.com/rewardshub/internal/modules/ledger/repository"
	"anoa.com/rewardshub/pkg/apperror"
	"anoa.com/rewardshub/pkg/dto"
	"anoa.com/rewardshub/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerService owns point balances. Balances are only ever changed by appending
// award events; there is no debit.
type LedgerService interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	GetHistory(ctx context.Context, userID uuid.UUID, q dto.PageQuery) (*ledgerDto.AwardHistoryResponse, error)
	EarnedByKind(ctx context.Context, userID uuid.UUID, kind entity.AwardKind) (int64, error)
	// Append records an award inside the caller's transaction.
	Append(ctx context.Context, tx *gorm.DB, event *entity.AwardEvent) error
	RebuildBalances(ctx context.Context) (int, error)
}

type ledgerService struct {
	repo ledgerRepo.LedgerRepository
	now  func() time.Time
}

func NewLedgerService(repo ledgerRepo.LedgerRepository) LedgerService {
	return &ledgerService{repo: repo, now: time.Now}
}

func (s *ledgerService) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.SumBalance(ctx, userID)
}

func (s *ledgerService) EarnedByKind(ctx context.Context, userID uuid.UUID, kind entity.AwardKind) (int64, error) {
	return s.repo.SumByKind(ctx, userID, kind)
}

func (s *ledgerService) GetHistory(ctx context.Context, userID uuid.UUID, q dto.PageQuery) (*ledgerDto.AwardHistoryResponse, error) {
	q = q.Normalize()
	events, total, err := s.repo.ListByUser(ctx, userID, q.Offset(), q.Limit)
	if err != nil {
		return nil, err
	}

	data := make([]ledgerDto.AwardEventResponse, 0, len(events))
	for _, ev := range events {
		data = append(data, ledgerDto.AwardEventResponse{
			ID:          ev.ID,
			Amount:      ev.Amount,
			Kind:        string(ev.Kind),
			ReferenceID: ev.ReferenceID,
			CreatedAt:   ev.CreatedAt,
		})
	}

	return &ledgerDto.AwardHistoryResponse{
		Data: data,
		Meta: dto.NewPaginationMeta(q, total),
	}, nil
}

func (s *ledgerService) Append(ctx context.Context, tx *gorm.DB, event *entity.AwardEvent) error {
	if event.UserID == uuid.Nil {
		return fmt.Errorf("%w: award without user", apperror.ErrInvalidInput)
	}
	if event.Amount <= 0 {
		return fmt.Errorf("%w: award amount must be positive", apperror.ErrInvalidInput)
	}
	if event.SourceKey == "" {
		return fmt.Errorf("%w: award without source key", apperror.ErrInvalidInput)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now().UTC()
	}

	repo := s.repo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	return repo.Append(ctx, event)
}

func (s *ledgerService) RebuildBalances(ctx context.Context) (int, error) {
	drifted, err := s.repo.RebuildBalances(ctx)
	if err != nil {
		return 0, err
	}
	metrics.Rewards().SetBalanceDrift(drifted)
	if drifted > 0 {
		slog.Warn("balance cache drift repaired", "users", drifted)
	}
	return drifted, nil
}
