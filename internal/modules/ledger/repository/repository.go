package repository

import (
	"context"
	"fmt"
	"time"

	"anoa.com/rewardshub/internal/entity"
	"anoa.com/rewardshub/pkg/apperror"
	"anoa.com/rewardshub/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LedgerRepository interface {
	// WithTx returns a repository bound to tx.
	WithTx(tx *gorm.DB) LedgerRepository
	// Append inserts the event and folds it into the balance cache atomically.
	Append(ctx context.Context, event *entity.AwardEvent) error
	SumBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	SumByKind(ctx context.Context, userID uuid.UUID, kind entity.AwardKind) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]entity.AwardEvent, int64, error)
	TopBalances(ctx context.Context, limit int) ([]entity.UserBalance, error)
	GetCachedBalance(ctx context.Context, userID uuid.UUID) (*entity.UserBalance, error)
	// CountAhead returns how many users rank above b on the leaderboard.
	CountAhead(ctx context.Context, b *entity.UserBalance) (int64, error)
	// RebuildBalances recomputes the cache from the event log and returns how many users drifted.
	RebuildBalances(ctx context.Context) (int, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) WithTx(tx *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: tx}
}

func (r *ledgerRepository) Append(ctx context.Context, event *entity.AwardEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return fmt.Errorf("%w: award %s: %w", apperror.ErrConstraintConflict, event.SourceKey, err)
			}
			return err
		}

		row := entity.UserBalance{
			UserID:      event.UserID,
			Balance:     event.Amount,
			EventCount:  1,
			LastAwardAt: event.CreatedAt,
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"balance":       gorm.Expr("user_balances.balance + ?", event.Amount),
				"event_count":   gorm.Expr("user_balances.event_count + 1"),
				"last_award_at": event.CreatedAt,
				"updated_at":    time.Now().UTC(),
			}),
		}).Create(&row).Error
	})
}

func (r *ledgerRepository) SumBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&entity.AwardEvent{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	return total, err
}

func (r *ledgerRepository) SumByKind(ctx context.Context, userID uuid.UUID, kind entity.AwardKind) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&entity.AwardEvent{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND kind = ?", userID, kind).
		Scan(&total).Error
	return total, err
}

func (r *ledgerRepository) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]entity.AwardEvent, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&entity.AwardEvent{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []entity.AwardEvent
	err := q.Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&events).Error
	return events, total, err
}

func (r *ledgerRepository) TopBalances(ctx context.Context, limit int) ([]entity.UserBalance, error) {
	var rows []entity.UserBalance
	err := r.db.WithContext(ctx).
		Where("balance > 0").
		Order("balance DESC").Order("last_award_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *ledgerRepository) GetCachedBalance(ctx context.Context, userID uuid.UUID) (*entity.UserBalance, error) {
	var rows []entity.UserBalance
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &entity.UserBalance{UserID: userID}, nil
	}
	return &rows[0], nil
}

func (r *ledgerRepository) CountAhead(ctx context.Context, b *entity.UserBalance) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.UserBalance{}).
		Where("balance > ? OR (balance = ? AND last_award_at < ?)", b.Balance, b.Balance, b.LastAwardAt).
		Count(&n).Error
	return n, err
}

const (
	driftedBalancesSQL = `SELECT COUNT(*) FROM user_balances b
WHERE b.balance <> (SELECT COALESCE(SUM(e.amount), 0) FROM award_events e WHERE e.user_id = b.user_id)
   OR b.event_count <> (SELECT COUNT(*) FROM award_events e WHERE e.user_id = b.user_id)`

	missingBalancesSQL = `SELECT COUNT(DISTINCT e.user_id) FROM award_events e
WHERE NOT EXISTS (SELECT 1 FROM user_balances b WHERE b.user_id = e.user_id)`

	repairBalancesSQL = `UPDATE user_balances SET
  balance = (SELECT COALESCE(SUM(e.amount), 0) FROM award_events e WHERE e.user_id = user_balances.user_id),
  event_count = (SELECT COUNT(*) FROM award_events e WHERE e.user_id = user_balances.user_id),
  updated_at = ?
WHERE user_balances.balance <> (SELECT COALESCE(SUM(e.amount), 0) FROM award_events e WHERE e.user_id = user_balances.user_id)
   OR user_balances.event_count <> (SELECT COUNT(*) FROM award_events e WHERE e.user_id = user_balances.user_id)`

	insertMissingBalancesSQL = `INSERT INTO user_balances (user_id, balance, event_count, last_award_at, updated_at)
SELECT e.user_id, SUM(e.amount), COUNT(*), MAX(e.created_at), ?
FROM award_events e
WHERE NOT EXISTS (SELECT 1 FROM user_balances b WHERE b.user_id = e.user_id)
GROUP BY e.user_id
ON CONFLICT (user_id) DO NOTHING`
)

func (r *ledgerRepository) RebuildBalances(ctx context.Context) (int, error) {
	var drifted int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stale, missing int64
		if err := tx.Raw(driftedBalancesSQL).Scan(&stale).Error; err != nil {
			return err
		}
		if err := tx.Raw(missingBalancesSQL).Scan(&missing).Error; err != nil {
			return err
		}
		drifted = int(stale + missing)
		if drifted == 0 {
			return nil
		}

		now := time.Now().UTC()
		if err := tx.Exec(repairBalancesSQL, now).Error; err != nil {
			return err
		}
		return tx.Exec(insertMissingBalancesSQL, now).Error
	})
	return drifted, err
}
