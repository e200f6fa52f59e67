package repository

import (
	"context"
	"errors"
	"time"

	"anoa.com/rewardshub/internal/entity"
	"anoa.com/rewardshub/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClaimRepository interface {
	WithTx(tx *gorm.DB) ClaimRepository
	Create(ctx context.Context, claim *entity.SpotlightClaimRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.SpotlightClaimRequest, error)
	// Latest returns the user's newest request for the spotlight, or nil.
	Latest(ctx context.Context, userID, spotlightID uuid.UUID) (*entity.SpotlightClaimRequest, error)
	List(ctx context.Context, status entity.ClaimStatus, offset, limit int) ([]entity.SpotlightClaimRequest, int64, error)
	// Transition moves a pending request to status. It reports false when the request
	// was no longer pending.
	Transition(ctx context.Context, id uuid.UUID, status entity.ClaimStatus, reviewer uuid.UUID, note *string, at time.Time) (bool, error)

	RecordOrphan(ctx context.Context, key, reason string) error
	ListOrphans(ctx context.Context, limit int) ([]entity.OrphanEvidence, error)
	DeleteOrphan(ctx context.Context, id uint) error
	MarkOrphanAttempt(ctx context.Context, id uint, lastErr string) error
}

type claimRepository struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) ClaimRepository {
	return &claimRepository{db: db}
}

func (r *claimRepository) WithTx(tx *gorm.DB) ClaimRepository {
	return &claimRepository{db: tx}
}

func (r *claimRepository) Create(ctx context.Context, claim *entity.SpotlightClaimRequest) error {
	return r.db.WithContext(ctx).Create(claim).Error
}

func (r *claimRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.SpotlightClaimRequest, error) {
	var claim entity.SpotlightClaimRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *claimRepository) Latest(ctx context.Context, userID, spotlightID uuid.UUID) (*entity.SpotlightClaimRequest, error) {
	var rows []entity.SpotlightClaimRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND spotlight_id = ?", userID, spotlightID).
		Order("created_at DESC").Order("id DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *claimRepository) List(ctx context.Context, status entity.ClaimStatus, offset, limit int) ([]entity.SpotlightClaimRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&entity.SpotlightClaimRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var claims []entity.SpotlightClaimRequest
	err := q.Order("created_at ASC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&claims).Error
	return claims, total, err
}

func (r *claimRepository) Transition(ctx context.Context, id uuid.UUID, status entity.ClaimStatus, reviewer uuid.UUID, note *string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.SpotlightClaimRequest{}).
		Where("id = ? AND status = ?", id, entity.ClaimPending).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_by": reviewer,
			"review_note": note,
			"reviewed_at": at,
			"updated_at":  at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *claimRepository) RecordOrphan(ctx context.Context, key, reason string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.OrphanEvidence{Key: key, Reason: reason}).Error
}

func (r *claimRepository) ListOrphans(ctx context.Context, limit int) ([]entity.OrphanEvidence, error) {
	var rows []entity.OrphanEvidence
	err := r.db.WithContext(ctx).Order("updated_at ASC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *claimRepository) DeleteOrphan(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.OrphanEvidence{}, id).Error
}

func (r *claimRepository) MarkOrphanAttempt(ctx context.Context, id uint, lastErr string) error {
	return r.db.WithContext(ctx).
		Model(&entity.OrphanEvidence{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": lastErr,
		}).Error
}
