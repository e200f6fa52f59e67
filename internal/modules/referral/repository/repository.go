package repository

import (
	"context"
	"fmt"

	"anoa.com/rewardshub/internal/entity"
	"anoa.com/rewardshub/pkg/apperror"
	"anoa.com/rewardshub/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReferralRepository interface {
	WithTx(tx *gorm.DB) ReferralRepository
	// FindByReferred returns nil when the user was never referred.
	FindByReferred(ctx context.Context, referredID uuid.UUID) (*entity.ReferralApplication, error)
	Create(ctx context.Context, app *entity.ReferralApplication) error
	CountByReferrer(ctx context.Context, referrerID uuid.UUID) (int64, error)
}

type referralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) ReferralRepository {
	return &referralRepository{db: db}
}

func (r *referralRepository) WithTx(tx *gorm.DB) ReferralRepository {
	return &referralRepository{db: tx}
}

func (r *referralRepository) FindByReferred(ctx context.Context, referredID uuid.UUID) (*entity.ReferralApplication, error) {
	var apps []entity.ReferralApplication
	err := r.db.WithContext(ctx).
		Where("referred_user_id = ?", referredID).
		Limit(1).
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	if len(apps) == 0 {
		return nil, nil
	}
	return &apps[0], nil
}

func (r *referralRepository) Create(ctx context.Context, app *entity.ReferralApplication) error {
	err := r.db.WithContext(ctx).Create(app).Error
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: referral for %s: %w", apperror.ErrConstraintConflict, app.ReferredUserID, err)
	}
	return err
}

func (r *referralRepository) CountByReferrer(ctx context.Context, referrerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.ReferralApplication{}).
		Where("referrer_user_id = ?", referrerID).
		Count(&count).Error
	return count, err
}
