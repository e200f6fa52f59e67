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

type CheckinRepository interface {
	WithTx(tx *gorm.DB) CheckinRepository
	Exists(ctx context.Context, userID uuid.UUID, date string) (bool, error)
	// Create inserts the guard row. A second row for the same day fails with
	// apperror.ErrConstraintConflict.
	Create(ctx context.Context, checkin *entity.DailyCheckin) error
	// ListDates returns the user's check-in days on or after since, newest first.
	// An empty since returns every day.
	ListDates(ctx context.Context, userID uuid.UUID, since string) ([]string, error)
}

type checkinRepository struct {
	db *gorm.DB
}

func NewCheckinRepository(db *gorm.DB) CheckinRepository {
	return &checkinRepository{db: db}
}

func (r *checkinRepository) WithTx(tx *gorm.DB) CheckinRepository {
	return &checkinRepository{db: tx}
}

func (r *checkinRepository) Exists(ctx context.Context, userID uuid.UUID, date string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.DailyCheckin{}).
		Where("user_id = ? AND checkin_date = ?", userID, date).
		Count(&count).Error
	return count > 0, err
}

func (r *checkinRepository) Create(ctx context.Context, checkin *entity.DailyCheckin) error {
	err := r.db.WithContext(ctx).Create(checkin).Error
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: checkin %s: %w", apperror.ErrConstraintConflict, checkin.CheckinDate, err)
	}
	return err
}

func (r *checkinRepository) ListDates(ctx context.Context, userID uuid.UUID, since string) ([]string, error) {
	q := r.db.WithContext(ctx).
		Model(&entity.DailyCheckin{}).
		Where("user_id = ?", userID)
	if since != "" {
		q = q.Where("checkin_date >= ?", since)
	}

	var dates []string
	err := q.Order("checkin_date DESC").Pluck("checkin_date", &dates).Error
	return dates, err
}
