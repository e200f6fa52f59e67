package repository

import (
	"context"
	"errors"

	"anoa.com/rewardshub/internal/entity"
	"anoa.com/rewardshub/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SpotlightRepository interface {
	Create(ctx context.Context, spotlight *entity.SpotlightCandidate) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.SpotlightCandidate, error)
	// FindActive returns the most recently created active spotlight, or nil.
	FindActive(ctx context.Context) (*entity.SpotlightCandidate, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type spotlightRepository struct {
	db *gorm.DB
}

func NewSpotlightRepository(db *gorm.DB) SpotlightRepository {
	return &spotlightRepository{db: db}
}

func (r *spotlightRepository) Create(ctx context.Context, spotlight *entity.SpotlightCandidate) error {
	return r.db.WithContext(ctx).Create(spotlight).Error
}

func (r *spotlightRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.SpotlightCandidate, error) {
	var spotlight entity.SpotlightCandidate
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&spotlight).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &spotlight, nil
}

func (r *spotlightRepository) FindActive(ctx context.Context) (*entity.SpotlightCandidate, error) {
	var rows []entity.SpotlightCandidate
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
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

func (r *spotlightRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&entity.SpotlightCandidate{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}
