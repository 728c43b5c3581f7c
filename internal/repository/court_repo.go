package repository

import (
	"context"

	"courtbooking/internal/domain"

	"gorm.io/gorm"
)

type CourtRepository struct {
	db *gorm.DB
}

func NewCourtRepository(db *gorm.DB) *CourtRepository {
	return &CourtRepository{db: db}
}

func (r *CourtRepository) Create(ctx context.Context, c *domain.Court) error {
	return conn(ctx, r.db).Create(c).Error
}

func (r *CourtRepository) GetByID(ctx context.Context, id int64) (*domain.Court, error) {
	var c domain.Court
	if err := conn(ctx, r.db).First(&c, id).Error; err != nil {
		return nil, notFound(err, "court", id)
	}
	return &c, nil
}

func (r *CourtRepository) ListActive(ctx context.Context) ([]domain.Court, error) {
	var out []domain.Court
	err := conn(ctx, r.db).Where("is_active = ?", true).Order("id").Find(&out).Error
	return out, err
}
