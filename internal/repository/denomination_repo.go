package repository

import (
	"context"

	"cashdesk/internal/model"

	"gorm.io/gorm"
)

type DenominationRepository interface {
	// ListByCurrency returns every denomination of the currency, inactive
	// ones included, ordered for display.
	ListByCurrency(ctx context.Context, currency string) ([]model.Denomination, error)
}

type denominationRepo struct{ db *gorm.DB }

func NewDenominationRepository(db *gorm.DB) DenominationRepository {
	return &denominationRepo{db: db}
}

func (r *denominationRepo) ListByCurrency(ctx context.Context, currency string) ([]model.Denomination, error) {
	var out []model.Denomination
	err := r.db.WithContext(ctx).
		Where("currency_code = ?", currency).
		Order("sort_order ASC").Order("value DESC").
		Find(&out).Error
	return out, err
}
